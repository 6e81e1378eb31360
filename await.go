// Copyright 2025 Ahmad Sameh(asmsh)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eventual

import "context"

// Await blocks the calling goroutine until p settles, then returns its
// value or its error.
//
// The promise must be resolvable from another goroutine. Awaiting a
// promise that only the calling goroutine could ever settle deadlocks;
// that's the caller's hazard to avoid, not one Await guards against.
//
// It will panic if p is nil.
func Await[T any](p *Promise[T]) (T, error) {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	<-p.Done()
	return p.res()
}

// AwaitContext is Await with a way out: it returns early, with ctx's
// error, if ctx is done before p settles. The promise itself is not
// cancelled, as there is no cancelling an in-flight producer; its result
// is simply no longer waited for.
//
// It's a thin bridge over the same settlement signal Observe uses, so
// both call sites see identical semantics.
//
// It will panic if p is nil.
func AwaitContext[T any](ctx context.Context, p *Promise[T]) (T, error) {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	select {
	case <-p.Done():
		return p.res()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
