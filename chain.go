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

import (
	"github.com/asmsh/eventual/exec"
	"github.com/asmsh/eventual/internal/cell"
)

// Then registers fn to run with the promise's value, if it's fulfilled,
// and returns the same promise, so further Then/Catch calls still see
// the original outcome. It's a side-effect tap; it can't alter what
// propagates down the chain.
//
// To derive a new value or a new error from the outcome, use the
// package-level Then, ThenPromise, or MapError.
//
// It will panic if fn is nil.
func (p *Promise[T]) Then(fn func(val T), on ...exec.Executor) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	p.Observe(func(val T, err error) {
		if err == nil {
			fn(val)
		}
	}, on...)
	return p
}

// Catch registers fn to run with the promise's error, if it's rejected,
// and returns the same promise. The error is not consumed: a following
// Catch or Observe still sees the original rejection.
//
// It will panic if fn is nil.
func (p *Promise[T]) Catch(fn func(err error), on ...exec.Executor) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	p.Observe(func(_ T, err error) {
		if err != nil {
			fn(err)
		}
	}, on...)
	return p
}

// Finally registers fn to run exactly once when the promise settles,
// whatever the outcome. It's terminal: it returns nothing, and can't
// alter the outcome.
//
// It will panic if fn is nil.
func (p *Promise[T]) Finally(fn func(), on ...exec.Executor) {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	p.Observe(func(T, error) { fn() }, on...)
}

// MapError returns a new promise that carries this promise's value
// unchanged on success, or fn's transformation of its error on failure.
//
// If fn returns nil, the original error is kept. If fn panics, the
// derived promise is rejected with a *PanicError.
//
// It will panic if fn is nil.
func (p *Promise[T]) MapError(fn func(err error) error, on ...exec.Executor) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	next := New[T]()
	p.Observe(func(val T, err error) {
		if err == nil {
			next.cell.TrySettle(cell.Outcome[T]{Val: val})
			return
		}
		out := pcall(func() (T, error) {
			if mapped := fn(err); mapped != nil {
				return *new(T), mapped
			}
			return *new(T), err
		})
		next.cell.TrySettle(out)
	}, on...)
	return next
}

// Then returns a new promise resolved with fn's transformation of p's
// value. An error returned from fn, or a panic inside it, rejects the
// derived promise; a rejection of p propagates to it untransformed,
// without running fn.
//
// It will panic if p or fn is nil.
func Then[T, U any](p *Promise[T], fn func(val T) (U, error), on ...exec.Executor) *Promise[U] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	next := New[U]()
	p.Observe(func(val T, err error) {
		if err != nil {
			next.cell.TrySettle(cell.Outcome[U]{Err: err})
			return
		}
		next.cell.TrySettle(pcall(func() (U, error) { return fn(val) }))
	}, on...)
	return next
}

// ThenPromise is the flattening variant of Then: fn returns a promise,
// and the derived promise adopts that promise's eventual outcome.
//
// A panic inside fn rejects the derived promise with a *PanicError; a
// nil promise returned from fn rejects it with ErrNilPromise; a
// rejection of p propagates untransformed, without running fn.
//
// It will panic if p or fn is nil.
func ThenPromise[T, U any](p *Promise[T], fn func(val T) *Promise[U], on ...exec.Executor) *Promise[U] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	next := New[U]()
	p.Observe(func(val T, err error) {
		if err != nil {
			next.cell.TrySettle(cell.Outcome[U]{Err: err})
			return
		}
		var inner *Promise[U]
		caught := func() (caught bool) {
			defer func() {
				if v := recover(); v != nil {
					caught = true
					next.cell.TrySettle(cell.Outcome[U]{Err: &PanicError{V: v}})
				}
			}()
			inner = fn(val)
			return false
		}()
		if caught {
			return
		}
		if inner == nil {
			next.cell.TrySettle(cell.Outcome[U]{Err: ErrNilPromise})
			return
		}
		inner.Observe(func(val U, err error) {
			next.cell.TrySettle(cell.Outcome[U]{Val: val, Err: err})
		})
	}, on...)
	return next
}
