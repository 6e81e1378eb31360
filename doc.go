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

// Package eventual provides a single-assignment Promise with chainable
// continuations, and the combinators needed to compose promises into
// computation pipelines.
//
// Besides the promise core, the module carries a multicast reactive
// stream built on the same settlement discipline, in the sub-package
// stream, and the execution-context abstraction both share, in the
// sub-package exec.
//
// A Promise has three states, and it can be in only one of them, at any
// time:
// Pending: the work that corresponds to this Promise has not finished.
// Fulfilled: the work finished and produced a value.
// Rejected: the work finished and produced an error.
//
// Fulfilled and Rejected are together called settled. Settling is
// one-way and one-time: the first Fulfill or RejectWith call wins, and
// every later producer call is silently dropped, not reported.
//
// Callback Notes:-
//
// * Handlers attached to a settled Promise run immediately, on the
// registering goroutine, before the attaching call returns.
//
// * Handlers attached to a pending Promise run, in registration order,
// on the goroutine that settles it.
//
// * Passing an exec.Executor to any operator moves the handler body onto
// that executor instead. Both registration orders converge on the same
// observable behavior: the handler runs exactly once, with the final
// outcome.
//
// * A panic inside a transforming handler never escapes the chain; it's
// caught and converted into a rejection of the derived promise, carrying
// a *PanicError.
//
// * An error reaching the end of a chain with no Catch attached is
// simply never observed. The package does no logging of its own; attach
// a Catch if the error matters.
package eventual
