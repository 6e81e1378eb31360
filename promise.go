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

// Promise represents the eventual result of some work: a value of type T,
// or an error.
//
// A Promise exposes both sides of that contract. The producer side is
// Fulfill and RejectWith. The consumer side is Observe, the chain
// operators (Then, Catch, MapError, Finally), and the package-level
// combinators, all of which deliver the outcome at most once per
// registered handler.
//
// The zero value is not usable. Use New, Resolve, Reject, Go, or Defer.
type Promise[T any] struct {
	cell *cell.Cell[T]
}

// New returns a pending Promise, to be settled later through Fulfill or
// RejectWith.
func New[T any]() *Promise[T] {
	return &Promise[T]{cell: cell.New[T]()}
}

// Resolve returns a Promise already fulfilled with val.
func Resolve[T any](val T) *Promise[T] {
	return &Promise[T]{cell: cell.Settled(cell.Outcome[T]{Val: val})}
}

// Reject returns a Promise already rejected with err.
//
// It will panic if err is nil.
func Reject[T any](err error) *Promise[T] {
	if err == nil {
		panic(nilErrorPanicMsg)
	}
	return &Promise[T]{cell: cell.Settled(cell.Outcome[T]{Err: err})}
}

// Go runs fn on its own goroutine, and returns a Promise that will be
// fulfilled with fn's value, or rejected with its error.
//
// If fn panics, the panic is captured and the Promise is rejected with a
// *PanicError wrapping the panic value.
//
// It will panic if fn is nil.
func Go[T any](fn func() (T, error)) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	p := New[T]()
	go func() {
		p.cell.TrySettle(pcall(fn))
	}()
	return p
}

// Defer calls fn synchronously with the two producer callbacks of a new
// Promise, and returns that Promise. fn typically wires fulfill/reject
// into some callback-based API and returns; either callback may be
// called later, from any goroutine. The first call wins.
//
// If fn itself panics before returning, the Promise is rejected with a
// *PanicError wrapping the panic value.
//
// It will panic if fn is nil.
func Defer[T any](fn func(fulfill func(T), reject func(error))) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	p := New[T]()
	func() {
		defer func() {
			if v := recover(); v != nil {
				p.cell.TrySettle(cell.Outcome[T]{Err: &PanicError{V: v}})
			}
		}()
		fn(
			func(val T) { p.Fulfill(val) },
			func(err error) { p.RejectWith(err) },
		)
	}()
	return p
}

// Fulfill settles the promise with val, and reports whether this call
// was the one that settled it. On an already-settled promise it's a
// no-op.
func (p *Promise[T]) Fulfill(val T) bool {
	return p.cell.TrySettle(cell.Outcome[T]{Val: val})
}

// RejectWith settles the promise with err, and reports whether this call
// was the one that settled it. On an already-settled promise it's a
// no-op.
//
// It will panic if err is nil.
func (p *Promise[T]) RejectWith(err error) bool {
	if err == nil {
		panic(nilErrorPanicMsg)
	}
	return p.cell.TrySettle(cell.Outcome[T]{Err: err})
}

// Observe registers fn to receive the promise's outcome, exactly once.
// On success err is nil; on failure val is the zero value of T.
//
// If the promise is already settled and no executor is passed, fn runs
// on the calling goroutine, before Observe returns. Otherwise it runs on
// the settling goroutine, or on the provided executor.
//
// It will panic if fn is nil.
func (p *Promise[T]) Observe(fn func(val T, err error), on ...exec.Executor) {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	ex := pickExec(on)
	p.cell.Observe(func(out cell.Outcome[T]) {
		if ex == nil {
			fn(out.Val, out.Err)
			return
		}
		ex.Submit(func() { fn(out.Val, out.Err) })
	})
}

// Settled reports whether the promise has been settled yet.
func (p *Promise[T]) Settled() bool {
	return p.cell.Settled()
}

// State returns the promise's current state.
func (p *Promise[T]) State() State {
	out, settled := p.cell.Get()
	switch {
	case !settled:
		return Pending
	case out.Failed():
		return Rejected
	default:
		return Fulfilled
	}
}

// Done returns a channel that's closed once the promise is settled.
// It's the low-level form of the blocking bridges Await and AwaitContext.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.cell.Done()
}

// res returns the settled outcome. Don't call it unless Done is known
// to be closed.
func (p *Promise[T]) res() (T, error) {
	out, _ := p.cell.Get()
	return out.Val, out.Err
}

// pickExec returns the optional executor of an operator call, or nil
// for inline execution.
func pickExec(on []exec.Executor) exec.Executor {
	if len(on) == 0 {
		return nil
	}
	return on[0]
}

// pcall runs fn, converting a normal return into an outcome and a panic
// into a *PanicError rejection.
func pcall[T any](fn func() (T, error)) (out cell.Outcome[T]) {
	defer func() {
		if v := recover(); v != nil {
			out = cell.Outcome[T]{Err: &PanicError{V: v}}
		}
	}()
	val, err := fn()
	return cell.Outcome[T]{Val: val, Err: err}
}
