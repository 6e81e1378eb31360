package eventual

import (
	"errors"
	"sync"
	"time"

	"github.com/asmsh/eventual/exec"
	"github.com/asmsh/eventual/internal/cell"
)

// slotState is the per-index fill state used by All.
//
// "Not settled yet" must stay distinguishable from "settled with the
// zero value", since T itself may be a pointer or other nil-able type.
type slotState int8

const (
	slotPending slotState = iota
	slotValue
	slotError
)

// All returns a promise that waits for every passed promise to settle.
//
// If all of them fulfill, it fulfills with their values in the original
// argument order, regardless of settlement order. If any of them reject,
// it rejects, once everything has settled, with the error of the
// lowest-index rejected promise. Errors of higher-index rejections are
// discarded.
//
// All of no promises fulfills immediately with an empty slice.
//
// It will panic if any of the passed promises is nil.
func All[T any](ps ...*Promise[T]) *Promise[[]T] {
	next := New[[]T]()
	if len(ps) == 0 {
		next.Fulfill([]T{})
		return next
	}

	var (
		mu        sync.Mutex
		states    = make([]slotState, len(ps))
		vals      = make([]T, len(ps))
		errs      = make([]error, len(ps))
		remaining = len(ps)
	)
	for i, p := range ps {
		if p == nil {
			panic(nilPromisePanicMsg)
		}
		i := i
		p.Observe(func(val T, err error) {
			mu.Lock()
			if err != nil {
				states[i] = slotError
				errs[i] = err
			} else {
				states[i] = slotValue
				vals[i] = val
			}
			remaining--
			done := remaining == 0
			mu.Unlock()
			if !done {
				return
			}

			for j, st := range states {
				if st == slotError {
					next.cell.TrySettle(cell.Outcome[[]T]{Err: errs[j]})
					return
				}
			}
			next.cell.TrySettle(cell.Outcome[[]T]{Val: vals})
		})
	}
	return next
}

// Any returns a promise that adopts the value of the first passed
// promise to fulfill. If every one of them rejects, it rejects with the
// joined errors, in argument order.
//
// Any of no promises rejects immediately with ErrNoPromises.
//
// It will panic if any of the passed promises is nil.
func Any[T any](ps ...*Promise[T]) *Promise[T] {
	next := New[T]()
	if len(ps) == 0 {
		next.RejectWith(ErrNoPromises)
		return next
	}

	var (
		mu        sync.Mutex
		errs      = make([]error, len(ps))
		remaining = len(ps)
	)
	for i, p := range ps {
		if p == nil {
			panic(nilPromisePanicMsg)
		}
		i := i
		p.Observe(func(val T, err error) {
			if err == nil {
				next.cell.TrySettle(cell.Outcome[T]{Val: val})
				return
			}
			mu.Lock()
			errs[i] = err
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				next.cell.TrySettle(cell.Outcome[T]{Err: errors.Join(errs...)})
			}
		})
	}
	return next
}

// Race returns a promise that adopts the outcome of the first passed
// promise to settle, fulfilled or rejected.
//
// Race of no promises rejects immediately with ErrNoPromises.
//
// It will panic if any of the passed promises is nil.
func Race[T any](ps ...*Promise[T]) *Promise[T] {
	next := New[T]()
	if len(ps) == 0 {
		next.RejectWith(ErrNoPromises)
		return next
	}

	for _, p := range ps {
		if p == nil {
			panic(nilPromisePanicMsg)
		}
		p.Observe(func(val T, err error) {
			next.cell.TrySettle(cell.Outcome[T]{Val: val, Err: err})
		})
	}
	return next
}

// Delay returns a promise that settles with p's outcome, a duration d
// after p settles. The delay is scheduled on the passed executor, or on
// exec.Async() if none is passed.
//
// It will panic if p is nil.
func Delay[T any](p *Promise[T], d time.Duration, on ...exec.Executor) *Promise[T] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	next := New[T]()
	ex := pickExec(on)
	if ex == nil {
		ex = exec.Async()
	}
	p.Observe(func(val T, err error) {
		ex.SubmitAfter(d, func() {
			next.cell.TrySettle(cell.Outcome[T]{Val: val, Err: err})
		})
	})
	return next
}
