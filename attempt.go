package eventual

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/asmsh/eventual/exec"
	"github.com/asmsh/eventual/internal/cell"
)

// Attempt runs fn up to tries times, and returns a promise resolved with
// the first successful attempt's value, or with the last attempt's error
// once the budget is exhausted. Errors of earlier attempts are discarded.
//
// fn is called with the 1-based attempt index. After a failed attempt i,
// for i < tries, the next attempt is scheduled after intervals[i-1], so
// intervals must hold exactly tries-1 entries. The whole run, including
// the first attempt, happens on the passed executor, or on exec.Async()
// if none is passed; Attempt itself never blocks.
//
// A panic inside fn counts as a failed attempt, with a *PanicError.
//
// It will panic if fn is nil, tries < 1, or len(intervals) != tries-1.
func Attempt[T any](
	tries int,
	intervals []time.Duration,
	fn func(attempt int) (T, error),
	on ...exec.Executor,
) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if tries < 1 {
		panic(fmt.Sprintf("eventual: Attempt requires tries >= 1, got %d", tries))
	}
	if len(intervals) != tries-1 {
		panic(fmt.Sprintf(
			"eventual: Attempt requires len(intervals) == tries-1, got %d and %d",
			len(intervals), tries))
	}

	next := New[T]()
	ex := pickExec(on)
	if ex == nil {
		ex = exec.Async()
	}

	var run func(attempt int)
	run = func(attempt int) {
		out := pcall(func() (T, error) { return fn(attempt) })
		if out.Err == nil || attempt == tries {
			next.cell.TrySettle(out)
			return
		}
		ex.SubmitAfter(intervals[attempt-1], func() { run(attempt + 1) })
	}
	ex.Submit(func() { run(1) })
	return next
}

// AttemptPromise is the flattening variant of Attempt: each attempt
// produces a promise, and an attempt counts as failed when its promise
// rejects (or fn panics, or returns a nil promise).
//
// It will panic under the same conditions as Attempt.
func AttemptPromise[T any](
	tries int,
	intervals []time.Duration,
	fn func(attempt int) *Promise[T],
	on ...exec.Executor,
) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if tries < 1 {
		panic(fmt.Sprintf("eventual: AttemptPromise requires tries >= 1, got %d", tries))
	}
	if len(intervals) != tries-1 {
		panic(fmt.Sprintf(
			"eventual: AttemptPromise requires len(intervals) == tries-1, got %d and %d",
			len(intervals), tries))
	}

	next := New[T]()
	ex := pickExec(on)
	if ex == nil {
		ex = exec.Async()
	}

	var run func(attempt int)
	retry := func(attempt int, err error) {
		if attempt == tries {
			next.cell.TrySettle(cell.Outcome[T]{Err: err})
			return
		}
		ex.SubmitAfter(intervals[attempt-1], func() { run(attempt + 1) })
	}
	run = func(attempt int) {
		var inner *Promise[T]
		caught := func() (caught bool) {
			defer func() {
				if v := recover(); v != nil {
					caught = true
					retry(attempt, &PanicError{V: v})
				}
			}()
			inner = fn(attempt)
			return false
		}()
		if caught {
			return
		}
		if inner == nil {
			retry(attempt, ErrNilPromise)
			return
		}
		inner.Observe(func(val T, err error) {
			if err == nil {
				next.cell.TrySettle(cell.Outcome[T]{Val: val})
				return
			}
			retry(attempt, err)
		})
	}
	ex.Submit(func() { run(1) })
	return next
}

// AttemptBackoff is Attempt with the retry delays, and the retry budget,
// driven by a backoff policy instead of a fixed interval list. The policy
// is Reset once at the start; retrying stops, with the last attempt's
// error, when it returns backoff.Stop.
//
// It will panic if b or fn is nil.
func AttemptBackoff[T any](
	b backoff.BackOff,
	fn func(attempt int) (T, error),
	on ...exec.Executor,
) *Promise[T] {
	if b == nil {
		panic("eventual: the provided backoff policy is nil")
	}
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}

	next := New[T]()
	ex := pickExec(on)
	if ex == nil {
		ex = exec.Async()
	}
	b.Reset()

	var run func(attempt int)
	run = func(attempt int) {
		out := pcall(func() (T, error) { return fn(attempt) })
		if out.Err == nil {
			next.cell.TrySettle(out)
			return
		}
		d := b.NextBackOff()
		if d == backoff.Stop {
			next.cell.TrySettle(out)
			return
		}
		ex.SubmitAfter(d, func() { run(attempt + 1) })
	}
	ex.Submit(func() { run(1) })
	return next
}
