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

// Package cell implements the single-assignment settlement cell that the
// promise type is built on.
//
// A Cell starts unset and transitions, at most once, to settled. The first
// TrySettle call wins; every later call is a no-op. Observers registered
// before settlement are queued and invoked, in registration order, by the
// settling goroutine. Observers registered after settlement are invoked
// immediately on the registering goroutine, before Observe returns.
package cell

import "sync"

// closedChan is a pre-closed channel shared by all cells constructed in
// the settled state, so they don't each allocate one.
var closedChan = make(chan struct{})

func init() {
	close(closedChan)
}

// Outcome is the final result of a cell: a value, or an error.
// A nil Err means success.
type Outcome[T any] struct {
	Val T
	Err error
}

// Failed reports whether this Outcome carries an error.
func (o Outcome[T]) Failed() bool { return o.Err != nil }

// Cell is a thread-safe single-assignment container.
//
// The zero value is not usable. Use New or Settled.
type Cell[T any] struct {
	// mu guards only the settle-or-enqueue race below. It is never held
	// while an observer runs, as an observer may itself settle or observe
	// other cells.
	mu      sync.Mutex
	settled bool
	out     Outcome[T]
	pending []func(Outcome[T])

	// closed after out is stored, while mu is still held, so a receiver
	// of done may read the outcome through Get without racing.
	done chan struct{}
}

// New returns an unset Cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Settled returns a Cell already settled to out.
func Settled[T any](out Outcome[T]) *Cell[T] {
	return &Cell[T]{settled: true, out: out, done: closedChan}
}

// TrySettle sets the cell's outcome if it's still unset, and reports
// whether this call was the one that settled it.
//
// On a winning call, every pending observer is invoked with the outcome,
// in registration order, on the calling goroutine, before TrySettle
// returns. A losing call returns false and has no other effect.
func (c *Cell[T]) TrySettle(out Outcome[T]) bool {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return false
	}
	c.settled = true
	c.out = out
	observers := c.pending
	c.pending = nil
	close(c.done)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(out)
	}
	return true
}

// Observe registers fn to be called with the cell's outcome.
//
// If the cell is already settled, fn runs immediately on the calling
// goroutine, before Observe returns. Otherwise it's queued, and will run
// on whichever goroutine wins the TrySettle race. Either way, fn runs
// exactly once.
func (c *Cell[T]) Observe(fn func(Outcome[T])) {
	c.mu.Lock()
	if !c.settled {
		c.pending = append(c.pending, fn)
		c.mu.Unlock()
		return
	}
	out := c.out
	c.mu.Unlock()
	fn(out)
}

// Settled reports whether the cell has been settled.
func (c *Cell[T]) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Get returns the cell's outcome, and whether it's settled yet.
func (c *Cell[T]) Get() (Outcome[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out, c.settled
}

// Done returns a channel that's closed once the cell is settled.
// After a receive from it, Get is guaranteed to return the outcome.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}
