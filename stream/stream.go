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

// Package stream provides a multicast reactive stream: an Observer node
// that fans values out to its subscribers, an Observable that adds the
// write API on top of it, and an operator chain (Map, Filter, Debounce,
// Combine, ...) built by deriving nodes from a source.
//
// Delivery Notes:-
//
// * A node is open until its producer calls Fail or Finish; both are
// terminal, and a terminal node ignores every further Next/Fail/Finish.
//
// * Values emitted while a node has never had a next-handler are
// buffered, and replayed, in order, when the first next-handler
// registers. The buffer is then gone for good: later values are
// delivered live, or dropped if every handler has unlinked. The
// buffering is a one-shot cold-start behavior, not replay.
//
// * Handlers run inline on the emitting goroutine, or on the
// exec.Executor passed at registration. Emission order across handlers
// follows registration order.
//
// * A node's internal state is protected against concurrent
// registration, emission, and teardown, but the relative order of
// emissions from concurrent producers is the producers' to serialize,
// typically by sharing an exec.Serial.
package stream

import (
	"sync"

	"github.com/asmsh/eventual/exec"
)

// panic messages
const (
	nilHandlerPanicMsg = "stream: the provided handler is nil"
	nilErrorPanicMsg   = "stream: the provided error is nil"
	nilSourcePanicMsg  = "stream: the provided source node is nil"
)

type nodeState int8

const (
	open nodeState = iota
	completed
	failed
)

// handler is one registered callback, with the executor its body runs on
// (nil for inline).
type handler[T any] struct {
	id int
	fn func(T)
	ex exec.Executor
}

func (h handler[T]) dispatch(v T) {
	if h.ex == nil {
		h.fn(v)
		return
	}
	h.ex.Submit(func() { h.fn(v) })
}

// Observer is a multicast stream node: the read side of a stream.
//
// Consumers register handlers through OnNext, OnError, and OnFinish, and
// derive transformed nodes through the operator methods and the
// package-level operator functions. An Observer held without its
// Observable wrapper can't be written to.
//
// The zero value is a usable, open, source-less node, though nodes are
// normally created through NewObservable, NewStateful, or an operator.
type Observer[T any] struct {
	// mu guards everything below. It's never held while a handler runs.
	mu     sync.Mutex
	state  nodeState
	ferr   error
	nextID int

	nexts  []handler[T]
	errs   []handler[error]
	fins   []handler[struct{}]

	// cold-start buffer; only filled before the first OnNext ever.
	buffer []T
	live   bool

	// last-value replay, only for nodes made by NewStateful.
	stateful bool
	last     T
	hasLast  bool

	// the node's own subscription to the node it was derived from.
	// Unlinked when the last next-handler detaches, tearing the chain
	// down from the leaf upward. Data never flows through it.
	parent *Subscription
}

// OnNext registers fn to receive every value the node emits while open,
// in registration order relative to other handlers.
//
// The first OnNext call on a node drains the cold-start buffer: every
// value emitted before it is delivered to fn, in emission order, before
// any live value. On a stateful node, later OnNext calls receive the
// most recent value instead.
//
// The returned Subscription detaches fn; see Subscription.Unlink.
//
// It will panic if fn is nil.
func (o *Observer[T]) OnNext(fn func(val T), on ...exec.Executor) *Subscription {
	if fn == nil {
		panic(nilHandlerPanicMsg)
	}
	h := handler[T]{fn: fn, ex: pickExec(on)}

	o.mu.Lock()
	h.id = o.nextID
	o.nextID++
	o.nexts = append(o.nexts, h)
	var replay []T
	if !o.live {
		o.live = true
		replay = o.buffer
		o.buffer = nil
	} else if o.stateful && o.hasLast {
		replay = []T{o.last}
	}
	o.mu.Unlock()

	for _, v := range replay {
		h.dispatch(v)
	}
	return newSubscription(func() { o.removeNext(h.id) })
}

// OnError registers fn to receive the node's terminal error, if it ends
// up failed. If the node has already failed, fn fires immediately.
//
// It will panic if fn is nil.
func (o *Observer[T]) OnError(fn func(err error), on ...exec.Executor) *Subscription {
	if fn == nil {
		panic(nilHandlerPanicMsg)
	}
	h := handler[error]{fn: fn, ex: pickExec(on)}

	o.mu.Lock()
	if o.state == failed {
		err := o.ferr
		o.mu.Unlock()
		h.dispatch(err)
		return newSubscription(func() {})
	}
	h.id = o.nextID
	o.nextID++
	o.errs = append(o.errs, h)
	o.mu.Unlock()

	return newSubscription(func() { o.removeErr(h.id) })
}

// OnFinish registers fn to run once, if the node completes normally.
// If the node has already completed, fn fires immediately.
//
// It will panic if fn is nil.
func (o *Observer[T]) OnFinish(fn func(), on ...exec.Executor) *Subscription {
	if fn == nil {
		panic(nilHandlerPanicMsg)
	}
	h := handler[struct{}]{fn: func(struct{}) { fn() }, ex: pickExec(on)}

	o.mu.Lock()
	if o.state == completed {
		o.mu.Unlock()
		h.dispatch(struct{}{})
		return newSubscription(func() {})
	}
	h.id = o.nextID
	o.nextID++
	o.fins = append(o.fins, h)
	o.mu.Unlock()

	return newSubscription(func() { o.removeFin(h.id) })
}

// emit delivers v to every registered next-handler, or buffers it if the
// node has never had one. No-op on a terminal node.
func (o *Observer[T]) emit(v T) {
	o.mu.Lock()
	if o.state != open {
		o.mu.Unlock()
		return
	}
	if o.stateful {
		o.last = v
		o.hasLast = true
	}
	if !o.live {
		o.buffer = append(o.buffer, v)
		o.mu.Unlock()
		return
	}
	hs := append([]handler[T](nil), o.nexts...)
	o.mu.Unlock()

	for _, h := range hs {
		h.dispatch(v)
	}
}

// fail transitions the node to its failed terminal state and fires the
// error handlers once. No-op on a terminal node.
func (o *Observer[T]) fail(err error) {
	if err == nil {
		panic(nilErrorPanicMsg)
	}
	o.mu.Lock()
	if o.state != open {
		o.mu.Unlock()
		return
	}
	o.state = failed
	o.ferr = err
	hs := o.errs
	o.errs = nil
	o.fins = nil
	o.mu.Unlock()

	for _, h := range hs {
		h.dispatch(err)
	}
}

// finish transitions the node to its completed terminal state and fires
// the finish handlers once. No-op on a terminal node.
func (o *Observer[T]) finish() {
	o.mu.Lock()
	if o.state != open {
		o.mu.Unlock()
		return
	}
	o.state = completed
	hs := o.fins
	o.fins = nil
	o.errs = nil
	o.mu.Unlock()

	for _, h := range hs {
		h.dispatch(struct{}{})
	}
}

// State accessors, mostly useful in tests of stream-producing code.

// Completed reports whether the node finished normally.
func (o *Observer[T]) Completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == completed
}

// Failed returns the node's terminal error, or nil while it hasn't
// failed.
func (o *Observer[T]) Failed() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ferr
}

func (o *Observer[T]) setParent(s *Subscription) {
	o.mu.Lock()
	o.parent = s
	o.mu.Unlock()
}

// handlerCount returns the number of registered next-handlers.
func (o *Observer[T]) handlerCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.nexts)
}

func (o *Observer[T]) removeNext(id int) {
	o.mu.Lock()
	for i, h := range o.nexts {
		if h.id == id {
			o.nexts = append(o.nexts[:i], o.nexts[i+1:]...)
			break
		}
	}
	// dropping the last consumer releases this node's hold on its
	// upstream chain.
	var parent *Subscription
	if len(o.nexts) == 0 && o.parent != nil {
		parent = o.parent
		o.parent = nil
	}
	o.mu.Unlock()

	if parent != nil {
		parent.Unlink()
	}
}

func (o *Observer[T]) removeErr(id int) {
	o.mu.Lock()
	for i, h := range o.errs {
		if h.id == id {
			o.errs = append(o.errs[:i], o.errs[i+1:]...)
			break
		}
	}
	o.mu.Unlock()
}

func (o *Observer[T]) removeFin(id int) {
	o.mu.Lock()
	for i, h := range o.fins {
		if h.id == id {
			o.fins = append(o.fins[:i], o.fins[i+1:]...)
			break
		}
	}
	o.mu.Unlock()
}

// Observable is the writable view of an Observer. Producers hold the
// Observable; handing out only its embedded Observer keeps the stream
// read-only to consumers. External event adapters feed streams solely
// through this API.
type Observable[T any] struct {
	*Observer[T]
}

// NewObservable returns a new open stream node. Each initial value, if
// any, is emitted immediately, which on a fresh node means it lands in
// the cold-start buffer.
func NewObservable[T any](initial ...T) *Observable[T] {
	o := &Observable[T]{Observer: &Observer[T]{}}
	for _, v := range initial {
		o.Next(v)
	}
	return o
}

// NewStateful returns a stream node that, in addition to the normal
// delivery rules, replays the most recently emitted value to every newly
// registered next-handler.
func NewStateful[T any](initial ...T) *Observable[T] {
	o := &Observable[T]{Observer: &Observer[T]{stateful: true}}
	for _, v := range initial {
		o.Next(v)
	}
	return o
}

// Next emits val to the node's subscribers, or into the cold-start
// buffer. No-op once the node is terminal.
func (o *Observable[T]) Next(val T) { o.emit(val) }

// Fail moves the node to its failed terminal state with err.
// No-op once the node is terminal. It will panic if err is nil.
func (o *Observable[T]) Fail(err error) { o.fail(err) }

// Finish moves the node to its completed terminal state.
// No-op once the node is terminal.
func (o *Observable[T]) Finish() { o.finish() }

func pickExec(on []exec.Executor) exec.Executor {
	if len(on) == 0 {
		return nil
	}
	return on[0]
}
