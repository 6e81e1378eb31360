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

package stream

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asmsh/eventual/exec"
)

// derive builds an operator node of another value type over src: a new
// node fed by a next-handler registered on src, with errors and
// completion forwarded as-is, and the node's parent token set to the
// three registrations, so chain teardown can release them.
func derive[T, U any](src *Observer[T], fn func(node *Observer[U], val T), on ...exec.Executor) *Observer[U] {
	if src == nil {
		panic(nilSourcePanicMsg)
	}
	node := &Observer[U]{}
	ns := src.OnNext(func(v T) { fn(node, v) }, on...)
	es := src.OnError(node.fail)
	fs := src.OnFinish(node.finish)
	node.setParent(joinSubs(ns, es, fs))
	return node
}

// Map returns a node emitting fn's transformation of every source value.
//
// It will panic if src or fn is nil.
func Map[T, U any](src *Observer[T], fn func(val T) U, on ...exec.Executor) *Observer[U] {
	if fn == nil {
		panic(nilHandlerPanicMsg)
	}
	return derive(src, func(node *Observer[U], v T) {
		node.emit(fn(v))
	}, on...)
}

// CompactMap is Map for partial transforms: values for which fn reports
// false are dropped.
//
// It will panic if src or fn is nil.
func CompactMap[T, U any](src *Observer[T], fn func(val T) (U, bool), on ...exec.Executor) *Observer[U] {
	if fn == nil {
		panic(nilHandlerPanicMsg)
	}
	return derive(src, func(node *Observer[U], v T) {
		if u, ok := fn(v); ok {
			node.emit(u)
		}
	}, on...)
}

// Distinct returns a node that suppresses a value equal to the
// immediately preceding emitted value. The first value seen is always
// emitted.
//
// It will panic if src is nil.
func Distinct[T comparable](src *Observer[T], on ...exec.Executor) *Observer[T] {
	var mu sync.Mutex
	var last T
	var seen bool
	return derive(src, func(node *Observer[T], v T) {
		mu.Lock()
		if seen && last == v {
			mu.Unlock()
			return
		}
		seen = true
		last = v
		mu.Unlock()
		node.emit(v)
	}, on...)
}

// Filter returns a node emitting only the source values pred accepts.
//
// It will panic if pred is nil.
func (o *Observer[T]) Filter(pred func(val T) bool, on ...exec.Executor) *Observer[T] {
	if pred == nil {
		panic(nilHandlerPanicMsg)
	}
	return derive(o, func(node *Observer[T], v T) {
		if pred(v) {
			node.emit(v)
		}
	}, on...)
}

// Skip returns a node that drops the first n source values, then passes
// the rest through.
//
// It will panic if n is negative.
func (o *Observer[T]) Skip(n int, on ...exec.Executor) *Observer[T] {
	if n < 0 {
		panic(fmt.Sprintf("stream: Skip requires n >= 0, got %d", n))
	}
	var seen atomic.Int64
	return derive(o, func(node *Observer[T], v T) {
		if seen.Add(1) <= int64(n) {
			return
		}
		node.emit(v)
	}, on...)
}

// Accumulate returns a node that maintains a sliding window of the most
// recent source values, trimmed from the front to at most limit entries,
// and emits a copy of the full window on every source emission.
//
// It is a package-level function rather than an Observer method because
// the Go compiler rejects a method on Observer[T] whose signature
// mentions Observer[[]T] (instantiation cycle).
//
// It will panic if src is nil or limit < 1.
func Accumulate[T any](src *Observer[T], limit int, on ...exec.Executor) *Observer[[]T] {
	if limit < 1 {
		panic(fmt.Sprintf("stream: Accumulate requires limit >= 1, got %d", limit))
	}
	var mu sync.Mutex
	var window []T
	return derive(src, func(node *Observer[[]T], v T) {
		mu.Lock()
		window = append(window, v)
		if len(window) > limit {
			window = window[len(window)-limit:]
		}
		snap := append([]T(nil), window...)
		mu.Unlock()
		node.emit(snap)
	}, on...)
}

// Debounce returns a node that delivers a source value only once d has
// passed with no newer value arriving: the classic trailing edge. Each
// emission cancels the previous pending delivery and schedules its own,
// on the passed executor, or on exec.Async() if none is passed.
//
// It will panic if d is not positive.
func (o *Observer[T]) Debounce(d time.Duration, on ...exec.Executor) *Observer[T] {
	if d <= 0 {
		panic(fmt.Sprintf("stream: Debounce requires a positive delay, got %v", d))
	}
	ex := pickExec(on)
	if ex == nil {
		ex = exec.Async()
	}

	// a pending delivery is "cancelled" by outdating its generation.
	var mu sync.Mutex
	var gen uint64
	return derive(o, func(node *Observer[T], v T) {
		mu.Lock()
		gen++
		g := gen
		mu.Unlock()
		ex.SubmitAfter(d, func() {
			mu.Lock()
			current := gen == g
			mu.Unlock()
			if current {
				node.emit(v)
			}
		})
	})
}
