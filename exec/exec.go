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

// Package exec holds the execution-context abstraction used across the
// module, and a few stock implementations of it.
//
// Every promise operator and stream handler accepts an optional Executor
// that decides where the handler body runs. Absent one, handlers run
// inline on the goroutine that triggered the settlement or emission (or
// on the registering goroutine, if the source was already settled or
// terminal at registration time).
//
// Executors are passed explicitly, never picked up from package-level
// state, so tests can substitute a deterministic one (see Manual).
package exec

import (
	"sync"
	"time"
)

// Executor runs units of work on behalf of promise and stream handlers.
type Executor interface {
	// Submit runs task, possibly asynchronously. It must not block on
	// task's completion.
	Submit(task func())

	// SubmitAfter runs task no earlier than d from now. A non-positive d
	// is equivalent to Submit.
	SubmitAfter(d time.Duration, task func())
}

// Async returns the shared Executor that runs every task on its own
// goroutine, and schedules delayed tasks with the runtime timers.
func Async() Executor { return asyncExec{} }

type asyncExec struct{}

func (asyncExec) Submit(task func()) { go task() }

func (asyncExec) SubmitAfter(d time.Duration, task func()) {
	if d <= 0 {
		go task()
		return
	}
	time.AfterFunc(d, task)
}

// Serial is an Executor that runs tasks one at a time, in submission
// order, on a worker goroutine that's started lazily and parked when the
// queue drains.
//
// It's the executor to hand to concurrent producers that need their
// handler bodies serialized.
type Serial struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

// NewSerial returns a ready-to-use Serial executor.
func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Submit(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.drain()
}

func (s *Serial) SubmitAfter(d time.Duration, task func()) {
	if d <= 0 {
		s.Submit(task)
		return
	}
	time.AfterFunc(d, func() { s.Submit(task) })
}

func (s *Serial) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}
