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

package exec

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Executor for tests. Nothing runs on its own:
// submitted tasks sit in a queue until Pump is called, and delayed tasks
// sit behind a virtual clock that only moves when Advance is called.
//
// Manual is safe for concurrent submission, but Pump and Advance are
// meant to be driven from the test goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	tasks  []func()
	timers []manualTimer
}

type manualTimer struct {
	due  time.Duration
	seq  int
	task func()
}

// NewManual returns a Manual executor with its virtual clock at zero.
func NewManual() *Manual { return &Manual{} }

func (m *Manual) Submit(task func()) {
	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()
}

func (m *Manual) SubmitAfter(d time.Duration, task func()) {
	if d <= 0 {
		m.Submit(task)
		return
	}
	m.mu.Lock()
	m.timers = append(m.timers, manualTimer{due: m.now + d, seq: m.seq, task: task})
	m.seq++
	m.mu.Unlock()
}

// Now returns the virtual clock's current reading.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pump runs every queued immediate task, including tasks queued by the
// tasks it runs, until the queue is empty. It returns how many tasks ran.
// The virtual clock doesn't move.
func (m *Manual) Pump() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.tasks) == 0 {
			m.mu.Unlock()
			return ran
		}
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.mu.Unlock()

		task()
		ran++
	}
}

// Advance moves the virtual clock forward by d, firing every delayed task
// that falls due, in due order (submission order for equal deadlines).
// Each fired task runs to completion, along with any immediate tasks it
// queued, before the clock moves further. It returns how many tasks ran,
// counting pumped ones.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	ran := m.Pump()
	for {
		m.mu.Lock()
		idx := -1
		for i, tm := range m.timers {
			if tm.due > target {
				continue
			}
			if idx < 0 || tm.due < m.timers[idx].due ||
				(tm.due == m.timers[idx].due && tm.seq < m.timers[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			m.now = target
			m.mu.Unlock()
			return ran
		}
		tm := m.timers[idx]
		m.timers = append(m.timers[:idx], m.timers[idx+1:]...)
		m.now = tm.due
		m.mu.Unlock()

		tm.task()
		ran++
		ran += m.Pump()
	}
}

// PendingTimers returns the deadlines of the not-yet-fired delayed tasks,
// sorted. It's a test helper for asserting on what's scheduled.
func (m *Manual) PendingTimers() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	dues := make([]time.Duration, len(m.timers))
	for i, tm := range m.timers {
		dues[i] = tm.due
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i] < dues[j] })
	return dues
}
