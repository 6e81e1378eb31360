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
	"errors"
	"testing"
)

// testStrError is an error implementation that's used only for testing.
// it's a string to allow comparing its values.
type testStrError string

func (t testStrError) Error() string {
	return string(t)
}

func newStrError() error {
	return testStrError("str_test_error")
}

// testPtrError is an error implementation that's used only for testing.
// it's a pointer-based error, to mimick most error structures in real-scenarios.
type testPtrError struct {
	txt string
}

func (t *testPtrError) Error() string {
	return t.txt
}

func newPtrError() error {
	return &testPtrError{txt: "ptr_test_error"}
}

func TestFirstSettlementWins(t *testing.T) {
	t.Run("fulfill then fulfill", func(t *testing.T) {
		p := New[int]()
		if ok := p.Fulfill(1); !ok {
			t.Fatal("first Fulfill = false, want: true")
		}
		if ok := p.Fulfill(2); ok {
			t.Fatal("second Fulfill = true, want: false")
		}
		if v, err := Await(p); v != 1 || err != nil {
			t.Fatalf("Await() = %v, %v, want: 1, <nil>", v, err)
		}
	})

	t.Run("fulfill then reject", func(t *testing.T) {
		p := New[int]()
		p.Fulfill(1)
		if ok := p.RejectWith(newStrError()); ok {
			t.Fatal("RejectWith after Fulfill = true, want: false")
		}
		if p.State() != Fulfilled {
			t.Fatalf("State() = %v, want: fulfilled", p.State())
		}
	})

	t.Run("reject then fulfill", func(t *testing.T) {
		wantErr := newPtrError()
		p := New[int]()
		p.RejectWith(wantErr)
		p.Fulfill(5)
		if _, err := Await(p); err != wantErr {
			t.Fatalf("Await() err = %v, want: %v", err, wantErr)
		}
	})
}

func TestState(t *testing.T) {
	p := New[string]()
	if s := p.State(); s != Pending {
		t.Fatalf("State() = %v, want: pending", s)
	}
	if p.Settled() {
		t.Fatal("Settled() = true on a pending promise")
	}

	p.Fulfill("done")
	if s := p.State(); s != Fulfilled {
		t.Fatalf("State() = %v, want: fulfilled", s)
	}
	if !p.Settled() {
		t.Fatal("Settled() = false on a settled promise")
	}

	if got, want := Rejected.String(), "rejected"; got != want {
		t.Fatalf("State.String() = %q, want: %q", got, want)
	}
}

func TestResolveReject(t *testing.T) {
	p := Resolve(42)
	if v, err := Await(p); v != 42 || err != nil {
		t.Fatalf("Await() = %v, %v, want: 42, <nil>", v, err)
	}

	wantErr := newStrError()
	r := Reject[int](wantErr)
	if _, err := Await(r); err != wantErr {
		t.Fatalf("Await() err = %v, want: %v", err, wantErr)
	}
}

func TestObserveAfterSettlement(t *testing.T) {
	// late subscription must still see the terminal outcome, synchronously.
	wantErr := newPtrError()
	p := Reject[int](wantErr)

	called := false
	p.Observe(func(_ int, err error) {
		called = true
		if err != wantErr {
			t.Fatalf("Observe got err = %v, want: %v", err, wantErr)
		}
	})
	if !called {
		t.Fatal("Observe on a settled promise didn't run before returning")
	}
}

func TestObserveOrder(t *testing.T) {
	p := New[int]()

	var got []int
	p.Observe(func(int, error) { got = append(got, 1) })
	p.Observe(func(int, error) { got = append(got, 2) })
	p.Observe(func(int, error) { got = append(got, 3) })
	p.Fulfill(0)

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("handlers ran as %v, want: [1 2 3]", got)
	}
}

func TestGo(t *testing.T) {
	t.Run("fulfilled", func(t *testing.T) {
		p := Go(func() (int, error) { return 7, nil })
		if v, err := Await(p); v != 7 || err != nil {
			t.Fatalf("Await() = %v, %v, want: 7, <nil>", v, err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		wantErr := newStrError()
		p := Go(func() (int, error) { return 0, wantErr })
		if _, err := Await(p); err != wantErr {
			t.Fatalf("Await() err = %v, want: %v", err, wantErr)
		}
	})

	t.Run("panicked", func(t *testing.T) {
		panicValue := "test_panic"
		p := Go(func() (int, error) { panic(panicValue) })
		_, err := Await(p)
		var pe *PanicError
		if !errors.As(err, &pe) || pe.V != panicValue {
			t.Fatalf("Await() err = %v, want: *PanicError{%v}", err, panicValue)
		}
	})
}

func TestDefer(t *testing.T) {
	t.Run("fulfill later", func(t *testing.T) {
		var fulfill func(int)
		p := Defer(func(f func(int), _ func(error)) { fulfill = f })
		if p.Settled() {
			t.Fatal("promise settled before the resolver was called")
		}
		fulfill(3)
		if v, err := Await(p); v != 3 || err != nil {
			t.Fatalf("Await() = %v, %v, want: 3, <nil>", v, err)
		}
	})

	t.Run("resolver panics", func(t *testing.T) {
		p := Defer[int](func(func(int), func(error)) { panic("boom") })
		_, err := Await(p)
		var pe *PanicError
		if !errors.As(err, &pe) || pe.V != "boom" {
			t.Fatalf("Await() err = %v, want: *PanicError{boom}", err)
		}
	})
}

func TestNilArgsPanic(t *testing.T) {
	assertPanics := func(t *testing.T, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic, but none happened")
			}
		}()
		fn()
	}

	assertPanics(t, func() { Reject[int](nil) })
	assertPanics(t, func() { New[int]().RejectWith(nil) })
	assertPanics(t, func() { Go[int](nil) })
	assertPanics(t, func() { Defer[int](nil) })
	assertPanics(t, func() { New[int]().Observe(nil) })
}
