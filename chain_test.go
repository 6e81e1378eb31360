package eventual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThenTapKeepsChain(t *testing.T) {
	p := New[int]()

	var taps []int
	// the tap variant returns the same promise, so chaining keeps the
	// original value/error path.
	same := p.Then(func(v int) { taps = append(taps, v) }).
		Then(func(v int) { taps = append(taps, v*10) })
	if same != p {
		t.Fatal("Then tap returned a different promise")
	}

	p.Fulfill(2)
	assert.Equal(t, []int{2, 20}, taps)
}

func TestThenTapSkippedOnRejection(t *testing.T) {
	p := Reject[int](newStrError())

	called := false
	p.Then(func(int) { called = true })
	if called {
		t.Fatal("Then tap ran on a rejected promise")
	}
}

func TestCatchDoesNotConsume(t *testing.T) {
	wantErr := newPtrError()
	p := New[int]()

	var got []error
	p.Catch(func(err error) { got = append(got, err) }).
		Catch(func(err error) { got = append(got, err) })
	p.RejectWith(wantErr)

	if len(got) != 2 || got[0] != wantErr || got[1] != wantErr {
		t.Fatalf("Catch handlers got %v, want the original error twice", got)
	}
}

func TestCatchAfterSettlement(t *testing.T) {
	wantErr := newStrError()
	p := Reject[string](wantErr)

	var got error
	p.Catch(func(err error) { got = err })
	if got != wantErr {
		t.Fatalf("late Catch got %v, want: %v", got, wantErr)
	}
}

func TestFinally(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		p := New[int]()
		count := 0
		p.Finally(func() { count++ })
		p.Fulfill(1)
		p.Fulfill(2)
		assert.Equal(t, 1, count, "Finally must run exactly once")
	})

	t.Run("on failure", func(t *testing.T) {
		p := New[int]()
		count := 0
		p.Finally(func() { count++ })
		p.RejectWith(newStrError())
		assert.Equal(t, 1, count)
	})
}

func TestMapError(t *testing.T) {
	t.Run("transforms the error", func(t *testing.T) {
		inner := newStrError()
		p := Reject[int](inner)
		mapped := p.MapError(func(err error) error {
			return errors.Join(errors.New("wrapped"), err)
		})
		_, err := Await(mapped)
		if !errors.Is(err, inner) {
			t.Fatalf("mapped err = %v, want it to wrap %v", err, inner)
		}
	})

	t.Run("value passes through", func(t *testing.T) {
		p := Resolve(9)
		mapped := p.MapError(func(err error) error { return newStrError() })
		v, err := Await(mapped)
		if v != 9 || err != nil {
			t.Fatalf("Await() = %v, %v, want: 9, <nil>", v, err)
		}
	})

	t.Run("nil mapping keeps the original", func(t *testing.T) {
		wantErr := newPtrError()
		mapped := Reject[int](wantErr).MapError(func(error) error { return nil })
		_, err := Await(mapped)
		if err != wantErr {
			t.Fatalf("Await() err = %v, want: %v", err, wantErr)
		}
	})

	t.Run("panicking mapping rejects", func(t *testing.T) {
		mapped := Reject[int](newStrError()).MapError(func(error) error { panic("map_panic") })
		_, err := Await(mapped)
		var pe *PanicError
		if !errors.As(err, &pe) || pe.V != "map_panic" {
			t.Fatalf("Await() err = %v, want: *PanicError{map_panic}", err)
		}
	})
}

func TestThenTransform(t *testing.T) {
	t.Run("transforms the value", func(t *testing.T) {
		p := Resolve(21)
		doubled := Then(p, func(v int) (int, error) { return v * 2, nil })
		v, err := Await(doubled)
		if v != 42 || err != nil {
			t.Fatalf("Await() = %v, %v, want: 42, <nil>", v, err)
		}
	})

	t.Run("changes the type", func(t *testing.T) {
		p := Resolve(1)
		s := Then(p, func(v int) (string, error) { return "one", nil })
		v, err := Await(s)
		if v != "one" || err != nil {
			t.Fatalf("Await() = %v, %v, want: one, <nil>", v, err)
		}
	})

	t.Run("returned error rejects", func(t *testing.T) {
		wantErr := newStrError()
		p := Resolve(1)
		failed := Then(p, func(int) (int, error) { return 0, wantErr })
		_, err := Await(failed)
		if err != wantErr {
			t.Fatalf("Await() err = %v, want: %v", err, wantErr)
		}
	})

	t.Run("upstream rejection skips the callback", func(t *testing.T) {
		wantErr := newPtrError()
		p := Reject[int](wantErr)
		called := false
		next := Then(p, func(v int) (int, error) {
			called = true
			return v, nil
		})
		_, err := Await(next)
		if called {
			t.Fatal("callback ran on a rejected promise")
		}
		if err != wantErr {
			t.Fatalf("Await() err = %v, want the original %v", err, wantErr)
		}
	})
}

// a panicking first link must short-circuit the rest of the chain with
// its own error.
func TestThenChainShortCircuit(t *testing.T) {
	p := Resolve(1)

	f2Called := false
	chain := Then(Then(p, func(int) (int, error) {
		panic("f1_panic")
	}), func(v int) (int, error) {
		f2Called = true
		return v, nil
	})

	_, err := Await(chain)
	if f2Called {
		t.Fatal("second link ran after the first panicked")
	}
	var pe *PanicError
	if !errors.As(err, &pe) || pe.V != "f1_panic" {
		t.Fatalf("chain err = %v, want: *PanicError{f1_panic}", err)
	}
}

func TestThenPromise(t *testing.T) {
	t.Run("adopts the inner outcome", func(t *testing.T) {
		p := Resolve(3)
		next := ThenPromise(p, func(v int) *Promise[string] {
			return Go(func() (string, error) { return "inner", nil })
		})
		v, err := Await(next)
		if v != "inner" || err != nil {
			t.Fatalf("Await() = %v, %v, want: inner, <nil>", v, err)
		}
	})

	t.Run("adopts the inner rejection", func(t *testing.T) {
		wantErr := newStrError()
		next := ThenPromise(Resolve(1), func(int) *Promise[int] {
			return Reject[int](wantErr)
		})
		_, err := Await(next)
		if err != wantErr {
			t.Fatalf("Await() err = %v, want: %v", err, wantErr)
		}
	})

	t.Run("nil inner promise rejects", func(t *testing.T) {
		next := ThenPromise(Resolve(1), func(int) *Promise[int] { return nil })
		_, err := Await(next)
		if !errors.Is(err, ErrNilPromise) {
			t.Fatalf("Await() err = %v, want: %v", err, ErrNilPromise)
		}
	})

	t.Run("panicking callback rejects", func(t *testing.T) {
		next := ThenPromise(Resolve(1), func(int) *Promise[int] { panic("flat_panic") })
		_, err := Await(next)
		var pe *PanicError
		if !errors.As(err, &pe) || pe.V != "flat_panic" {
			t.Fatalf("Await() err = %v, want: *PanicError{flat_panic}", err)
		}
	})
}
