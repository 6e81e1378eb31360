package stream

import (
	"sync"

	"github.com/asmsh/eventual/exec"
)

// Slot holds the latest value from one combined source. Seen reports
// whether that source has emitted yet; while it's false, Val is just the
// zero value, not an emission. The explicit marker keeps "no value yet"
// distinguishable from an emitted zero value.
type Slot[T any] struct {
	Val  T
	Seen bool
}

// Pair holds the two slots of a Combine2 node.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Combine2 returns a node tracking the latest value of two sources
// independently. On either source's emission it re-emits the full pair
// of latest slots, with the not-yet-emitted source's slot unmarked.
//
// The node fails with the first error of either source, and completes
// once both sources complete.
//
// It will panic if a or b is nil.
func Combine2[A, B any](a *Observer[A], b *Observer[B], on ...exec.Executor) *Observer[Pair[Slot[A], Slot[B]]] {
	if a == nil || b == nil {
		panic(nilSourcePanicMsg)
	}
	node := &Observer[Pair[Slot[A], Slot[B]]]{}

	var mu sync.Mutex
	var sa Slot[A]
	var sb Slot[B]
	var finished int

	na := a.OnNext(func(v A) {
		mu.Lock()
		sa = Slot[A]{Val: v, Seen: true}
		p := Pair[Slot[A], Slot[B]]{First: sa, Second: sb}
		mu.Unlock()
		node.emit(p)
	}, on...)
	nb := b.OnNext(func(v B) {
		mu.Lock()
		sb = Slot[B]{Val: v, Seen: true}
		p := Pair[Slot[A], Slot[B]]{First: sa, Second: sb}
		mu.Unlock()
		node.emit(p)
	}, on...)

	onFinish := func() {
		mu.Lock()
		finished++
		all := finished == 2
		mu.Unlock()
		if all {
			node.finish()
		}
	}
	ea := a.OnError(node.fail)
	eb := b.OnError(node.fail)
	fa := a.OnFinish(onFinish)
	fb := b.OnFinish(onFinish)

	node.setParent(joinSubs(na, nb, ea, eb, fa, fb))
	return node
}

// Combine is the n-ary form of Combine2 over same-typed sources: on any
// source's emission the node re-emits a snapshot of every source's
// latest slot, in argument order.
//
// The node fails with the first error of any source, and completes once
// all sources complete. Combine of no sources completes immediately.
//
// It will panic if any of the passed sources is nil.
func Combine[T any](srcs []*Observer[T], on ...exec.Executor) *Observer[[]Slot[T]] {
	node := &Observer[[]Slot[T]]{}
	if len(srcs) == 0 {
		node.finish()
		return node
	}

	var mu sync.Mutex
	slots := make([]Slot[T], len(srcs))
	var finished int

	subs := make([]*Subscription, 0, 3*len(srcs))
	onFinish := func() {
		mu.Lock()
		finished++
		all := finished == len(srcs)
		mu.Unlock()
		if all {
			node.finish()
		}
	}
	for i, src := range srcs {
		if src == nil {
			panic(nilSourcePanicMsg)
		}
		i := i
		subs = append(subs, src.OnNext(func(v T) {
			mu.Lock()
			slots[i] = Slot[T]{Val: v, Seen: true}
			snap := append([]Slot[T](nil), slots...)
			mu.Unlock()
			node.emit(snap)
		}, on...))
		subs = append(subs, src.OnError(node.fail))
		subs = append(subs, src.OnFinish(onFinish))
	}

	node.setParent(joinSubs(subs...))
	return node
}
