package stream

import "sync"

// Subscription is the cancellation token of one handler registration.
//
// Unlink detaches the handler from its node, pruning the handler slot,
// so repeated subscribe/unsubscribe cycles on a long-lived node don't
// grow its handler list. If the detached handler was the node's last
// next-handler and the node was derived from an upstream node, the
// node's own upstream subscription is unlinked too, recursively, so the
// whole operator chain is torn down when its last consumer leaves.
type Subscription struct {
	once   sync.Once
	unlink func()
}

func newSubscription(unlink func()) *Subscription {
	return &Subscription{unlink: unlink}
}

// Unlink detaches the handler this Subscription stands for. It's
// idempotent, and a no-op on a nil Subscription.
func (s *Subscription) Unlink() {
	if s == nil {
		return
	}
	s.once.Do(s.unlink)
}

// joinSubs bundles an operator node's registrations on its source(s)
// into the single parent token the teardown walk releases.
func joinSubs(subs ...*Subscription) *Subscription {
	return newSubscription(func() {
		for _, s := range subs {
			s.Unlink()
		}
	})
}

// Bag owns a set of subscriptions and unlinks them together, typically
// when the owning scope ends. The zero value is ready to use.
type Bag struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add retains s for a later Clear. Adding nil is a no-op.
func (b *Bag) Add(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
}

// Clear unlinks every held subscription, exactly once each, and empties
// the bag. The bag can be reused afterwards.
func (b *Bag) Clear() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.Unlink()
	}
}
