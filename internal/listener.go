package internal

import "slices"

type ListenerID uint64

// slot is one registered callback. A cleared slot is skipped by any notify
// still pending for its node.
type slot struct {
	id ListenerID
	fn func(any)
}

func (s *slot) active() bool { return s.fn != nil }

// Listener is the handle returned by Listen. Release detaches it.
type Listener struct {
	id   ListenerID
	rt   *Runtime
	node *Node // nil once released
	slot *slot
}

// Listen registers fn to run in the post phase of every transaction in which
// n fires. Must be called under the runtime lock. When n already fired in the
// open transaction fn still sees that firing; a listener added during the
// post phase starts with the next transaction.
func Listen(tx *Transaction, n *Node, fn func(any)) *Listener {
	r := n.rt
	r.listenerSeq++

	s := &slot{id: ListenerID(r.listenerSeq), fn: fn}
	n.listeners = append(n.listeners, s)
	if len(n.listeners) == 1 {
		r.keep.Add(n)
	}

	if tx != nil && tx.phase == PhaseNormal && n.out.ok {
		n.schedulePost(tx)
	}

	return &Listener{id: s.id, rt: r, node: n, slot: s}
}

func (l *Listener) ID() ListenerID { return l.id }

// Active reports whether the listener has not been released yet.
func (l *Listener) Active() bool {
	var active bool
	l.rt.Exclusive(func(*Transaction) {
		active = l.node != nil
	})
	return active
}

// Release detaches the listener. It is idempotent and may be called from the
// listener's own callback.
func (l *Listener) Release() {
	l.rt.Exclusive(func(*Transaction) {
		if l.node == nil {
			return
		}

		l.node.removeListener(l.slot)
		l.node = nil
	})
}

func (n *Node) removeListener(s *slot) {
	s.fn = nil
	n.listeners = slices.DeleteFunc(n.listeners, func(other *slot) bool {
		return other == s
	})

	if len(n.listeners) == 0 {
		n.rt.keep.Remove(n)
	}
}
