package internal

import (
	"slices"
	"weak"
)

type NodeID uint64

// value is an optional payload: ok is false when nothing was delivered.
type value struct {
	v  any
	ok bool
}

// op is the closed set of node kinds. Node.compute is the only place that
// switches over it.
type op interface{ isOp() }

type (
	// sourceOp nodes are fed from outside the graph (sinks, sparks, never).
	// coalesce combines two deliveries in the same transaction; nil keeps the
	// last one.
	sourceOp struct{ coalesce func(prev, next any) any }

	mapOp       struct{ fn func(any) any }
	filterOp    struct{ fn func(any) bool }
	filterMapOp struct{ fn func(any) (any, bool) }

	// mergeOp has two input slots, left (0) and right (1).
	mergeOp struct{ combine func(left, right any) any }

	// snapshotOp samples cell with the committed (pre-transaction) value.
	snapshotOp struct {
		cell *Cell
		fn   func(v, sampled any) any
	}

	// applyOp recomputes from the new-or-current values of cells whenever any
	// of their nodes fires.
	applyOp struct {
		cells []*Cell
		fn    func([]any) any
	}

	// forwardOp passes its input through; it is the body of stream and cell
	// loops.
	forwardOp struct{}

	// deferOp re-delivers its input to out in a fresh transaction.
	deferOp struct{ out *Node }
)

func (sourceOp) isOp() {}
func (mapOp) isOp() {}
func (filterOp) isOp() {}
func (filterMapOp) isOp() {}
func (mergeOp) isOp() {}
func (snapshotOp) isOp() {}
func (applyOp) isOp() {}
func (forwardOp) isOp() {}
func (deferOp) isOp() {}

type edge struct {
	node weak.Pointer[Node]
	slot int
}

// Node is one vertex of the propagation graph. Parents reference children
// weakly and children reference parents strongly, so a derived node nobody
// holds or listens to can be collected while its sources live on.
type Node struct {
	id   NodeID
	rank Rank
	rt   *Runtime
	op   op

	sources  []*Node
	children []edge
	cells    []*CellState

	listeners []*slot

	// per transaction, reset when it closes
	in            [2]value
	out           value
	touched       bool
	postScheduled bool
}

func (r *Runtime) newNode(o op, sources ...*Node) *Node {
	return &Node{
		id:      NodeID(r.nodeSeq.Add(1)),
		rt:      r,
		op:      o,
		sources: sources,
	}
}

func (n *Node) ID() NodeID { return n.id }

func (n *Node) Rank() Rank { return n.rank }

func (n *Node) Runtime() *Runtime { return n.rt }

// Fired reports whether the node has a firing staged in the open transaction.
func (n *Node) Fired() bool { return n.out.ok }

// NewSource creates a node that only fires when something is sent to it.
func (r *Runtime) NewSource(coalesce func(prev, next any) any) *Node {
	return r.newNode(sourceOp{coalesce: coalesce})
}

func NewMap(tx *Transaction, src *Node, fn func(any) any) *Node {
	return derive(tx, mapOp{fn: fn}, src)
}

func NewFilter(tx *Transaction, src *Node, fn func(any) bool) *Node {
	return derive(tx, filterOp{fn: fn}, src)
}

func NewFilterMap(tx *Transaction, src *Node, fn func(any) (any, bool)) *Node {
	return derive(tx, filterMapOp{fn: fn}, src)
}

// NewMerge fires with combine(left, right) when both fire in a transaction,
// otherwise with whichever fired.
func NewMerge(tx *Transaction, left, right *Node, combine func(l, r any) any) *Node {
	if combine == nil {
		panic(&ConfigError{Message: "merge requires a combining function for simultaneous firings"})
	}
	return derive(tx, mergeOp{combine: combine}, left, right)
}

func NewSnapshot(tx *Transaction, src *Node, cell *Cell, fn func(v, sampled any) any) *Node {
	mustShareRuntime(src, cell.node)
	return derive(tx, snapshotOp{cell: cell, fn: fn}, src)
}

func NewApply(tx *Transaction, cells []*Cell, fn func([]any) any) *Node {
	parents := make([]*Node, len(cells))
	for i, c := range cells {
		parents[i] = c.node
	}
	return derive(tx, applyOp{cells: cells, fn: fn}, parents...)
}

// NewDefer returns a source node that receives each firing of src in its own
// transaction, opened after the current one closes.
func NewDefer(tx *Transaction, src *Node) *Node {
	out := src.rt.NewSource(nil)
	d := derive(tx, deferOp{out: out}, src)
	out.sources = append(out.sources, d)
	return out
}

// Retain keeps dep reachable for as long as n is. Nodes that feed state but
// are not a source of n's firings are held this way.
func (n *Node) Retain(dep *Node) {
	n.sources = append(n.sources, dep)
}

// NewForward creates an unlinked pass-through node with a placeholder rank,
// bound later with Link.
func (r *Runtime) NewForward() *Node {
	return r.newNode(forwardOp{})
}

func derive(tx *Transaction, o op, parents ...*Node) *Node {
	r := parents[0].rt
	n := r.newNode(o, parents...)

	_, isApply := o.(applyOp)
	for _, p := range parents {
		mustShareRuntime(p, n)
		n.rank = max(n.rank, p.rank+1)
	}
	for i, p := range parents {
		slot := i
		if isApply {
			slot = 0
		}
		p.addChild(tx, n, slot)
	}

	return n
}

func mustShareRuntime(a, b *Node) {
	if a.rt != b.rt {
		panic(&ConfigError{Message: "nodes from different runtimes cannot be combined"})
	}
}

// addChild registers child as a target. If n already fired in the open
// transaction the firing is replayed to the new child.
func (n *Node) addChild(tx *Transaction, child *Node, slot int) {
	n.children = append(n.children, edge{node: weak.Make(child), slot: slot})

	if tx != nil && tx.phase == PhaseNormal && n.out.ok {
		child.receive(tx, slot, n.out.v)
	}
}

// Children returns the live derived nodes.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.children))
	for _, e := range n.children {
		if child := e.node.Value(); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// receive stores v in the given input slot and queues the node. Deliveries
// after the normal phase belong to the next transaction.
func (n *Node) receive(tx *Transaction, slot int, v any) {
	if tx.phase != PhaseNormal {
		tx.rt.deferNext(func(next *Transaction) {
			n.receive(next, slot, v)
		})
		return
	}

	tx.touch(n)

	in := &n.in[slot]
	if in.ok {
		if src, ok := n.op.(sourceOp); ok && src.coalesce != nil {
			merged, ok := n.coalesce(tx, src.coalesce, in.v, v)
			if !ok {
				return
			}
			v = merged
		}
	}
	*in = value{v: v, ok: true}

	tx.schedule(n)
}

// coalesce combines two deliveries to a source. When f panics the earlier
// delivery is kept.
func (n *Node) coalesce(tx *Transaction, f func(prev, next any) any, prev, next any) (v any, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			tx.fail(&PropagationError{Node: n.id, Value: p})
			v, ok = nil, false
		}
	}()

	return f(prev, next), true
}

// fire runs when the node is popped from the rank heap.
func (n *Node) fire(tx *Transaction) {
	v, ok := n.compute(tx)
	if !ok {
		return
	}

	n.out = value{v: v, ok: true}
	tx.stats.Firings++
	tx.rt.observer.NodeFired(tx.id, n.id, n.rank)

	for _, c := range n.cells {
		c.stage(tx, v)
	}
	if len(n.listeners) > 0 {
		n.schedulePost(tx)
	}

	n.propagate(tx, v)
}

func (n *Node) compute(tx *Transaction) (out any, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			tx.fail(&PropagationError{Node: n.id, Value: p})
			out, ok = nil, false
		}
	}()

	in := n.in[0]

	switch o := n.op.(type) {
	case sourceOp, forwardOp:
		return in.v, in.ok

	case mapOp:
		if !in.ok {
			return nil, false
		}
		return o.fn(in.v), true

	case filterOp:
		if !in.ok || !o.fn(in.v) {
			return nil, false
		}
		return in.v, true

	case filterMapOp:
		if !in.ok {
			return nil, false
		}
		return o.fn(in.v)

	case mergeOp:
		left, right := n.in[0], n.in[1]
		switch {
		case left.ok && right.ok:
			return o.combine(left.v, right.v), true
		case left.ok:
			return left.v, true
		default:
			return right.v, right.ok
		}

	case snapshotOp:
		if !in.ok {
			return nil, false
		}
		return o.fn(in.v, o.cell.Sample()), true

	case applyOp:
		values := make([]any, len(o.cells))
		for i, c := range o.cells {
			values[i] = c.state().newOrCurrent()
		}
		return o.fn(values), true

	case deferOp:
		if in.ok {
			out, v := o.out, in.v
			tx.rt.deferNext(func(next *Transaction) {
				out.receive(next, 0, v)
			})
		}
		return nil, false

	default:
		panic(&InvariantError{Message: "unknown node operation"})
	}
}

func (n *Node) propagate(tx *Transaction, v any) {
	live := n.children[:0]
	for _, e := range n.children {
		child := e.node.Value()
		if child == nil {
			continue
		}
		live = append(live, e)
		child.receive(tx, e.slot, v)
	}
	clear(n.children[len(live):])
	n.children = live
}

func (n *Node) schedulePost(tx *Transaction) {
	if n.postScheduled {
		return
	}
	n.postScheduled = true

	tx.Post(func() { n.notify(tx) })
}

// notify calls the listeners registered when the post entry runs. A listener
// released by an earlier callback of the same firing is skipped.
func (n *Node) notify(tx *Transaction) {
	if !n.out.ok {
		return
	}

	v := n.out.v
	for _, s := range slices.Clone(n.listeners) {
		if s.active() {
			tx.invoke(n, s, v)
		}
	}
}

func (n *Node) reset() {
	n.in = [2]value{}
	n.out = value{}
	n.touched = false
	n.postScheduled = false
}
