package internal

import "sync/atomic"

// CellState holds a cell's committed value and the value staged by the open
// transaction. current is published atomically so Sample never takes the
// runtime lock.
type CellState struct {
	current atomic.Pointer[any]
	updated *any // nil outside a transaction or when nothing was staged

	// lazy computes the initial value on first sample; see HoldLazy
	lazy atomic.Pointer[func() any]
}

func NewCellState(initial any) *CellState {
	s := &CellState{}
	s.current.Store(&initial)
	return s
}

// Sample returns the committed value. During the normal phase this is the
// value from before the transaction; during post it is the new value.
func (s *CellState) Sample() any {
	s.resolve()
	return *s.current.Load()
}

// resolve runs the pending initial value function once. If it panics the
// function stays pending.
func (s *CellState) resolve() {
	f := s.lazy.Load()
	if f == nil {
		return
	}

	v := (*f)()
	s.current.Store(&v)
	s.lazy.Store(nil)
}

func (s *CellState) newOrCurrent() any {
	if s.updated != nil {
		return *s.updated
	}
	return s.Sample()
}

// stage records v as the value to commit. The commit is registered once per
// transaction; the last staged value wins.
func (s *CellState) stage(tx *Transaction, v any) {
	if s.updated == nil {
		tx.Last(s.commit)
		tx.staged = append(tx.staged, s)
	}
	s.updated = &v
}

func (s *CellState) commit() {
	if s.updated != nil {
		s.current.Store(s.updated)
		s.updated = nil
	}
}

// Cell pairs the node whose firings update the cell with its state. A cell
// loop has no state until it is bound.
type Cell struct {
	node *Node
	st   atomic.Pointer[CellState]
}

func (c *Cell) Node() *Node { return c.node }

func (c *Cell) state() *CellState {
	st := c.st.Load()
	if st == nil {
		panic(ErrLoopNotBound)
	}
	return st
}

func (c *Cell) Sample() any {
	return c.state().Sample()
}

// NewOrCurrent is the staged value if the open transaction updated the cell,
// the committed value otherwise.
func (c *Cell) NewOrCurrent() any {
	return c.state().newOrCurrent()
}

// Hold creates a cell that takes every firing of n as its next value. If n
// already fired in the open transaction the cell picks that firing up too.
func Hold(tx *Transaction, n *Node, initial any) *Cell {
	return HoldState(tx, n, NewCellState(initial))
}

// HoldState is Hold over a state created beforehand, used when the state must
// be sampled by nodes built before the cell itself (accumulators).
func HoldState(tx *Transaction, n *Node, st *CellState) *Cell {
	n.cells = append(n.cells, st)

	if tx != nil && tx.phase == PhaseNormal && n.out.ok {
		st.stage(tx, n.out.v)
	}

	c := &Cell{node: n}
	c.st.Store(st)
	return c
}

// HoldLazy is Hold for an initial value that cannot be computed yet because
// it depends on a cell loop bound later in the same transaction. The value is
// computed the first time the cell is sampled, or at the start of the last
// phase if nothing sampled it, before any commit of this cell.
func HoldLazy(tx *Transaction, n *Node, initial func() any) *Cell {
	st := NewCellState(nil)
	st.lazy.Store(&initial)
	c := HoldState(tx, n, st)

	tx.Last(func() {
		defer func() {
			if p := recover(); p != nil {
				tx.fail(&PropagationError{Node: n.id, Value: p})
			}
		}()

		st.resolve()
	})

	return c
}

// Bound reports whether the cell has state, which is false only for a cell
// loop before it is bound.
func (c *Cell) Bound() bool {
	return c.st.Load() != nil
}

// Constant is a cell whose node never fires.
func (r *Runtime) Constant(v any) *Cell {
	c := &Cell{node: r.NewSource(nil)}
	c.st.Store(NewCellState(v))
	return c
}

// StateCell wraps st for sampling by snapshot nodes. It is never a parent.
func StateCell(n *Node, st *CellState) *Cell {
	c := &Cell{node: n}
	c.st.Store(st)
	return c
}

// Values fires once with the current value in the transaction it is created
// in, then with every update. An update in that same transaction wins over
// the initial value, so nothing is delivered twice.
func Values(tx *Transaction, c *Cell) *Node {
	spark := c.node.rt.NewSource(nil)
	initial := NewSnapshot(tx, spark, c, func(_, sampled any) any { return sampled })
	values := NewMerge(tx, initial, c.node, func(_, update any) any { return update })

	spark.receive(tx, 0, nil)
	return values
}

// NewCellLoop returns an unbound cell loop: a forward node whose state is
// filled in by BindCellLoop.
func (r *Runtime) NewCellLoop() *Cell {
	return &Cell{node: r.NewForward()}
}

// BindCellLoop links the loop's forward node to target's node and shares
// target's state.
func BindCellLoop(tx *Transaction, loop, target *Cell) error {
	if tx == nil {
		return ErrLoopOutsideTransaction
	}
	if loop.st.Load() != nil || len(loop.node.sources) > 0 {
		return ErrLoopAlreadyBound
	}
	if err := Link(tx, target.node, loop.node); err != nil {
		return err
	}

	loop.st.Store(target.state())
	return nil
}

// BindStreamLoop links a forward node created by NewForward to target.
func BindStreamLoop(tx *Transaction, loop, target *Node) error {
	if tx == nil {
		return ErrLoopOutsideTransaction
	}
	if len(loop.sources) > 0 {
		return ErrLoopAlreadyBound
	}
	return Link(tx, target, loop)
}
