package frp

import "github.com/AnatoleLucet/frp/internal"

// StreamLoop is a stream used before the stream it stands for exists, to
// build graphs that refer to themselves. Bind it with Loop inside the
// transaction that created it.
type StreamLoop[T any] struct {
	Stream[T]
}

func NewStreamLoop[T any](opts ...ConstructOption) *StreamLoop[T] {
	return &StreamLoop[T]{Stream[T]{runtimeOf(opts).rt.NewForward()}}
}

// Loop binds the loop to s. It fails with ErrLoopAlreadyBound when called
// twice, ErrLoopOutsideTransaction outside Run, and *UnresolvedRankError when
// s depends on the loop without a Defer in between.
func (l *StreamLoop[T]) Loop(s *Stream[T]) error {
	var err error
	l.node.Runtime().Exclusive(func(tx *internal.Transaction) {
		err = internal.BindStreamLoop(tx, l.node, s.node)
	})
	return err
}

func (l *StreamLoop[T]) AsStream() *Stream[T] {
	return &l.Stream
}

// CellLoop is the cell counterpart of StreamLoop. Sampling it before Loop
// panics with ErrLoopNotBound.
type CellLoop[T any] struct {
	Cell[T]
}

func NewCellLoop[T any](opts ...ConstructOption) *CellLoop[T] {
	return &CellLoop[T]{Cell[T]{runtimeOf(opts).rt.NewCellLoop()}}
}

// Loop binds the loop to c, with the same failure modes as StreamLoop.Loop.
func (l *CellLoop[T]) Loop(c *Cell[T]) error {
	var err error
	l.cell.Node().Runtime().Exclusive(func(tx *internal.Transaction) {
		err = internal.BindCellLoop(tx, l.cell, c.cell)
	})
	return err
}

func (l *CellLoop[T]) AsCell() *Cell[T] {
	return &l.Cell
}
