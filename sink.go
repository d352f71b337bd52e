package frp

// StreamSink is a stream fed from imperative code.
type StreamSink[T any] struct {
	Stream[T]
}

// NewStreamSink creates a sink. Several sends in one transaction keep the last
// value.
func NewStreamSink[T any](opts ...ConstructOption) *StreamSink[T] {
	return &StreamSink[T]{Stream[T]{runtimeOf(opts).rt.NewSource(nil)}}
}

// NewStreamSinkWith creates a sink that combines several sends in one
// transaction with f(previous, next).
func NewStreamSinkWith[T any](f func(prev, next T) T, opts ...ConstructOption) *StreamSink[T] {
	var coalesce func(prev, next any) any
	if f != nil {
		coalesce = func(prev, next any) any { return f(as[T](prev), as[T](next)) }
	}
	return &StreamSink[T]{Stream[T]{runtimeOf(opts).rt.NewSource(coalesce)}}
}

// Send fires the sink, joining the caller's transaction if there is one.
// Sending from a listener callback fails with ErrReentrantSend: derive a
// stream instead.
func (s *StreamSink[T]) Send(v T) error {
	return s.node.Runtime().Send(s.node, v)
}

// AsStream exposes the sink without its Send method.
func (s *StreamSink[T]) AsStream() *Stream[T] {
	return &s.Stream
}

// CellSink is a cell fed from imperative code.
type CellSink[T any] struct {
	Cell[T]
	sink *StreamSink[T]
}

// NewCellSink creates a cell holding initial until the first Send.
func NewCellSink[T any](initial T, opts ...ConstructOption) *CellSink[T] {
	sink := NewStreamSink[T](opts...)
	return &CellSink[T]{Cell: *sink.Hold(initial), sink: sink}
}

// NewCellSinkWith is NewCellSink with a coalescing function for several sends
// in one transaction.
func NewCellSinkWith[T any](initial T, f func(prev, next T) T, opts ...ConstructOption) *CellSink[T] {
	sink := NewStreamSinkWith(f, opts...)
	return &CellSink[T]{Cell: *sink.Hold(initial), sink: sink}
}

// Send sets the cell's value. It is committed when the transaction closes.
func (c *CellSink[T]) Send(v T) error {
	return c.sink.Send(v)
}

// AsCell exposes the sink without its Send method.
func (c *CellSink[T]) AsCell() *Cell[T] {
	return &c.Cell
}
