package frp

import "github.com/AnatoleLucet/frp/internal"

// Cell is a value that changes over time. Changes made by a transaction
// become visible to Sample only once its cells are committed.
type Cell[T any] struct {
	cell *internal.Cell
}

// NewCell returns a cell that always holds v.
func NewCell[T any](v T, opts ...ConstructOption) *Cell[T] {
	return &Cell[T]{runtimeOf(opts).rt.Constant(v)}
}

func (c *Cell[T]) Runtime() *Runtime {
	return wrap(c.cell.Node().Runtime())
}

// Sample returns the committed value. Inside a transaction, before cells are
// committed, that is the value from before the transaction; in a listener it
// is the new value.
func (c *Cell[T]) Sample() T {
	return as[T](c.cell.Sample())
}

// Updates fires with each new value, in the transaction that changes it.
func (c *Cell[T]) Updates() *Stream[T] {
	return &Stream[T]{c.cell.Node()}
}

// Values fires with the current value in the transaction it is created in and
// with every update after that. An update in that first transaction replaces
// the current value rather than firing twice.
//
// Outside Run that first transaction closes before Values returns, so nothing
// can observe the initial firing and the stream behaves like Updates. Use
// Listen to get the current value followed by every update. The error is the
// one of the transaction that built the stream.
func (c *Cell[T]) Values() (*Stream[T], error) {
	var out *internal.Node
	err := c.cell.Node().Runtime().Run(func(tx *internal.Transaction) error {
		out = internal.Values(tx, c.cell)
		return nil
	})
	return &Stream[T]{out}, err
}

// Listen calls fn with the current value, then with every update. The first
// call happens before Listen returns unless Listen is called inside Run, in
// which case it happens when that transaction's listeners run.
func (c *Cell[T]) Listen(fn func(T)) (*Listener, error) {
	var l *internal.Listener
	err := c.cell.Node().Runtime().Run(func(tx *internal.Transaction) error {
		values := internal.Values(tx, c.cell)
		l = internal.Listen(tx, values, func(v any) { fn(as[T](v)) })
		return nil
	})
	return &Listener{l}, err
}

// MapCell transforms a cell.
func MapCell[T, U any](c *Cell[T], fn func(T) U) *Cell[U] {
	return lift[U]([]*internal.Cell{c.cell}, func(values []any) any {
		return fn(as[T](values[0]))
	})
}

// Lift2 combines two cells.
func Lift2[A, B, U any](a *Cell[A], b *Cell[B], fn func(A, B) U) *Cell[U] {
	return lift[U]([]*internal.Cell{a.cell, b.cell}, func(values []any) any {
		return fn(as[A](values[0]), as[B](values[1]))
	})
}

// Lift3 combines three cells.
func Lift3[A, B, C, U any](a *Cell[A], b *Cell[B], c *Cell[C], fn func(A, B, C) U) *Cell[U] {
	return lift[U]([]*internal.Cell{a.cell, b.cell, c.cell}, func(values []any) any {
		return fn(as[A](values[0]), as[B](values[1]), as[C](values[2]))
	})
}

// LiftAll combines any number of cells of the same type.
func LiftAll[T, U any](cells []*Cell[T], fn func([]T) U) *Cell[U] {
	inner := make([]*internal.Cell, len(cells))
	for i, c := range cells {
		inner[i] = c.cell
	}
	return lift[U](inner, func(values []any) any {
		typed := make([]T, len(values))
		for i, v := range values {
			typed[i] = as[T](v)
		}
		return fn(typed)
	})
}

// lift builds an apply node over cells and holds it, starting from fn over
// the new-or-current values so a lift built mid-transaction is not stale. Over
// an unbound cell loop the initial value is computed once the transaction has
// bound it.
func lift[U any](cells []*internal.Cell, fn func([]any) any) *Cell[U] {
	if len(cells) == 0 {
		panic(&internal.ConfigError{Message: "lift requires at least one cell"})
	}

	initial := func() any {
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c.NewOrCurrent()
		}
		return fn(values)
	}

	var out *internal.Cell
	cells[0].Node().Runtime().Exclusive(func(tx *internal.Transaction) {
		n := internal.NewApply(tx, cells, fn)

		if tx != nil && !allBound(cells) {
			out = internal.HoldLazy(tx, n, initial)
			return
		}
		out = internal.Hold(tx, n, initial())
	})
	return &Cell[U]{out}
}

func allBound(cells []*internal.Cell) bool {
	for _, c := range cells {
		if !c.Bound() {
			return false
		}
	}
	return true
}
