package frp

import "github.com/AnatoleLucet/frp/internal"

// Stream is a source of discrete events. It fires at most once per
// transaction.
type Stream[T any] struct {
	node *internal.Node
}

// Never returns a stream that never fires.
func Never[T any](opts ...ConstructOption) *Stream[T] {
	return &Stream[T]{runtimeOf(opts).rt.NewSource(nil)}
}

// Runtime returns the runtime the stream belongs to.
func (s *Stream[T]) Runtime() *Runtime {
	return wrap(s.node.Runtime())
}

// Listen calls fn with the stream's value after every transaction in which it
// fired, once cells have been committed.
func (s *Stream[T]) Listen(fn func(T)) *Listener {
	var l *internal.Listener
	s.node.Runtime().Exclusive(func(tx *internal.Transaction) {
		l = internal.Listen(tx, s.node, func(v any) { fn(as[T](v)) })
	})
	return &Listener{l}
}

// Map transforms each firing of s.
func Map[T, U any](s *Stream[T], fn func(T) U) *Stream[U] {
	return &Stream[U]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewMap(tx, s.node, func(v any) any { return fn(as[T](v)) })
	})}
}

// Filter only lets through the firings for which pred returns true.
func (s *Stream[T]) Filter(pred func(T) bool) *Stream[T] {
	return &Stream[T]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewFilter(tx, s.node, func(v any) bool { return pred(as[T](v)) })
	})}
}

// FilterMap transforms each firing and drops those for which fn reports false.
func FilterMap[T, U any](s *Stream[T], fn func(T) (U, bool)) *Stream[U] {
	return &Stream[U]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewFilterMap(tx, s.node, func(v any) (any, bool) { return fn(as[T](v)) })
	})}
}

// Merge fires whenever s or other fires. When both fire in the same
// transaction the result is f(s value, other value), whatever order they fired
// in. f must not be nil.
func (s *Stream[T]) Merge(other *Stream[T], f func(left, right T) T) *Stream[T] {
	var combine func(l, r any) any
	if f != nil {
		combine = func(l, r any) any { return f(as[T](l), as[T](r)) }
	}

	return &Stream[T]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewMerge(tx, s.node, other.node, combine)
	})}
}

// OrElse is Merge keeping s's value on simultaneous firings.
func (s *Stream[T]) OrElse(other *Stream[T]) *Stream[T] {
	return s.Merge(other, func(left, _ T) T { return left })
}

// Snapshot combines each firing of s with the value c had before the
// transaction started.
func Snapshot[T, C, U any](s *Stream[T], c *Cell[C], fn func(T, C) U) *Stream[U] {
	return &Stream[U]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewSnapshot(tx, s.node, c.cell, func(v, sampled any) any {
			return fn(as[T](v), as[C](sampled))
		})
	})}
}

type gated struct {
	v    any
	open bool
}

// Gate lets firings of s through while c holds true.
func (s *Stream[T]) Gate(c *Cell[bool]) *Stream[T] {
	return &Stream[T]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		snap := internal.NewSnapshot(tx, s.node, c.cell, func(v, open any) any {
			return gated{v: v, open: as[bool](open)}
		})
		return internal.NewFilterMap(tx, snap, func(g any) (any, bool) {
			return g.(gated).v, g.(gated).open
		})
	})}
}

// Hold creates a cell that starts at initial and takes the value of every
// firing of s.
func (s *Stream[T]) Hold(initial T) *Cell[T] {
	var c *internal.Cell
	s.node.Runtime().Exclusive(func(tx *internal.Transaction) {
		c = internal.Hold(tx, s.node, initial)
	})
	return &Cell[T]{c}
}

// Accum folds the firings of s into a cell, starting from initial.
func Accum[T, S any](s *Stream[T], initial S, fn func(T, S) S) *Cell[S] {
	var c *internal.Cell
	s.node.Runtime().Exclusive(func(tx *internal.Transaction) {
		st := internal.NewCellState(initial)
		acc := internal.StateCell(s.node, st)

		next := internal.NewSnapshot(tx, s.node, acc, func(v, state any) any {
			return fn(as[T](v), as[S](state))
		})
		c = internal.HoldState(tx, next, st)
	})
	return &Cell[S]{c}
}

type collected struct {
	out   any
	state any
}

// Collect maps the firings of s through a state machine: fn returns the value
// to fire and the state for the next firing.
func Collect[T, S, U any](s *Stream[T], initial S, fn func(T, S) (U, S)) *Stream[U] {
	return &Stream[U]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		st := internal.NewCellState(initial)
		acc := internal.StateCell(s.node, st)

		step := internal.NewSnapshot(tx, s.node, acc, func(v, state any) any {
			out, next := fn(as[T](v), as[S](state))
			return collected{out: out, state: next}
		})
		next := internal.NewMap(tx, step, func(c any) any { return c.(collected).state })
		internal.HoldState(tx, next, st)

		out := internal.NewMap(tx, step, func(c any) any { return c.(collected).out })
		out.Retain(next)
		return out
	})}
}

// Once fires only on the first firing of s.
func (s *Stream[T]) Once() *Stream[T] {
	done := false
	return &Stream[T]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewFilter(tx, s.node, func(any) bool {
			if done {
				return false
			}
			done = true
			return true
		})
	})}
}

// Defer re-fires every firing of s in a new transaction opened right after
// the current one closes. Since the edge crosses transactions it carries no
// rank constraint, which makes Defer the way to feed a value back into the
// graph that produced it.
func (s *Stream[T]) Defer() *Stream[T] {
	return &Stream[T]{build(s.node, func(tx *internal.Transaction) *internal.Node {
		return internal.NewDefer(tx, s.node)
	})}
}
