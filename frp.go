// Package frp is a functional reactive programming runtime built around two
// primitives: Streams of discrete events and Cells of continuously defined
// values.
//
// Every external input opens a transaction. Within it, derived nodes fire in
// rank order, cells commit together once propagation settles, and listeners
// run last, so a listener never observes a half-updated graph.
package frp

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/AnatoleLucet/frp/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Runtime is an independent propagation domain with its own lock and
// transaction slot. Streams and cells of different runtimes cannot be
// combined.
type Runtime struct {
	rt *internal.Runtime
}

type Option = internal.Option

// WithLogger sets the logger used for transaction tracing and failures.
func WithLogger(logger *slog.Logger) Option { return internal.WithLogger(logger) }

// WithObserver registers an observer of transaction events.
func WithObserver(obs Observer) Option { return internal.WithObserver(obs) }

// WithName names the runtime in logs and metrics.
func WithName(name string) Option { return internal.WithName(name) }

// NewRuntime creates a runtime independent of Default.
func NewRuntime(opts ...Option) *Runtime {
	return &Runtime{internal.NewRuntime(opts...)}
}

var defaultRuntime = sync.OnceValue(func() *Runtime {
	return NewRuntime(WithName("default"))
})

// Default is the process-wide runtime used when no InRuntime option is given.
func Default() *Runtime {
	return defaultRuntime()
}

func (r *Runtime) ID() uuid.UUID { return r.rt.ID() }

func (r *Runtime) Name() string { return r.rt.Name() }

// Run executes fn in a transaction. If the calling goroutine is already
// inside one, fn joins it; otherwise a transaction is opened and closed around
// fn. The returned error joins fn's error with listener and propagation
// failures of the transaction.
func (r *Runtime) Run(fn func() error) error {
	return r.rt.Run(func(*internal.Transaction) error {
		return fn()
	})
}

// Run is Default().Run.
func Run(fn func() error) error {
	return Default().Run(fn)
}

// RunResult is Run for an action that produces a value.
func RunResult[T any](r *Runtime, fn func() (T, error)) (T, error) {
	var result T
	err := r.Run(func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

// ConstructOption configures constructors of source streams and cells.
type ConstructOption func(*construct)

type construct struct {
	rt *Runtime
}

// InRuntime places the new stream or cell in r instead of Default.
func InRuntime(r *Runtime) ConstructOption {
	return func(c *construct) {
		c.rt = r
	}
}

func runtimeOf(opts []ConstructOption) *Runtime {
	c := construct{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.rt == nil {
		return Default()
	}
	return c.rt
}

func wrap(rt *internal.Runtime) *Runtime {
	return &Runtime{rt}
}

// build runs fn under the runtime lock of n, passing the open transaction if
// the caller is inside one.
func build(n *internal.Node, fn func(tx *internal.Transaction) *internal.Node) *internal.Node {
	var out *internal.Node
	n.Runtime().Exclusive(func(tx *internal.Transaction) {
		out = fn(tx)
	})
	return out
}
