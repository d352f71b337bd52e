package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/AnatoleLucet/frp/internal/logging"
)

// Runtime is one mutual-exclusion domain. At most one transaction is open at
// a time; the goroutine holding the lock joins it, every other goroutine
// waits for it to close.
type Runtime struct {
	id   uuid.UUID
	name string

	mu    sync.Mutex
	owner atomic.Int64 // goroutine holding mu, 0 when free

	tx       *Transaction
	heap     *rankHeap
	next     []func(*Transaction)
	flushing bool

	// nodes with at least one listener
	keep mapset.Set[*Node]

	nodeSeq     atomic.Uint64
	listenerSeq uint64
	txSeq       uint64

	logger   *slog.Logger
	observer Observer
}

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver adds an observer; several can be registered.
func WithObserver(obs Observer) Option {
	return func(r *Runtime) {
		if obs == nil {
			return
		}
		if existing, ok := r.observer.(Observers); ok {
			r.observer = append(existing, obs)
			return
		}
		if _, ok := r.observer.(NopObserver); ok {
			r.observer = obs
			return
		}
		r.observer = Observers{r.observer, obs}
	}
}

func WithName(name string) Option {
	return func(r *Runtime) {
		if name != "" {
			r.name = name
		}
	}
}

func NewRuntime(opts ...Option) *Runtime {
	id := uuid.New()
	r := &Runtime{
		id:       id,
		name:     id.String()[:8],
		heap:     newRankHeap(),
		keep:     mapset.NewThreadUnsafeSet[*Node](),
		logger:   logging.NewNop(),
		observer: NopObserver{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runtime) ID() uuid.UUID { return r.id }

func (r *Runtime) Name() string { return r.name }

func (r *Runtime) Logger() *slog.Logger { return r.logger }

// KeepAlive returns how many nodes are pinned by live listeners.
func (r *Runtime) KeepAlive() int {
	var n int
	r.Exclusive(func(*Transaction) { n = r.keep.Cardinality() })
	return n
}

func (r *Runtime) owned() bool {
	return r.owner.Load() == getGID()
}

func (r *Runtime) lock() {
	r.mu.Lock()
	r.owner.Store(getGID())
}

func (r *Runtime) unlock() {
	r.owner.Store(0)
	r.mu.Unlock()
}

// Exclusive runs fn under the runtime lock, joining it when the calling
// goroutine already holds it. tx is the open transaction, or nil.
func (r *Runtime) Exclusive(fn func(tx *Transaction)) {
	if r.owned() {
		fn(r.tx)
		return
	}

	r.lock()
	defer r.unlock()

	fn(nil)
}

// Run runs fn in the open transaction when the calling goroutine has one,
// otherwise opens a transaction, runs fn and closes it. The outermost call
// returns fn's error joined with every error recorded during the
// transaction, and during any transaction opened for deferred work.
//
// If fn panics the transaction still completes before the panic is re-raised.
func (r *Runtime) Run(fn func(tx *Transaction) error) error {
	if r.owned() {
		if r.tx != nil {
			return fn(r.tx)
		}
		return r.transact(fn)
	}

	r.lock()
	defer r.unlock()

	return r.transact(fn)
}

func (r *Runtime) transact(fn func(tx *Transaction) error) (err error) {
	tx := r.open()

	defer func() {
		p := recover()
		err = errors.Join(err, r.close(tx))
		if p != nil {
			panic(p)
		}
	}()

	return fn(tx)
}

func (r *Runtime) open() *Transaction {
	r.txSeq++
	tx := &Transaction{
		id:      r.txSeq,
		rt:      r,
		heap:    r.heap,
		started: time.Now(),
	}
	r.tx = tx

	r.observer.PhaseStarted(tx.id, PhaseNormal)
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("transaction opened", "runtime", r.name, "tx", tx.id)
	}

	return tx
}

// close finishes tx, then gives each piece of deferred work a transaction of
// its own. Nested closes leave the deferred work to the outermost one.
func (r *Runtime) close(tx *Transaction) error {
	defer func() { r.tx = nil }()
	tx.finish()
	errs := tx.errs

	if r.flushing {
		return errors.Join(errs...)
	}

	r.flushing = true
	defer func() { r.flushing = false }()

	for len(r.next) > 0 {
		work := r.next[0]
		r.next[0] = nil
		r.next = r.next[1:]

		next := r.open()
		r.runDeferred(next, work)
		errs = append(errs, next.errs...)
	}
	r.next = nil

	return errors.Join(errs...)
}

// runDeferred delivers one piece of deferred work. tx always finishes, so a
// panicking delivery cannot leave nodes staged for the transactions after it.
func (r *Runtime) runDeferred(tx *Transaction, work func(*Transaction)) {
	defer tx.finish()
	defer func() {
		if p := recover(); p != nil {
			tx.fail(&PropagationError{Value: p})
		}
	}()

	work(tx)
}

func (r *Runtime) deferNext(work func(*Transaction)) {
	r.next = append(r.next, work)
}

// Send delivers v to a source node, opening a transaction if needed. Sending
// from a listener callback is refused with ErrReentrantSend; the refusal is
// also recorded on the transaction.
func (r *Runtime) Send(n *Node, v any) error {
	if n.rt != r {
		panic(&ConfigError{Message: "send to a node of another runtime"})
	}

	return r.Run(func(tx *Transaction) error {
		if tx.inCallback > 0 {
			err := fmt.Errorf("%w (node %d)", ErrReentrantSend, n.id)
			tx.fail(err)
			return err
		}

		n.receive(tx, 0, v)
		return nil
	})
}
