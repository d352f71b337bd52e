package internal

import (
	"context"
	"log/slog"
	"time"
)

// Transaction is one atomic unit of propagation. It moves through the normal
// phase (rank-ordered firing), the last phase (cell commits) and the post
// phase (listeners) before closing.
type Transaction struct {
	id    uint64
	rt    *Runtime
	phase Phase

	heap *rankHeap
	last taskQueue
	post taskQueue

	touched []*Node
	staged  []*CellState

	// >0 while a listener callback runs
	inCallback int

	errs    []error
	stats   TxStats
	started time.Time
}

func (tx *Transaction) ID() uint64 { return tx.id }

func (tx *Transaction) Phase() Phase { return tx.phase }

func (tx *Transaction) Runtime() *Runtime { return tx.rt }

// InCallback reports whether a listener callback is running.
func (tx *Transaction) InCallback() bool { return tx.inCallback > 0 }

// Last enqueues work for the last phase.
func (tx *Transaction) Last(fn func()) {
	tx.last.Enqueue(fn)
}

// Post enqueues work for the post phase.
func (tx *Transaction) Post(fn func()) {
	tx.post.Enqueue(fn)
}

func (tx *Transaction) schedule(n *Node) {
	tx.heap.Insert(n)
	tx.stats.MaxQueue = max(tx.stats.MaxQueue, tx.heap.Len())
}

func (tx *Transaction) touch(n *Node) {
	if n.touched {
		return
	}
	n.touched = true
	tx.touched = append(tx.touched, n)
}

// fail records err; it is returned when the transaction closes.
func (tx *Transaction) fail(err error) {
	tx.errs = append(tx.errs, err)
	tx.rt.logger.Warn("transaction error", "runtime", tx.rt.name, "tx", tx.id, "error", err)
}

func (tx *Transaction) invoke(n *Node, s *slot, v any) {
	tx.inCallback++
	defer func() {
		tx.inCallback--
		if p := recover(); p != nil {
			tx.fail(&ListenerError{Node: n.id, Listener: s.id, Value: p})
		}
	}()

	tx.stats.Listeners++
	s.fn(v)
}

func (tx *Transaction) enter(phase Phase) {
	tx.phase = phase
	tx.rt.observer.PhaseStarted(tx.id, phase)
}

// finish runs the remaining phases. It is safe to call after the action
// panicked: whatever was scheduled still completes.
func (tx *Transaction) finish() {
	tx.heap.Drain(func(n *Node) { n.fire(tx) })

	tx.enter(PhaseLast)
	tx.last.Run()

	tx.enter(PhasePost)
	tx.post.Run()

	tx.enter(PhaseClosed)

	for _, s := range tx.staged {
		if s.updated != nil {
			panic(&InvariantError{Message: "cell still staged after its transaction closed"})
		}
	}
	for _, n := range tx.touched {
		n.reset()
	}
	tx.touched, tx.staged = nil, nil

	tx.stats.Runtime = tx.rt.name
	tx.stats.ID = tx.id
	tx.stats.Errors = len(tx.errs)
	tx.stats.Duration = time.Since(tx.started)

	tx.rt.observer.TransactionClosed(tx.stats)

	if tx.rt.logger.Enabled(context.Background(), slog.LevelDebug) {
		tx.rt.logger.Debug("transaction closed",
			"runtime", tx.stats.Runtime,
			"tx", tx.id,
			"firings", tx.stats.Firings,
			"listeners", tx.stats.Listeners,
			"errors", tx.stats.Errors,
			"duration", tx.stats.Duration,
		)
	}
}
