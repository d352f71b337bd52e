package internal

import "time"

// Phase is the stage a transaction is in.
type Phase int

const (
	PhaseNormal Phase = iota // draining the rank queue
	PhaseLast                // committing cells
	PhasePost                // running listeners
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseLast:
		return "last"
	case PhasePost:
		return "post"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TxStats summarizes one closed transaction.
type TxStats struct {
	Runtime   string
	ID        uint64
	Firings   int
	Listeners int
	Errors    int
	MaxQueue  int
	Duration  time.Duration
}

// Observer receives transaction events. Calls happen under the runtime lock
// and must not re-enter the runtime.
type Observer interface {
	PhaseStarted(tx uint64, phase Phase)
	NodeFired(tx uint64, node NodeID, rank Rank)
	TransactionClosed(stats TxStats)
}

type NopObserver struct{}

func (NopObserver) PhaseStarted(uint64, Phase) {}
func (NopObserver) NodeFired(uint64, NodeID, Rank) {}
func (NopObserver) TransactionClosed(TxStats) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) PhaseStarted(tx uint64, phase Phase) {
	for _, obs := range o {
		obs.PhaseStarted(tx, phase)
	}
}

func (o Observers) NodeFired(tx uint64, node NodeID, rank Rank) {
	for _, obs := range o {
		obs.NodeFired(tx, node, rank)
	}
}

func (o Observers) TransactionClosed(stats TxStats) {
	for _, obs := range o {
		obs.TransactionClosed(stats)
	}
}
