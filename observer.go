package frp

import "github.com/AnatoleLucet/frp/internal"

type (
	Observer    = internal.Observer
	NopObserver = internal.NopObserver
	TxStats     = internal.TxStats
	Phase       = internal.Phase
	NodeID      = internal.NodeID
	Rank        = internal.Rank
)

const (
	PhaseNormal = internal.PhaseNormal
	PhaseLast   = internal.PhaseLast
	PhasePost   = internal.PhasePost
	PhaseClosed = internal.PhaseClosed
)
