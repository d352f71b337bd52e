package frp

import "github.com/AnatoleLucet/frp/internal"

var (
	ErrReentrantSend          = internal.ErrReentrantSend
	ErrLoopAlreadyBound       = internal.ErrLoopAlreadyBound
	ErrLoopNotBound           = internal.ErrLoopNotBound
	ErrLoopOutsideTransaction = internal.ErrLoopOutsideTransaction
)

type (
	ErrorCode           = internal.ErrorCode
	UnresolvedRankError = internal.UnresolvedRankError
	ListenerError       = internal.ListenerError
	PropagationError    = internal.PropagationError
	ConfigError         = internal.ConfigError
	InvariantError      = internal.InvariantError
)

const (
	CodeUnresolvedRank   = internal.CodeUnresolvedRank
	CodeListenerPanic    = internal.CodeListenerPanic
	CodePropagationPanic = internal.CodePropagationPanic
	CodeConfig           = internal.CodeConfig
	CodeInvariant        = internal.CodeInvariant
)

// IsReentrantSend returns true if err is or wraps ErrReentrantSend.
func IsReentrantSend(err error) bool { return internal.IsReentrantSend(err) }

// IsListenerError returns true if a listener panicked somewhere in err.
func IsListenerError(err error) bool { return internal.IsListenerError(err) }

// IsCycleError returns true if err reports a loop closed without a delay.
func IsCycleError(err error) bool { return internal.IsCycleError(err) }
