package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrReentrantSend is returned when a sink is sent to from inside a listener
	// callback. Sinks exist to inject external input, not to define new
	// primitives; derive a stream instead.
	ErrReentrantSend = errors.New("send called from inside a listener callback")

	// ErrLoopAlreadyBound is returned when Loop is called twice on the same loop.
	ErrLoopAlreadyBound = errors.New("loop already bound")

	// ErrLoopNotBound is the panic value when a cell loop is sampled before Loop.
	ErrLoopNotBound = errors.New("cell loop sampled before it was bound")

	// ErrLoopOutsideTransaction is returned when Loop is called outside Run.
	ErrLoopOutsideTransaction = errors.New("loop must be bound inside a transaction")
)

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	CodeUnresolvedRank   ErrorCode = "UNRESOLVED_RANK"
	CodeListenerPanic    ErrorCode = "LISTENER_PANIC"
	CodePropagationPanic ErrorCode = "PROPAGATION_PANIC"
	CodeConfig           ErrorCode = "CONFIG"
	CodeInvariant        ErrorCode = "INVARIANT"
)

// UnresolvedRankError reports an edge that would close a dependency cycle:
// Target cannot be ranked above Source because Source depends on Target.
type UnresolvedRankError struct {
	Source NodeID
	Target NodeID
}

func (e *UnresolvedRankError) Code() ErrorCode { return CodeUnresolvedRank }

func (e *UnresolvedRankError) Error() string {
	return fmt.Sprintf("%s: node %d cannot be ranked above node %d without a delay (dependency cycle)",
		e.Code(), e.Target, e.Source)
}

// ListenerError wraps a panic raised by a listener callback during the post
// phase. The remaining listeners of the transaction still run.
type ListenerError struct {
	Node     NodeID
	Listener ListenerID
	Value    any
}

func (e *ListenerError) Code() ErrorCode { return CodeListenerPanic }

func (e *ListenerError) Error() string {
	return fmt.Sprintf("%s: listener %d on node %d: %v", e.Code(), e.Listener, e.Node, e.Value)
}

// Unwrap exposes the panic value when the callback panicked with an error.
func (e *ListenerError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// PropagationError wraps a panic raised by a combinator function while a node
// was computing its firing. The node does not fire in that transaction.
type PropagationError struct {
	Node  NodeID
	Value any
}

func (e *PropagationError) Code() ErrorCode { return CodePropagationPanic }

func (e *PropagationError) Error() string {
	return fmt.Sprintf("%s: node %d: %v", e.Code(), e.Node, e.Value)
}

func (e *PropagationError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ConfigError is the panic value for graphs that cannot be built as
// requested, such as a merge without a combining function.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Code() ErrorCode { return CodeConfig }

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

// InvariantError is the panic value for engine bookkeeping violations. These
// are bugs, never retried.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Code() ErrorCode { return CodeInvariant }

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

// IsReentrantSend returns true if err is or wraps ErrReentrantSend.
func IsReentrantSend(err error) bool {
	return errors.Is(err, ErrReentrantSend)
}

// IsListenerError returns true if err contains a ListenerError.
func IsListenerError(err error) bool {
	var le *ListenerError
	return errors.As(err, &le)
}

// IsCycleError returns true if err contains an UnresolvedRankError.
func IsCycleError(err error) bool {
	var re *UnresolvedRankError
	return errors.As(err, &re)
}
