package frp

import "github.com/AnatoleLucet/frp/internal"

// Listener is the handle of a registered callback.
type Listener struct {
	l *internal.Listener
}

// Release stops future invocations of the callback. Calling it again, or from
// inside the callback itself, is safe.
func (l *Listener) Release() {
	l.l.Release()
}

// Active reports whether Release has not been called yet.
func (l *Listener) Active() bool {
	return l.l.Active()
}
