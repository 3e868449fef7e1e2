package gesture

import "sync/atomic"

// Mailbox holds the current Sample. Publish replaces it wholesale and Load
// returns whatever was published last; unread samples are simply lost.
type Mailbox struct {
	current atomic.Pointer[Sample]
}

// NewMailbox returns a mailbox holding the NONE sample.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	none := None()
	m.current.Store(&none)
	return m
}

// Publish makes s the current sample.
func (m *Mailbox) Publish(s Sample) {
	m.current.Store(&s)
}

// Load returns the current sample.
func (m *Mailbox) Load() Sample {
	return *m.current.Load()
}
