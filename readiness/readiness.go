package readiness

import (
	"github.com/wippyai/netshim/linux"
)

// Class identifies one readiness class of a socket resource.
type Class uint32

const (
	Readable Class = 1 << iota
	Writable
	Acceptable
	ConnectDone
	PeerClosed
)

// All is the full interest mask a notification object is armed with.
const All = Readable | Writable | Acceptable | ConnectDone | PeerClosed

// Events is one drained batch of transitions from a Source. ConnectErr is
// meaningful only when Classes carries ConnectDone; a nil ConnectErr then
// means the connect completed successfully.
type Events struct {
	Classes    Class
	ConnectErr error
}

// Source is the host change-notification object owned by one socket. It
// reports transitions observed since the previous call; it never reports
// absolute state.
//
// Changes with block=false drains pending transitions without waiting and
// may return an empty batch. With block=true it suspends the caller until
// the object signals; the batch returned may still lack the class the
// caller hoped for.
type Source interface {
	Changes(block bool) (Events, error)
}

// State is the sticky readiness state of one socket resource.
//
// There is no synchronization between concurrent users of the same State.
// A single consumer per resource never loses a notification; sharers can
// race on Update and Claim and steal readiness from each other. That gap
// is inherited behavior and is documented rather than papered over.
type State struct {
	src        Source
	ready      Class
	connectErr error
}

// NewState returns readiness state folding transitions from src.
func NewState(src Source) *State {
	return &State{src: src}
}

func (s *State) fold(ev Events) {
	s.ready |= ev.Classes
	if ev.Classes&ConnectDone != 0 {
		s.connectErr = ev.ConnectErr
	}
}

// Update drains all pending transitions, folds newly observed classes into
// the sticky bitmask and returns the result. It never blocks. Source
// failures leave the bitmask as-is; stale truth is still truth.
func (s *State) Update() Class {
	ev, err := s.src.Changes(false)
	if err == nil {
		s.fold(ev)
	}
	return s.ready
}

// Ready returns the sticky bitmask without consulting the source.
func (s *State) Ready() Class {
	return s.ready
}

// Clear removes classes from the sticky bitmask. A consumer calls this
// after acting on a class, or when the host signals that a prior
// notification no longer reflects truth.
func (s *State) Clear(c Class) {
	s.ready &^= c
}

// ClaimConnectError reports a pending connect completion at most once.
// When the ConnectDone bit is set it returns the captured completion error
// (nil for success) and true, clearing the bit so a repeat query reports
// no new completion.
func (s *State) ClaimConnectError() (error, bool) {
	if s.ready&ConnectDone == 0 {
		return nil, false
	}
	err := s.connectErr
	s.ready &^= ConnectDone
	s.connectErr = nil
	return err, true
}

// WaitFor blocks until one of the wanted classes is set. With dontWait it
// fails immediately with EWOULDBLOCK instead of suspending. The wait loop
// re-checks after every wakeup because the notification object can signal
// for an unrelated class.
func (s *State) WaitFor(want Class, dontWait bool) error {
	for {
		if s.Update()&want != 0 {
			return nil
		}
		if dontWait {
			return linux.EWOULDBLOCK
		}
		ev, err := s.src.Changes(true)
		if err != nil {
			return err
		}
		s.fold(ev)
	}
}
