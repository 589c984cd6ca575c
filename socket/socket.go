package socket

import (
	"errors"

	"go.uber.org/zap"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/readiness"
	"github.com/wippyai/netshim/translate"
)

// Host is the native side of one socket: the handle and its paired
// change-notification object. Both are created together by a Stack and
// destroyed together by Close. Addresses cross this interface as raw
// guest sockaddr bytes.
type Host interface {
	readiness.Source

	Connect(addr []byte) error
	SendTo(p []byte, addr []byte) (int, error)
	RecvFrom(p []byte, peek bool) (int, []byte, error)
	SendMsg(m *netshim.Message) (int, error)
	LocalName() ([]byte, error)
	PeerName() ([]byte, error)
	Close() error
}

// Stack opens native sockets. Open receives guest family and kind values
// that New has already validated; the implementation maps them to its own
// platform constants.
type Stack interface {
	Open(domain, kind int) (Host, error)
}

// NotifierError marks a failure to set up the change-notification object
// after the native socket itself was opened. The stack closes the socket
// before returning it; New reports resource exhaustion to the guest.
type NotifierError struct {
	Cause error
}

func (e *NotifierError) Error() string {
	return "socket notifier setup: " + e.Cause.Error()
}

func (e *NotifierError) Unwrap() error {
	return e.Cause
}

// Socket is one open socket resource. It owns its Host exclusively and is
// destroyed when the descriptor table drops the last reference.
//
// The sticky readiness state and captured connect error are not
// synchronized between concurrent users of a shared descriptor: one
// sharer's Update or claim can race with another's and steal a wakeup.
// A single consumer per resource is the supported model.
type Socket struct {
	host  Host
	state *readiness.State
	flags uint32
}

// New validates the guest socket parameters, opens the native socket with
// its notification object and returns the initialized resource.
//
// Unsupported domains fail with EAFNOSUPPORT, unsupported kinds with
// EPROTONOSUPPORT. Protocol selection is not supported: any non-zero
// protocol fails with EPROTONOSUPPORT.
func New(stack Stack, domain, kind, protocol int) (*Socket, error) {
	switch domain {
	case linux.AF_UNSPEC, linux.AF_UNIX, linux.AF_INET, linux.AF_INET6:
	default:
		return nil, linux.EAFNOSUPPORT
	}

	switch kind & linux.SOCK_TYPE_MASK {
	case linux.SOCK_STREAM, linux.SOCK_DGRAM, linux.SOCK_RAW, linux.SOCK_RDM, linux.SOCK_SEQPACKET:
	default:
		return nil, linux.EPROTONOSUPPORT
	}

	if protocol != 0 {
		Logger().Error("protocol selection not supported", zap.Int("protocol", protocol))
		return nil, linux.EPROTONOSUPPORT
	}

	host, err := stack.Open(domain, kind&linux.SOCK_TYPE_MASK)
	if err != nil {
		var ne *NotifierError
		if errors.As(err, &ne) {
			Logger().Error("notification object setup failed", zap.Error(ne.Cause))
			return nil, linux.ENFILE
		}
		Logger().Warn("host socket open failed", zap.Error(err))
		return nil, translate.Error(err)
	}

	s := &Socket{
		host:  host,
		state: readiness.NewState(host),
	}
	if kind&linux.SOCK_NONBLOCK != 0 {
		s.flags |= linux.O_NONBLOCK
	}
	return s, nil
}

// Nonblocking reports whether the resource is in non-blocking mode.
func (s *Socket) Nonblocking() bool {
	return s.flags&linux.O_NONBLOCK != 0
}

// Host exposes the native side, for embedders that bind or listen at the
// host layer.
func (s *Socket) Host() Host {
	return s.host
}

// waitEvent blocks until one of the wanted classes is ready, honoring the
// resource's non-blocking mode and MSG_DONTWAIT. Failures are returned in
// the guest error space.
func (s *Socket) waitEvent(want readiness.Class, flags uint32) error {
	dontWait := s.Nonblocking() || flags&linux.MSG_DONTWAIT != 0
	if err := s.state.WaitFor(want, dontWait); err != nil {
		if _, ok := linux.AsErrno(err); ok {
			return err
		}
		return translate.Error(err)
	}
	return nil
}

// PollStatus returns the current coarse readiness as guest poll bits.
func (s *Socket) PollStatus() uint32 {
	c := s.state.Update()
	var status uint32
	if c&readiness.Readable != 0 {
		status |= linux.POLLIN
	}
	if c&readiness.Writable != 0 {
		status |= linux.POLLOUT
	}
	return status
}

// PollWaiter returns the notification handle and the poll classes it can
// signal, for external multiplexed-wait machinery.
func (s *Socket) PollWaiter() (netshim.Waitable, uint32) {
	return waiter{s}, linux.POLLIN | linux.POLLOUT
}

type waiter struct {
	s *Socket
}

// Wait suspends until the notification object signals, folding whatever it
// reports into the sticky state. The caller re-derives readiness after.
func (w waiter) Wait() error {
	return w.s.state.WaitFor(readiness.All, false)
}

// Close releases the native socket and its notification object together.
// The descriptor table calls this exactly once, when the reference count
// reaches zero.
func (s *Socket) Close() error {
	return s.host.Close()
}
