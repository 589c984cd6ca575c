//go:build linux

package hostnet

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/readiness"
)

// Socket is one native socket together with its exclusively owned
// notification object. Both live and die together.
type Socket struct {
	fd   int
	epfd int

	// connecting marks an outstanding connect so the notifier can turn
	// the completing write-readiness edge into a ConnectDone event and
	// capture the completion error exactly once.
	connecting atomic.Bool
	listening  atomic.Bool
}

// initNotifier creates the epoll instance and arms it edge-triggered for
// every readiness class the socket can signal.
func (s *Socket) initNotifier() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP | unix.EPOLLET,
		Fd:     int32(s.fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, s.fd, &ev); err != nil {
		_ = unix.Close(epfd)
		return err
	}
	s.epfd = epfd
	return nil
}

// Changes drains transitions observed since the previous call. With block
// set it suspends the calling thread on the notification object first.
func (s *Socket) Changes(block bool) (readiness.Events, error) {
	timeout := 0
	if block {
		timeout = -1
	}
	var evs [4]unix.EpollEvent
	for {
		n, err := unix.EpollWait(s.epfd, evs[:], timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return readiness.Events{}, err
		}
		return s.decode(evs[:n]), nil
	}
}

func (s *Socket) decode(evs []unix.EpollEvent) readiness.Events {
	var out readiness.Events
	for i := range evs {
		e := evs[i].Events
		// A completing connect surfaces as a write or error transition.
		// Consume the outstanding-connect mark at most once and capture
		// the completion result while the kernel still has it.
		if e&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0 &&
			s.connecting.CompareAndSwap(true, false) {
			out.Classes |= readiness.ConnectDone
			out.ConnectErr = s.pendingError()
		}
		if e&unix.EPOLLIN != 0 {
			out.Classes |= readiness.Readable
			if s.listening.Load() {
				out.Classes |= readiness.Acceptable
			}
		}
		if e&unix.EPOLLOUT != 0 {
			out.Classes |= readiness.Writable
		}
		if e&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			out.Classes |= readiness.PeerClosed
		}
	}
	return out
}

// pendingError reads and clears the socket's captured async error.
func (s *Socket) pendingError() error {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if v == 0 {
		return nil
	}
	return unix.Errno(v)
}

// Connect issues the native connect. Would-block-class failures leave the
// outstanding-connect mark set for the notifier.
func (s *Socket) Connect(addr []byte) error {
	sa, err := decodeSockaddr(addr)
	if err != nil {
		return err
	}
	s.connecting.Store(true)
	err = unix.Connect(s.fd, sa)
	if err == nil {
		s.connecting.Store(false)
		return nil
	}
	if err != unix.EINPROGRESS && err != unix.EAGAIN && err != unix.EWOULDBLOCK {
		s.connecting.Store(false)
	}
	return err
}

// SendTo transmits p, to an explicit destination when addr is non-empty.
func (s *Socket) SendTo(p []byte, addr []byte) (int, error) {
	var sa unix.Sockaddr
	if len(addr) > 0 {
		var err error
		sa, err = decodeSockaddr(addr)
		if err != nil {
			return 0, err
		}
	}
	return unix.SendmsgN(s.fd, p, nil, sa, unix.MSG_NOSIGNAL)
}

// RecvFrom receives into p and returns the source address as guest
// sockaddr bytes when the host reports one.
func (s *Socket) RecvFrom(p []byte, peek bool) (int, []byte, error) {
	flags := 0
	if peek {
		flags = unix.MSG_PEEK
	}
	n, from, err := unix.Recvfrom(s.fd, p, flags)
	if err != nil {
		return 0, nil, err
	}
	var name []byte
	if from != nil {
		name = encodeSockaddr(from)
	}
	return n, name, nil
}

// SendMsg transmits a scatter/gather message, segments in order.
func (s *Socket) SendMsg(m *netshim.Message) (int, error) {
	var sa unix.Sockaddr
	if len(m.Name) > 0 {
		var err error
		sa, err = decodeSockaddr(m.Name)
		if err != nil {
			return 0, err
		}
	}
	return unix.SendmsgBuffers(s.fd, m.Buffers, m.Control, sa, unix.MSG_NOSIGNAL)
}

// LocalName returns the socket's local address as guest sockaddr bytes.
func (s *Socket) LocalName() ([]byte, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return nil, err
	}
	return encodeSockaddr(sa), nil
}

// PeerName returns the peer's address as guest sockaddr bytes.
func (s *Socket) PeerName() ([]byte, error) {
	sa, err := unix.Getpeername(s.fd)
	if err != nil {
		return nil, err
	}
	return encodeSockaddr(sa), nil
}

// Bind assigns the local address. Exposed at the host layer for
// embedders; the guest syscall surface does not dispatch bind.
func (s *Socket) Bind(addr []byte) error {
	sa, err := decodeSockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Bind(s.fd, sa)
}

// Listen marks the socket passive. Readable transitions on a listening
// socket additionally report the Acceptable class.
func (s *Socket) Listen(backlog int) error {
	if err := unix.Listen(s.fd, backlog); err != nil {
		return err
	}
	s.listening.Store(true)
	return nil
}

// Accept takes one pending connection and returns it as a fully paired
// socket. The invariant from Open holds here too: if the notification
// object cannot be set up, the accepted socket is closed first.
func (s *Socket) Accept() (*Socket, error) {
	nfd, _, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, err
	}
	ns := &Socket{fd: nfd, epfd: -1}
	if err := ns.initNotifier(); err != nil {
		_ = unix.Close(nfd)
		return nil, err
	}
	return ns, nil
}

// Close releases the native socket and its notification object together.
func (s *Socket) Close() error {
	err := unix.Close(s.fd)
	if s.epfd >= 0 {
		_ = unix.Close(s.epfd)
		s.epfd = -1
	}
	return err
}
