//go:build linux

package hostnet

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/socket"
)

var (
	initOnce sync.Once

	// ctlFD is the process-wide networking subsystem context: a probe
	// epoll instance held open for the life of the process.
	ctlFD = -1
)

// Initialize starts the host networking subsystem. It runs at most once;
// callers other than the first are no-ops. Failure is fatal: every socket
// syscall is meaningless without the subsystem.
func Initialize() {
	initOnce.Do(func() {
		fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
		if err != nil {
			Logger().Fatal("host networking initialization failed", zap.Error(err))
		}
		ctlFD = fd
		Logger().Info("host networking initialized")
	})
}

// Shutdown releases the subsystem context at process shutdown.
func Shutdown() {
	if ctlFD >= 0 {
		_ = unix.Close(ctlFD)
		ctlFD = -1
	}
}

// Guest values translate to host constants through fixed tables. The
// numeric spaces happen to overlap on this host; the tables keep the
// boundary explicit anyway.
var hostFamilies = map[int]int{
	linux.AF_UNSPEC: unix.AF_UNSPEC,
	linux.AF_UNIX:   unix.AF_UNIX,
	linux.AF_INET:   unix.AF_INET,
	linux.AF_INET6:  unix.AF_INET6,
}

var hostKinds = map[int]int{
	linux.SOCK_STREAM:    unix.SOCK_STREAM,
	linux.SOCK_DGRAM:     unix.SOCK_DGRAM,
	linux.SOCK_RAW:       unix.SOCK_RAW,
	linux.SOCK_RDM:       unix.SOCK_RDM,
	linux.SOCK_SEQPACKET: unix.SOCK_SEQPACKET,
}

// Stack opens native sockets paired with their notification objects. It
// implements socket.Stack.
type Stack struct{}

// NewStack returns the host networking stack.
func NewStack() *Stack {
	return &Stack{}
}

// Open creates a nonblocking native socket and its armed notification
// object. When the notification object cannot be set up the socket is
// closed before the failure is reported; no handle leaks on that path.
func (st *Stack) Open(domain, kind int) (socket.Host, error) {
	Initialize()

	family, ok := hostFamilies[domain]
	if !ok {
		return nil, unix.EAFNOSUPPORT
	}
	typ, ok := hostKinds[kind]
	if !ok {
		return nil, unix.EPROTONOSUPPORT
	}

	fd, err := unix.Socket(family, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		Logger().Warn("host socket open failed", zap.Error(err))
		return nil, err
	}

	s := &Socket{fd: fd, epfd: -1}
	if err := s.initNotifier(); err != nil {
		_ = unix.Close(fd)
		Logger().Error("notification object setup failed", zap.Error(err))
		return nil, &socket.NotifierError{Cause: err}
	}
	return s, nil
}
