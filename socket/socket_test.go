package socket

import (
	"bytes"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/readiness"
)

// fakeHost scripts the native side of a socket. Function fields override
// individual operations; unset operations fail the test if reached.
type fakeHost struct {
	t *testing.T

	pending []readiness.Events
	waits   []readiness.Events

	connect  func(addr []byte) error
	sendTo   func(p []byte, addr []byte) (int, error)
	recvFrom func(p []byte, peek bool) (int, []byte, error)
	sendMsg  func(m *netshim.Message) (int, error)

	local  []byte
	peer   []byte
	closed int
}

func (h *fakeHost) Changes(block bool) (readiness.Events, error) {
	if !block {
		if len(h.pending) == 0 {
			return readiness.Events{}, nil
		}
		ev := h.pending[0]
		h.pending = h.pending[1:]
		return ev, nil
	}
	if len(h.waits) == 0 {
		h.t.Fatal("unexpected blocking wait")
	}
	ev := h.waits[0]
	h.waits = h.waits[1:]
	return ev, nil
}

func (h *fakeHost) Connect(addr []byte) error {
	if h.connect == nil {
		h.t.Fatal("unexpected Connect")
	}
	return h.connect(addr)
}

func (h *fakeHost) SendTo(p []byte, addr []byte) (int, error) {
	if h.sendTo == nil {
		h.t.Fatal("unexpected SendTo")
	}
	return h.sendTo(p, addr)
}

func (h *fakeHost) RecvFrom(p []byte, peek bool) (int, []byte, error) {
	if h.recvFrom == nil {
		h.t.Fatal("unexpected RecvFrom")
	}
	return h.recvFrom(p, peek)
}

func (h *fakeHost) SendMsg(m *netshim.Message) (int, error) {
	if h.sendMsg == nil {
		h.t.Fatal("unexpected SendMsg")
	}
	return h.sendMsg(m)
}

func (h *fakeHost) LocalName() ([]byte, error) { return h.local, nil }
func (h *fakeHost) PeerName() ([]byte, error)  { return h.peer, nil }

func (h *fakeHost) Close() error {
	h.closed++
	return nil
}

type fakeStack struct {
	host Host
	err  error

	domain int
	kind   int
}

func (s *fakeStack) Open(domain, kind int) (Host, error) {
	s.domain = domain
	s.kind = kind
	if s.err != nil {
		return nil, s.err
	}
	return s.host, nil
}

func newSocket(t *testing.T, h *fakeHost, kind int) *Socket {
	t.Helper()
	h.t = t
	s, err := New(&fakeStack{host: h}, linux.AF_INET, kind, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_UnsupportedDomain(t *testing.T) {
	_, err := New(&fakeStack{}, 42, linux.SOCK_STREAM, 0)
	if err != linux.EAFNOSUPPORT {
		t.Fatalf("New = %v, want EAFNOSUPPORT", err)
	}
}

func TestNew_UnsupportedKind(t *testing.T) {
	_, err := New(&fakeStack{}, linux.AF_INET, 9, 0)
	if err != linux.EPROTONOSUPPORT {
		t.Fatalf("New = %v, want EPROTONOSUPPORT", err)
	}
}

func TestNew_NonzeroProtocol(t *testing.T) {
	_, err := New(&fakeStack{}, linux.AF_INET, linux.SOCK_STREAM, 6)
	if err != linux.EPROTONOSUPPORT {
		t.Fatalf("New = %v, want EPROTONOSUPPORT", err)
	}
}

func TestNew_StripsOpenFlagsFromKind(t *testing.T) {
	stack := &fakeStack{host: &fakeHost{t: t}}
	s, err := New(stack, linux.AF_INET, linux.SOCK_DGRAM|linux.SOCK_NONBLOCK|linux.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if stack.kind != linux.SOCK_DGRAM {
		t.Errorf("stack saw kind %#x, want SOCK_DGRAM", stack.kind)
	}
	if !s.Nonblocking() {
		t.Error("SOCK_NONBLOCK must set non-blocking mode")
	}
}

func TestNew_NotifierFailureIsResourceExhaustion(t *testing.T) {
	stack := &fakeStack{err: &NotifierError{Cause: unix.EMFILE}}
	_, err := New(stack, linux.AF_INET, linux.SOCK_STREAM, 0)
	if err != linux.ENFILE {
		t.Fatalf("New = %v, want ENFILE", err)
	}
}

func TestNew_HostOpenFailureIsTranslated(t *testing.T) {
	stack := &fakeStack{err: unix.EMFILE}
	_, err := New(stack, linux.AF_INET, linux.SOCK_STREAM, 0)
	if err != linux.EMFILE {
		t.Fatalf("New = %v, want EMFILE", err)
	}
}

func TestSendTo_NonblockingFullBufferReturnsWouldBlock(t *testing.T) {
	h := &fakeHost{}
	s := newSocket(t, h, linux.SOCK_STREAM|linux.SOCK_NONBLOCK)

	_, err := s.SendTo([]byte("data"), 0, nil)
	if err != linux.EWOULDBLOCK {
		t.Fatalf("SendTo = %v, want EWOULDBLOCK", err)
	}
}

func TestSendTo_RetriesAfterStaleWriteNotification(t *testing.T) {
	calls := 0
	h := &fakeHost{
		pending: []readiness.Events{{Classes: readiness.Writable}},
		waits:   []readiness.Events{{Classes: readiness.Writable}},
	}
	h.sendTo = func(p, addr []byte) (int, error) {
		calls++
		if calls == 1 {
			return 0, unix.EAGAIN
		}
		return len(p), nil
	}
	s := newSocket(t, h, linux.SOCK_STREAM)

	n, err := s.SendTo([]byte("data"), 0, nil)
	if err != nil {
		t.Fatalf("SendTo: %v", err)
	}
	if n != 4 {
		t.Errorf("SendTo = %d, want 4", n)
	}
	if calls != 2 {
		t.Errorf("host sendto called %d times, want 2", calls)
	}
}

func TestSendTo_HardFailureIsTranslated(t *testing.T) {
	h := &fakeHost{pending: []readiness.Events{{Classes: readiness.Writable}}}
	h.sendTo = func(p, addr []byte) (int, error) {
		return 0, unix.ECONNRESET
	}
	s := newSocket(t, h, linux.SOCK_STREAM)

	_, err := s.SendTo([]byte("data"), 0, nil)
	if err != linux.ECONNRESET {
		t.Fatalf("SendTo = %v, want ECONNRESET", err)
	}
}

func TestRecvFrom_PeekPreservesStickyBit(t *testing.T) {
	h := &fakeHost{pending: []readiness.Events{{Classes: readiness.Readable}}}
	h.recvFrom = func(p []byte, peek bool) (int, []byte, error) {
		if !peek {
			t.Error("MSG_PEEK must reach the host")
		}
		return copy(p, "hello"), nil, nil
	}
	s := newSocket(t, h, linux.SOCK_DGRAM)

	buf1 := make([]byte, 16)
	n1, _, err := s.RecvFrom(buf1, linux.MSG_PEEK)
	if err != nil {
		t.Fatalf("first peek: %v", err)
	}
	buf2 := make([]byte, 16)
	n2, _, err := s.RecvFrom(buf2, linux.MSG_PEEK)
	if err != nil {
		t.Fatalf("second peek: %v", err)
	}
	if !bytes.Equal(buf1[:n1], buf2[:n2]) {
		t.Error("consecutive peeks must return identical bytes")
	}
	if s.state.Ready()&readiness.Readable == 0 {
		t.Error("peek must not clear the sticky read bit")
	}
}

func TestRecvFrom_ClearsReadBitBeforeTransfer(t *testing.T) {
	h := &fakeHost{pending: []readiness.Events{{Classes: readiness.Readable}}}
	var s *Socket
	h.recvFrom = func(p []byte, peek bool) (int, []byte, error) {
		// The clear happens before the transfer is attempted.
		if s.state.Ready()&readiness.Readable != 0 {
			t.Error("read bit still set during the transfer")
		}
		return copy(p, "x"), nil, nil
	}
	s = newSocket(t, h, linux.SOCK_DGRAM)

	if _, _, err := s.RecvFrom(make([]byte, 4), 0); err != nil {
		t.Fatalf("RecvFrom: %v", err)
	}
}

func TestRecvFrom_NonblockingEmptyReturnsWouldBlock(t *testing.T) {
	h := &fakeHost{}
	s := newSocket(t, h, linux.SOCK_DGRAM|linux.SOCK_NONBLOCK)

	_, _, err := s.RecvFrom(make([]byte, 4), 0)
	if err != linux.EWOULDBLOCK {
		t.Fatalf("RecvFrom = %v, want EWOULDBLOCK", err)
	}
}

func TestRecvFrom_DontWaitOnBlockingSocket(t *testing.T) {
	h := &fakeHost{}
	s := newSocket(t, h, linux.SOCK_DGRAM)

	_, _, err := s.RecvFrom(make([]byte, 4), linux.MSG_DONTWAIT)
	if err != linux.EWOULDBLOCK {
		t.Fatalf("RecvFrom = %v, want EWOULDBLOCK", err)
	}
}

func TestSendMsg_PreservesSegments(t *testing.T) {
	h := &fakeHost{pending: []readiness.Events{{Classes: readiness.Writable}}}
	var got *netshim.Message
	h.sendMsg = func(m *netshim.Message) (int, error) {
		got = m
		return m.TotalLen(), nil
	}
	s := newSocket(t, h, linux.SOCK_DGRAM)

	msg := &netshim.Message{Buffers: [][]byte{[]byte("ab"), []byte("cde")}}
	n, err := s.SendMsg(msg, 0)
	if err != nil {
		t.Fatalf("SendMsg: %v", err)
	}
	if n != 5 {
		t.Errorf("SendMsg = %d, want 5", n)
	}
	if len(got.Buffers) != 2 || string(got.Buffers[0]) != "ab" || string(got.Buffers[1]) != "cde" {
		t.Error("segment order or contents changed on the way to the host")
	}
}

func TestConnect_NonblockingInProgress(t *testing.T) {
	h := &fakeHost{connect: func(addr []byte) error { return unix.EINPROGRESS }}
	s := newSocket(t, h, linux.SOCK_STREAM|linux.SOCK_NONBLOCK)

	if err := s.Connect(nil); err != linux.EINPROGRESS {
		t.Fatalf("Connect = %v, want EINPROGRESS", err)
	}
}

func TestConnect_BlockingWaitsAndReportsCompletionError(t *testing.T) {
	h := &fakeHost{
		connect: func(addr []byte) error { return unix.EINPROGRESS },
		waits: []readiness.Events{
			{Classes: readiness.ConnectDone, ConnectErr: unix.ECONNREFUSED},
		},
	}
	s := newSocket(t, h, linux.SOCK_STREAM)

	if err := s.Connect(nil); err != linux.ECONNREFUSED {
		t.Fatalf("Connect = %v, want ECONNREFUSED", err)
	}
	// The completion was claimed; nothing is left to report.
	if _, ok := s.state.ClaimConnectError(); ok {
		t.Error("completion must be surfaced at most once")
	}
}

func TestConnect_BlockingSuccess(t *testing.T) {
	h := &fakeHost{
		connect: func(addr []byte) error { return unix.EINPROGRESS },
		waits:   []readiness.Events{{Classes: readiness.ConnectDone}},
	}
	s := newSocket(t, h, linux.SOCK_STREAM)

	if err := s.Connect(nil); err != nil {
		t.Fatalf("Connect = %v, want nil", err)
	}
}

func TestConnect_HardFailureTranslated(t *testing.T) {
	h := &fakeHost{connect: func(addr []byte) error { return unix.ENETUNREACH }}
	s := newSocket(t, h, linux.SOCK_STREAM)

	if err := s.Connect(nil); err != linux.ENETUNREACH {
		t.Fatalf("Connect = %v, want ENETUNREACH", err)
	}
}

func TestPollStatus(t *testing.T) {
	h := &fakeHost{pending: []readiness.Events{{Classes: readiness.Readable | readiness.Writable}}}
	s := newSocket(t, h, linux.SOCK_STREAM)

	status := s.PollStatus()
	if status != linux.POLLIN|linux.POLLOUT {
		t.Fatalf("PollStatus = %#x, want POLLIN|POLLOUT", status)
	}
	// Repeated queries must not consume the readiness.
	if s.PollStatus() != status {
		t.Error("poll status must not disappear across repeated queries")
	}
}

func TestClose_ReleasesHostOnce(t *testing.T) {
	h := &fakeHost{}
	s := newSocket(t, h, linux.SOCK_STREAM)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.closed != 1 {
		t.Fatalf("host closed %d times, want 1", h.closed)
	}
}
