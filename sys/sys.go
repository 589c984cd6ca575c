package sys

import (
	"go.uber.org/zap"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/socket"
)

// Handler implements the socket syscall surface against a guest memory,
// a descriptor table and a host networking stack.
type Handler struct {
	mem   netshim.Memory
	files netshim.Table
	stack socket.Stack
}

// New returns a syscall handler bound to its collaborators.
func New(mem netshim.Memory, files netshim.Table, stack socket.Stack) *Handler {
	return &Handler{mem: mem, files: files, stack: stack}
}

// resolve maps a guest descriptor to its socket resource. A descriptor
// that is open but holds a different resource kind fails with ENOTSOCK.
func (h *Handler) resolve(fd int32) (*socket.Socket, error) {
	f, ok := h.files.Resolve(fd)
	if !ok {
		return nil, linux.EBADF
	}
	s, ok := f.(*socket.Socket)
	if !ok {
		return nil, linux.ENOTSOCK
	}
	return s, nil
}

// Socket creates a socket resource and registers it in the descriptor
// table, honoring the close-on-exec bit carried in kind.
func (h *Handler) Socket(domain, kind, protocol uint32) (int32, error) {
	Logger().Debug("socket",
		zap.Uint32("domain", domain), zap.Uint32("kind", kind), zap.Uint32("protocol", protocol))
	s, err := socket.New(h.stack, int(domain), int(kind), int(protocol))
	if err != nil {
		return 0, err
	}
	fd, err := h.files.Store(s, kind&linux.SOCK_CLOEXEC != 0)
	if err != nil {
		_ = s.Close()
		return 0, err
	}
	Logger().Debug("socket created", zap.Int32("fd", fd))
	return fd, nil
}

// Connect issues connect(2) for the guest.
func (h *Handler) Connect(fd int32, addrPtr, addrLen uint32) error {
	Logger().Debug("connect",
		zap.Int32("fd", fd), zap.Uint32("addr", addrPtr), zap.Uint32("addrlen", addrLen))
	if !h.mem.CanRead(addrPtr, linux.SizeofSockaddr) {
		return linux.EFAULT
	}
	s, err := h.resolve(fd)
	if err != nil {
		return err
	}
	addr, err := h.mem.Read(addrPtr, addrLen)
	if err != nil {
		return linux.EFAULT
	}
	return s.Connect(addr)
}

// GetSockName writes the socket's local address to guest memory,
// truncated to the guest's buffer, and stores the untruncated length
// back through lenPtr.
func (h *Handler) GetSockName(fd int32, addrPtr, lenPtr uint32) error {
	Logger().Debug("getsockname",
		zap.Int32("fd", fd), zap.Uint32("addr", addrPtr), zap.Uint32("lenptr", lenPtr))
	return h.nameQuery(fd, addrPtr, lenPtr, (*socket.Socket).LocalName)
}

// GetPeerName writes the peer's address to guest memory with the same
// truncation contract as GetSockName.
func (h *Handler) GetPeerName(fd int32, addrPtr, lenPtr uint32) error {
	Logger().Debug("getpeername",
		zap.Int32("fd", fd), zap.Uint32("addr", addrPtr), zap.Uint32("lenptr", lenPtr))
	return h.nameQuery(fd, addrPtr, lenPtr, (*socket.Socket).PeerName)
}

func (h *Handler) nameQuery(fd int32, addrPtr, lenPtr uint32, query func(*socket.Socket) ([]byte, error)) error {
	if !h.mem.CanWrite(lenPtr, linux.WordSize) {
		return linux.EFAULT
	}
	avail, err := h.mem.ReadU32(lenPtr)
	if err != nil {
		return linux.EFAULT
	}
	if !h.mem.CanWrite(addrPtr, avail) {
		return linux.EFAULT
	}
	s, err := h.resolve(fd)
	if err != nil {
		return err
	}
	name, err := query(s)
	if err != nil {
		return err
	}
	n := uint32(len(name))
	if n > avail {
		n = avail
	}
	if err := h.mem.Write(addrPtr, name[:n]); err != nil {
		return linux.EFAULT
	}
	if err := h.mem.WriteU32(lenPtr, uint32(len(name))); err != nil {
		return linux.EFAULT
	}
	return nil
}

// Send transmits length bytes from guest memory with no explicit
// destination.
func (h *Handler) Send(fd int32, bufPtr, length, flags uint32) (int32, error) {
	Logger().Debug("send",
		zap.Int32("fd", fd), zap.Uint32("buf", bufPtr), zap.Uint32("len", length), zap.Uint32("flags", flags))
	return h.sendTo(fd, bufPtr, length, flags, 0, 0)
}

// SendTo transmits length bytes from guest memory, to an explicit
// destination when destPtr is non-zero.
func (h *Handler) SendTo(fd int32, bufPtr, length, flags, destPtr, destLen uint32) (int32, error) {
	Logger().Debug("sendto",
		zap.Int32("fd", fd), zap.Uint32("buf", bufPtr), zap.Uint32("len", length),
		zap.Uint32("flags", flags), zap.Uint32("dest", destPtr), zap.Uint32("destlen", destLen))
	return h.sendTo(fd, bufPtr, length, flags, destPtr, destLen)
}

func (h *Handler) sendTo(fd int32, bufPtr, length, flags, destPtr, destLen uint32) (int32, error) {
	if !h.mem.CanRead(bufPtr, length) {
		return 0, linux.EFAULT
	}
	if destPtr != 0 && !h.mem.CanRead(destPtr, destLen) {
		return 0, linux.EFAULT
	}
	s, err := h.resolve(fd)
	if err != nil {
		return 0, err
	}
	buf, err := h.mem.Read(bufPtr, length)
	if err != nil {
		return 0, linux.EFAULT
	}
	var dest []byte
	if destPtr != 0 {
		if dest, err = h.mem.Read(destPtr, destLen); err != nil {
			return 0, linux.EFAULT
		}
	}
	n, err := s.SendTo(buf, flags, dest)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// Recv receives up to length bytes into guest memory, discarding the
// source address.
func (h *Handler) Recv(fd int32, bufPtr, length, flags uint32) (int32, error) {
	Logger().Debug("recv",
		zap.Int32("fd", fd), zap.Uint32("buf", bufPtr), zap.Uint32("len", length), zap.Uint32("flags", flags))
	return h.recvFrom(fd, bufPtr, length, flags, 0, 0)
}

// RecvFrom receives up to length bytes into guest memory and, when
// srcPtr is non-zero, writes the source address back with the name-query
// truncation contract.
func (h *Handler) RecvFrom(fd int32, bufPtr, length, flags, srcPtr, srcLenPtr uint32) (int32, error) {
	Logger().Debug("recvfrom",
		zap.Int32("fd", fd), zap.Uint32("buf", bufPtr), zap.Uint32("len", length),
		zap.Uint32("flags", flags), zap.Uint32("src", srcPtr), zap.Uint32("srclenptr", srcLenPtr))
	return h.recvFrom(fd, bufPtr, length, flags, srcPtr, srcLenPtr)
}

func (h *Handler) recvFrom(fd int32, bufPtr, length, flags, srcPtr, srcLenPtr uint32) (int32, error) {
	if !h.mem.CanWrite(bufPtr, length) {
		return 0, linux.EFAULT
	}
	var srcAvail uint32
	if srcPtr != 0 {
		if !h.mem.CanWrite(srcLenPtr, linux.WordSize) {
			return 0, linux.EFAULT
		}
		var err error
		if srcAvail, err = h.mem.ReadU32(srcLenPtr); err != nil {
			return 0, linux.EFAULT
		}
		if !h.mem.CanWrite(srcPtr, srcAvail) {
			return 0, linux.EFAULT
		}
	}
	s, err := h.resolve(fd)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, length)
	n, from, err := s.RecvFrom(buf, flags)
	if err != nil {
		return 0, err
	}
	if err := h.mem.Write(bufPtr, buf[:n]); err != nil {
		return 0, linux.EFAULT
	}
	if srcPtr != 0 && from != nil {
		cp := uint32(len(from))
		if cp > srcAvail {
			cp = srcAvail
		}
		if err := h.mem.Write(srcPtr, from[:cp]); err != nil {
			return 0, linux.EFAULT
		}
		if err := h.mem.WriteU32(srcLenPtr, uint32(len(from))); err != nil {
			return 0, linux.EFAULT
		}
	}
	return int32(n), nil
}

// SendMsg transmits one scatter/gather message described in guest memory.
func (h *Handler) SendMsg(fd int32, msgPtr, flags uint32) (int32, error) {
	Logger().Debug("sendmsg",
		zap.Int32("fd", fd), zap.Uint32("msg", msgPtr), zap.Uint32("flags", flags))
	msg, err := h.readMsghdr(msgPtr)
	if err != nil {
		return 0, err
	}
	s, err := h.resolve(fd)
	if err != nil {
		return 0, err
	}
	n, err := s.SendMsg(msg, flags)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// SendMmsg sends a vector of messages one by one. The host has no atomic
// multi-message send, so the emulation stops at the first message that
// fails, would block or only partially transmits, and reports how many
// messages were processed.
//
// The counting rules: a failing or blocked first message surfaces its
// error (EWOULDBLOCK for a zero-byte send). A later message that fails
// validation or sending yields the count of messages before it. A later
// message that transmits fewer bytes than it carries is still counted,
// and the operation stops after it. Each sent message's byte count is
// stored into its vector slot.
func (h *Handler) SendMmsg(fd int32, vecPtr, vlen, flags uint32) (int32, error) {
	Logger().Debug("sendmmsg",
		zap.Int32("fd", fd), zap.Uint32("vec", vecPtr), zap.Uint32("vlen", vlen), zap.Uint32("flags", flags))
	if vlen > 0 && !h.mem.CanWrite(vecPtr, linux.SizeofMmsghdr) {
		return 0, linux.EFAULT
	}
	s, err := h.resolve(fd)
	if err != nil {
		return 0, err
	}
	for i := uint32(0); i < vlen; i++ {
		entry := vecPtr + i*linux.SizeofMmsghdr
		if !h.mem.CanWrite(entry, linux.SizeofMmsghdr) {
			if i == 0 {
				return 0, linux.EFAULT
			}
			return int32(i), nil
		}
		msg, err := h.readMsghdr(entry)
		if err != nil {
			if i == 0 {
				return 0, err
			}
			return int32(i), nil
		}
		n, err := s.SendMsg(msg, flags)
		if i == 0 && err != nil {
			return 0, err
		}
		if i == 0 && n == 0 {
			return 0, linux.EWOULDBLOCK
		}
		if err != nil || n == 0 {
			return int32(i), nil
		}
		if err := h.mem.WriteU32(entry+linux.SizeofMsghdr, uint32(n)); err != nil {
			return int32(i), nil
		}
		if n < msg.TotalLen() {
			return int32(i + 1), nil
		}
	}
	return int32(vlen), nil
}
