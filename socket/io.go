package socket

import (
	"go.uber.org/zap"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/readiness"
	"github.com/wippyai/netshim/translate"
)

// SendTo transmits p, optionally to an explicit destination address. It
// waits for write readiness, attempts the native transfer and retries the
// wait when the host disagrees with a stale notification.
func (s *Socket) SendTo(p []byte, flags uint32, addr []byte) (int, error) {
	if flags&^uint32(linux.MSG_DONTWAIT) != 0 {
		Logger().Error("flags contain unsupported bits", zap.Uint32("flags", flags))
	}
	for {
		if err := s.waitEvent(readiness.Writable, flags); err != nil {
			return 0, err
		}
		n, err := s.host.SendTo(p, addr)
		if err == nil {
			return n, nil
		}
		if !translate.WouldBlock(err) {
			Logger().Warn("sendto failed", zap.Error(err))
			return 0, translate.Error(err)
		}
		// The host says the prior write notification no longer reflects
		// truth; drop the sticky bit and wait for the next transition.
		s.state.Clear(readiness.Writable)
	}
}

// RecvFrom receives into p and returns the byte count together with the
// source address, when the host reports one.
//
// Unless MSG_PEEK is set, the sticky read bit is cleared before the
// transfer is attempted, not after. Clearing late could swallow a
// notification that arrives while old data still sits in the host buffer;
// clearing early costs at most one spurious wakeup. This asymmetry with
// the send path is intentional.
func (s *Socket) RecvFrom(p []byte, flags uint32) (int, []byte, error) {
	if flags&^uint32(linux.MSG_PEEK|linux.MSG_DONTWAIT) != 0 {
		Logger().Error("flags contain unsupported bits", zap.Uint32("flags", flags))
	}
	peek := flags&linux.MSG_PEEK != 0
	for {
		if err := s.waitEvent(readiness.Readable, flags); err != nil {
			return 0, nil, err
		}
		if !peek {
			s.state.Clear(readiness.Readable)
		}
		n, from, err := s.host.RecvFrom(p, peek)
		if err == nil {
			return n, from, nil
		}
		if !translate.WouldBlock(err) {
			Logger().Warn("recvfrom failed", zap.Error(err))
			return 0, nil, translate.Error(err)
		}
	}
}

// SendMsg transmits a scatter/gather message, preserving segment order and
// lengths exactly. The wait/retry discipline matches SendTo.
func (s *Socket) SendMsg(m *netshim.Message, flags uint32) (int, error) {
	if flags&^uint32(linux.MSG_DONTWAIT) != 0 {
		Logger().Error("sendmsg flags contain unsupported bits", zap.Uint32("flags", flags))
	}
	for {
		if err := s.waitEvent(readiness.Writable, flags); err != nil {
			return 0, err
		}
		n, err := s.host.SendMsg(m)
		if err == nil {
			return n, nil
		}
		if !translate.WouldBlock(err) {
			Logger().Warn("sendmsg failed", zap.Error(err))
			return 0, translate.Error(err)
		}
		s.state.Clear(readiness.Writable)
	}
}

// Read implements the plain file read entry point: a receive with no
// flags and no source address.
func (s *Socket) Read(p []byte) (int, error) {
	n, _, err := s.RecvFrom(p, 0)
	return n, err
}

// Write implements the plain file write entry point: a send with no flags
// and no destination.
func (s *Socket) Write(p []byte) (int, error) {
	return s.SendTo(p, 0, nil)
}
