package socket

import (
	"go.uber.org/zap"

	"github.com/wippyai/netshim/linux"
	"github.com/wippyai/netshim/readiness"
	"github.com/wippyai/netshim/translate"
)

// Connect issues the native connect. Hard host failures are translated
// immediately. When the host reports a would-block-class result the
// behavior depends on the resource's mode: non-blocking sockets report
// EINPROGRESS and the guest polls for completion later; blocking sockets
// wait for the connect-completed class and report the captured completion
// error.
func (s *Socket) Connect(addr []byte) error {
	err := s.host.Connect(addr)
	if err == nil {
		return nil
	}
	if !translate.WouldBlock(err) {
		Logger().Warn("connect failed", zap.Error(err))
		return translate.Error(err)
	}
	if s.Nonblocking() {
		Logger().Debug("connect in progress")
		return linux.EINPROGRESS
	}
	if err := s.state.WaitFor(readiness.ConnectDone, false); err != nil {
		if _, ok := linux.AsErrno(err); ok {
			return err
		}
		return translate.Error(err)
	}
	completion, ok := s.state.ClaimConnectError()
	if !ok || completion == nil {
		return nil
	}
	return translate.Error(completion)
}

// LocalName returns the socket's local address as guest sockaddr bytes.
func (s *Socket) LocalName() ([]byte, error) {
	name, err := s.host.LocalName()
	if err != nil {
		Logger().Warn("getsockname failed", zap.Error(err))
		return nil, translate.Error(err)
	}
	return name, nil
}

// PeerName returns the peer's address as guest sockaddr bytes.
func (s *Socket) PeerName() ([]byte, error) {
	name, err := s.host.PeerName()
	if err != nil {
		Logger().Warn("getpeername failed", zap.Error(err))
		return nil, translate.Error(err)
	}
	return name, nil
}
