package sys

import (
	"go.uber.org/zap"

	"github.com/wippyai/netshim/linux"
)

// socketcallArgs maps a call identifier to the number of guest words in
// its packed argument vector. Index 0 is unused; identifiers past
// SYS_SENDMMSG do not exist.
var socketcallArgs = [linux.SYS_SENDMMSG + 1]uint32{
	0, 3, 3, 3, 2, 3,
	3, 3, 4, 4, 4, 6,
	6, 2, 5, 5, 3, 3,
	4, 5, 4,
}

// Socketcall is the legacy multiplexed entry point: one call identifier
// and a pointer to a packed argument vector. The vector is validated for
// the identifier's documented word count before any dispatch happens.
// Calls with no implementation behind them fail with EINVAL.
func (h *Handler) Socketcall(call, argsPtr uint32) (int32, error) {
	if call < 1 || call > linux.SYS_SENDMMSG {
		return 0, linux.EINVAL
	}
	nargs := socketcallArgs[call]
	if !h.mem.CanRead(argsPtr, nargs*linux.WordSize) {
		return 0, linux.EFAULT
	}
	var a [6]uint32
	for i := uint32(0); i < nargs; i++ {
		v, err := h.mem.ReadU32(argsPtr + i*linux.WordSize)
		if err != nil {
			return 0, linux.EFAULT
		}
		a[i] = v
	}

	switch call {
	case linux.SYS_SOCKET:
		return h.Socket(a[0], a[1], a[2])
	case linux.SYS_CONNECT:
		return 0, h.Connect(int32(a[0]), a[1], a[2])
	case linux.SYS_GETSOCKNAME:
		return 0, h.GetSockName(int32(a[0]), a[1], a[2])
	case linux.SYS_GETPEERNAME:
		return 0, h.GetPeerName(int32(a[0]), a[1], a[2])
	case linux.SYS_SEND:
		return h.Send(int32(a[0]), a[1], a[2], a[3])
	case linux.SYS_RECV:
		return h.Recv(int32(a[0]), a[1], a[2], a[3])
	case linux.SYS_SENDTO:
		return h.SendTo(int32(a[0]), a[1], a[2], a[3], a[4], a[5])
	case linux.SYS_RECVFROM:
		return h.RecvFrom(int32(a[0]), a[1], a[2], a[3], a[4], a[5])
	case linux.SYS_SENDMSG:
		return h.SendMsg(int32(a[0]), a[1], a[2])
	case linux.SYS_SENDMMSG:
		return h.SendMmsg(int32(a[0]), a[1], a[2], a[3])
	default:
		Logger().Error("unimplemented socket call", zap.Uint32("call", call))
		return 0, linux.EINVAL
	}
}
