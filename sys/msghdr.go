package sys

import (
	"encoding/binary"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
)

// maxIovSegments bounds the segment count before the array size
// calculation, so a hostile iovlen cannot wrap the validation range.
const maxIovSegments = 1024

// guest msghdr field offsets (32-bit ABI)
const (
	msgName       = 0
	msgNameLen    = 4
	msgIov        = 8
	msgIovLen     = 12
	msgControl    = 16
	msgControlLen = 20
)

// readMsghdr validates a guest msghdr and gathers it into a Message.
// Validation fails closed: the header, the iovec array, every individual
// segment and the control buffer must each be fully accessible, or the
// whole call fails with EFAULT before any data is copied.
func (h *Handler) readMsghdr(ptr uint32) (*netshim.Message, error) {
	if !h.mem.CanRead(ptr, linux.SizeofMsghdr) {
		return nil, linux.EFAULT
	}
	raw, err := h.mem.Read(ptr, linux.SizeofMsghdr)
	if err != nil {
		return nil, linux.EFAULT
	}
	var (
		name       = binary.LittleEndian.Uint32(raw[msgName:])
		nameLen    = binary.LittleEndian.Uint32(raw[msgNameLen:])
		iov        = binary.LittleEndian.Uint32(raw[msgIov:])
		iovLen     = binary.LittleEndian.Uint32(raw[msgIovLen:])
		control    = binary.LittleEndian.Uint32(raw[msgControl:])
		controlLen = binary.LittleEndian.Uint32(raw[msgControlLen:])
	)

	if iovLen > maxIovSegments {
		return nil, linux.EMSGSIZE
	}
	if iovLen != 0 && !h.mem.CanRead(iov, iovLen*linux.SizeofIovec) {
		return nil, linux.EFAULT
	}
	if controlLen != 0 && !h.mem.CanRead(control, controlLen) {
		return nil, linux.EFAULT
	}
	if nameLen != 0 && !h.mem.CanRead(name, nameLen) {
		return nil, linux.EFAULT
	}

	msg := &netshim.Message{}
	if nameLen != 0 {
		if msg.Name, err = h.mem.Read(name, nameLen); err != nil {
			return nil, linux.EFAULT
		}
	}
	for i := uint32(0); i < iovLen; i++ {
		seg, err := h.mem.Read(iov+i*linux.SizeofIovec, linux.SizeofIovec)
		if err != nil {
			return nil, linux.EFAULT
		}
		base := binary.LittleEndian.Uint32(seg)
		segLen := binary.LittleEndian.Uint32(seg[4:])
		if !h.mem.CanRead(base, segLen) {
			return nil, linux.EFAULT
		}
		buf, err := h.mem.Read(base, segLen)
		if err != nil {
			return nil, linux.EFAULT
		}
		msg.Buffers = append(msg.Buffers, buf)
	}
	if controlLen != 0 {
		if msg.Control, err = h.mem.Read(control, controlLen); err != nil {
			return nil, linux.EFAULT
		}
	}
	return msg, nil
}
