package guestmem

import (
	"encoding/binary"

	"github.com/wippyai/netshim/linux"
)

// zeroPage is the size of the unmapped region at the bottom of a Bytes
// memory. Guest NULL and near-NULL pointers must never validate.
const zeroPage = 4096

// Bytes is a slice-backed guest memory. The first page is unmapped.
type Bytes struct {
	data []byte
}

// NewBytes returns a guest memory of the given total size. Offsets below
// the first page boundary are inaccessible.
func NewBytes(size uint32) *Bytes {
	return &Bytes{data: make([]byte, size)}
}

func (m *Bytes) inRange(off, n uint32) bool {
	if off < zeroPage {
		return false
	}
	end := uint64(off) + uint64(n)
	return end <= uint64(len(m.data))
}

func (m *Bytes) CanRead(off, n uint32) bool  { return m.inRange(off, n) }
func (m *Bytes) CanWrite(off, n uint32) bool { return m.inRange(off, n) }

func (m *Bytes) Read(off, n uint32) ([]byte, error) {
	if !m.inRange(off, n) {
		return nil, linux.EFAULT
	}
	out := make([]byte, n)
	copy(out, m.data[off:])
	return out, nil
}

func (m *Bytes) Write(off uint32, data []byte) error {
	if !m.inRange(off, uint32(len(data))) {
		return linux.EFAULT
	}
	copy(m.data[off:], data)
	return nil
}

func (m *Bytes) ReadU32(off uint32) (uint32, error) {
	if !m.inRange(off, 4) {
		return 0, linux.EFAULT
	}
	return binary.LittleEndian.Uint32(m.data[off:]), nil
}

func (m *Bytes) WriteU32(off uint32, v uint32) error {
	if !m.inRange(off, 4) {
		return linux.EFAULT
	}
	binary.LittleEndian.PutUint32(m.data[off:], v)
	return nil
}
