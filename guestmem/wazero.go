package guestmem

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/netshim/linux"
)

// Wazero adapts a wazero linear memory to the guest memory contract.
// Offset zero is a valid wasm address, so unlike Bytes there is no
// unmapped page; wasm guests place their data segments above zero on
// their own.
type Wazero struct {
	mem api.Memory
}

// NewWazero wraps a module's linear memory.
func NewWazero(mem api.Memory) *Wazero {
	return &Wazero{mem: mem}
}

func (m *Wazero) inRange(off, n uint32) bool {
	end := uint64(off) + uint64(n)
	return end <= uint64(m.mem.Size())
}

func (m *Wazero) CanRead(off, n uint32) bool  { return m.inRange(off, n) }
func (m *Wazero) CanWrite(off, n uint32) bool { return m.inRange(off, n) }

// Read copies out of the linear memory. wazero hands back a live view
// that later memory growth can invalidate, so the copy is mandatory.
func (m *Wazero) Read(off, n uint32) ([]byte, error) {
	view, ok := m.mem.Read(off, n)
	if !ok {
		return nil, linux.EFAULT
	}
	out := make([]byte, n)
	copy(out, view)
	return out, nil
}

func (m *Wazero) Write(off uint32, data []byte) error {
	if !m.mem.Write(off, data) {
		return linux.EFAULT
	}
	return nil
}

func (m *Wazero) ReadU32(off uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(off)
	if !ok {
		return 0, linux.EFAULT
	}
	return v, nil
}

func (m *Wazero) WriteU32(off uint32, v uint32) error {
	if !m.mem.WriteUint32Le(off, v) {
		return linux.EFAULT
	}
	return nil
}
