package netshim

// Memory validates and accesses guest memory. Guest addresses are 32-bit
// offsets into the guest's address space (wasm32 or i386-class guests).
//
// Every syscall entry point checks accessibility with CanRead/CanWrite
// before touching guest memory; Read/Write may still fail if the guest
// remaps concurrently, and implementations must bounds-check on their own.
type Memory interface {
	// CanRead reports whether [off, off+n) is readable guest memory.
	CanRead(off, n uint32) bool
	// CanWrite reports whether [off, off+n) is writable guest memory.
	CanWrite(off, n uint32) bool
	// Read returns a copy of n bytes at off.
	Read(off, n uint32) ([]byte, error)
	// Write copies data into guest memory at off.
	Write(off uint32, data []byte) error
	// ReadU32 reads a little-endian u32 at off.
	ReadU32(off uint32) (uint32, error)
	// WriteU32 writes a little-endian u32 at off.
	WriteU32(off uint32, v uint32) error
}

// Waitable blocks the calling goroutine until the underlying notification
// object signals. A return does not imply any particular condition holds;
// callers must re-check and retry (spurious wakeups are expected).
type Waitable interface {
	Wait() error
}

// File is the generic pollable resource contract shared by every resource
// kind the descriptor table can hold. Multiplexed-wait machinery uses the
// two poll queries; the table uses Close when the last reference drops.
type File interface {
	// PollStatus returns the currently known readiness as guest poll bits
	// (POLLIN, POLLOUT). It never blocks.
	PollStatus() uint32
	// PollWaiter returns the file's notification handle together with the
	// mask of poll classes it can signal.
	PollWaiter() (Waitable, uint32)
	// Close releases the underlying native resources. It is called exactly
	// once, by the owner holding the last reference.
	Close() error
}

// Table is the descriptor table collaborator: it maps guest descriptor
// numbers to reference-counted Files.
type Table interface {
	// Store registers a file with an initial reference count of one and
	// returns its descriptor number.
	Store(f File, cloexec bool) (int32, error)
	// Resolve returns the file for a descriptor, without taking a
	// reference.
	Resolve(fd int32) (File, bool)
	// Release drops one reference; the file is closed when the count
	// reaches zero.
	Release(f File)
}

// Message is a scatter/gather descriptor: an optional destination address,
// an ordered sequence of buffer segments and an optional ancillary control
// buffer. It is built per call from guest memory and never retained.
type Message struct {
	Name    []byte
	Buffers [][]byte
	Control []byte
}

// TotalLen returns the sum of all buffer segment lengths.
func (m *Message) TotalLen() int {
	total := 0
	for _, b := range m.Buffers {
		total += len(b)
	}
	return total
}
