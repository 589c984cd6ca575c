package fdtable

import (
	"sync"

	"github.com/wippyai/netshim"
	"github.com/wippyai/netshim/linux"
)

// MaxDescriptors caps the number of simultaneously open descriptors.
const MaxDescriptors = 1024

type entry struct {
	file    netshim.File
	cloexec bool
	valid   bool
}

// Table is a reference-counted descriptor table. It implements
// netshim.Table.
type Table struct {
	mu       sync.Mutex
	entries  []entry
	freeList []int32
	refs     map[netshim.File]int
}

// New creates an empty descriptor table.
func New() *Table {
	return &Table{
		entries: make([]entry, 0, 64),
		refs:    make(map[netshim.File]int),
	}
}

// Store registers a file with a reference count of one and returns its
// descriptor number. It fails with EMFILE when the table is full.
func (t *Table) Store(f netshim.File, cloexec bool) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := entry{file: f, cloexec: cloexec, valid: true}

	var fd int32
	if n := len(t.freeList); n > 0 {
		fd = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[fd] = e
	} else {
		if len(t.entries) >= MaxDescriptors {
			return -1, linux.EMFILE
		}
		t.entries = append(t.entries, e)
		fd = int32(len(t.entries) - 1)
	}

	t.refs[f]++
	return fd, nil
}

// Resolve returns the file for a descriptor without taking a reference.
func (t *Table) Resolve(fd int32) (netshim.File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || int(fd) >= len(t.entries) || !t.entries[fd].valid {
		return nil, false
	}
	return t.entries[fd].file, true
}

// Retain takes an additional reference on a file already in the table,
// for descriptor duplication.
func (t *Table) Retain(f netshim.File) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.refs[f]; ok {
		t.refs[f]++
	}
}

// Release drops one reference. When the count reaches zero the file's
// Close runs, exactly once.
func (t *Table) Release(f netshim.File) {
	t.mu.Lock()
	n, ok := t.refs[f]
	if !ok {
		t.mu.Unlock()
		return
	}
	n--
	if n > 0 {
		t.refs[f] = n
		t.mu.Unlock()
		return
	}
	delete(t.refs, f)
	t.mu.Unlock()

	_ = f.Close()
}

// CloseFD removes a descriptor number and drops its reference. A second
// close of the same number reports EBADF with no further effect.
func (t *Table) CloseFD(fd int32) error {
	t.mu.Lock()
	if fd < 0 || int(fd) >= len(t.entries) || !t.entries[fd].valid {
		t.mu.Unlock()
		return linux.EBADF
	}
	f := t.entries[fd].file
	t.entries[fd] = entry{}
	t.freeList = append(t.freeList, fd)
	t.mu.Unlock()

	t.Release(f)
	return nil
}

// CloseOnExec closes every descriptor marked close-on-exec, for exec
// handling.
func (t *Table) CloseOnExec() {
	t.mu.Lock()
	var doomed []int32
	for fd := range t.entries {
		if t.entries[fd].valid && t.entries[fd].cloexec {
			doomed = append(doomed, int32(fd))
		}
	}
	t.mu.Unlock()

	for _, fd := range doomed {
		_ = t.CloseFD(fd)
	}
}

// Len returns the number of live descriptors.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}
