// Package guestmem provides guest memory accessors.
//
// Two implementations of the netshim.Memory contract live here. Bytes is
// a plain slice-backed memory with an unmapped zero page, used by tests
// and by embedders that manage the guest address space themselves. Wazero
// adapts a wazero linear memory so wasm32 guests can issue socket
// syscalls against their own module memory.
//
// Accessor failures surface as linux.EFAULT so callers can hand the
// result straight back to the guest.
package guestmem
