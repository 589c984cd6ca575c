// Package linux defines the numeric surface of the emulated guest: errno
// values, address families, socket kinds, message flags, poll bits and the
// socketcall identifiers.
//
// The values are the guest's ABI and are deliberately independent of the
// host platform's own constants. Host error codes never appear here; they
// cross into this space through the translate package.
package linux
