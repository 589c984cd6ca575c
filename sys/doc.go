// Package sys is the guest-facing syscall surface.
//
// A Handler binds the three collaborators every entry point needs: guest
// memory for pointer validation and data transfer, the descriptor table
// for resolving guest descriptors to socket resources, and the host
// stack for opening new sockets. Each operation validates every
// guest-supplied pointer before resolving the descriptor and before any
// host call is attempted, and returns results in the guest error space.
//
// The legacy multiplexed entry point, Socketcall, unpacks an argument
// vector from guest memory and dispatches to the individual operations.
package sys
