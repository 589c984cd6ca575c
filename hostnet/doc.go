// Package hostnet is the host side of the shim: raw nonblocking sockets
// paired with per-socket epoll instances that serve as the edge-triggered
// change-notification objects the readiness engine consumes.
//
// The pairing invariant is absolute: a native socket and its notification
// object are created together and destroyed together, on every path. Host
// sockets are always opened nonblocking; the guest's blocking semantics
// are reproduced above this package, never by the host kernel.
//
// The networking subsystem context is initialized lazily on first use and
// failure to initialize is fatal: no socket syscall can function without
// it.
package hostnet
