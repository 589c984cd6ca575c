// Package netshim lets programs built against the Linux socket syscall
// surface run on the host's native networking stack. It translates every
// socket-related syscall (creation, connect, the send/receive family, name
// queries and the legacy multiplexed socketcall) into host operations while
// reproducing the guest's blocking semantics, level-triggered readiness
// model and error-code space.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	netshim/          Root package with the collaborator contracts
//	├── linux/        Guest ABI: errno space, socket constants, call ids
//	├── translate/    Total host-error to guest-errno mapping
//	├── readiness/    Sticky level-triggered state over edge notifications
//	├── hostnet/      Host backend: raw sockets paired with epoll notifiers
//	├── socket/       The socket resource, lifecycle and I/O operations
//	├── fdtable/      Reference-counted descriptor table
//	├── guestmem/     Guest memory implementations (slice, wazero)
//	└── sys/          Syscall entry points, validation and dispatch
//
// # Readiness model
//
// The host notification primitive is edge-triggered: it reports state
// transitions, not states. Guests expect level-triggered semantics: they
// may ask "is it ready" repeatedly and the answer must not disappear until
// they act on it. The readiness package bridges the two by folding drained
// transitions into a sticky per-socket bitmask that only the consumer of a
// readiness class clears.
//
// # Quick Start
//
//	hostnet.Initialize()
//	defer hostnet.Shutdown()
//
//	h := sys.New(mem, fdtable.New(), hostnet.NewStack())
//	fd, err := h.Socket(linux.AF_INET, linux.SOCK_DGRAM, 0)
//
// # Thread Safety
//
// A socket resource assumes a single consumer at a time. Sharing one
// descriptor across concurrently executing guest tasks is not synchronized
// at the sticky-readiness level; see the socket package documentation.
package netshim
