// Package socket implements the per-descriptor socket resource: a native
// socket handle paired with its change-notification object, sticky
// readiness state and open flags.
//
// Lifecycle operations (New, Connect, name queries, Close) build and tear
// down the resource; I/O operations (SendTo, RecvFrom, SendMsg) drive the
// readiness engine to reproduce the guest's blocking semantics over the
// nonblocking host socket. All host failures cross the translate package
// before reaching a caller.
package socket
