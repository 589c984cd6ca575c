// Package readiness makes an edge-triggered host notification primitive
// behave as level-triggered, queryable per-socket state.
//
// A Source delivers batches of observed transitions. State folds them into
// a sticky bitmask: bits only grow through Update and only shrink when the
// consumer of a class explicitly claims it after acting on it. WaitFor
// implements the guest's blocking semantics on top, tolerating spurious
// wakeups by re-checking after every wait.
package readiness
