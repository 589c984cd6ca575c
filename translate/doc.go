// Package translate maps host networking failures onto the guest errno
// space. The mapping is a total function: every host error produces a
// guest code, with unmapped codes falling back to EIO and being logged so
// coverage can grow.
package translate
