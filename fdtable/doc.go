// Package fdtable implements the descriptor table: a mapping from guest
// descriptor numbers to reference-counted files with close-on-exec
// bookkeeping.
//
// Files are stored with one reference. Release drops a reference and the
// file's native resources are closed exactly once, when the count reaches
// zero. Closing a descriptor number is idempotent at the table boundary:
// the second close of the same number finds no entry and reports EBADF
// without touching the file.
package fdtable
