package translate

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/wippyai/netshim/linux"
)

// hostToGuest is the static error mapping table. Entries mirror the host
// error space one code at a time; collapsed codes (ESOCKTNOSUPPORT,
// EPFNOSUPPORT, EHOSTDOWN) follow the guest's observable behavior, not a
// cleaned-up ideal.
var hostToGuest = map[unix.Errno]linux.Errno{
	unix.ENOMEM:          linux.ENOMEM,
	unix.EINTR:           linux.EINTR,
	unix.EBADF:           linux.EBADF,
	unix.EACCES:          linux.EACCES,
	unix.EFAULT:          linux.EFAULT,
	unix.EINVAL:          linux.EINVAL,
	unix.EMFILE:          linux.EMFILE,
	unix.ENFILE:          linux.ENFILE,
	unix.EPIPE:           linux.EPIPE,
	unix.EAGAIN:          linux.EWOULDBLOCK,
	unix.EINPROGRESS:     linux.EINPROGRESS,
	unix.EALREADY:        linux.EALREADY,
	unix.ENOTSOCK:        linux.ENOTSOCK,
	unix.EDESTADDRREQ:    linux.EDESTADDRREQ,
	unix.EMSGSIZE:        linux.EMSGSIZE,
	unix.EPROTOTYPE:      linux.EPROTOTYPE,
	unix.ENOPROTOOPT:     linux.ENOPROTOOPT,
	unix.EPROTONOSUPPORT: linux.EPROTONOSUPPORT,
	unix.ESOCKTNOSUPPORT: linux.EPROTONOSUPPORT,
	unix.EOPNOTSUPP:      linux.EOPNOTSUPP,
	unix.EPFNOSUPPORT:    linux.EAFNOSUPPORT,
	unix.EAFNOSUPPORT:    linux.EAFNOSUPPORT,
	unix.EADDRINUSE:      linux.EADDRINUSE,
	unix.EADDRNOTAVAIL:   linux.EADDRNOTAVAIL,
	unix.ENETDOWN:        linux.ENETDOWN,
	unix.ENETUNREACH:     linux.ENETUNREACH,
	unix.ENETRESET:       linux.ENETRESET,
	unix.ECONNABORTED:    linux.ECONNABORTED,
	unix.ECONNRESET:      linux.ECONNRESET,
	unix.ENOBUFS:         linux.ENOBUFS,
	unix.EISCONN:         linux.EISCONN,
	unix.ENOTCONN:        linux.ENOTCONN,
	unix.ETIMEDOUT:       linux.ETIMEDOUT,
	unix.ECONNREFUSED:    linux.ECONNREFUSED,
	unix.ELOOP:           linux.ELOOP,
	unix.ENAMETOOLONG:    linux.ENAMETOOLONG,
	unix.EHOSTDOWN:       linux.ETIMEDOUT,
	unix.EHOSTUNREACH:    linux.EHOSTUNREACH,
	unix.ENOTEMPTY:       linux.ENOTEMPTY,
	unix.ECANCELED:       linux.ECANCELED,
}

// Error converts a host failure into the guest errno space. A guest errno
// already present in the chain passes through unchanged. Anything without
// a mapping becomes EIO, logged for future coverage.
func Error(err error) linux.Errno {
	if err == nil {
		return 0
	}
	if guest, ok := linux.AsErrno(err); ok {
		return guest
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		if guest, ok := hostToGuest[errno]; ok {
			return guest
		}
		Logger().Error("unhandled host error code",
			zap.Int("errno", int(errno)),
			zap.String("name", unix.ErrnoName(errno)))
		return linux.EIO
	}
	Logger().Error("unhandled host error", zap.Error(err))
	return linux.EIO
}

// WouldBlock reports whether err is a would-block-class host failure: the
// operation cannot proceed right now without that being a real error.
func WouldBlock(err error) bool {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK || errno == unix.EINPROGRESS
	}
	return false
}
