package linux

// Address families.
const (
	AF_UNSPEC = 0
	AF_UNIX   = 1
	AF_INET   = 2
	AF_INET6  = 10
)

// Socket kinds. The kind argument of socket(2) also carries the
// SOCK_NONBLOCK and SOCK_CLOEXEC open flags above the type mask.
const (
	SOCK_STREAM    = 1
	SOCK_DGRAM     = 2
	SOCK_RAW       = 3
	SOCK_RDM       = 4
	SOCK_SEQPACKET = 5

	SOCK_TYPE_MASK = 0xf
	SOCK_NONBLOCK  = 0x800
	SOCK_CLOEXEC   = 0x80000
)

// Open flags carried by a socket resource.
const (
	O_NONBLOCK = 0x800
)

// Message flags accepted by the send/receive family. Other bits are
// tolerated but logged.
const (
	MSG_PEEK     = 0x2
	MSG_DONTWAIT = 0x40
)

// Guest poll bits.
const (
	POLLIN  = 0x1
	POLLOUT = 0x4
	POLLERR = 0x8
	POLLHUP = 0x10
)

// socketcall(2) call identifiers.
const (
	SYS_SOCKET      = 1
	SYS_BIND        = 2
	SYS_CONNECT     = 3
	SYS_LISTEN      = 4
	SYS_ACCEPT      = 5
	SYS_GETSOCKNAME = 6
	SYS_GETPEERNAME = 7
	SYS_SOCKETPAIR  = 8
	SYS_SEND        = 9
	SYS_RECV        = 10
	SYS_SENDTO      = 11
	SYS_RECVFROM    = 12
	SYS_SHUTDOWN    = 13
	SYS_SETSOCKOPT  = 14
	SYS_GETSOCKOPT  = 15
	SYS_SENDMSG     = 16
	SYS_RECVMSG     = 17
	SYS_ACCEPT4     = 18
	SYS_RECVMMSG    = 19
	SYS_SENDMMSG    = 20
)

// WordSize is the guest pointer width in bytes. The socketcall argument
// vector is packed as guest words.
const WordSize = 4

// Guest structure sizes (32-bit ABI).
const (
	SizeofSockaddr = 16
	SizeofMsghdr   = 28
	SizeofIovec    = 8
	SizeofMmsghdr  = 32
)
