//go:build linux

package hostnet

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/wippyai/netshim/linux"
)

// Guest sockaddr structures share the kernel's wire layout: a little-
// endian family word followed by family-specific fields with ports in
// network byte order. The codec below is the only place that layout is
// spelled out.

const (
	sizeofSockaddrInet4 = 16
	sizeofSockaddrInet6 = 28
)

func decodeSockaddr(b []byte) (unix.Sockaddr, error) {
	if len(b) < 2 {
		return nil, unix.EINVAL
	}
	switch int(binary.LittleEndian.Uint16(b)) {
	case linux.AF_INET:
		if len(b) < 8 {
			return nil, unix.EINVAL
		}
		sa := &unix.SockaddrInet4{Port: int(binary.BigEndian.Uint16(b[2:4]))}
		copy(sa.Addr[:], b[4:8])
		return sa, nil
	case linux.AF_INET6:
		if len(b) < sizeofSockaddrInet6 {
			return nil, unix.EINVAL
		}
		sa := &unix.SockaddrInet6{
			Port:   int(binary.BigEndian.Uint16(b[2:4])),
			ZoneId: binary.LittleEndian.Uint32(b[24:28]),
		}
		copy(sa.Addr[:], b[8:24])
		return sa, nil
	case linux.AF_UNIX:
		end := 2
		for end < len(b) && b[end] != 0 {
			end++
		}
		return &unix.SockaddrUnix{Name: string(b[2:end])}, nil
	default:
		return nil, unix.EAFNOSUPPORT
	}
}

func encodeSockaddr(sa unix.Sockaddr) []byte {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		b := make([]byte, sizeofSockaddrInet4)
		binary.LittleEndian.PutUint16(b, uint16(linux.AF_INET))
		binary.BigEndian.PutUint16(b[2:4], uint16(sa.Port))
		copy(b[4:8], sa.Addr[:])
		return b
	case *unix.SockaddrInet6:
		b := make([]byte, sizeofSockaddrInet6)
		binary.LittleEndian.PutUint16(b, uint16(linux.AF_INET6))
		binary.BigEndian.PutUint16(b[2:4], uint16(sa.Port))
		copy(b[8:24], sa.Addr[:])
		binary.LittleEndian.PutUint32(b[24:28], sa.ZoneId)
		return b
	case *unix.SockaddrUnix:
		b := make([]byte, 2+len(sa.Name)+1)
		binary.LittleEndian.PutUint16(b, uint16(linux.AF_UNIX))
		copy(b[2:], sa.Name)
		return b
	default:
		return nil
	}
}
