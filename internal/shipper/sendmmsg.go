package shipper

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// soTxtime mirrors Linux's SO_TXTIME socket option (61), which isn't
// exported by golang.org/x/sys/unix on every platform this module targets.
const soTxtime = 61

// scmTxtime mirrors SCM_TXTIME, the control-message type carrying a
// per-packet transmit deadline once SO_TXTIME is enabled on the socket.
const scmTxtime = 61

// EnableTxTime turns on TX-time pacing for fd: every packet sent with a
// SCM_TXTIME control message is held by the kernel's qdisc until its
// deadline instead of going out immediately. Grounded on
// sendmmsg.rs's set_so_txtime.
func EnableTxTime(fd int) error {
	cfg := make([]byte, 8) // struct sock_txtime{__u32 clockid; __u32 flags;}
	binary.LittleEndian.PutUint32(cfg[0:4], uint32(unix.CLOCK_MONOTONIC))
	return unix.SetsockoptString(fd, unix.SOL_SOCKET, soTxtime, string(cfg))
}

// Packet is one datagram queued for a batched send: its payload,
// destination, and the monotonic deadline it should leave the NIC by.
type Packet struct {
	Data   []byte
	Addr   *net.UDPAddr
	TxTime time.Time
}

// Batch accumulates packets for a single sendmmsg-style send, the way
// sendmmsg.rs's SendMmsg builder accumulates iovecs before a single
// syscall flushes them. golang.org/x/sys/unix has no direct sendmmsg(2)
// binding, so Send issues one sendmsg(2) per packet; the batching here is
// about building every control message up front, not the syscall count.
type Batch struct {
	packets []Packet
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add queues a packet for the next Send.
func (b *Batch) Add(data []byte, addr *net.UDPAddr, txTime time.Time) *Batch {
	b.packets = append(b.packets, Packet{Data: data, Addr: addr, TxTime: txTime})
	return b
}

// Len reports how many packets are queued.
func (b *Batch) Len() int {
	return len(b.packets)
}

// Send flushes every queued packet over fd, attaching an SCM_TXTIME
// control message with each packet's deadline and an IP(V6)_PKTINFO
// message pinning the source address, so replies always leave from the
// same local address the session negotiated on. EAGAIN is retried rather
// than surfaced, matching sendmmsg.rs's retry loop: the kernel's TX-time
// qdisc queue filling up is a transient condition, not a real send error.
func (b *Batch) Send(fd int, localAddr *net.UDPAddr) error {
	for _, pkt := range b.packets {
		sa, err := sockaddrFromUDPAddr(pkt.Addr)
		if err != nil {
			return fmt.Errorf("shipper: resolve destination: %w", err)
		}

		oob := buildControlMessages(pkt.TxTime, localAddr)

		for {
			_, err := unix.SendmsgN(fd, pkt.Data, oob, sa, 0)
			if err == unix.EAGAIN {
				continue
			}
			if err != nil {
				return fmt.Errorf("shipper: sendmsg: %w", err)
			}
			break
		}
	}
	b.packets = b.packets[:0]
	return nil
}

func sockaddrFromUDPAddr(addr *net.UDPAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip6 := addr.IP.To16()
	if ip6 == nil {
		return nil, fmt.Errorf("shipper: invalid address %v", addr)
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip6)
	return sa, nil
}

func buildControlMessages(txTime time.Time, localAddr *net.UDPAddr) []byte {
	txtimeNanos := uint64(txTime.UnixNano())

	var pktinfo []byte
	if localAddr != nil {
		if ip4 := localAddr.IP.To4(); ip4 != nil {
			info := unix.Inet4Pktinfo{}
			copy(info.Spec_dst[:], ip4)
			pktinfo = cmsgBytes(unix.IPPROTO_IP, unix.IP_PKTINFO, structBytes(&info))
		} else if ip6 := localAddr.IP.To16(); ip6 != nil {
			info := unix.Inet6Pktinfo{}
			copy(info.Addr[:], ip6)
			pktinfo = cmsgBytes(unix.IPPROTO_IPV6, unix.IPV6_PKTINFO, structBytes(&info))
		}
	}

	oob := cmsgBytes(unix.SOL_SOCKET, scmTxtime, u64Bytes(txtimeNanos))
	return append(oob, pktinfo...)
}

func cmsgBytes(level, typ int, data []byte) []byte {
	hdr := unix.Cmsghdr{
		Level: int32(level),
		Type:  int32(typ),
	}
	hdr.SetLen(unix.CmsgLen(len(data)))

	buf := make([]byte, unix.CmsgSpace(len(data)))
	*(*unix.Cmsghdr)(unsafe.Pointer(&buf[0])) = hdr
	copy(buf[unix.CmsgLen(0):], data)
	return buf
}

func u64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func structBytes(v interface{}) []byte {
	switch s := v.(type) {
	case *unix.Inet4Pktinfo:
		b := make([]byte, 12)
		binary.LittleEndian.PutUint32(b[0:4], uint32(s.Ifindex))
		copy(b[4:8], s.Spec_dst[:])
		copy(b[8:12], s.Addr[:])
		return b
	case *unix.Inet6Pktinfo:
		b := make([]byte, 20)
		copy(b[0:16], s.Addr[:])
		binary.LittleEndian.PutUint32(b[16:20], uint32(s.Ifindex))
		return b
	default:
		return nil
	}
}
