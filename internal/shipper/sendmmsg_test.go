package shipper

import (
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestBatchAddAccumulatesPackets(t *testing.T) {
	b := NewBatch()
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
	b.Add([]byte("a"), addr, time.Now()).Add([]byte("b"), addr, time.Now())

	if b.Len() != 2 {
		t.Fatalf("got %d packets, want 2", b.Len())
	}
}

func TestSockaddrFromUDPAddrV4(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4242}
	sa, err := sockaddrFromUDPAddr(addr)
	if err != nil {
		t.Fatalf("sockaddrFromUDPAddr: %v", err)
	}
	v4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		t.Fatalf("got %T, want *unix.SockaddrInet4", sa)
	}
	if v4.Port != 4242 {
		t.Fatalf("got port %d, want 4242", v4.Port)
	}
	if v4.Addr != [4]byte{10, 0, 0, 5} {
		t.Fatalf("got addr %v, want 10.0.0.5", v4.Addr)
	}
}

func TestSockaddrFromUDPAddrV6(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("::1"), Port: 53}
	sa, err := sockaddrFromUDPAddr(addr)
	if err != nil {
		t.Fatalf("sockaddrFromUDPAddr: %v", err)
	}
	if _, ok := sa.(*unix.SockaddrInet6); !ok {
		t.Fatalf("got %T, want *unix.SockaddrInet6", sa)
	}
}

func TestBuildControlMessagesIncludesPktinfoWhenLocalAddrSet(t *testing.T) {
	local := &net.UDPAddr{IP: net.ParseIP("192.168.1.1"), Port: 9000}
	withLocal := buildControlMessages(time.Now(), local)
	withoutLocal := buildControlMessages(time.Now(), nil)

	if len(withLocal) <= len(withoutLocal) {
		t.Fatalf("expected pktinfo to add bytes: with=%d without=%d", len(withLocal), len(withoutLocal))
	}
}
