package gpu

import (
	"testing"
	"unsafe"
)

type fakeLink struct {
	id   int
	next unsafe.Pointer
}

func (f *fakeLink) SetNext(next unsafe.Pointer) { f.next = next }
func (f *fakeLink) Pointer() unsafe.Pointer     { return unsafe.Pointer(f) }

func TestChainLinksInDeclarationOrder(t *testing.T) {
	a := &fakeLink{id: 1}
	b := &fakeLink{id: 2}
	c := &fakeLink{id: 3}

	chain := NewChain(a, b, c)

	if chain.Head() != unsafe.Pointer(a) {
		t.Fatalf("expected head to be the first link")
	}
	if a.next != unsafe.Pointer(b) {
		t.Fatalf("expected a.next to point at b")
	}
	if b.next != unsafe.Pointer(c) {
		t.Fatalf("expected b.next to point at c")
	}
	if c.next != nil {
		t.Fatalf("expected the last link's next to stay nil, got %v", c.next)
	}
}

func TestChainSingleLinkHasNoNext(t *testing.T) {
	a := &fakeLink{id: 1}
	chain := NewChain(a)

	if chain.Head() != unsafe.Pointer(a) {
		t.Fatalf("expected head to be the only link")
	}
	if a.next != nil {
		t.Fatalf("single-link chain should not set next")
	}
}

func TestChainEmptyHeadIsNil(t *testing.T) {
	chain := NewChain()
	if chain.Head() != nil {
		t.Fatalf("expected nil head for an empty chain")
	}
}
