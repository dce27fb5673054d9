package gpu

import "unsafe"

// Chainable is implemented by any Vulkan input struct that carries a PNext
// extension pointer (vulkan-go mirrors every such struct's PNext field as
// unsafe.Pointer).
type Chainable interface {
	SetNext(next unsafe.Pointer)
	Pointer() unsafe.Pointer
}

// Chain threads a sequence of PNext-bearing structs together in
// declaration order: the first struct's PNext points at the second, the
// second's at the third, and so on. The original compositor needed a
// pinned, boxed chain because Rust's borrow checker can't reason about
// self-referential pointers living on the stack; Go's GC has no such
// restriction as long as something keeps the whole Chain reachable, which
// is the only job this type does.
type Chain struct {
	links []Chainable
}

// NewChain builds and links a chain from the given structs, in order. The
// returned Chain must be kept alive (referenced) for as long as the head
// pointer is used in a Vulkan call, or the GC is free to collect the
// links out from under it.
func NewChain(links ...Chainable) *Chain {
	for i := 0; i < len(links)-1; i++ {
		links[i].SetNext(links[i+1].Pointer())
	}
	return &Chain{links: links}
}

// Head returns the pointer to the first struct in the chain, the value to
// pass as the top-level argument to the Vulkan call being built.
func (c *Chain) Head() unsafe.Pointer {
	if len(c.links) == 0 {
		return nil
	}
	return c.links[0].Pointer()
}

// Link returns the ith struct in the chain, for mutating a field after
// construction (mirroring the original's with_foo setters). The caller is
// responsible for not overwriting the PNext field NewChain set.
func (c *Chain) Link(i int) Chainable {
	return c.links[i]
}
