package buffer

import "sync"

// freeBlock is one free region in a sub-allocator's address space.
type freeBlock struct {
	offset uint64
	size   uint64
}

// SubAllocator carves fixed-size offset ranges out of a single device
// buffer: a bump pointer for the common case (monotonically growing,
// never freed within a frame) backed by a free-list so destroyed
// buffer regions (texture atlas slots, per-draw uniform ranges) can be
// reclaimed and reused rather than leaking the whole buffer. No pack
// example implements an offset sub-allocator matching the spec's
// bump+free-list contract (oxy-go allocates one wgpu.Buffer per
// BindGroupProvider binding instead); built fresh, validated by P9.
type SubAllocator struct {
	mu         sync.Mutex
	total      uint64
	bumpOffset uint64
	free       []freeBlock
	outstanding uint64
}

// NewSubAllocator creates an allocator covering [0, total).
func NewSubAllocator(total uint64) *SubAllocator {
	return &SubAllocator{total: total}
}

// Alloc reserves a `size`-byte region, preferring an exact-or-larger free
// block (first-fit) before falling back to bumping the tail pointer.
// Returns ok=false if neither has room.
func (a *SubAllocator) Alloc(size uint64) (offset uint64, ok bool) {
	if size == 0 {
		return 0, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, b := range a.free {
		if b.size >= size {
			offset = b.offset
			remainder := b.size - size
			if remainder == 0 {
				a.free = append(a.free[:i], a.free[i+1:]...)
			} else {
				a.free[i] = freeBlock{offset: b.offset + size, size: remainder}
			}
			a.outstanding += size
			return offset, true
		}
	}

	if a.bumpOffset+size > a.total {
		return 0, false
	}
	offset = a.bumpOffset
	a.bumpOffset += size
	a.outstanding += size
	return offset, true
}

// Free returns a previously allocated region to the free list. Adjacent
// free blocks are coalesced to limit fragmentation.
func (a *SubAllocator) Free(offset, size uint64) {
	if size == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.free = append(a.free, freeBlock{offset: offset, size: size})
	a.outstanding -= size
	a.coalesce()

	// A free block that ends at the bump pointer goes back to the tail.
	for i, b := range a.free {
		if b.offset+b.size == a.bumpOffset {
			a.bumpOffset = b.offset
			a.free = append(a.free[:i], a.free[i+1:]...)
			break
		}
	}
}

func (a *SubAllocator) coalesce() {
	if len(a.free) < 2 {
		return
	}
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(a.free); i++ {
			for j := i + 1; j < len(a.free); j++ {
				if a.free[i].offset+a.free[i].size == a.free[j].offset {
					a.free[i].size += a.free[j].size
					a.free = append(a.free[:j], a.free[j+1:]...)
					merged = true
					break
				}
				if a.free[j].offset+a.free[j].size == a.free[i].offset {
					a.free[j].size += a.free[i].size
					a.free = append(a.free[:i], a.free[i+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
	}
}

// Remaining reports the bytes still available for allocation: free-list
// capacity plus untouched tail space.
func (a *SubAllocator) Remaining() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total - a.outstanding
}

// Outstanding reports the sum of currently live allocations.
func (a *SubAllocator) Outstanding() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}
