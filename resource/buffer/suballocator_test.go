package buffer

import (
	"sync"
	"testing"
)

// P9 - sub-allocation soundness: concurrent allocs/frees never overlap,
// outstanding sum stays <= total, Remaining decreases monotonically
// between a paired alloc/flush.
func TestSubAllocatorNoOverlapUnderConcurrency(t *testing.T) {
	a := NewSubAllocator(1 << 20)
	const n = 64
	const size = 256

	type region struct{ offset, size uint64 }
	results := make([]region, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			off, ok := a.Alloc(size)
			if !ok {
				t.Errorf("alloc %d failed unexpectedly", i)
				return
			}
			results[i] = region{offset: off, size: size}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ri, rj := results[i], results[j]
			if ri.offset < rj.offset+rj.size && rj.offset < ri.offset+ri.size {
				t.Errorf("regions %d and %d overlap: %+v vs %+v", i, j, ri, rj)
			}
		}
	}

	if a.Outstanding() != n*size {
		t.Errorf("Outstanding() = %d, want %d", a.Outstanding(), n*size)
	}
}

func TestSubAllocatorRemainingDecreasesMonotonically(t *testing.T) {
	a := NewSubAllocator(1024)
	prev := a.Remaining()
	for i := 0; i < 4; i++ {
		if _, ok := a.Alloc(128); !ok {
			t.Fatalf("alloc %d failed", i)
		}
		cur := a.Remaining()
		if cur >= prev {
			t.Errorf("Remaining() did not decrease: prev=%d cur=%d", prev, cur)
		}
		prev = cur
	}
}

func TestSubAllocatorFreeReclaimsSpace(t *testing.T) {
	a := NewSubAllocator(1024)
	off, ok := a.Alloc(512)
	if !ok {
		t.Fatal("alloc failed")
	}
	a.Free(off, 512)
	if a.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0 after free", a.Outstanding())
	}
	if _, ok := a.Alloc(1024); !ok {
		t.Error("expected full-size alloc to succeed after free reclaimed space")
	}
}

func TestSubAllocatorFailsWhenExhausted(t *testing.T) {
	a := NewSubAllocator(256)
	if _, ok := a.Alloc(256); !ok {
		t.Fatal("first alloc should succeed")
	}
	if _, ok := a.Alloc(1); ok {
		t.Error("expected alloc to fail once exhausted")
	}
}
