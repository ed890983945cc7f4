package arena

import "testing"

func TestAllocateAdvancesOffset(t *testing.T) {
	a := New(64)
	b1 := a.Allocate(16)
	if len(b1) != 16 {
		t.Fatalf("len(b1) = %d, want 16", len(b1))
	}
	if a.Used() != 16 {
		t.Fatalf("Used() = %d, want 16", a.Used())
	}
	b2 := a.Allocate(8)
	if a.Used() != 24 {
		t.Fatalf("Used() = %d, want 24", a.Used())
	}
	// b1 and b2 must not alias.
	b1[0] = 1
	if b2[0] == 1 {
		t.Fatalf("b1 and b2 alias")
	}
}

func TestScopeReleaseRewinds(t *testing.T) {
	a := New(64)
	a.Allocate(8)
	before := a.Used()

	scope := a.NewScope()
	a.Allocate(32)
	if a.Used() == before {
		t.Fatalf("expected Used() to grow inside scope")
	}
	scope.Release()
	if a.Used() != before {
		t.Fatalf("Used() after release = %d, want %d", a.Used(), before)
	}

	// Double release is a no-op, not an error.
	scope.Release()
	if a.Used() != before {
		t.Fatalf("Used() after double release = %d, want %d", a.Used(), before)
	}
}

func TestAllocateGrowsBackingBuffer(t *testing.T) {
	a := New(4)
	b := a.Allocate(100)
	if len(b) != 100 {
		t.Fatalf("len(b) = %d, want 100", len(b))
	}
	if a.Used() != 100 {
		t.Fatalf("Used() = %d, want 100", a.Used())
	}
}

func TestResetReclaimsWholeArena(t *testing.T) {
	a := New(64)
	a.Allocate(40)
	a.Reset()
	if a.Used() != 0 {
		t.Fatalf("Used() after Reset() = %d, want 0", a.Used())
	}
}
