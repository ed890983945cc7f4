package indirect

import (
	"github.com/Panbok/vulkan-renderer-sub009/resource/buffer"
	"testing"
)

func newTestRing(maxDraws uint32, frames int) *Ring {
	return &Ring{
		maxDraws:    maxDraws,
		buffers:     make([]*buffer.Buffer, frames),
		writeOffset: make([]uint32, frames),
	}
}

// S6 - indirect ring overflow: max_draws=4, alloc(3) succeeds at base 0,
// alloc(2) fails with write_offset left unchanged at 3.
func TestRingAllocOverflowLeavesOffsetUnchanged(t *testing.T) {
	r := newTestRing(4, 3)
	r.BeginFrame(0)

	base, ok := r.Alloc(3)
	if !ok || base != 0 {
		t.Fatalf("first alloc = (%d, %v), want (0, true)", base, ok)
	}

	_, ok = r.Alloc(2)
	if ok {
		t.Error("second alloc should fail: only 1 draw remains")
	}
	if r.writeOffset[0] != 3 {
		t.Errorf("write_offset = %d, want unchanged at 3", r.writeOffset[0])
	}
}

func TestRingBeginFrameResetsWriteOffsetAndSelectsBuffer(t *testing.T) {
	r := newTestRing(8, 3)
	r.BeginFrame(0)
	r.Alloc(5)

	r.BeginFrame(1)
	if r.current != 1 {
		t.Errorf("current = %d, want 1", r.current)
	}
	if r.writeOffset[1] != 0 {
		t.Errorf("writeOffset[1] = %d, want 0 on fresh frame", r.writeOffset[1])
	}

	r.BeginFrame(3) // wraps mod 3 back to buffer 0
	if r.current != 0 {
		t.Errorf("current = %d, want 0 (3 mod 3)", r.current)
	}
	if r.writeOffset[0] != 0 {
		t.Errorf("writeOffset[0] = %d, want reset to 0 on frame reuse", r.writeOffset[0])
	}
}

func TestRingRemainingTracksTailSpace(t *testing.T) {
	r := newTestRing(10, 1)
	r.BeginFrame(0)
	if got := r.Remaining(); got != 10 {
		t.Fatalf("Remaining() = %d, want 10", got)
	}
	r.Alloc(4)
	if got := r.Remaining(); got != 6 {
		t.Errorf("Remaining() = %d, want 6", got)
	}
}

func TestRingFlushIsNoopWhenCoherent(t *testing.T) {
	r := newTestRing(4, 1)
	r.needsFlush = false
	if err := r.FlushCurrent(); err != nil {
		t.Errorf("FlushCurrent on a coherent ring should be a no-op, got %v", err)
	}
	if err := r.FlushRange(0, 4); err != nil {
		t.Errorf("FlushRange on a coherent ring should be a no-op, got %v", err)
	}
}
