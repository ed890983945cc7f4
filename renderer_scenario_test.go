package renderer

import (
	"testing"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/config"
	"github.com/Panbok/vulkan-renderer-sub009/faketest"
)

func newTestFrontend(t *testing.T, fb *faketest.Backend, bufferingFrames int) (*Frontend, *faketest.Window) {
	t.Helper()
	win := faketest.NewWindow(800, 600)
	fb.MaxInFlightFrames = bufferingFrames
	f := New(WithConfig(config.New(config.WithBufferingFrames(bufferingFrames))), WithBackend(fb))
	if err := f.Initialize(backend.Vulkan, win, backend.DeviceRequirements{}); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	return f, win
}

// S1: triple-buffered frame loop. Running 10 frames with
// BUFFERING_FRAMES=3 must leave the backend's frame counter at
// 10 mod 3 == 1.
func TestS1TripleBufferedFrameLoop(t *testing.T) {
	fb := &faketest.Backend{}
	f, _ := newTestFrontend(t, fb, 3)
	defer f.Destroy()

	for i := 0; i < 10; i++ {
		if err := f.BeginFrame(0.016); err != nil {
			t.Fatalf("BeginFrame(%d) = %v", i, err)
		}
		if err := f.EndFrame(0.016); err != nil {
			t.Fatalf("EndFrame(%d) = %v", i, err)
		}
	}

	if want := 10 % 3; fb.CurrentFrame != want {
		t.Fatalf("CurrentFrame = %d, want %d", fb.CurrentFrame, want)
	}
	if fb.BeginFrameCalls != 10 || fb.EndFrameCalls != 10 {
		t.Fatalf("BeginFrameCalls=%d EndFrameCalls=%d, want 10/10", fb.BeginFrameCalls, fb.EndFrameCalls)
	}
}

// S2: resize mid-frame-loop. Running 3 frames, resizing, then running 3
// more must fire the render-target-refresh hook exactly once.
func TestS2ResizeMidFrameLoop(t *testing.T) {
	fb := &faketest.Backend{}
	f, win := newTestFrontend(t, fb, 2)
	defer f.Destroy()

	refreshes := 0
	fb.OnRenderTargetRefresh = func() { refreshes++ }

	runFrames := func(n int) {
		for i := 0; i < n; i++ {
			if err := f.BeginFrame(0.016); err != nil {
				t.Fatalf("BeginFrame = %v", err)
			}
			if err := f.EndFrame(0.016); err != nil {
				t.Fatalf("EndFrame = %v", err)
			}
		}
	}

	runFrames(3)
	win.Resize(1024, 768)
	runFrames(3)

	if refreshes != 1 {
		t.Fatalf("render-target-refresh fired %d times, want 1", refreshes)
	}
	if fb.ResizeCalls != 1 {
		t.Fatalf("ResizeCalls = %d, want 1", fb.ResizeCalls)
	}
}

// S5: out-of-date swapchain. Injecting OUT_OF_DATE on the next acquire
// must recreate the swapchain and still complete the frame, with no
// surfaced error.
func TestS5OutOfDateSwapchainRecovers(t *testing.T) {
	fb := &faketest.Backend{}
	f, _ := newTestFrontend(t, fb, 2)
	defer f.Destroy()

	fb.ForceOutOfDateOnNextAcquire = true

	if err := f.BeginFrame(0.016); err != nil {
		t.Fatalf("BeginFrame() = %v, want nil (OUT_OF_DATE should recover transparently)", err)
	}
	if err := f.EndFrame(0.016); err != nil {
		t.Fatalf("EndFrame() = %v", err)
	}

	if fb.Recreations != 1 {
		t.Fatalf("Recreations = %d, want 1", fb.Recreations)
	}
	if fb.ForceOutOfDateOnNextAcquire {
		t.Fatalf("ForceOutOfDateOnNextAcquire still set after recovery")
	}
	if fb.BeginFrameCalls != 1 || fb.EndFrameCalls != 1 {
		t.Fatalf("frame did not complete: BeginFrameCalls=%d EndFrameCalls=%d", fb.BeginFrameCalls, fb.EndFrameCalls)
	}
}

// Reentrancy: BeginFrame while a frame is already active must reject
// with FRAME_IN_PROGRESS rather than forwarding to the backend.
func TestBeginFrameRejectsReentrantCall(t *testing.T) {
	fb := &faketest.Backend{}
	f, _ := newTestFrontend(t, fb, 2)
	defer f.Destroy()

	if err := f.BeginFrame(0.016); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	err := f.BeginFrame(0.016)
	if KindOf(err) != ErrorFrameInProgress {
		t.Fatalf("KindOf(err) = %v, want ErrorFrameInProgress", KindOf(err))
	}
}

// EndFrame without an active frame must reject with INVALID_PARAMETER.
func TestEndFrameRejectsWithNoActiveFrame(t *testing.T) {
	fb := &faketest.Backend{}
	f, _ := newTestFrontend(t, fb, 2)
	defer f.Destroy()

	err := f.EndFrame(0.016)
	if KindOf(err) != ErrorInvalidParameter {
		t.Fatalf("KindOf(err) = %v, want ErrorInvalidParameter", KindOf(err))
	}
}
