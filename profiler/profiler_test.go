package profiler

import (
	"testing"
	"time"
)

func TestDisabledProfilerRecordsNothing(t *testing.T) {
	p := New(4)
	p.RecordFrame(FrameTiming{CPURecordTime: time.Millisecond})

	snap := p.Snapshot()
	if len(snap.Frames) != 0 {
		t.Fatalf("len(Frames) = %d, want 0 while disabled", len(snap.Frames))
	}
	if snap.FramesPresented != 0 {
		t.Fatalf("FramesPresented = %d, want 0 while disabled", snap.FramesPresented)
	}
}

func TestEnabledProfilerRingWraps(t *testing.T) {
	p := New(3)
	p.Enable()

	for i := 1; i <= 5; i++ {
		p.RecordFrame(FrameTiming{CPURecordTime: time.Duration(i) * time.Millisecond})
	}

	snap := p.Snapshot()
	if len(snap.Frames) != 3 {
		t.Fatalf("len(Frames) = %d, want 3", len(snap.Frames))
	}
	// Oldest-first: frames 3, 4, 5 should remain after 5 writes into a
	// ring of 3.
	want := []time.Duration{3 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond}
	for i, f := range snap.Frames {
		if f.CPURecordTime != want[i] {
			t.Fatalf("Frames[%d].CPURecordTime = %v, want %v", i, f.CPURecordTime, want[i])
		}
	}
	if snap.FramesPresented != 5 {
		t.Fatalf("FramesPresented = %d, want 5", snap.FramesPresented)
	}
}

func TestDisableStopsCollectionButKeepsCounters(t *testing.T) {
	p := New(4)
	p.Enable()
	p.RecordFrame(FrameTiming{})
	p.Disable()
	p.RecordFrame(FrameTiming{})

	snap := p.Snapshot()
	if snap.FramesPresented != 1 {
		t.Fatalf("FramesPresented = %d, want 1", snap.FramesPresented)
	}
}

func TestRecordSkipAndRecreationCounters(t *testing.T) {
	p := New(4)
	p.RecordSkip()
	p.RecordSkip()
	p.RecordSwapchainRecreation()

	snap := p.Snapshot()
	if snap.FramesSkipped != 2 {
		t.Fatalf("FramesSkipped = %d, want 2", snap.FramesSkipped)
	}
	if snap.SwapchainRecreations != 1 {
		t.Fatalf("SwapchainRecreations = %d, want 1", snap.SwapchainRecreations)
	}
}

type fakeLogger struct{ lastMsg string }

func (f *fakeLogger) Infof(format string, args ...any) {
	f.lastMsg = format
}

func TestLogSummaryOnEmptyProfilerDoesNotPanic(t *testing.T) {
	p := New(4)
	log := &fakeLogger{}
	p.LogSummary(log)
	if log.lastMsg == "" {
		t.Fatalf("expected LogSummary to log something even with no frames recorded")
	}
}

func TestNilProfilerMethodsAreNoops(t *testing.T) {
	var p *Profiler
	p.Enable()
	p.Disable()
	p.RecordFrame(FrameTiming{})
	p.RecordSkip()
	p.RecordSwapchainRecreation()
	if p.Enabled() {
		t.Fatalf("Enabled() on nil Profiler = true, want false")
	}
	if snap := p.Snapshot(); len(snap.Frames) != 0 {
		t.Fatalf("Snapshot() on nil Profiler returned frames")
	}
}
