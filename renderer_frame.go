package renderer

import (
	"time"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/profiler"
)

// BeginFrame implements begin_frame(delta_time): rejects with
// ErrorFrameInProgress if a frame is already active (step 1 of the
// spec's 7-step algorithm; the remaining steps are the backend's
// responsibility), otherwise dispatches to the backend and records CPU
// timing for the profiler (C13) when enabled. A fence-wait timeout is
// not fatal at the backend layer; it surfaces here as a plain error so
// the caller can choose to skip the frame, per spec §5's
// "treated as a warning" guidance.
func (f *Frontend) BeginFrame(dt float32) error {
	if f.frameActive {
		return NewError(ErrorFrameInProgress, nil)
	}

	start := time.Now()
	if err := f.be.BeginFrame(dt); err != nil {
		f.profiler.RecordSkip()
		return NewError(ErrorFramePreparationFailed, err)
	}
	f.lastFrameStart = start

	f.frameActive = true
	f.renderPassActive = false
	return nil
}

// EndFrame implements end_frame(delta_time): rejects with
// ErrorInvalidParameter if no frame is active, closes a still-open
// render pass first (step 2), dispatches the remaining submit/present
// steps to the backend, and records this frame's timing.
func (f *Frontend) EndFrame(dt float32) error {
	if !f.frameActive {
		return NewError(ErrorInvalidParameter, nil)
	}

	if f.renderPassActive {
		if err := f.EndRenderPass(); err != nil {
			return err
		}
	}

	if err := f.be.EndFrame(dt); err != nil {
		f.frameActive = false
		return NewError(ErrorPresentationFailed, err)
	}

	f.profiler.RecordFrame(profiler.FrameTiming{CPURecordTime: time.Since(f.lastFrameStart)})
	f.frameActive = false
	return nil
}

// BeginRenderPass implements begin_render_pass(domain).
func (f *Frontend) BeginRenderPass(domain backend.Domain) error {
	if !f.frameActive {
		return NewError(ErrorInvalidParameter, nil)
	}
	if f.renderPassActive {
		return NewError(ErrorInvalidParameter, nil)
	}
	if err := f.be.BeginRenderPass(domain); err != nil {
		return NewError(ErrorCommandRecordingFailed, err)
	}
	f.renderPassActive = true
	return nil
}

// EndRenderPass implements end_render_pass().
func (f *Frontend) EndRenderPass() error {
	if !f.renderPassActive {
		return NewError(ErrorInvalidParameter, nil)
	}
	if err := f.be.EndRenderPass(); err != nil {
		return NewError(ErrorCommandRecordingFailed, err)
	}
	f.renderPassActive = false
	return nil
}

// Draw implements draw(vertex_count, instance_count, first_vertex, first_instance).
func (f *Frontend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.be.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed implements draw_indexed(index_count, instance_count, first_index, vertex_offset, first_instance).
func (f *Frontend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	f.be.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
