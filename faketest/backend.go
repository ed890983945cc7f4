// Package faketest provides a fake backend.Backend for driving the
// frontend orchestrator's (C9) scenario tests without a real GPU.
// Grounded on §9's interface-based backend redesign ("since the backend
// is a Go interface, a test double trivially substitutes for it") and on
// gviegas-neo3's precedent of testing Vulkan-driver-shaped logic with
// stdlib testing only, no mocking library.
package faketest

import "github.com/Panbok/vulkan-renderer-sub009/backend"

// Backend is a fake backend.Backend that reproduces just enough of the
// spec's frame-counter and swapchain-recreation bookkeeping (§4.2, §4.3)
// to exercise the frontend's call sequencing, without touching any GPU
// handle. Every resource-table method is a trivial, always-succeeding
// stub; no exported field changes their behaviour.
type Backend struct {
	MaxInFlightFrames int // defaults to 1 if unset at first BeginFrame

	CurrentFrame int
	ImageIndex   uint32

	// ForceOutOfDateOnNextAcquire simulates an OUT_OF_DATE result on the
	// next BeginFrame's acquire, per S5: the fake recreates (incrementing
	// Recreations) and retries once, succeeding, exactly like the real
	// acquire-and-retry-once protocol.
	ForceOutOfDateOnNextAcquire bool
	Recreations                int

	ExtentWidth, ExtentHeight int
	OnRenderTargetRefresh     func()

	BeginFrameCalls, EndFrameCalls int
	ResizeCalls                    int

	DeviceInfo backend.DeviceInformation

	nextHandle uint32
}

var _ backend.Backend = &Backend{}

func (b *Backend) Initialize(window backend.Window, requirements backend.DeviceRequirements) error {
	if b.MaxInFlightFrames == 0 {
		b.MaxInFlightFrames = 1
	}
	b.ExtentWidth, b.ExtentHeight = window.PixelSize()
	return nil
}

func (b *Backend) Shutdown() {}

func (b *Backend) OnResize(width, height int) {
	b.ResizeCalls++
	if width == b.ExtentWidth && height == b.ExtentHeight {
		return
	}
	b.ExtentWidth, b.ExtentHeight = width, height
	b.recreate()
}

func (b *Backend) recreate() {
	b.Recreations++
	if b.OnRenderTargetRefresh != nil {
		b.OnRenderTargetRefresh()
	}
}

func (b *Backend) GetDeviceInformation() backend.DeviceInformation { return b.DeviceInfo }

func (b *Backend) WaitIdle() error { return nil }

// BeginFrame reproduces the acquire-and-retry-once-on-OUT_OF_DATE step
// of the real algorithm (§4.2 step 3): if ForceOutOfDateOnNextAcquire is
// set, it recreates once and clears the flag before completing
// normally, the same "no error surfaced" outcome the real backend gives
// for a single OUT_OF_DATE.
func (b *Backend) BeginFrame(dt float32) error {
	if b.MaxInFlightFrames == 0 {
		b.MaxInFlightFrames = 1
	}
	if b.ForceOutOfDateOnNextAcquire {
		b.ForceOutOfDateOnNextAcquire = false
		b.recreate()
	}
	b.BeginFrameCalls++
	return nil
}

func (b *Backend) EndFrame(dt float32) error {
	b.EndFrameCalls++
	b.CurrentFrame = (b.CurrentFrame + 1) % b.MaxInFlightFrames
	return nil
}

func (b *Backend) BeginRenderPass(domain backend.Domain) error { return nil }
func (b *Backend) EndRenderPass() error                        { return nil }

func (b *Backend) newHandle() backend.Handle {
	b.nextHandle++
	return backend.NewHandle(b.nextHandle-1, 1)
}

func (b *Backend) CreateBuffer(description backend.BufferDescription, initialData []byte) (backend.BufferHandle, error) {
	return backend.BufferHandle{Handle: b.newHandle()}, nil
}
func (b *Backend) UpdateBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error { return nil }
func (b *Backend) UploadBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error { return nil }
func (b *Backend) DestroyBuffer(h backend.BufferHandle)                                        {}
func (b *Backend) BindVertexBuffer(h backend.BufferHandle, offset uint64)                       {}
func (b *Backend) BindIndexBuffer(h backend.BufferHandle, offset uint64)                        {}

func (b *Backend) CreateTexture(description backend.TextureDescription, initialData []byte) (backend.TextureHandle, error) {
	return backend.TextureHandle{Handle: b.newHandle()}, nil
}
func (b *Backend) UpdateTexture(h backend.TextureHandle, description backend.TextureDescription) error {
	return nil
}
func (b *Backend) WriteTexture(h backend.TextureHandle, region backend.Region2D, data []byte) error {
	return nil
}
func (b *Backend) ResizeTexture(h backend.TextureHandle, width, height uint32, preserve bool) error {
	return nil
}
func (b *Backend) DestroyTexture(h backend.TextureHandle) {}

func (b *Backend) CreateGraphicsPipeline(description backend.GraphicsPipelineDescription) (backend.PipelineHandle, error) {
	return backend.PipelineHandle{Handle: b.newHandle()}, nil
}
func (b *Backend) UpdateGlobalState(p backend.PipelineHandle, uniform []byte) error { return nil }
func (b *Backend) UpdateInstanceState(p backend.PipelineHandle, data []byte, material backend.MaterialState) error {
	return nil
}
func (b *Backend) UpdatePipelineState(p backend.PipelineHandle, uniform []byte, data []byte, material backend.MaterialState) error {
	return nil
}
func (b *Backend) AcquireInstanceState(p backend.PipelineHandle) (backend.InstanceStateHandle, error) {
	return backend.InstanceStateHandle{Handle: b.newHandle()}, nil
}
func (b *Backend) ReleaseInstanceState(p backend.PipelineHandle, h backend.InstanceStateHandle) error {
	return nil
}
func (b *Backend) DestroyPipeline(h backend.PipelineHandle) {}

func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {}
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
}

func (b *Backend) GetAndResetDescriptorWritesAvoided() uint64 { return 0 }
