package backend

// Backend is the virtual table dispatched by the frontend orchestrator
// (C9). Every method matches one entry named in the spec's backend
// virtual-table surface (`initialize, shutdown, on_resize,
// get_device_information, wait_idle, begin_frame, end_frame,
// begin_render_pass, end_render_pass, buffer_*, texture_*,
// graphics_pipeline_*, pipeline_update_state, instance_state_*,
// bind_buffer, draw*, get_and_reset_descriptor_writes_avoided`),
// replacing the source's struct-of-function-pointers with a Go
// interface, per the redesign note against opaque handles and function
// tables. Vulkan is the only implementation (backend/vulkan); the
// interface stays the extension point for additional backend types.
type Backend interface {
	// Initialize creates the device, surface, swapchain, command-buffer
	// and sync-object pools, and the render-pass registry.
	Initialize(window Window, requirements DeviceRequirements) error

	// Shutdown waits for the device to idle and releases every backend-
	// owned GPU resource.
	Shutdown()

	// OnResize notifies the backend of a new framebuffer size; actual
	// swapchain recreation happens lazily on the next acquire that
	// reports OUT_OF_DATE, or immediately if extent is nonzero and the
	// current swapchain extent disagrees.
	OnResize(width, height int)

	// GetDeviceInformation reports the selected physical device.
	GetDeviceInformation() DeviceInformation

	// WaitIdle blocks until all submitted GPU work on this device has
	// completed.
	WaitIdle() error

	// BeginFrame runs the per-frame fence wait, image acquisition, and
	// command-buffer begin sequence. dt is the frame delta time in
	// seconds, threaded through for backend-side profiling only.
	BeginFrame(dt float32) error

	// EndFrame records the present-ready transition if needed, submits
	// the current command buffer, and presents.
	EndFrame(dt float32) error

	// BeginRenderPass begins the named render pass bound to domain,
	// handling chaining (no layout transition when the previous pass's
	// final layout matches this pass's initial layout).
	BeginRenderPass(domain Domain) error

	// EndRenderPass ends the currently active render pass.
	EndRenderPass() error

	CreateBuffer(description BufferDescription, initialData []byte) (BufferHandle, error)
	UpdateBuffer(h BufferHandle, offset, size uint64, data []byte) error
	UploadBuffer(h BufferHandle, offset, size uint64, data []byte) error
	DestroyBuffer(h BufferHandle)
	BindVertexBuffer(h BufferHandle, offset uint64)
	BindIndexBuffer(h BufferHandle, offset uint64)

	CreateTexture(description TextureDescription, initialData []byte) (TextureHandle, error)
	UpdateTexture(h TextureHandle, description TextureDescription) error
	WriteTexture(h TextureHandle, region Region2D, data []byte) error
	ResizeTexture(h TextureHandle, width, height uint32, preserve bool) error
	DestroyTexture(h TextureHandle)

	CreateGraphicsPipeline(description GraphicsPipelineDescription) (PipelineHandle, error)
	UpdateGlobalState(p PipelineHandle, uniform []byte) error
	UpdateInstanceState(p PipelineHandle, data []byte, material MaterialState) error
	UpdatePipelineState(p PipelineHandle, uniform []byte, data []byte, material MaterialState) error
	AcquireInstanceState(p PipelineHandle) (InstanceStateHandle, error)
	ReleaseInstanceState(p PipelineHandle, h InstanceStateHandle) error
	DestroyPipeline(h PipelineHandle)

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)

	// GetAndResetDescriptorWritesAvoided returns the running count of
	// elided descriptor writes (P11) since the last call, then resets it
	// to zero.
	GetAndResetDescriptorWritesAvoided() uint64
}

// Window is the subset of the platform window contract the backend needs
// to create a surface and query its size; satisfied by platform.Window.
type Window interface {
	RequiredInstanceExtensions() []string
	PixelSize() (width, height int)
}

// Logger is the ambient logging contract a Backend implementation uses
// for swapchain recreation events, fence-wait timeouts, and other
// warnings a programmer error would not justify panicking over.
// Satisfied structurally by the root package's Logger (stdLogger or
// NewNoopLogger) without either package importing the other.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Region2D describes a rectangular sub-region of a texture for a partial
// write_texture update.
type Region2D struct {
	X, Y          uint32
	Width, Height uint32
}

// MaterialState is the minimal per-instance texture binding set the
// backend needs to write instance descriptor sets: one texture handle
// per instance-scoped sampler uniform, in shader-config uniform order.
type MaterialState struct {
	Textures []TextureHandle
}
