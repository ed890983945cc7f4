package renderer

import (
	"errors"
	"fmt"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/renderpass"
	"github.com/Panbok/vulkan-renderer-sub009/resource/texture"
)

// renderPassRegisterer is implemented by backends that support
// host-supplied render-pass overrides (currently backend/vulkan).
// RegisterRenderPass reaches it via type assertion rather than adding it
// to backend.Backend, the same opt-in-concrete-method shape as the
// indirect-draw fast path.
type renderPassRegisterer interface {
	RegisterRenderPass(cfg renderpass.Config) error
}

// RegisterRenderPass installs or replaces a render-pass config by name,
// per spec §4.4 ("if the host supplies configs, they are preferred over
// built-ins of the same name"). This is the only way to make
// backend.DomainShadow/backend.DomainPost — unmapped by the three
// guaranteed built-ins — reachable through BeginRenderPass.
func (f *Frontend) RegisterRenderPass(cfg renderpass.Config) error {
	r, ok := f.be.(renderPassRegisterer)
	if !ok {
		return NewError(ErrorBackendNotSupported, fmt.Errorf("backend does not support render pass registration"))
	}
	if err := r.RegisterRenderPass(cfg); err != nil {
		return NewError(ErrorResourceCreationFailed, err)
	}
	return nil
}

// CreateBuffer implements create_buffer(description, optional initial_data).
func (f *Frontend) CreateBuffer(description backend.BufferDescription, initialData []byte) (backend.BufferHandle, error) {
	h, err := f.be.CreateBuffer(description, initialData)
	if err != nil {
		return backend.InvalidBufferHandle, NewError(ErrorResourceCreationFailed, err)
	}
	return h, nil
}

// UpdateBuffer implements update_buffer(h, offset, size, data).
func (f *Frontend) UpdateBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error {
	if err := f.be.UpdateBuffer(h, offset, size, data); err != nil {
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// UploadBuffer implements upload_buffer(h, offset, size, data).
func (f *Frontend) UploadBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error {
	if err := f.be.UploadBuffer(h, offset, size, data); err != nil {
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// DestroyBuffer implements destroy_buffer(h).
func (f *Frontend) DestroyBuffer(h backend.BufferHandle) {
	f.be.DestroyBuffer(h)
}

// BindVertexBuffer implements bind_vertex_buffer(binding).
func (f *Frontend) BindVertexBuffer(h backend.BufferHandle, offset uint64) {
	f.be.BindVertexBuffer(h, offset)
}

// BindIndexBuffer implements bind_index_buffer(binding).
func (f *Frontend) BindIndexBuffer(h backend.BufferHandle, offset uint64) {
	f.be.BindIndexBuffer(h, offset)
}

// CreateTexture implements create_texture(description, optional initial_data).
func (f *Frontend) CreateTexture(description backend.TextureDescription, initialData []byte) (backend.TextureHandle, error) {
	h, err := f.be.CreateTexture(description, initialData)
	if err != nil {
		return backend.InvalidTextureHandle, NewError(ErrorResourceCreationFailed, err)
	}
	return h, nil
}

// UpdateTexture implements update_texture(h, description). A
// dimensions/format/channels mismatch against the existing texture is
// reported as ErrorInvalidParameter, per spec §4.7; any other failure
// (including an unknown handle) as ErrorInvalidHandle.
func (f *Frontend) UpdateTexture(h backend.TextureHandle, description backend.TextureDescription) error {
	if err := f.be.UpdateTexture(h, description); err != nil {
		if errors.Is(err, texture.ErrDescriptionMismatch) {
			return NewError(ErrorInvalidParameter, err)
		}
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// WriteTexture implements write_texture(h, region, data, size).
func (f *Frontend) WriteTexture(h backend.TextureHandle, region backend.Region2D, data []byte) error {
	if err := f.be.WriteTexture(h, region, data); err != nil {
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// ResizeTexture implements resize_texture(h, w, h, preserve).
func (f *Frontend) ResizeTexture(h backend.TextureHandle, width, height uint32, preserve bool) error {
	if err := f.be.ResizeTexture(h, width, height, preserve); err != nil {
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// DestroyTexture implements destroy_texture(h).
func (f *Frontend) DestroyTexture(h backend.TextureHandle) {
	f.be.DestroyTexture(h)
}

// CreateGraphicsPipeline implements create_graphics_pipeline(description),
// additionally caching the result under key so later calls can look the
// pipeline back up by name via Pipeline/Pipelines, mirroring oxy-go's
// RegisterPipelines dedup-by-key behavior: a key already present is
// returned as-is rather than creating a duplicate GPU pipeline.
func (f *Frontend) CreateGraphicsPipeline(key string, description backend.GraphicsPipelineDescription) (backend.PipelineHandle, error) {
	if h, ok := f.pipelines[key]; ok {
		return h, nil
	}
	h, err := f.be.CreateGraphicsPipeline(description)
	if err != nil {
		return backend.InvalidPipelineHandle, NewError(ErrorResourceCreationFailed, err)
	}
	f.pipelines[key] = h
	return h, nil
}

// Pipeline retrieves a previously registered pipeline handle by key.
func (f *Frontend) Pipeline(key string) (backend.PipelineHandle, bool) {
	h, ok := f.pipelines[key]
	return h, ok
}

// Pipelines retrieves the entire pipeline registry.
func (f *Frontend) Pipelines() map[string]backend.PipelineHandle {
	return f.pipelines
}

// DestroyPipeline implements destroy_pipeline(h), removing key from the
// registry if it names the destroyed handle.
func (f *Frontend) DestroyPipeline(key string) {
	h, ok := f.pipelines[key]
	if !ok {
		return
	}
	f.be.DestroyPipeline(h)
	delete(f.pipelines, key)
}

// UpdateGlobalState implements update_global_state(pipeline, uniform).
func (f *Frontend) UpdateGlobalState(p backend.PipelineHandle, uniform []byte) error {
	if err := f.be.UpdateGlobalState(p, uniform); err != nil {
		return NewError(ErrorPipelineStateUpdateFailed, err)
	}
	return nil
}

// UpdateInstanceState implements update_instance_state(pipeline, data, material).
func (f *Frontend) UpdateInstanceState(p backend.PipelineHandle, data []byte, material backend.MaterialState) error {
	if err := f.be.UpdateInstanceState(p, data, material); err != nil {
		return NewError(ErrorPipelineStateUpdateFailed, err)
	}
	return nil
}

// UpdatePipelineState implements update_pipeline_state(pipeline, uniform, data, material).
func (f *Frontend) UpdatePipelineState(p backend.PipelineHandle, uniform []byte, data []byte, material backend.MaterialState) error {
	if err := f.be.UpdatePipelineState(p, uniform, data, material); err != nil {
		return NewError(ErrorPipelineStateUpdateFailed, err)
	}
	return nil
}

// AcquireInstanceState implements acquire_instance_state(pipeline).
func (f *Frontend) AcquireInstanceState(p backend.PipelineHandle) (backend.InstanceStateHandle, error) {
	h, err := f.be.AcquireInstanceState(p)
	if err != nil {
		return backend.InvalidInstanceStateHandle, NewError(ErrorResourceCreationFailed, err)
	}
	return h, nil
}

// ReleaseInstanceState implements release_instance_state(pipeline, handle).
func (f *Frontend) ReleaseInstanceState(p backend.PipelineHandle, h backend.InstanceStateHandle) error {
	if err := f.be.ReleaseInstanceState(p, h); err != nil {
		return NewError(ErrorInvalidHandle, err)
	}
	return nil
}

// GetAndResetDescriptorWritesAvoided reports the running count of elided
// descriptor writes (P11) since the last call.
func (f *Frontend) GetAndResetDescriptorWritesAvoided() uint64 {
	return f.be.GetAndResetDescriptorWritesAvoided()
}
