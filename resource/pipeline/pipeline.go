// Package pipeline implements C7/C10: graphics pipeline creation from a
// parsed shaderconfig.Config, its descriptor-set layouts (global/
// instance), and per-instance descriptor-set slots with descriptor-write
// elision (P11). Shader-stage/vertex-input/fixed-function state
// construction and the SPIR-V-bytes-to-uint32 shader-module loader are
// directly adapted from mirstar13-3d-graphics's pipeline-creation
// fragment; oxy-go's pipeline.go contributes the depth/blend/cull
// configuration-struct shape, generalized from its WebGPU pipeline
// builder fields to Vulkan fixed-function state.
package pipeline

import (
	"bytes"
	"fmt"
	"os"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/shaderconfig"
)

const (
	globalSetIndex   = 0
	instanceSetIndex = 1
)

// instanceSlot is one per-instance descriptor-set slot in a pipeline's
// instance pool.
type instanceSlot struct {
	inUse        bool
	generation   uint32
	set          vk.DescriptorSet
	uboBound     bool // instance UBO binding written at least once (buffer/offset/range never change after)
	lastTextures []backend.TextureHandle

	// lastInstanceData is the most recently WriteAt'd instance UBO bytes,
	// tracked so ApplyInstanceUniform can elide an identical write (P11).
	lastInstanceData []byte
}

// GraphicsPipeline is a device pipeline plus its descriptor-set layouts,
// descriptor pool, and instance-state slot table.
type GraphicsPipeline struct {
	Handle backend.PipelineHandle
	Config *shaderconfig.Config
	Domain backend.Domain

	layout   vk.PipelineLayout
	vkPipeline vk.Pipeline

	globalLayout   vk.DescriptorSetLayout
	instanceLayout vk.DescriptorSetLayout
	descriptorPool vk.DescriptorPool
	globalSet      vk.DescriptorSet

	maxInstances  uint32
	instances     []instanceSlot
	freeSlots     []uint32
	writesAvoided uint64

	// lastGlobalData is the most recently WriteAt'd global UBO bytes,
	// tracked so ApplyGlobalUniform can elide an identical write (P11).
	lastGlobalData []byte
}

// PushConstants returns the push-constant byte range this pipeline's
// local-scope uniforms occupy, or (0, 0) if it declares none.
func (p *GraphicsPipeline) PushConstants() (size uint32, stride uint32) {
	return p.Config.PushConstantSize, p.Config.PushConstantStride
}

func attributeVkFormat(t shaderconfig.AttributeType) vk.Format {
	switch t {
	case shaderconfig.AttrVec2:
		return vk.FormatR32g32Sfloat
	case shaderconfig.AttrVec4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatR32g32b32Sfloat
	}
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func toVkCullMode(c shaderconfig.CullMode) vk.CullModeFlagBits {
	switch c {
	case shaderconfig.CullNone:
		return vk.CullModeNone
	case shaderconfig.CullFront:
		return vk.CullModeFrontBit
	case shaderconfig.CullFrontAndBack:
		return vk.CullModeFrontAndBack
	default:
		return vk.CullModeBackBit
	}
}

func loadShaderModule(device vk.Device, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader %s: %w", path, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("shader %s: SPIR-V byte length %d not a multiple of 4", path, len(code))
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) | uint32(code[i*4+1])<<8 | uint32(code[i*4+2])<<16 | uint32(code[i*4+3])<<24
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(device, &createInfo, nil, &module); res != vk.Success {
		return nil, fmt.Errorf("vkCreateShaderModule(%s) failed: %d", path, res)
	}
	return module, nil
}

func stageVkFlag(k shaderconfig.StageKind) vk.ShaderStageFlagBits {
	if k == shaderconfig.StageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

// descriptorLayoutFor builds a set layout with binding 0 as the scope's
// UBO (if the scope declares one) and the following bindings (1..N, or
// 0..N-1 without a UBO) as combined-image-samplers for the scope's
// sampler uniforms.
func descriptorLayoutFor(device vk.Device, cfg *shaderconfig.Config, scope shaderconfig.UniformScope, hasUBO bool, textureCount int) (vk.DescriptorSetLayout, error) {
	var bindings []vk.DescriptorSetLayoutBinding
	if hasUBO {
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		})
	}
	for i := 0; i < textureCount; i++ {
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(len(bindings)),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(device, &createInfo, nil, &layout); res != vk.Success {
		return nil, fmt.Errorf("vkCreateDescriptorSetLayout (scope=%v) failed: %d", scope, res)
	}
	return layout, nil
}

// Create builds a graphics pipeline for the given shader config targeting
// renderPass/domain, with a descriptor pool sized for maxInstances
// concurrent instance-state slots.
func Create(device vk.Device, allocator *vk.AllocationCallbacks, renderPass vk.RenderPass, extent vk.Extent2D, description backend.GraphicsPipelineDescription, maxInstances uint32) (*GraphicsPipeline, error) {
	cfg := description.Config

	globalLayout, err := descriptorLayoutFor(device, cfg, shaderconfig.ScopeGlobal, cfg.GlobalUBOSize > 0, cfg.GlobalTextureCount)
	if err != nil {
		return nil, err
	}
	instanceLayout, err := descriptorLayoutFor(device, cfg, shaderconfig.ScopeInstance, cfg.InstanceUBOSize > 0, cfg.InstanceTextureCount)
	if err != nil {
		vk.DestroyDescriptorSetLayout(device, globalLayout, allocator)
		return nil, err
	}

	var pushRanges []vk.PushConstantRange
	if cfg.PushConstantSize > 0 {
		pushRanges = append(pushRanges, vk.PushConstantRange{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       cfg.PushConstantSize,
		})
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         2,
		PSetLayouts:            []vk.DescriptorSetLayout{globalLayout, instanceLayout},
		PushConstantRangeCount: uint32(len(pushRanges)),
		PPushConstantRanges:    pushRanges,
	}
	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device, &layoutInfo, allocator, &pipelineLayout); res != vk.Success {
		vk.DestroyDescriptorSetLayout(device, globalLayout, allocator)
		vk.DestroyDescriptorSetLayout(device, instanceLayout, allocator)
		return nil, fmt.Errorf("vkCreatePipelineLayout failed: %d", res)
	}

	var stageInfos []vk.PipelineShaderStageCreateInfo
	var modules []vk.ShaderModule
	cleanupModules := func() {
		for _, m := range modules {
			vk.DestroyShaderModule(device, m, nil)
		}
	}
	for _, stage := range cfg.Stages {
		module, err := loadShaderModule(device, stage.Filename)
		if err != nil {
			cleanupModules()
			vk.DestroyPipelineLayout(device, pipelineLayout, allocator)
			vk.DestroyDescriptorSetLayout(device, globalLayout, allocator)
			vk.DestroyDescriptorSetLayout(device, instanceLayout, allocator)
			return nil, err
		}
		modules = append(modules, module)
		entry := stage.EntryPoint
		if entry == "" {
			entry = "main"
		}
		stageInfos = append(stageInfos, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stageVkFlag(stage.Kind),
			Module: module,
			PName:  entry + "\x00",
		})
	}

	var attrDescs []vk.VertexInputAttributeDescription
	for _, attr := range cfg.Attributes {
		attrDescs = append(attrDescs, vk.VertexInputAttributeDescription{
			Binding:  0,
			Location: attr.Location,
			Format:   attributeVkFormat(attr.Type),
			Offset:   attr.Offset,
		})
	}
	bindingDesc := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    cfg.AttributeStride,
		InputRate: vk.VertexInputRateVertex,
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDesc},
		VertexAttributeDescriptionCount: uint32(len(attrDescs)),
		PVertexAttributeDescriptions:    attrDescs,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}

	viewport := vk.Viewport{Width: float32(extent.Width), Height: float32(extent.Height), MinDepth: 0, MaxDepth: 1}
	scissor := vk.Rect2D{Extent: extent}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1.0,
		CullMode:    vk.CullModeFlags(toVkCullMode(cfg.CullMode)),
		FrontFace:   vk.FrontFaceCounterClockwise,
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	useDepth := description.Domain != backend.DomainUI && description.Domain != backend.DomainSkybox
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vkBool(useDepth),
		DepthWriteEnable: vkBool(useDepth),
		DepthCompareOp:   vk.CompareOpLess,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:    vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stageInfos)),
		PStages:             stageInfos,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              pipelineLayout,
		RenderPass:          renderPass,
		Subpass:             0,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, allocator, pipelines)
	cleanupModules()
	if res != vk.Success {
		vk.DestroyPipelineLayout(device, pipelineLayout, allocator)
		vk.DestroyDescriptorSetLayout(device, globalLayout, allocator)
		vk.DestroyDescriptorSetLayout(device, instanceLayout, allocator)
		return nil, fmt.Errorf("vkCreateGraphicsPipelines failed: %d", res)
	}

	pool, err := createDescriptorPool(device, allocator, maxInstances)
	if err != nil {
		vk.DestroyPipeline(device, pipelines[0], allocator)
		vk.DestroyPipelineLayout(device, pipelineLayout, allocator)
		vk.DestroyDescriptorSetLayout(device, globalLayout, allocator)
		vk.DestroyDescriptorSetLayout(device, instanceLayout, allocator)
		return nil, err
	}

	p := &GraphicsPipeline{
		Config: cfg, Domain: description.Domain,
		layout: pipelineLayout, vkPipeline: pipelines[0],
		globalLayout: globalLayout, instanceLayout: instanceLayout,
		descriptorPool: pool, maxInstances: maxInstances,
		instances: make([]instanceSlot, maxInstances),
	}

	if cfg.GlobalUBOSize > 0 || cfg.GlobalTextureCount > 0 {
		set, err := allocateSet(device, pool, globalLayout)
		if err != nil {
			Destroy(device, allocator, p)
			return nil, err
		}
		p.globalSet = set
	}

	return p, nil
}

func createDescriptorPool(device vk.Device, allocator *vk.AllocationCallbacks, maxInstances uint32) (vk.DescriptorPool, error) {
	sizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: maxInstances + 1},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: (maxInstances + 1) * 4},
	}
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxInstances + 1,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(device, &createInfo, allocator, &pool); res != vk.Success {
		return nil, fmt.Errorf("vkCreateDescriptorPool failed: %d", res)
	}
	return pool, nil
}

func allocateSet(device vk.Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(device, &allocInfo, sets); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateDescriptorSets failed: %d", res)
	}
	return sets[0], nil
}

// AcquireInstanceState reserves a free instance-state slot, allocating
// its descriptor set lazily on first use. Returns a handle whose
// generation increments every time the slot is reused, so a stale handle
// from a released slot is detectable.
func (p *GraphicsPipeline) AcquireInstanceState(device vk.Device) (backend.InstanceStateHandle, error) {
	var index uint32
	var found bool
	if n := len(p.freeSlots); n > 0 {
		index = p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
		found = true
	} else {
		for i := range p.instances {
			if !p.instances[i].inUse {
				index = uint32(i)
				found = true
				break
			}
		}
	}
	if !found {
		return backend.InvalidInstanceStateHandle, fmt.Errorf("pipeline: no free instance-state slots (max %d)", p.maxInstances)
	}

	slot := &p.instances[index]
	if slot.set == nil {
		set, err := allocateSet(device, p.descriptorPool, p.instanceLayout)
		if err != nil {
			return backend.InvalidInstanceStateHandle, err
		}
		slot.set = set
	}
	slot.inUse = true
	slot.generation++
	slot.uboBound = false
	slot.lastTextures = nil
	slot.lastInstanceData = nil
	return backend.InstanceStateHandle{Handle: backend.NewHandle(index, slot.generation)}, nil
}

// ReleaseInstanceState returns a slot to the free list. Its descriptor
// set is kept allocated for reuse; only its generation advances.
func (p *GraphicsPipeline) ReleaseInstanceState(h backend.InstanceStateHandle) error {
	if int(h.Index) >= len(p.instances) {
		return fmt.Errorf("pipeline: invalid instance-state handle index %d", h.Index)
	}
	slot := &p.instances[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return fmt.Errorf("pipeline: stale or already-released instance-state handle %+v", h)
	}
	slot.inUse = false
	p.freeSlots = append(p.freeSlots, h.Index)
	return nil
}

// UpdateInstanceState writes the instance's UBO binding (once; the
// buffer/offset/range are fixed for the slot's lifetime, so later calls
// never need to rebind it) and rewrites each material texture binding
// that differs from the one last applied, skipping identical bindings
// (P11 - descriptor-write elision) one at a time so a material that
// changes only its second texture still elides the first.
func (p *GraphicsPipeline) UpdateInstanceState(device vk.Device, h backend.InstanceStateHandle, uboBuffer vk.Buffer, uboOffset, uboSize uint64, textures []backend.TextureHandle, views []vk.ImageView, samplers []vk.Sampler) error {
	if int(h.Index) >= len(p.instances) {
		return fmt.Errorf("pipeline: invalid instance-state handle index %d", h.Index)
	}
	slot := &p.instances[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return fmt.Errorf("pipeline: stale instance-state handle %+v", h)
	}

	var writes []vk.WriteDescriptorSet
	binding := uint32(0)
	if uboSize > 0 {
		if !slot.uboBound {
			bufferInfo := vk.DescriptorBufferInfo{Buffer: uboBuffer, Offset: vk.DeviceSize(uboOffset), Range: vk.DeviceSize(uboSize)}
			writes = append(writes, vk.WriteDescriptorSet{
				SType: vk.StructureTypeWriteDescriptorSet, DstSet: slot.set, DstBinding: binding,
				DescriptorCount: 1, DescriptorType: vk.DescriptorTypeUniformBuffer,
				PBufferInfo: []vk.DescriptorBufferInfo{bufferInfo},
			})
			slot.uboBound = true
		}
		binding++
	}

	if sameTextures(slot.lastTextures, textures) {
		p.writesAvoided += uint64(len(textures))
	} else {
		for i := range textures {
			if i < len(slot.lastTextures) && slot.lastTextures[i] == textures[i] {
				p.writesAvoided++
				binding++
				continue
			}
			imageInfo := vk.DescriptorImageInfo{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				ImageView:   views[i],
				Sampler:     samplers[i],
			}
			writes = append(writes, vk.WriteDescriptorSet{
				SType: vk.StructureTypeWriteDescriptorSet, DstSet: slot.set, DstBinding: binding,
				DescriptorCount: 1, DescriptorType: vk.DescriptorTypeCombinedImageSampler,
				PImageInfo: []vk.DescriptorImageInfo{imageInfo},
			})
			binding++
		}
		slot.lastTextures = append([]backend.TextureHandle(nil), textures...)
	}

	if len(writes) > 0 {
		vk.UpdateDescriptorSets(device, uint32(len(writes)), writes, 0, nil)
	}
	return nil
}

func sameTextures(a, b []backend.TextureHandle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ApplyGlobalUniform reports whether data differs from the bytes last
// applied to the pipeline's global UBO, recording data as the new
// baseline either way. The caller should skip the WriteAt into the
// global UBO's mapped memory when this returns false, counting as one
// elided binding toward P11.
func (p *GraphicsPipeline) ApplyGlobalUniform(data []byte) (changed bool) {
	if bytes.Equal(p.lastGlobalData, data) {
		p.writesAvoided++
		return false
	}
	p.lastGlobalData = append(p.lastGlobalData[:0:0], data...)
	return true
}

// ApplyInstanceUniform reports whether data differs from the bytes last
// applied to h's instance UBO range, recording data as the new baseline
// either way. The caller should skip the WriteAt when this returns
// false, counting as one elided binding toward P11.
func (p *GraphicsPipeline) ApplyInstanceUniform(h backend.InstanceStateHandle, data []byte) (changed bool, err error) {
	if int(h.Index) >= len(p.instances) {
		return false, fmt.Errorf("pipeline: invalid instance-state handle index %d", h.Index)
	}
	slot := &p.instances[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return false, fmt.Errorf("pipeline: stale instance-state handle %+v", h)
	}
	if bytes.Equal(slot.lastInstanceData, data) {
		p.writesAvoided++
		return false, nil
	}
	slot.lastInstanceData = append(slot.lastInstanceData[:0:0], data...)
	return true, nil
}

// GetAndResetDescriptorWritesAvoided reports and clears the running
// count of writes elided by P11: one per unchanged texture binding in
// UpdateInstanceState and one per unchanged ApplyGlobalUniform or
// ApplyInstanceUniform call.
func (p *GraphicsPipeline) GetAndResetDescriptorWritesAvoided() uint64 {
	n := p.writesAvoided
	p.writesAvoided = 0
	return n
}

// VkPipeline exposes the underlying vk.Pipeline for command recording.
func (p *GraphicsPipeline) VkPipeline() vk.Pipeline { return p.vkPipeline }

// VkLayout exposes the underlying vk.PipelineLayout for binding
// descriptor sets and pushing constants.
func (p *GraphicsPipeline) VkLayout() vk.PipelineLayout { return p.layout }

// GlobalSet exposes the per-pipeline global descriptor set (set index 0).
func (p *GraphicsPipeline) GlobalSet() vk.DescriptorSet { return p.globalSet }

// BindGlobalBuffer writes buf's range [0, size) into binding 0 of the
// global descriptor set. Called once, right after the backing global
// uniform buffer is created; update_global_state thereafter only needs
// to WriteAt the buffer's mapped memory, since the binding itself never
// changes for the pipeline's lifetime.
func (p *GraphicsPipeline) BindGlobalBuffer(device vk.Device, buf vk.Buffer, size uint64) error {
	if p.globalSet == nil {
		return fmt.Errorf("pipeline: BindGlobalBuffer called on a pipeline with no global UBO binding")
	}
	bufferInfo := vk.DescriptorBufferInfo{Buffer: buf, Offset: 0, Range: vk.DeviceSize(size)}
	write := vk.WriteDescriptorSet{
		SType: vk.StructureTypeWriteDescriptorSet, DstSet: p.globalSet, DstBinding: 0,
		DescriptorCount: 1, DescriptorType: vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{bufferInfo},
	}
	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return nil
}

// InstanceSet returns the descriptor set bound to a live instance-state
// handle.
func (p *GraphicsPipeline) InstanceSet(h backend.InstanceStateHandle) (vk.DescriptorSet, error) {
	if int(h.Index) >= len(p.instances) {
		return nil, fmt.Errorf("pipeline: invalid instance-state handle index %d", h.Index)
	}
	slot := &p.instances[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return nil, fmt.Errorf("pipeline: stale instance-state handle %+v", h)
	}
	return slot.set, nil
}

// Destroy releases the descriptor pool, pipeline, pipeline layout, and
// both descriptor-set layouts.
func Destroy(device vk.Device, allocator *vk.AllocationCallbacks, p *GraphicsPipeline) {
	if p == nil {
		return
	}
	if p.descriptorPool != nil {
		vk.DestroyDescriptorPool(device, p.descriptorPool, allocator)
	}
	if p.vkPipeline != nil {
		vk.DestroyPipeline(device, p.vkPipeline, allocator)
	}
	if p.layout != nil {
		vk.DestroyPipelineLayout(device, p.layout, allocator)
	}
	if p.globalLayout != nil {
		vk.DestroyDescriptorSetLayout(device, p.globalLayout, allocator)
	}
	if p.instanceLayout != nil {
		vk.DestroyDescriptorSetLayout(device, p.instanceLayout, allocator)
	}
}
