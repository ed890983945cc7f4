package renderpass

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// Create derives the attachment descriptions from cfg's clear flags and
// chaining neighbours per the spec §4.4 table, builds one subpass with
// an external→0→external dependency pair, and creates the vk.RenderPass.
func Create(device vk.Device, allocator *vk.AllocationCallbacks, colorFormat, depthFormat vk.Format, cfg Config) (*Pass, error) {
	pass := &Pass{
		Name:        cfg.Name,
		Domain:      cfg.Domain,
		HasPrevPass: cfg.hasPrev(),
		HasNextPass: cfg.hasNext(),
		RenderArea:  cfg.RenderArea,
		ClearColor:  cfg.ClearColor,
		ClearDepth:  1.0,
		ClearFlags:  cfg.ClearFlags,
		State:       StateNotAllocated,
	}

	var attachments []vk.AttachmentDescription
	subpass := vk.SubpassDescription{PipelineBindPoint: vk.PipelineBindPointGraphics}

	// COMPUTE passes carry no attachments; operations on them bypass
	// begin_render_pass entirely per §4.4, but Create stays total.
	if cfg.Domain != backend.DomainCompute {
		color := colorAttachment(cfg, colorFormat)
		attachments = append(attachments, color)
		colorRef := []vk.AttachmentReference{{Attachment: uint32(len(attachments) - 1), Layout: vk.ImageLayoutColorAttachmentOptimal}}
		subpass.ColorAttachmentCount = 1
		subpass.PColorAttachments = colorRef
		pass.usesColor = true
	}

	if cfg.ClearFlags&UseDepth != 0 {
		depth := depthAttachment(cfg, depthFormat)
		attachments = append(attachments, depth)
		depthRef := vk.AttachmentReference{Attachment: uint32(len(attachments) - 1), Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
		subpass.PDepthStencilAttachment = &depthRef
	}

	dependencies := buildDependencies(cfg)

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(device, &createInfo, allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("renderpass %q: vkCreateRenderPass failed: %d", cfg.Name, res)
	}
	pass.Handle = handle
	pass.State = StateReady
	return pass, nil
}

func colorAttachment(cfg Config, format vk.Format) vk.AttachmentDescription {
	a := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}

	switch {
	case !cfg.hasPrev() && !cfg.hasNext():
		a.LoadOp = vk.AttachmentLoadOpClear
		a.InitialLayout = vk.ImageLayoutUndefined
		a.FinalLayout = vk.ImageLayoutPresentSrc
	case !cfg.hasPrev() && cfg.hasNext():
		a.LoadOp = vk.AttachmentLoadOpClear
		a.InitialLayout = vk.ImageLayoutUndefined
		a.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	case cfg.hasPrev() && !cfg.hasNext():
		a.LoadOp = vk.AttachmentLoadOpLoad
		a.InitialLayout = vk.ImageLayoutColorAttachmentOptimal
		a.FinalLayout = vk.ImageLayoutPresentSrc
	default: // hasPrev && hasNext
		a.LoadOp = vk.AttachmentLoadOpLoad
		a.InitialLayout = vk.ImageLayoutColorAttachmentOptimal
		a.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	}

	// CLEAR_COLOR falls back to LOAD when a previous pass already wrote
	// color, per §4.4.
	if cfg.ClearFlags&ClearColorBuffer != 0 && !cfg.hasPrev() {
		a.LoadOp = vk.AttachmentLoadOpClear
	} else if cfg.hasPrev() {
		a.LoadOp = vk.AttachmentLoadOpLoad
	}

	return a
}

func depthAttachment(cfg Config, format vk.Format) vk.AttachmentDescription {
	a := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	if cfg.hasNext() {
		a.StoreOp = vk.AttachmentStoreOpStore
	}
	if cfg.ClearFlags&ClearDepthBuffer != 0 {
		a.LoadOp = vk.AttachmentLoadOpClear
		a.InitialLayout = vk.ImageLayoutUndefined
	} else {
		a.LoadOp = vk.AttachmentLoadOpLoad
	}
	return a
}

func buildDependencies(cfg Config) []vk.SubpassDependency {
	in := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
	out := vk.SubpassDependency{
		SrcSubpass:    0,
		DstSubpass:    vk.SubpassExternal,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
	}

	if cfg.ClearFlags&UseDepth != 0 {
		in.DstStageMask |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		in.DstAccessMask |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		out.SrcStageMask |= vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
		out.SrcAccessMask |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	return []vk.SubpassDependency{in, out}
}

// Destroy releases the pass's device-level render pass object.
func (p *Pass) Destroy(device vk.Device, allocator *vk.AllocationCallbacks) {
	if p.Handle != nil {
		vk.DestroyRenderPass(device, p.Handle, allocator)
		p.Handle = nil
	}
	p.State = StateNotAllocated
}

// Begin records vkCmdBeginRenderPass with an effective render area
// intersected against the target's dimensions (minimum 1x1), a
// per-attachment clear-value array, and a matching viewport/scissor.
func (p *Pass) Begin(cmd vk.CommandBuffer, framebuffer vk.Framebuffer, targetWidth, targetHeight uint32) {
	area := effectiveArea(p.RenderArea, targetWidth, targetHeight)

	var clearValues []vk.ClearValue
	if p.usesColor {
		var cv vk.ClearValue
		cv.SetColor(p.ClearColor[:])
		clearValues = append(clearValues, cv)
	}
	if p.ClearFlags&UseDepth != 0 {
		var cv vk.ClearValue
		cv.SetDepthStencil(p.ClearDepth, p.ClearStencil)
		clearValues = append(clearValues, cv)
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  p.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: area.X, Y: area.Y},
			Extent: vk.Extent2D{Width: uint32(area.Width), Height: uint32(area.Height)},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	beginInfo.Deref()

	vk.CmdBeginRenderPass(cmd, &beginInfo, vk.SubpassContentsInline)

	viewport := vk.Viewport{
		X: float32(area.X), Y: float32(area.Y),
		Width: float32(area.Width), Height: float32(area.Height),
		MinDepth: 0, MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: area.X, Y: area.Y},
		Extent: vk.Extent2D{Width: uint32(area.Width), Height: uint32(area.Height)},
	}
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})

	p.State = StateRecording
}

// End records vkCmdEndRenderPass. Whether this pass is terminal
// (NextName empty) — signalling the caller to mark the swapchain image
// present-ready — is reported by Registry.End, not here; Pass has no
// view of its own chaining beyond the HasNextPass bit Create derived
// from it.
func (p *Pass) End(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
	p.State = StateReady
}

func effectiveArea(configured Rect, targetWidth, targetHeight uint32) Rect {
	w := configured.Width
	h := configured.Height
	if w <= 0 || uint32(w) > targetWidth {
		w = int32(targetWidth)
	}
	if h <= 0 || uint32(h) > targetHeight {
		h = int32(targetHeight)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Rect{X: configured.X, Y: configured.Y, Width: w, Height: h}
}
