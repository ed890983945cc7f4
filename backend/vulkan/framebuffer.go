package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/renderpass"
)

// framebufferSet holds one vk.Framebuffer per swapchain image for a
// single named pass.
type framebufferSet struct {
	perImage []vk.Framebuffer
}

// createFramebuffers builds one framebuffer set per registered pass
// (except COMPUTE, which carries no attachments and never begins a
// render pass) across every swapchain image view, per spec §4.5.
func (b *Backend) createFramebuffers() error {
	sets := make(map[string]framebufferSet, len(b.registry.Names()))

	for _, name := range b.registry.Names() {
		pass, ok := b.registry.Get(name)
		if !ok {
			continue
		}
		if pass.Domain == backend.DomainCompute {
			continue
		}

		set := framebufferSet{perImage: make([]vk.Framebuffer, len(b.imageViews))}
		usesDepth := pass.ClearFlags&renderpass.UseDepth != 0

		for i, colorView := range b.imageViews {
			attachments := []vk.ImageView{colorView}
			if usesDepth {
				attachments = append(attachments, b.depthView)
			}

			createInfo := vk.FramebufferCreateInfo{
				SType:           vk.StructureTypeFramebufferCreateInfo,
				RenderPass:      pass.Handle,
				AttachmentCount: uint32(len(attachments)),
				PAttachments:    attachments,
				Width:           b.swapchainExtent.Width,
				Height:          b.swapchainExtent.Height,
				Layers:          1,
			}

			var fb vk.Framebuffer
			if res := vk.CreateFramebuffer(b.device, &createInfo, nil, &fb); res != vk.Success {
				return fmt.Errorf("renderpass %q: vkCreateFramebuffer (image %d) failed: %d", name, i, res)
			}
			set.perImage[i] = fb
		}

		sets[normalizeName(name)] = set
	}

	b.framebuffers = sets
	return nil
}

func (b *Backend) destroyFramebuffers() {
	for _, set := range b.framebuffers {
		for _, fb := range set.perImage {
			vk.DestroyFramebuffer(b.device, fb, nil)
		}
	}
	b.framebuffers = nil
}

// framebufferFor resolves the framebuffer for the named pass at the
// given swapchain image index. Domain-to-pass routing (including
// WORLD_TRANSPARENT onto WORLD) happens earlier, in passNameForDomain.
func (b *Backend) framebufferFor(passName string, imageIndex uint32) (vk.Framebuffer, error) {
	set, ok := b.framebuffers[normalizeName(passName)]
	if !ok {
		return nil, fmt.Errorf("renderpass %q: no framebuffers built", passName)
	}
	if int(imageIndex) >= len(set.perImage) {
		return nil, fmt.Errorf("renderpass %q: image index %d out of range", passName, imageIndex)
	}
	return set.perImage[imageIndex], nil
}

func normalizeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
