package vulkan

import (
	"fmt"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/renderpass"
)

// passNameForDomain maps a frontend domain to the registered pass name
// that handles it, delegating to the registry so a host-registered
// override (RegisterRenderPass) can make DomainShadow/DomainPost
// reachable, not just the three guaranteed built-ins.
func passNameForDomain(registry *renderpass.Registry, domain backend.Domain) (string, error) {
	name, ok := registry.NameForDomain(domain)
	if !ok {
		return "", fmt.Errorf("vulkan: domain %s has no registered render pass", domain)
	}
	return name, nil
}

// BeginRenderPass implements backend.Backend.
func (b *Backend) BeginRenderPass(domain backend.Domain) error {
	if b.activePass != nil {
		return fmt.Errorf("vulkan: render pass %q already active", b.activeNamedRenderPass)
	}

	name, err := passNameForDomain(b.registry, domain)
	if err != nil {
		return err
	}

	framebuffer, err := b.framebufferFor(name, b.currentImageIndex)
	if err != nil {
		return err
	}

	cmd := b.commandBuffers[b.currentImageIndex]
	pass, err := b.registry.Begin(cmd, name, framebuffer, b.swapchainExtent.Width, b.swapchainExtent.Height)
	if err != nil {
		return err
	}

	b.activePass = pass
	b.activeNamedRenderPass = name
	return nil
}

// EndRenderPass implements backend.Backend.
func (b *Backend) EndRenderPass() error {
	if b.activePass == nil {
		return fmt.Errorf("vulkan: no active render pass to end")
	}

	cmd := b.commandBuffers[b.currentImageIndex]
	terminal := b.registry.End(cmd, b.activePass)
	if terminal {
		b.swapchainImageIsPresentReady = true
	}

	b.activePass = nil
	b.activeNamedRenderPass = ""
	return nil
}
