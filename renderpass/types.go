// Package renderpass implements C6: the named render-pass registry,
// chaining invariant, and attachment-derivation table. Grounded on
// spaghettifunk-anima's renderpass.go (VulkanRenderPass/
// VulkanRenderPassState, subpass/attachment construction shape), driving
// actual github.com/goki/vulkan render-pass objects rather than the
// abstract RenderPass/metadata types that file builds on top of.
package renderpass

import (
	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// ClearFlag is a bitset of which attachments a pass clears on begin.
type ClearFlag uint8

const (
	ClearColorBuffer ClearFlag = 1 << iota
	ClearDepthBuffer
	ClearStencilBuffer
	UseDepth
)

// State tracks where a pass is in its record/submit lifecycle, mirroring
// spaghettifunk-anima's VulkanRenderPassState enum.
type State int

const (
	StateNotAllocated State = iota
	StateReady
	StateRecording
)

// Rect is an integer render-area rectangle.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

// Config describes a render pass before device objects are created for
// it: the declarative shape named in spec §4.4.
type Config struct {
	Name       string
	PrevName   string
	NextName   string
	Domain     backend.Domain
	RenderArea Rect
	ClearColor [4]float32
	ClearFlags ClearFlag
}

func (c Config) hasPrev() bool { return c.PrevName != "" }
func (c Config) hasNext() bool { return c.NextName != "" }

// Pass is a created render pass bound to device objects.
type Pass struct {
	Name        string
	Domain      backend.Domain
	Handle      vk.RenderPass
	HasPrevPass bool
	HasNextPass bool
	RenderArea  Rect
	ClearColor  [4]float32
	ClearDepth  float32
	ClearStencil uint32
	ClearFlags  ClearFlag
	State       State
	usesColor   bool
}
