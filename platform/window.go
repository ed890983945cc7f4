// Package platform implements C2: surface creation, window pixel-size
// query, and native-handle abstraction for the Vulkan backend. Grounded
// on oxy-go's engine/window package, generalized from a WebGPU
// SurfaceDescriptor accessor to a Vulkan-surface-creation contract
// (instance extensions + vkCreateWindowSurface), matching the shape
// mrigankad-gorenderengine's core.Window exposes for the same binding.
package platform

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
)

// Window provides platform windowing and the native-handle contract the
// Vulkan backend needs to create and maintain a surface. Wraps
// platform-specific window implementations behind a common interface.
type Window interface {
	// SetResizeCallback sets the function called when the window is
	// resized, receiving the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	SetMouseMoveCallback(callback func(x, y int32))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	SetScrollCallback(callback func(delta float32))

	// RequiredInstanceExtensions returns the Vulkan instance extension
	// names this window needs enabled (VK_KHR_surface plus the
	// platform-specific surface extension) for device selection to
	// succeed.
	RequiredInstanceExtensions() []string

	// CreateSurface creates a vk.Surface bound to this window for the
	// given vk.Instance. The caller owns destroying the returned
	// surface via vk.DestroySurface.
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// PixelSize returns the current framebuffer size in pixels, which
	// may differ from the window's logical size on high-DPI displays.
	PixelSize() (width, height int)

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	Close() error

	// PollEvents drains pending platform events without blocking,
	// dispatching any registered callbacks, and returns whether the
	// window is still running.
	PollEvents() bool
}

// engineWindow is the implementation of the Window interface. Holds
// window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	title     string
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int
	width     int
	height    int

	internalWindow any

	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onMouseMove func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options. Applies
// default values first, then each option in order.
func NewWindow(options ...Option) (Window, error) {
	w := &engineWindow{
		title:     "Vulkan Renderer",
		maxWidth:  1600,
		maxHeight: 1200,
		minWidth:  600,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("platform: create window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) RequiredInstanceExtensions() []string {
	return platformRequiredInstanceExtensions(w)
}

func (w *engineWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	return platformCreateSurface(w, instance)
}

func (w *engineWindow) PixelSize() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() bool {
	runtime.Gosched()
	return platformProcessMessages(w)
}
