package faketest

import vk "github.com/goki/vulkan"

// Window is a minimal platform.Window stand-in: wide enough to satisfy
// the full interface so it can be handed to Frontend.Initialize, without
// opening a real OS window or GPU surface.
type Window struct {
	Width, Height int
	running       bool

	onResize func(width, height int)
}

func NewWindow(width, height int) *Window {
	return &Window{Width: width, Height: height, running: true}
}

func (w *Window) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *Window) SetKeyDownCallback(callback func(keyCode uint32))   {}
func (w *Window) SetKeyUpCallback(callback func(keyCode uint32))     {}
func (w *Window) SetMouseMoveCallback(callback func(x, y int32))     {}
func (w *Window) SetScrollCallback(callback func(delta float32))    {}

func (w *Window) RequiredInstanceExtensions() []string { return nil }

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, nil
}

func (w *Window) PixelSize() (int, int) { return w.Width, w.Height }

func (w *Window) IsRunning() bool { return w.running }

func (w *Window) Close() error { w.running = false; return nil }

func (w *Window) PollEvents() bool { return w.running }

// Resize updates the tracked size and invokes the registered resize
// callback, simulating an OS resize event.
func (w *Window) Resize(width, height int) {
	w.Width, w.Height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
