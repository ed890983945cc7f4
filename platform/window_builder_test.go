package platform

import "testing"

// Exercises option application directly, without touching GLFW/display
// state, which newPlatformWindow requires and test environments usually
// lack.
func TestOptionsApplyToWindowState(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720, title: "default"}

	opts := []Option{
		WithTitle("custom"),
		WithWidth(800),
		WithHeight(600),
		WithMinWidth(400),
		WithMinHeight(300),
		WithMaxWidth(1920),
		WithMaxHeight(1080),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.title != "custom" {
		t.Errorf("title = %q, want custom", w.title)
	}
	if w.width != 800 || w.height != 600 {
		t.Errorf("size = %dx%d, want 800x600", w.width, w.height)
	}
	if w.minWidth != 400 || w.minHeight != 300 {
		t.Errorf("min size = %dx%d, want 400x300", w.minWidth, w.minHeight)
	}
	if w.maxWidth != 1920 || w.maxHeight != 1080 {
		t.Errorf("max size = %dx%d, want 1920x1080", w.maxWidth, w.maxHeight)
	}
}

func TestPixelSizeReflectsWindowState(t *testing.T) {
	w := &engineWindow{width: 1024, height: 768}
	width, height := w.PixelSize()
	if width != 1024 || height != 768 {
		t.Errorf("PixelSize() = %dx%d, want 1024x768", width, height)
	}
}
