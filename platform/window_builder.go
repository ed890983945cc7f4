package platform

// Option is a functional option for configuring an engineWindow. Use the
// With* functions to create options.
type Option func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
func WithTitle(title string) Option {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithMaxWidth sets the maximum allowed window width.
func WithMaxWidth(maxWidth int) Option {
	return func(w *engineWindow) {
		w.maxWidth = maxWidth
	}
}

// WithMaxHeight sets the maximum allowed window height.
func WithMaxHeight(maxHeight int) Option {
	return func(w *engineWindow) {
		w.maxHeight = maxHeight
	}
}

// WithMinWidth sets the minimum allowed window width.
func WithMinWidth(minWidth int) Option {
	return func(w *engineWindow) {
		w.minWidth = minWidth
	}
}

// WithMinHeight sets the minimum allowed window height.
func WithMinHeight(minHeight int) Option {
	return func(w *engineWindow) {
		w.minHeight = minHeight
	}
}

// WithWidth sets the initial window width.
func WithWidth(width int) Option {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height.
func WithHeight(height int) Option {
	return func(w *engineWindow) {
		w.height = height
	}
}
