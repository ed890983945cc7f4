// Package config holds renderer-wide configuration loaded once at
// initialize and shared by the swapchain, device selector, and asset-prep
// pool. It follows the same functional-option builder shape used
// throughout this module's other constructible types.
package config

import "runtime"

// PresentMode is the application's preference for swapchain presentation;
// the swapchain (C4) falls back to FIFO if the preferred mode is
// unavailable on the selected surface.
type PresentMode int

const (
	PresentModeMailbox PresentMode = iota
	PresentModeFIFO
	PresentModeImmediate
)

// Config is the immutable, loaded configuration record consumed by
// initialize. Build one with New and pass it to the frontend builder.
type Config struct {
	// BufferingFrames is the requested number of in-flight frames
	// (BUFFERING_FRAMES in the spec); the swapchain clamps
	// max_in_flight_frames to min(imageCount, BufferingFrames).
	BufferingFrames int

	// PreferredPresentMode is tried first when choosing the swapchain
	// present mode; FIFO is always the guaranteed fallback.
	PreferredPresentMode PresentMode

	// EnableValidationLayers toggles the Khronos validation layer on
	// instance creation; no debug messenger is created.
	EnableValidationLayers bool

	// AssetPrepWorkers sizes the asset-prep pool (C12).
	AssetPrepWorkers int

	// MaxDescriptorInstances bounds the per-pipeline instance-state pool
	// (C7/C10 descriptor pool sizing).
	MaxDescriptorInstances int

	// MaxIndirectDraws bounds the number of INDIRECT_DRAW_COMMAND records
	// each in-flight buffer of the indirect-draw ring (C11) can hold.
	MaxIndirectDraws uint32

	// ApplicationName is forwarded to VkApplicationInfo.
	ApplicationName string
}

// Option configures a Config during construction.
type Option func(*Config)

// WithBufferingFrames overrides the default of 3 in-flight frames.
func WithBufferingFrames(n int) Option {
	return func(c *Config) { c.BufferingFrames = n }
}

// WithPreferredPresentMode overrides the default mailbox preference.
func WithPreferredPresentMode(mode PresentMode) Option {
	return func(c *Config) { c.PreferredPresentMode = mode }
}

// WithValidationLayers enables or disables Vulkan validation layers.
func WithValidationLayers(enabled bool) Option {
	return func(c *Config) { c.EnableValidationLayers = enabled }
}

// WithAssetPrepWorkers overrides the default asset-prep pool size.
func WithAssetPrepWorkers(n int) Option {
	return func(c *Config) { c.AssetPrepWorkers = n }
}

// WithMaxDescriptorInstances overrides the default per-pipeline instance
// pool size.
func WithMaxDescriptorInstances(n int) Option {
	return func(c *Config) { c.MaxDescriptorInstances = n }
}

// WithMaxIndirectDraws overrides the default indirect-draw ring capacity.
func WithMaxIndirectDraws(n uint32) Option {
	return func(c *Config) { c.MaxIndirectDraws = n }
}

// WithApplicationName sets the application name reported to the driver.
func WithApplicationName(name string) Option {
	return func(c *Config) { c.ApplicationName = name }
}

// New builds a Config with defaults applied first, then each option in
// order.
func New(opts ...Option) *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	c := &Config{
		BufferingFrames:        3,
		PreferredPresentMode:   PresentModeMailbox,
		EnableValidationLayers: false,
		AssetPrepWorkers:       workers,
		MaxDescriptorInstances: 256,
		MaxIndirectDraws:       4096,
		ApplicationName:        "vulkan-renderer",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
