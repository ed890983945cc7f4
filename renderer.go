package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Panbok/vulkan-renderer-sub009/assetprep"
	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/backend/vulkan"
	"github.com/Panbok/vulkan-renderer-sub009/config"
	"github.com/Panbok/vulkan-renderer-sub009/internal/arena"
	"github.com/Panbok/vulkan-renderer-sub009/platform"
	"github.com/Panbok/vulkan-renderer-sub009/profiler"
)

// scratchArenaCapacity is the initial size of the per-frame scratch
// arena; it grows on demand (see internal/arena) so this is a starting
// guess, not a hard cap.
const scratchArenaCapacity = 64 * 1024

// mainArenaCapacity backs longer-lived allocations (pipeline registry
// bookkeeping, shader-config parse results kept around by callers).
const mainArenaCapacity = 256 * 1024

// Frontend is the single public entry point (C9): it owns the frontend
// state named in the data model (arenas, pipeline registry, cached
// window size, optional profiler/asset-prep pool) and dispatches every
// operation through a backend.Backend virtual table. Grounded on oxy-go's
// renderer.go/NewRenderer shape (struct + builder-option construction,
// backend-type switch, pipeline cache keyed by string), generalized from
// a single WGPU backend to the spec's Backend interface and from
// free-function draw calls to the spec's strict begin_frame/end_frame
// state machine.
type Frontend struct {
	mu sync.Mutex // guards Resize only, per spec §5 (may arrive from an event thread)

	log    Logger
	cfg    *config.Config
	be     backend.Backend
	window platform.Window

	profiler  *profiler.Profiler
	assetPrep *assetprep.Pool

	mainArena    *arena.Arena
	scratchArena *arena.Arena

	pipelines map[string]backend.PipelineHandle

	frameActive      bool
	renderPassActive bool
	destroyed        bool

	lastWidth, lastHeight int
	lastFrameStart        time.Time
}

// Option configures a Frontend during construction via New.
type Option func(*Frontend)

// WithLogger overrides the default stderr logger.
func WithLogger(log Logger) Option {
	return func(f *Frontend) { f.log = log }
}

// WithConfig overrides the default config.Config.
func WithConfig(cfg *config.Config) Option {
	return func(f *Frontend) { f.cfg = cfg }
}

// WithProfilerEnabled enables frame-timing collection (C13) from
// construction; profiling is otherwise off (zero-cost) by default.
func WithProfilerEnabled(ringSize int) Option {
	return func(f *Frontend) {
		f.profiler = profiler.New(ringSize)
		f.profiler.Enable()
	}
}

// WithBackend preinstalls a backend.Backend, bypassing Initialize's own
// backend-type switch. Exists so tests can drive a Frontend against a
// fake backend (see faketest) without a real GPU; production callers
// have no reason to use this.
func WithBackend(be backend.Backend) Option {
	return func(f *Frontend) { f.be = be }
}

// New builds an uninitialized Frontend. Call Initialize before issuing
// any other operation.
func New(opts ...Option) *Frontend {
	f := &Frontend{
		log:          NewStdLogger(),
		cfg:          config.New(),
		profiler:     profiler.New(0),
		mainArena:    arena.New(mainArenaCapacity),
		scratchArena: arena.New(scratchArenaCapacity),
		pipelines:    make(map[string]backend.PipelineHandle),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Initialize implements the spec's initialize(backend_type, window,
// event_manager, device_requirements): selects the backend virtual table
// for backendType, creates the asset-prep pool, calls backend.Initialize,
// subscribes to the window's resize callback (the "event_manager"
// subscription — platform.Window exposes this directly rather than
// through a separate event-manager type), and records the initial pixel
// size.
func (f *Frontend) Initialize(backendType backend.Type, window platform.Window, requirements backend.DeviceRequirements) error {
	f.window = window

	if f.be == nil {
		switch backendType {
		case backend.Vulkan:
			f.be = vulkan.New(f.cfg, f.log)
		default:
			return NewError(ErrorBackendNotSupported, fmt.Errorf("backend type %d not supported", backendType))
		}
	}

	f.assetPrep = assetprep.New(f.cfg.AssetPrepWorkers)

	if err := f.be.Initialize(window, requirements); err != nil {
		return NewError(ErrorResourceCreationFailed, err)
	}

	window.SetResizeCallback(f.Resize)
	f.lastWidth, f.lastHeight = window.PixelSize()

	return nil
}

// Destroy implements destroy(): waits for the device to idle, releases
// every registered pipeline, shuts down the backend, and resets the
// arenas. Fails silently (no-op) on double-destroy, per spec.
func (f *Frontend) Destroy() {
	if f.destroyed || f.be == nil {
		return
	}

	_ = f.WaitIdle()
	for key, h := range f.pipelines {
		f.be.DestroyPipeline(h)
		delete(f.pipelines, key)
	}
	f.be.Shutdown()

	f.mainArena.Reset()
	f.scratchArena.Reset()
	f.destroyed = true
}

// Resize implements resize(width, height): serialised under the
// frontend mutex since it may be invoked from the window's own event
// thread, forwards to the backend, and updates the cached pixel size.
func (f *Frontend) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.be.OnResize(width, height)
	f.lastWidth, f.lastHeight = width, height
}

// WaitIdle implements wait_idle().
func (f *Frontend) WaitIdle() error {
	if err := f.be.WaitIdle(); err != nil {
		return NewError(ErrorDeviceError, err)
	}
	return nil
}

// GetDeviceInformation reports the selected physical device.
func (f *Frontend) GetDeviceInformation() backend.DeviceInformation {
	return f.be.GetDeviceInformation()
}

// Profiler exposes the frame profiler (C13) for callers that want to
// Enable/Disable collection or pull a Snapshot/LogSummary; nil-safe, so
// every Profiler method tolerates a disabled or unqueried profiler.
func (f *Frontend) Profiler() *profiler.Profiler {
	return f.profiler
}

// AssetPrep exposes the asset-prep pool (C12) so callers can Submit
// shader-config-parse and texture-decode jobs off the render thread.
func (f *Frontend) AssetPrep() *assetprep.Pool {
	return f.assetPrep
}
