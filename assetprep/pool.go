// Package assetprep implements C12: an off-render-thread worker pool for
// two pure-CPU job kinds, shader-config parsing and texture decoding,
// that never touch the backend virtual table or any Vulkan handle.
// Grounded on engine/scene/scene.go's computePool field and its
// worker.DynamicWorkerPool/worker.Task usage, generalized from scene's
// per-frame animator-prep jobs to asset-loading jobs and from a
// WaitGroup barrier to a per-submission result channel, since callers
// here poll results opportunistically rather than waiting on all of
// them before a frame.
package assetprep

import (
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Panbok/vulkan-renderer-sub009/common"
	"github.com/Panbok/vulkan-renderer-sub009/shaderconfig"
)

// JobKind distinguishes the two supported off-thread job types.
type JobKind int

const (
	// JobParseShaderConfig reads and parses a .shadercfg file from disk.
	JobParseShaderConfig JobKind = iota
	// JobDecodeTexture decodes an embedded or on-disk image to RGBA.
	JobDecodeTexture
)

// Job describes one unit of off-thread work.
type Job struct {
	Kind JobKind

	// ShaderConfigPath is read when Kind is JobParseShaderConfig.
	ShaderConfigPath string

	// Texture is decoded when Kind is JobDecodeTexture.
	Texture *common.ImportedTexture
}

// Result carries the outcome of a Job back to the render thread. Exactly
// one of Config/Texture is populated, matching the submitted Job's Kind,
// unless Err is non-nil.
type Result struct {
	Config   *shaderconfig.Config
	Warnings []string
	Texture  common.TextureStagingData
	Err      error
}

// Pool wraps a worker.DynamicWorkerPool sized for off-render-thread asset
// preparation. Workers never touch backend state; results are delivered
// exclusively via the channel returned from Submit, which the render
// thread drains at a point of its own choosing (typically once per
// begin_frame, via a non-blocking select).
type Pool struct {
	workers worker.DynamicWorkerPool
	nextID  int
}

// queueSize bounds pending jobs; generous headroom since jobs are
// lightweight CPU work (file reads, image decodes), not GPU submissions.
const queueSize = 256

// idleTimeout matches scene.go's compute pool: workers idle out rather
// than blocking indefinitely between asset-load bursts.
const idleTimeout = 1 * time.Second

// New creates a Pool with the given worker count (minimum 1).
func New(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workers: worker.NewDynamicWorkerPool(workerCount, queueSize, idleTimeout)}
}

// Submit enqueues job and returns a buffered channel that receives
// exactly one Result once the job completes.
func (p *Pool) Submit(job Job) <-chan Result {
	ch := make(chan Result, 1)
	id := p.nextID
	p.nextID++

	p.workers.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			ch <- p.run(job)
			return nil, nil
		},
	})

	return ch
}

func (p *Pool) run(job Job) Result {
	switch job.Kind {
	case JobParseShaderConfig:
		cfg, warnings, err := shaderconfig.ParseFile(job.ShaderConfigPath)
		return Result{Config: cfg, Warnings: warnings, Err: err}
	case JobDecodeTexture:
		pixels, width, height, err := job.Texture.Decode()
		if err != nil {
			return Result{Err: err}
		}
		return Result{Texture: common.TextureStagingData{Pixels: pixels, Width: width, Height: height}}
	default:
		return Result{}
	}
}
