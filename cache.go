package rhi

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
	"github.com/gogpu/rhi/state"
)

// PipelineKey identifies a compiled pipeline by everything that affects
// its native compilation. It is a comparable value type: two keys match
// exactly when every field matches, so lookups never collide and never
// alias distinct states.
//
// Shader identity uses the program's immutable ID rather than its handle,
// so a key stays meaningful for as long as the cache entry does.
type PipelineKey struct {
	VertexShader   uint64
	FragmentShader uint64

	Blend    state.Blend
	Depth    state.Depth
	Stencil  state.Stencil
	Raster   state.Raster
	Topology state.Topology

	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat
	SampleCount uint32
}

// PipelineCacheStats reports cache effectiveness.
type PipelineCacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// pipelineCache deduplicates native pipeline compilation. The cache owns
// every native pipeline it holds: Remove and Clear destroy entries, and
// nothing else may. Callers follow the device's single-owner threading
// model, so no locking happens here.
type pipelineCache struct {
	entries map[PipelineKey]backend.Pipeline
	hits    uint64
	misses  uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{entries: make(map[PipelineKey]backend.Pipeline)}
}

// getOrCreate returns the cached pipeline for key, calling create on a
// miss. A failed create leaves the cache unchanged and does not count as
// a miss that inserted anything.
func (c *pipelineCache) getOrCreate(key PipelineKey, create func() (backend.Pipeline, error)) (backend.Pipeline, error) {
	if p, ok := c.entries[key]; ok {
		c.hits++
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	c.misses++
	c.entries[key] = p
	return p, nil
}

// remove destroys and forgets the pipeline for key, if cached.
func (c *pipelineCache) remove(key PipelineKey) bool {
	p, ok := c.entries[key]
	if !ok {
		return false
	}
	p.Destroy()
	delete(c.entries, key)
	return true
}

// clear destroys every cached pipeline and resets the counters. Called on
// resize and device shutdown, when compiled pipelines may reference
// framebuffer state that no longer exists.
func (c *pipelineCache) clear() {
	for key, p := range c.entries {
		p.Destroy()
		delete(c.entries, key)
	}
	c.hits = 0
	c.misses = 0
}

func (c *pipelineCache) stats() PipelineCacheStats {
	return PipelineCacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

// hitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *pipelineCache) hitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
