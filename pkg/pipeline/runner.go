package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/cache"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/httputil"
	"github.com/matzehuels/vizgrid/pkg/observability"
	"github.com/matzehuels/vizgrid/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner keeps no per-run state, so goroutines may share one.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Fetcher *httputil.Fetcher
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// selects the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Fetcher: httputil.NewFetcher(nil, logger),
		Logger:  logger,
	}
}

// Execute runs load → validate → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	m, ids, loadHit, stats, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result := &Result{Matrix: m, Regions: ids, MatrixHash: cache.HashMatrix(m), Stats: stats}
	result.CacheInfo.LoadHit = loadHit

	opts.Logger.Info("validated matrix",
		"rows", m.Rows(),
		"columns", m.Cols(),
		"regions", len(ids),
		"duration", stats.LoadTime+stats.ValidateTime)

	renderStart := time.Now()
	scene, artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Scene = scene
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

type cachedMatrix struct {
	Matrix  [][]int `json:"matrix"`
	Regions []int   `json:"regions"`
}

// LoadWithCacheInfo loads and validates the matrix selected by opts.
// A document whose bytes were validated before is served from the cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (grid.Matrix, []grid.RegionID, bool, Stats, error) {
	var stats Stats
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, false, stats, err
	}

	loadStart := time.Now()
	src, err := r.load(ctx, opts)
	if err != nil {
		return nil, nil, false, stats, fmt.Errorf("load: %w", err)
	}
	stats.LoadTime = time.Since(loadStart)
	opts.Logger.Debug("loaded matrix document", "source", src.name, "bytes", len(src.data), "format", src.format)

	key := r.Keyer.MatrixKey(cache.Hash(append([]byte(src.format+"\x00"), src.data...)))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cm cachedMatrix
			if json.Unmarshal(data, &cm) == nil {
				ids := make([]grid.RegionID, len(cm.Regions))
				for i, id := range cm.Regions {
					ids[i] = grid.RegionID(id)
				}
				return grid.FromInts(cm.Matrix), ids, true, stats, nil
			}
		}
	}

	hooks := observability.Pipeline()
	hooks.OnValidateStart(ctx, src.name)
	validateStart := time.Now()
	m, ids, err := decode(src)
	stats.ValidateTime = time.Since(validateStart)
	hooks.OnValidateComplete(ctx, src.name, len(ids), stats.ValidateTime, err)
	if err != nil {
		return nil, nil, false, stats, err
	}

	cm := cachedMatrix{Matrix: m.Ints(), Regions: make([]int, len(ids))}
	for i, id := range ids {
		cm.Regions[i] = int(id)
	}
	if data, err := json.Marshal(cm); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLMatrix)
	}
	return m, ids, false, stats, nil
}

// Load is LoadWithCacheInfo without the cache and timing details.
func (r *Runner) Load(ctx context.Context, opts Options) (grid.Matrix, error) {
	m, _, _, _, err := r.LoadWithCacheInfo(ctx, opts)
	return m, err
}

// RenderWithCacheInfo renders m in every requested format. When every
// format is cached and the options are reproducible, nothing is rendered.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m grid.Matrix, opts Options) (*render.Scene, map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, nil, false, err
	}

	scene, err := BuildScene(m, opts)
	if err != nil {
		return nil, nil, false, err
	}

	hash := cache.HashMatrix(m)
	cacheable := opts.Cacheable()
	if cacheable && !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, f := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f)))
			if err != nil || !hit {
				break
			}
			artifacts[f] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return scene, artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := Render(ctx, scene, opts.Formats)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, nil, false, err
	}

	if cacheable {
		for f, data := range artifacts {
			_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f)), data, cache.TTLArtifact)
		}
	}
	return scene, artifacts, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
