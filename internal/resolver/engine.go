package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pavelc4/aether-dl-bot/internal/fetch"
	"github.com/pavelc4/aether-dl-bot/internal/media"
	"github.com/pavelc4/aether-dl-bot/internal/provider"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

// ErrNoMedia means every strategy came back empty or failed. It is the
// ordinary "nothing found" outcome, not an internal error.
var ErrNoMedia = errors.New("no media found")

type Fetcher interface {
	Fetch(ctx context.Context, loc provider.Location, workDir string) (fetch.File, error)
}

type Prober interface {
	Probe(ctx context.Context, path string) (media.Resolution, error)
}

type Engine struct {
	providers   []provider.Provider
	fetcher     Fetcher
	prober      Prober
	maxParallel int
}

func New(providers []provider.Provider, fetcher Fetcher, prober Prober, maxParallel int) *Engine {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Engine{
		providers:   providers,
		fetcher:     fetcher,
		prober:      prober,
		maxParallel: maxParallel,
	}
}

type sourced struct {
	provider string
	loc      provider.Location
}

// Resolve runs every provider that accepts url, downloads and probes what
// they find, and returns the ranked result. The caller owns the bundle and
// must call Cleanup on it. On error no files are left behind.
func (e *Engine) Resolve(ctx context.Context, url, workDir string) (*media.Bundle, error) {
	start := time.Now()

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	if !e.supports(url) {
		return nil, fmt.Errorf("%w: %w", ErrNoMedia, provider.ErrNoProvider)
	}

	locs := e.collect(ctx, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := e.materialize(ctx, locs, workDir)

	var ready []media.Candidate
	for _, c := range candidates {
		if c.Downloaded() {
			ready = append(ready, c)
		}
	}
	bundle := media.NewBundle(ready)

	if err := ctx.Err(); err != nil {
		if cerr := bundle.Cleanup(); cerr != nil {
			logger.Warn("Cleanup after cancel failed", "error", cerr)
		}
		return nil, err
	}

	if len(bundle.Candidates) == 0 {
		logger.Info("Nothing resolved", "url", url, "locations", len(locs))
		return nil, ErrNoMedia
	}

	logger.InfoWithDuration("Resolved media", start,
		"url", url,
		"candidates", len(bundle.Candidates),
		"best", bundle.Candidates[0].Label(),
	)
	return bundle, nil
}

func (e *Engine) supports(url string) bool {
	for _, p := range e.providers {
		if p.Supports(url) {
			return true
		}
	}
	return false
}

// collect runs the strategy phase. It waits for every provider; a failing
// or panicking one only loses its own results.
func (e *Engine) collect(ctx context.Context, url string) []sourced {
	results := make([][]provider.Location, len(e.providers))

	var g errgroup.Group
	for i, p := range e.providers {
		if !p.Supports(url) {
			continue
		}
		g.Go(func() error {
			locs, err := safeResolve(ctx, p, url)
			if err != nil {
				logger.Warn("Strategy failed", "provider", p.Name(), "url", url, "error", err)
				return nil
			}
			logger.Debug("Strategy done", "provider", p.Name(), "locations", len(locs))
			results[i] = locs
			return nil
		})
	}
	_ = g.Wait()

	var out []sourced
	for i, locs := range results {
		for _, loc := range locs {
			if loc.URL == "" {
				continue
			}
			out = append(out, sourced{provider: e.providers[i].Name(), loc: loc})
		}
	}
	return out
}

func safeResolve(ctx context.Context, p provider.Provider, url string) (locs []provider.Location, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Strategy panicked", "provider", p.Name(), "panic", r, "stack", string(debug.Stack()))
			locs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Resolve(ctx, url)
}

// materialize fetches and probes every location, keeping their order.
func (e *Engine) materialize(ctx context.Context, locs []sourced, workDir string) []media.Candidate {
	candidates := make([]media.Candidate, len(locs))

	var g errgroup.Group
	g.SetLimit(e.maxParallel)
	for i, s := range locs {
		candidates[i] = media.Candidate{
			SourceURL: s.loc.URL,
			Provider:  s.provider,
			Status:    media.StatusPending,
		}
		g.Go(func() error {
			e.materializeOne(ctx, &candidates[i], s.loc, workDir)
			return nil
		})
	}
	_ = g.Wait()

	return candidates
}

func (e *Engine) materializeOne(ctx context.Context, c *media.Candidate, loc provider.Location, workDir string) {
	file, err := e.fetcher.Fetch(ctx, loc, workDir)
	if err != nil {
		c.Status = media.StatusFailed
		logger.Warn("Fetch failed", "provider", c.Provider, "url", loc.URL, "error", err)
		return
	}

	c.Path = file.Path
	c.Size = file.Size
	c.Container = file.Container
	c.Status = media.StatusDownloaded

	res, err := e.prober.Probe(ctx, file.Path)
	if err != nil {
		logger.Warn("Probe failed", "provider", c.Provider, "path", file.Path, "error", err)
		return
	}
	c.Resolution = &res
}
