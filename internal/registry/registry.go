// Package registry resolves a parameter format to a loaded transformer,
// trying the in-process cache, then the snapshot store, then the par file.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/keys"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/observability"
	"github.com/mohammed-shakir/jgd-gridshift/internal/logger"
	"github.com/mohammed-shakir/jgd-gridshift/internal/parser"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// Snapshots is implemented by snapshot.Store.
type Snapshots interface {
	Load(ctx context.Context, f transformer.Format, digest uint64) (*transformer.Transformer, bool, error)
	Save(ctx context.Context, t *transformer.Transformer, digest uint64) error
}

// Sources is implemented by config.Manifest.
type Sources interface {
	Source(f transformer.Format) (config.Source, error)
	Preload() []transformer.Format
}

type Option func(*Registry)

// WithSnapshots enables the shared snapshot tier.
func WithSnapshots(s Snapshots, opTimeout time.Duration) Option {
	return func(r *Registry) {
		r.snaps = s
		if opTimeout > 0 {
			r.opTimeout = opTimeout
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithReadFile swaps the par file reader; tests count reads with it.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(r *Registry) { r.readFile = fn }
}

type Registry struct {
	sources   Sources
	snaps     Snapshots
	opTimeout time.Duration
	log       *slog.Logger
	readFile  func(string) ([]byte, error)

	cache *lru.Cache[transformer.Format, *transformer.Transformer]
	group singleflight.Group

	// gen is bumped by Invalidate; a load started under an older
	// generation returns its result but never caches it.
	mu     sync.Mutex
	failed map[transformer.Format]error
	gen    map[transformer.Format]uint64
}

func New(sources Sources, size int, opts ...Option) (*Registry, error) {
	if sources == nil {
		return nil, errors.New("registry: sources are required")
	}
	// preload formats must fit together or readiness could never hold
	c, err := lru.New[transformer.Format, *transformer.Transformer](max(size, len(sources.Preload()), 1))
	if err != nil {
		return nil, fmt.Errorf("registry cache: %w", err)
	}
	r := &Registry{
		sources:   sources,
		opTimeout: 2 * time.Second,
		log:       slog.Default(),
		readFile:  os.ReadFile,
		cache:     c,
		failed:    map[transformer.Format]error{},
		gen:       map[transformer.Format]uint64{},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Get returns the transformer for f, loading it on first use. Concurrent
// callers for the same format share one load.
func (r *Registry) Get(ctx context.Context, f transformer.Format) (*transformer.Transformer, error) {
	start := time.Now()
	if t, ok := r.cache.Get(f); ok {
		observability.ObserveGridLoad(f.String(), "memory", nil, time.Since(start).Seconds())
		return t, nil
	}
	v, err, _ := r.group.Do(f.String(), func() (any, error) {
		if t, ok := r.cache.Get(f); ok {
			return t, nil
		}
		r.mu.Lock()
		gen := r.gen[f]
		r.mu.Unlock()

		t, err := r.load(ctx, f)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen[f] != gen {
			if err != nil {
				return nil, err
			}
			r.log.WarnContext(ctx, "discarding grid loaded before invalidation", "format", f.String())
			return t, nil
		}
		if err != nil {
			r.failed[f] = err
			return nil, err
		}
		delete(r.failed, f)
		r.cache.Add(f, t)
		observability.SetGridEntries(f.String(), t.Len())
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*transformer.Transformer), nil
}

func (r *Registry) load(ctx context.Context, f transformer.Format) (*transformer.Transformer, error) {
	log := r.log.With("format", f.String())
	src, err := r.sources.Source(f)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := r.readFile(src.Path)
	if err != nil {
		observability.ObserveGridLoad(f.String(), "parse", err, time.Since(start).Seconds())
		return nil, fmt.Errorf("read %s: %w", src.Path, err)
	}
	digest := keys.Digest(content)

	if r.snaps != nil {
		sctx, cancel := context.WithTimeout(ctx, r.opTimeout)
		t, found, err := r.snaps.Load(sctx, f, digest)
		cancel()
		switch {
		case err != nil:
			// fall back to parsing
			log.WarnContext(ctx, "snapshot load failed", "err", err)
		case found:
			observability.ObserveGridLoad(f.String(), "snapshot", nil, time.Since(start).Seconds())
			log.InfoContext(ctx, "grid loaded from snapshot", "entries", t.Len())
			return t, nil
		}
	}

	start = time.Now()
	t, err := parser.Parse(bytes.NewReader(content), f)
	observability.ObserveGridLoad(f.String(), "parse", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Path, err)
	}
	log.InfoContext(ctx, "grid parsed", "path", src.Path, "entries", t.Len(),
		"took_ms", time.Since(start).Milliseconds())

	if r.snaps != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opTimeout)
		if err := r.snaps.Save(sctx, t, digest); err != nil {
			log.WarnContext(ctx, "snapshot save failed", "err", err)
		}
		cancel()
	}
	return t, nil
}

// Invalidate drops the in-process entry so the next Get reloads from source.
// It reports whether an entry was present.
func (r *Registry) Invalidate(f transformer.Format) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[f]++
	r.group.Forget(f.String())
	return r.cache.Remove(f)
}

// Preload loads every manifest entry marked for startup, in parallel.
func (r *Registry) Preload(ctx context.Context) error {
	ctx = logger.WithComponent(ctx, "registry")
	formats := r.sources.Preload()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(4, len(formats))))
	for _, f := range formats {
		g.Go(func() error {
			if _, err := r.Get(gctx, f); err != nil {
				return fmt.Errorf("preload %v: %w", f, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Loaded lists formats currently held in process.
func (r *Registry) Loaded() []transformer.Format {
	out := r.cache.Keys()
	slices.Sort(out)
	return out
}

// Readiness is ready once every preload format is loaded and none of them
// failed on its last attempt.
func (r *Registry) Readiness() (bool, []string) {
	loaded := r.Loaded()
	names := make([]string, 0, len(loaded))
	for _, f := range loaded {
		names = append(names, f.String())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.sources.Preload() {
		if _, ok := r.failed[f]; ok || !r.cache.Contains(f) {
			return false, names
		}
	}
	return true, names
}
