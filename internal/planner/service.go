// Package planner evaluates builds and keeps their environments current.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/config"
	"github.com/udisondev/buildplanner/internal/env"
)

// ErrNotFound is returned when a build is neither cached nor stored.
var ErrNotFound = errors.New("build not found")

// BuildStore persists builds by id. Get reports a missing build with an
// error matching ErrNotFound.
type BuildStore interface {
	Get(ctx context.Context, id string) (*build.Build, error)
	Save(ctx context.Context, id string, b *build.Build) (bool, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Service evaluates builds and caches the latest environment of each.
// Evaluations of different builds may run concurrently; callers serialize
// updates to the same build id.
type Service struct {
	orch        *env.Orchestrator
	store       BuildStore
	accelerated bool
	workers     int

	mu    sync.RWMutex
	cache map[string]*env.Environment
}

// NewService creates a Service. store may be nil, in which case builds live
// only in the cache.
func NewService(orch *env.Orchestrator, store BuildStore, cfg config.Planner) *Service {
	return &Service{
		orch:        orch,
		store:       store,
		accelerated: cfg.Accelerated,
		workers:     max(cfg.Workers, 1),
		cache:       make(map[string]*env.Environment),
	}
}

// Environment returns the cached environment of id.
func (s *Service) Environment(id string) (*env.Environment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[id]
	return e, ok
}

func (s *Service) remember(id string, e *env.Environment) {
	s.mu.Lock()
	s.cache[id] = e
	s.mu.Unlock()
}

// Evaluate computes the environment of b and caches it under id. When
// accelerated recompute is on and id was evaluated before, only the changed
// categories are reprocessed.
func (s *Service) Evaluate(ctx context.Context, id string, b *build.Build) (*env.Environment, error) {
	var opts []env.SetupOption
	if prev, ok := s.Environment(id); ok && s.accelerated {
		opts = append(opts, env.WithAccelerated(prev))
	}

	e, err := s.orch.Setup(ctx, b, opts...)
	if err != nil {
		return nil, fmt.Errorf("evaluating build %q: %w", id, err)
	}
	s.remember(id, e)

	slog.Debug("build evaluated", "build", id, "version", e.Version(), "dirty", e.DirtyFlags())
	return e, nil
}

// EvaluateAll evaluates builds concurrently, at most the configured number
// of workers at a time. The first failure cancels the rest.
func (s *Service) EvaluateAll(ctx context.Context, builds map[string]*build.Build) (map[string]*env.Environment, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	out := make(map[string]*env.Environment, len(builds))
	for id, b := range builds {
		g.Go(func() error {
			e, err := s.Evaluate(ctx, id, b)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = e
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load fetches a stored build and evaluates it.
func (s *Service) Load(ctx context.Context, id string) (*env.Environment, error) {
	if s.store == nil {
		return nil, fmt.Errorf("build %q: %w", id, ErrNotFound)
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading build %q: %w", id, err)
	}
	return s.Evaluate(ctx, id, b)
}

// LoadAll evaluates every stored build.
func (s *Service) LoadAll(ctx context.Context) (map[string]*env.Environment, error) {
	if s.store == nil {
		return map[string]*env.Environment{}, nil
	}
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}

	builds := make(map[string]*build.Build, len(ids))
	for _, id := range ids {
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading build %q: %w", id, err)
		}
		builds[id] = b
	}
	return s.EvaluateAll(ctx, builds)
}

// TogglePassive allocates nodeID in build id, or deallocates it when it is
// already allocated, and persists the result.
func (s *Service) TogglePassive(ctx context.Context, id string, nodeID int) (*env.Environment, error) {
	prev, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes := prev.Build().AllocatedNodes
	if i := slices.Index(nodes, nodeID); i >= 0 {
		nodes = slices.Delete(nodes, i, i+1)
	} else {
		nodes = append(nodes, nodeID)
	}

	e, err := s.orch.UpdatePassives(ctx, prev, nodes)
	if err != nil {
		return nil, fmt.Errorf("toggling node %d of build %q: %w", nodeID, id, err)
	}
	return s.commit(ctx, id, e)
}

// Equip puts item in slot of build id, or empties the slot when item is nil,
// and persists the result.
func (s *Service) Equip(ctx context.Context, id, slot string, item *build.Item) (*env.Environment, error) {
	prev, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := s.orch.UpdateItem(ctx, prev, slot, item)
	if err != nil {
		return nil, fmt.Errorf("equipping %s of build %q: %w", slot, id, err)
	}
	return s.commit(ctx, id, e)
}

// Save persists the cached build of id.
func (s *Service) Save(ctx context.Context, id string) error {
	e, ok := s.Environment(id)
	if !ok {
		return fmt.Errorf("build %q: %w", id, ErrNotFound)
	}
	return s.persist(ctx, id, e.Build())
}

// Delete drops build id from the cache and the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, cached := s.cache[id]
	delete(s.cache, id)
	s.mu.Unlock()

	if s.store == nil {
		if !cached {
			return fmt.Errorf("build %q: %w", id, ErrNotFound)
		}
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if cached && errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting build %q: %w", id, err)
	}
	return nil
}

// current returns the cached environment of id, loading the build from the
// store on a cache miss.
func (s *Service) current(ctx context.Context, id string) (*env.Environment, error) {
	if e, ok := s.Environment(id); ok {
		return e, nil
	}
	return s.Load(ctx, id)
}

func (s *Service) commit(ctx context.Context, id string, e *env.Environment) (*env.Environment, error) {
	s.remember(id, e)
	if err := s.persist(ctx, id, e.Build()); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) persist(ctx context.Context, id string, b *build.Build) error {
	if s.store == nil {
		return nil
	}
	written, err := s.store.Save(ctx, id, b)
	if err != nil {
		return fmt.Errorf("persisting build %q: %w", id, err)
	}
	slog.Debug("build persisted", "build", id, "written", written)
	return nil
}
