// Package engine is the client-facing facade (spec §2 "Engine facade",
// §6 "Programmatic surface"): it wires NodeStore, ChangeTracker, the
// index manager and rollup cache, the validator/executor, and hands back
// reactive.Views over validated queries.
//
// Grounded on the teacher's pkg/nornicdb.DB facade (construct-subsystems-
// then-expose-thin-methods shape): one struct assembling every
// subsystem in its constructor, with a single sync.RWMutex guarding every
// public entry point so the engine is safe to share across goroutines
// even though its internals stay single-threaded/cooperative per mutation
// (spec §5).
package engine

import (
	"fmt"
	"sync"

	"github.com/Aetherall/neograph-sub001/pkg/executor"
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/index"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/reactive"
	"github.com/Aetherall/neograph-sub001/pkg/rollup"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/tracker"
	"github.com/Aetherall/neograph-sub001/pkg/validator"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// Options configures the engine's ambient defaults (spec §2 "ambient
// stack"). See pkg/config for the env-driven loader that produces one of
// these.
type Options struct {
	// DefaultViewportLimit is used by View when the caller passes a
	// limit <= 0.
	DefaultViewportLimit int
}

// DefaultOptions returns the engine's out-of-the-box defaults.
func DefaultOptions() Options {
	return Options{DefaultViewportLimit: 100}
}

// Engine is the embeddable graph database: a schema, a live NodeStore,
// and every read-only mirror (indexes, rollups) kept current through the
// shared ChangeTracker.
type Engine struct {
	mu      sync.RWMutex
	schema  *schema.Schema
	store   *graph.NodeStore
	tracker *tracker.ChangeTracker
	idx     *index.Manager
	rollups *rollup.Cache
	ex      *executor.Executor
	opts    Options
}

// New constructs an Engine over sch, wiring the store, tracker, index
// manager and rollup cache in the dependency order their mutual
// invalidation requires: rollups before indexes, so a rollup-backed
// index field sees the freshly recomputed value (spec §4.2's
// HandleEvent ordering note).
func New(sch *schema.Schema, opts Options) (*Engine, error) {
	if opts.DefaultViewportLimit <= 0 {
		opts.DefaultViewportLimit = DefaultOptions().DefaultViewportLimit
	}

	store := graph.NewStore(sch)
	trk := tracker.New()
	store.SetSink(trk)

	rollups, err := rollup.NewCache(sch, store)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	idx := index.NewManager(sch, store, rollups)
	ex := executor.New(sch, store, idx, rollups)

	trk.Register(rollups)
	trk.Register(idx)

	return &Engine{
		schema:  sch,
		store:   store,
		tracker: trk,
		idx:     idx,
		rollups: rollups,
		ex:      ex,
		opts:    opts,
	}, nil
}

// Insert creates a node of the named type and returns its fresh NodeId.
func (e *Engine) Insert(typeName string) (graph.NodeId, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.store.Insert(typeName)
	if err != nil {
		return 0, fmt.Errorf("engine: insert: %w", err)
	}
	return id, nil
}

// Update writes the named properties on id (spec §4.1's null-removes
// semantics apply).
func (e *Engine) Update(id graph.NodeId, props map[string]value.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Update(id, props); err != nil {
		return fmt.Errorf("engine: update: %w", err)
	}
	return nil
}

// Delete removes id, cascading unlink on both directions of every edge.
func (e *Engine) Delete(id graph.NodeId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Delete(id); err != nil {
		return fmt.Errorf("engine: delete: %w", err)
	}
	return nil
}

// Link connects source to target via edgeName, maintaining both
// directions' sort order.
func (e *Engine) Link(source graph.NodeId, edgeName string, target graph.NodeId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Link(source, edgeName, target); err != nil {
		return fmt.Errorf("engine: link: %w", err)
	}
	return nil
}

// Unlink removes both directions of the link. Missing target is a
// silent no-op.
func (e *Engine) Unlink(source graph.NodeId, edgeName string, target graph.NodeId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Unlink(source, edgeName, target); err != nil {
		return fmt.Errorf("engine: unlink: %w", err)
	}
	return nil
}

// Schema returns the engine's schema.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// View validates q and returns an inert reactive.View over it (spec §6
// "view(query_spec, {limit}) → View"). limit <= 0 uses the engine's
// DefaultViewportLimit. Call Activate on the returned View before using
// it.
func (e *Engine) View(q *query.Query, limit int) (*reactive.View, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if limit <= 0 {
		limit = e.opts.DefaultViewportLimit
	}

	if _, err := validator.Validate(e.schema, e.idx, q); err != nil {
		return nil, fmt.Errorf("engine: view: %w", err)
	}

	var coverage *index.Coverage
	if q.RootId == nil {
		t, _ := e.schema.TypeByName(q.RootType)
		cov, ok := e.idx.SelectIndex(t.Id, q.Filters, q.Sorts)
		if !ok {
			return nil, fmt.Errorf("engine: view: %w", validator.ErrNoSuitableIndex)
		}
		coverage = cov
	}

	return reactive.New(q, coverage, e.ex, e.tracker, limit), nil
}
