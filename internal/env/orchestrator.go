package env

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
	"github.com/udisondev/buildplanner/internal/processor"
)

// ErrNoEnvironment is returned by update paths called without a previous
// environment.
var ErrNoEnvironment = errors.New("no previous environment")

// Orchestrator builds environments from builds using the category processors.
//
// Orchestrator holds no per-build state and may be shared between goroutines
// as long as its processors and parser provider are.
type Orchestrator struct {
	parsers processor.ParserProvider
	procs   processor.Processors
	tree    *data.Tree
}

// NewOrchestrator creates an Orchestrator evaluating builds against tree.
func NewOrchestrator(parsers processor.ParserProvider, procs processor.Processors, tree *data.Tree) *Orchestrator {
	return &Orchestrator{parsers: parsers, procs: procs, tree: tree}
}

type setupOptions struct {
	accelerated bool
	previous    *Environment
}

// SetupOption configures Setup.
type SetupOption func(*setupOptions)

// WithAccelerated makes Setup diff the build against previous and recompute
// only the dirty categories. A nil previous falls back to a full build.
func WithAccelerated(previous *Environment) SetupOption {
	return func(o *setupOptions) {
		o.accelerated = true
		o.previous = previous
	}
}

// Setup computes the environment of b. The environment keeps its own copy
// of b, so later edits to b do not reach it.
//
// Without options every category is processed (version 1). With
// WithAccelerated, clean categories reuse the previous databases by
// reference. No partially built environment is ever returned: any processor
// or parser failure fails the whole call.
func (o *Orchestrator) Setup(ctx context.Context, b *build.Build, opts ...SetupOption) (*Environment, error) {
	var so setupOptions
	for _, opt := range opts {
		opt(&so)
	}
	b = b.Clone()

	if so.accelerated && so.previous != nil {
		return o.setupAccelerated(ctx, b, so.previous)
	}
	return o.setupFull(ctx, b)
}

func (o *Orchestrator) setupFull(ctx context.Context, b *build.Build) (*Environment, error) {
	parser, err := o.parsers.Parser(ctx)
	if err != nil {
		return nil, err
	}

	e := &Environment{
		build:   b,
		tree:    o.tree,
		dirty:   allDirty(b),
		version: 1,
	}

	e.passiveDB, err = o.procs.Passives(ctx, b.AllocatedNodes, b.Masteries, o.tree, parser)
	if err != nil {
		return nil, fmt.Errorf("processing passives: %w", err)
	}
	e.jewels = b.JewelSockets()
	if err := o.mergeJewels(ctx, e.passiveDB, e.jewels, parser); err != nil {
		return nil, err
	}

	items, err := o.procs.Items(ctx, b.Gear(), parser)
	if err != nil {
		return nil, fmt.Errorf("processing items: %w", err)
	}
	e.itemDBs, e.itemDBsSwap = nonNil(items.Primary), nonNil(items.Swap)

	e.skillDB, err = o.procs.Skills(ctx, b.SkillGroups, parser)
	if err != nil {
		return nil, fmt.Errorf("processing skills: %w", err)
	}

	if err := o.applyConfig(ctx, e, b.Config); err != nil {
		return nil, err
	}

	e.finish()
	slog.Debug("environment built", "mode", "full", "version", e.version, "class", b.Class)
	return e, nil
}

func (o *Orchestrator) setupAccelerated(ctx context.Context, b *build.Build, prev *Environment) (*Environment, error) {
	dirty := ComputeDirtyFlags(b, prev)

	e := prev.derive()
	e.build = b
	e.dirty = dirty

	if !dirty.Any() {
		slog.Debug("environment unchanged", "mode", "accelerated", "version", e.version)
		return e, nil
	}

	parser, err := o.parsers.Parser(ctx)
	if err != nil {
		return nil, err
	}

	if dirty.Passives {
		e.passiveDB, err = o.procs.Passives(ctx, b.AllocatedNodes, b.Masteries, o.tree, parser)
		if err != nil {
			return nil, fmt.Errorf("processing passives: %w", err)
		}
	}

	// A passives rebuild drops merged jewel mods, so jewels are re-merged
	// even when no jewel changed.
	if dirty.Passives || len(dirty.Jewels) > 0 {
		if !dirty.Passives {
			e.passiveDB = prev.passiveDB.Clone()
			e.passiveDB.RemoveBySource(processor.SourceJewel, "")
		}
		e.jewels = b.JewelSockets()
		if err := o.mergeJewels(ctx, e.passiveDB, e.jewels, parser); err != nil {
			return nil, err
		}
	}

	if len(dirty.Items) > 0 {
		if err := o.updateItems(ctx, e, prev, dirty, parser); err != nil {
			return nil, err
		}
	}

	if dirty.Skills {
		e.skillDB, err = o.procs.Skills(ctx, b.SkillGroups, parser)
		if err != nil {
			return nil, fmt.Errorf("processing skills: %w", err)
		}
	}

	if dirty.Config {
		if err := o.applyConfig(ctx, e, b.Config); err != nil {
			return nil, err
		}
	}

	e.finish()
	slog.Debug("environment updated", "mode", "accelerated", "version", e.version, "dirty", dirty)
	return e, nil
}

// updateItems replaces the dirty slot databases of e. Only the wildcard
// reprocesses every slot; otherwise the slot maps are cloned and the other
// slots keep their previous databases.
func (o *Orchestrator) updateItems(ctx context.Context, e, prev *Environment, dirty DirtyFlags, parser processor.Parser) error {
	gear := e.build.Gear()
	if dirty.AllItems() {
		items, err := o.procs.Items(ctx, gear, parser)
		if err != nil {
			return fmt.Errorf("processing items: %w", err)
		}
		e.itemDBs, e.itemDBsSwap = nonNil(items.Primary), nonNil(items.Swap)
		return nil
	}

	changed := make(map[string]build.Item, len(dirty.Items))
	for slot := range dirty.Items {
		if item, ok := gear[slot]; ok {
			changed[slot] = item
		}
	}
	items, err := o.procs.Items(ctx, changed, parser)
	if err != nil {
		return fmt.Errorf("processing items: %w", err)
	}

	e.itemDBs = maps.Clone(prev.itemDBs)
	e.itemDBsSwap = maps.Clone(prev.itemDBsSwap)
	for slot := range dirty.Items {
		e.replaceItemDB(slot, items)
	}
	return nil
}

// replaceItemDB sets slot to its freshly processed database, or removes it
// when the slot was emptied. The slot maps must already be private to e.
func (e *Environment) replaceItemDB(slot string, items processor.ItemDBs) {
	target := e.itemDBs
	if build.IsSwapSlot(slot) {
		target = e.itemDBsSwap
	}
	if db, ok := items.Lookup(slot); ok {
		target[slot] = db
		return
	}
	delete(target, slot)
}

// mergeJewels processes every socketed jewel and merges the result into passives.
func (o *Orchestrator) mergeJewels(ctx context.Context, passives *moddb.DB, sockets map[int]build.Item, parser processor.Parser) error {
	if len(sockets) == 0 {
		return nil
	}
	jewels, err := o.procs.Jewels(ctx, sockets, parser)
	if err != nil {
		return fmt.Errorf("processing jewels: %w", err)
	}
	passives.AddDB(jewels)
	return nil
}

func (o *Orchestrator) applyConfig(ctx context.Context, e *Environment, cfg map[string]any) error {
	res, err := o.procs.Config(ctx, cfg)
	if err != nil {
		return fmt.Errorf("processing config: %w", err)
	}
	e.configDB = res.DB
	e.conditions = maps.Clone(res.Conditions)
	if e.conditions == nil {
		e.conditions = make(map[string]bool)
	}
	e.config = maps.Clone(cfg)
	e.enemyDB = buildEnemyDB(cfg)
	return nil
}

// finish rebuilds the flattened player database and the derived attributes.
func (e *Environment) finish() {
	e.playerDB = flatten(e.passiveDB, e.itemDBs, e.skillDB, e.configDB)
	e.attributes = calcAttributes(e.tree, e.build.Class, e.passiveDB, e.itemDBs, e.conditions)
}

// flatten unions the category databases. Only the primary weapon set is
// included.
func flatten(passives *moddb.DB, items map[string]*moddb.DB, skills, config *moddb.DB) *moddb.DB {
	player := moddb.New(moddb.ActorPlayer, nil)
	player.AddDB(passives)
	for _, slot := range slices.Sorted(maps.Keys(items)) {
		player.AddDB(items[slot])
	}
	player.AddDB(skills)
	player.AddDB(config)
	return player
}

// buildEnemyDB turns numeric "enemy<Stat>" configuration entries into BASE
// mods on the enemy database.
func buildEnemyDB(cfg map[string]any) *moddb.DB {
	enemy := moddb.New(moddb.ActorEnemy, nil)
	for _, key := range slices.Sorted(maps.Keys(cfg)) {
		stat, ok := strings.CutPrefix(key, processor.EnemyPrefix)
		if !ok || stat == "" {
			continue
		}
		v, ok := processor.Number(cfg[key])
		if !ok {
			continue
		}
		enemy.AddMod(mod.New(stat, mod.Base, v, mod.WithSource(processor.SourceConfig, key)))
	}
	return enemy
}

func nonNil(m map[string]*moddb.DB) map[string]*moddb.DB {
	if m == nil {
		return make(map[string]*moddb.DB)
	}
	return m
}
