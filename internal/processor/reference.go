package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
)

// Reference implements Processors for tree data and item/skill mod lines.
//
// Unless Strict is set, lines the parser does not support are skipped and
// logged at debug level; strict mode turns them into errors.
type Reference struct {
	Strict bool
}

var _ Processors = (*Reference)(nil)

// NewReference creates a lenient Reference processor set.
func NewReference() *Reference {
	return &Reference{}
}

func (r *Reference) parseInto(db *moddb.DB, p Parser, lines []string, source, sourceID string) error {
	list := mod.NewModList()
	for _, line := range lines {
		mods, err := p.Parse(line, source, sourceID)
		if err != nil {
			if r.Strict || !errors.Is(err, ErrUnsupportedLine) {
				return fmt.Errorf("%s %s: %w", source, sourceID, err)
			}
			slog.Debug("skipping unsupported mod line", "source", source, "sourceID", sourceID, "line", line)
			continue
		}
		list.Add(mods...)
	}
	list.ApplyTo(db)
	return nil
}

// Passives implements Processors. Unknown nodes are ignored; a mastery
// selection applies only while its node is allocated.
func (r *Reference) Passives(ctx context.Context, nodes []int, masteries map[int]int, tree *data.Tree, p Parser) (*moddb.DB, error) {
	db := moddb.New(moddb.ActorPlayer, nil)
	for _, id := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, ok := tree.Node(id)
		if !ok {
			slog.Debug("allocated node not in tree", "node", id)
			continue
		}
		sid := strconv.Itoa(id)
		if err := r.parseInto(db, p, node.Stats, SourceTree, sid); err != nil {
			return nil, err
		}
		effect, selected := masteries[id]
		if !selected || !node.IsMastery() {
			continue
		}
		lines, ok := node.Masteries[effect]
		if !ok {
			slog.Debug("unknown mastery effect", "node", id, "effect", effect)
			continue
		}
		if err := r.parseInto(db, p, lines, SourceMastery, sid); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Items implements Processors. Jewel slots are ignored.
func (r *Reference) Items(ctx context.Context, items map[string]build.Item, p Parser) (ItemDBs, error) {
	out := ItemDBs{
		Primary: make(map[string]*moddb.DB),
		Swap:    make(map[string]*moddb.DB),
	}
	for _, slot := range slices.Sorted(maps.Keys(items)) {
		if err := ctx.Err(); err != nil {
			return ItemDBs{}, err
		}
		if !build.IsGearSlot(slot) {
			continue
		}
		item := items[slot]
		db := moddb.New(moddb.ActorPlayer, nil)
		if err := r.parseInto(db, p, item.Mods, SourceItem, item.ID); err != nil {
			return ItemDBs{}, fmt.Errorf("slot %s: %w", slot, err)
		}
		if build.IsSwapSlot(slot) {
			out.Swap[slot] = db
		} else {
			out.Primary[slot] = db
		}
	}
	return out, nil
}

// Skills implements Processors. Disabled groups contribute nothing.
func (r *Reference) Skills(ctx context.Context, groups []build.SkillGroup, p Parser) (*moddb.DB, error) {
	db := moddb.New(moddb.ActorPlayer, nil)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !g.Enabled {
			continue
		}
		if err := r.parseInto(db, p, g.Mods, SourceSkill, g.ID); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Config implements Processors. Boolean entries become conditions, numeric
// entries become BASE mods named after the key. Enemy entries are left to
// the enemy database.
func (r *Reference) Config(ctx context.Context, cfg map[string]any) (ConfigResult, error) {
	res := ConfigResult{
		DB:         moddb.New(moddb.ActorPlayer, nil),
		Conditions: make(map[string]bool),
	}
	if err := ctx.Err(); err != nil {
		return ConfigResult{}, err
	}
	for _, key := range slices.Sorted(maps.Keys(cfg)) {
		switch v := cfg[key].(type) {
		case bool:
			res.Conditions[key] = v
		default:
			if strings.HasPrefix(key, EnemyPrefix) {
				continue
			}
			n, ok := Number(v)
			if !ok {
				continue
			}
			res.DB.AddMod(mod.New(key, mod.Base, n, mod.WithSource(SourceConfig, key)))
		}
	}
	return res, nil
}

// Jewels implements Processors.
func (r *Reference) Jewels(ctx context.Context, sockets map[int]build.Item, p Parser) (*moddb.DB, error) {
	db := moddb.New(moddb.ActorPlayer, nil)
	for _, nodeID := range slices.Sorted(maps.Keys(sockets)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		jewel := sockets[nodeID]
		if err := r.parseInto(db, p, jewel.Mods, SourceJewel, strconv.Itoa(nodeID)); err != nil {
			return nil, fmt.Errorf("jewel %s in socket %d: %w", jewel.ID, nodeID, err)
		}
	}
	return db, nil
}

// Number converts a numeric configuration value to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
