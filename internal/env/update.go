package env

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/processor"
)

// UpdatePassives derives an environment allocating exactly ids.
//
// Only the delta is processed: mods of deallocated nodes are removed from a
// clone of the passives database and newly allocated nodes are processed and
// merged in. Jewels whose socket became active or inactive follow.
func (o *Orchestrator) UpdatePassives(ctx context.Context, e *Environment, ids []int) (*Environment, error) {
	if e == nil {
		return nil, ErrNoEnvironment
	}
	nb := e.build.WithAllocatedNodes(ids)
	added, removed := diffNodes(e.build.AllocatedNodes, nb.AllocatedNodes)

	next := e.derive()
	next.build = nb
	next.dirty = newDirtyFlags()
	next.dirty.Passives = len(added) > 0 || len(removed) > 0

	sockets := nb.JewelSockets()
	changedJewels := changedSockets(e.jewels, sockets)
	for _, nodeID := range changedJewels {
		next.dirty.Jewels[nodeID] = struct{}{}
	}

	if !next.dirty.Passives && len(changedJewels) == 0 {
		next.finish()
		return next, nil
	}

	parser, err := o.parsers.Parser(ctx)
	if err != nil {
		return nil, err
	}

	passives := e.passiveDB.Clone()
	for _, id := range removed {
		sid := strconv.Itoa(id)
		passives.RemoveBySource(processor.SourceTree, sid)
		passives.RemoveBySource(processor.SourceMastery, sid)
	}
	if len(added) > 0 {
		addedDB, err := o.procs.Passives(ctx, added, nb.Masteries, o.tree, parser)
		if err != nil {
			return nil, fmt.Errorf("processing passives: %w", err)
		}
		passives.AddDB(addedDB)
	}

	fresh := make(map[int]build.Item, len(changedJewels))
	for _, nodeID := range changedJewels {
		passives.RemoveBySource(processor.SourceJewel, strconv.Itoa(nodeID))
		if jewel, ok := sockets[nodeID]; ok {
			fresh[nodeID] = jewel
		}
	}
	if err := o.mergeJewels(ctx, passives, fresh, parser); err != nil {
		return nil, err
	}

	next.passiveDB = passives
	next.jewels = sockets
	next.finish()
	slog.Debug("passives updated", "version", next.version, "added", added, "removed", removed, "jewels", changedJewels)
	return next, nil
}

// UpdateItem derives an environment with item equipped in slot, or with the
// slot emptied when item is nil. Jewel slots update the passives database.
func (o *Orchestrator) UpdateItem(ctx context.Context, e *Environment, slot string, item *build.Item) (*Environment, error) {
	if e == nil {
		return nil, ErrNoEnvironment
	}
	parser, err := o.parsers.Parser(ctx)
	if err != nil {
		return nil, err
	}

	next := e.derive()
	next.build = e.build.WithItem(slot, item)
	next.dirty = newDirtyFlags()

	if nodeID, ok := build.JewelNode(slot); ok {
		if err := o.updateJewel(ctx, next, e, nodeID, parser); err != nil {
			return nil, err
		}
	} else {
		changed := map[string]build.Item{}
		if item != nil {
			changed[slot] = *item
		}
		items, err := o.procs.Items(ctx, changed, parser)
		if err != nil {
			return nil, fmt.Errorf("processing items: %w", err)
		}
		next.itemDBs = maps.Clone(e.itemDBs)
		next.itemDBsSwap = maps.Clone(e.itemDBsSwap)
		next.replaceItemDB(slot, items)
		next.dirty.Items[slot] = struct{}{}
	}

	next.finish()
	slog.Debug("item updated", "version", next.version, "slot", slot, "equipped", item != nil)
	return next, nil
}

func (o *Orchestrator) updateJewel(ctx context.Context, next, prev *Environment, nodeID int, parser processor.Parser) error {
	sockets := next.build.JewelSockets()
	if !slices.Contains(changedSockets(prev.jewels, sockets), nodeID) {
		return nil
	}

	passives := prev.passiveDB.Clone()
	passives.RemoveBySource(processor.SourceJewel, strconv.Itoa(nodeID))
	if jewel, ok := sockets[nodeID]; ok {
		if err := o.mergeJewels(ctx, passives, map[int]build.Item{nodeID: jewel}, parser); err != nil {
			return err
		}
	}
	next.passiveDB = passives
	next.jewels = sockets
	next.dirty.Jewels[nodeID] = struct{}{}
	return nil
}

// diffNodes returns the ids allocated only in cur (in cur order) and the ids
// allocated only in old (in old order).
func diffNodes(old, cur []int) (added, removed []int) {
	oldSet := make(map[int]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}
	curSet := make(map[int]struct{}, len(cur))
	for _, id := range cur {
		curSet[id] = struct{}{}
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range old {
		if _, ok := curSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
