// Package build describes a character build as the planner consumes it.
package build

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Equipment slot names.
const (
	SlotWeapon1     = "Weapon 1"
	SlotWeapon2     = "Weapon 2"
	SlotWeapon1Swap = "Weapon 1 Swap"
	SlotWeapon2Swap = "Weapon 2 Swap"
	SlotHelmet      = "Helmet"
	SlotBodyArmour  = "Body Armour"
	SlotGloves      = "Gloves"
	SlotBoots       = "Boots"
	SlotAmulet      = "Amulet"
	SlotRing1       = "Ring 1"
	SlotRing2       = "Ring 2"
	SlotBelt        = "Belt"

	swapSuffix  = " Swap"
	jewelPrefix = "Jewel "
)

// Item is an equipped item. Items are immutable by replacement: a changed
// item gets a new ID.
type Item struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name" json:"name"`
	Mods []string `yaml:"mods" json:"mods"`
}

// SkillGroup is a linked group of skills. Disabled groups contribute nothing.
type SkillGroup struct {
	ID      string   `yaml:"id" json:"id"`
	Label   string   `yaml:"label" json:"label"`
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Mods    []string `yaml:"mods" json:"mods"`
}

// Build is the planner input.
//
// Items holds both weapon sets: slots ending in " Swap" belong to the
// alternate set and slots named "Jewel <nodeID>" hold jewels socketed in
// the tree.
type Build struct {
	Class          string          `yaml:"class" json:"class"`
	AllocatedNodes []int           `yaml:"allocated_nodes" json:"allocated_nodes"`
	Masteries      map[int]int     `yaml:"masteries" json:"masteries"`
	Items          map[string]Item `yaml:"items" json:"items"`
	SkillGroups    []SkillGroup    `yaml:"skill_groups" json:"skill_groups"`
	Config         map[string]any  `yaml:"config" json:"config"`
}

// IsSwapSlot reports whether slot belongs to the alternate weapon set.
func IsSwapSlot(slot string) bool {
	return strings.HasSuffix(slot, swapSuffix)
}

// JewelSlot returns the item slot name of the socket on nodeID.
func JewelSlot(nodeID int) string {
	return jewelPrefix + strconv.Itoa(nodeID)
}

// JewelNode parses a jewel slot name and returns its node id.
func JewelNode(slot string) (int, bool) {
	rest, ok := strings.CutPrefix(slot, jewelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsGearSlot reports whether slot holds gear rather than a jewel.
func IsGearSlot(slot string) bool {
	_, jewel := JewelNode(slot)
	return !jewel
}

// Gear returns the equipped non-jewel items, both weapon sets.
func (b *Build) Gear() map[string]Item {
	out := make(map[string]Item, len(b.Items))
	for slot, item := range b.Items {
		if IsGearSlot(slot) {
			out[slot] = item
		}
	}
	return out
}

// GearSlots returns the sorted names of occupied gear slots.
func (b *Build) GearSlots() []string {
	return slices.Sorted(maps.Keys(b.Gear()))
}

// JewelSockets maps each allocated socket node to the jewel equipped in it.
// Jewels in unallocated sockets are inactive and omitted.
func (b *Build) JewelSockets() map[int]Item {
	allocated := make(map[int]struct{}, len(b.AllocatedNodes))
	for _, id := range b.AllocatedNodes {
		allocated[id] = struct{}{}
	}
	out := make(map[int]Item)
	for slot, item := range b.Items {
		nodeID, ok := JewelNode(slot)
		if !ok {
			continue
		}
		if _, ok := allocated[nodeID]; ok {
			out[nodeID] = item
		}
	}
	return out
}

// Normalized returns a copy with nil maps replaced by empty ones.
// Slices and item values are shared.
func (b *Build) Normalized() *Build {
	if b == nil {
		return &Build{
			Masteries: map[int]int{},
			Items:     map[string]Item{},
			Config:    map[string]any{},
		}
	}
	out := *b
	if out.Masteries == nil {
		out.Masteries = map[int]int{}
	}
	if out.Items == nil {
		out.Items = map[string]Item{}
	}
	if out.Config == nil {
		out.Config = map[string]any{}
	}
	return &out
}

// Clone returns a normalized copy whose maps and slices are private to the
// copy. Item mod lines are shared.
func (b *Build) Clone() *Build {
	out := b.Normalized()
	out.AllocatedNodes = slices.Clone(out.AllocatedNodes)
	out.Masteries = maps.Clone(out.Masteries)
	out.Items = maps.Clone(out.Items)
	out.SkillGroups = slices.Clone(out.SkillGroups)
	out.Config = maps.Clone(out.Config)
	return out
}

// WithAllocatedNodes returns a copy of b allocating exactly ids.
func (b *Build) WithAllocatedNodes(ids []int) *Build {
	out := *b.Normalized()
	out.AllocatedNodes = slices.Clone(ids)
	return &out
}

// WithItem returns a copy of b with slot set to item, or emptied when item is nil.
func (b *Build) WithItem(slot string, item *Item) *Build {
	out := *b.Normalized()
	out.Items = maps.Clone(out.Items)
	if item == nil {
		delete(out.Items, slot)
	} else {
		out.Items[slot] = *item
	}
	return &out
}
