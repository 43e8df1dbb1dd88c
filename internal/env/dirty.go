package env

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/udisondev/buildplanner/internal/build"
)

// AllSlots in DirtyFlags.Items means every gear slot changed.
const AllSlots = "*"

// DirtyFlags records which categories differ between a build and the build
// of a previous environment.
type DirtyFlags struct {
	Passives bool
	Items    map[string]struct{}
	Skills   bool
	Config   bool
	Jewels   map[int]struct{}
}

func newDirtyFlags() DirtyFlags {
	return DirtyFlags{
		Items:  make(map[string]struct{}),
		Jewels: make(map[int]struct{}),
	}
}

// Any reports whether any category is dirty.
func (d DirtyFlags) Any() bool {
	return d.Passives || d.Skills || d.Config || len(d.Items) > 0 || len(d.Jewels) > 0
}

// AllItems reports whether the items set holds the wildcard.
func (d DirtyFlags) AllItems() bool {
	_, ok := d.Items[AllSlots]
	return ok
}

// ItemSlots returns the dirty slots in sorted order.
func (d DirtyFlags) ItemSlots() []string {
	return slices.Sorted(maps.Keys(d.Items))
}

// JewelNodes returns the dirty socket nodes in sorted order.
func (d DirtyFlags) JewelNodes() []int {
	return slices.Sorted(maps.Keys(d.Jewels))
}

// Clone returns a copy whose sets can be modified independently.
func (d DirtyFlags) Clone() DirtyFlags {
	out := d
	out.Items = maps.Clone(d.Items)
	if out.Items == nil {
		out.Items = make(map[string]struct{})
	}
	out.Jewels = maps.Clone(d.Jewels)
	if out.Jewels == nil {
		out.Jewels = make(map[int]struct{})
	}
	return out
}

// LogValue implements slog.LogValuer.
func (d DirtyFlags) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("passives", d.Passives),
		slog.String("items", strings.Join(d.ItemSlots(), ",")),
		slog.Bool("skills", d.Skills),
		slog.Bool("config", d.Config),
		slog.Any("jewels", d.JewelNodes()),
	)
}

// allDirty describes a full rebuild of b.
func allDirty(b *build.Build) DirtyFlags {
	d := newDirtyFlags()
	d.Passives = true
	d.Skills = true
	d.Config = true
	d.Items[AllSlots] = struct{}{}
	for nodeID := range b.JewelSockets() {
		d.Jewels[nodeID] = struct{}{}
	}
	return d
}

// ComputeDirtyFlags diffs b against the build of prev, category by category.
// A nil prev, or one without a build, marks everything dirty.
func ComputeDirtyFlags(b *build.Build, prev *Environment) DirtyFlags {
	b = b.Normalized()
	if prev == nil || prev.build == nil {
		return allDirty(b)
	}
	old := prev.build.Normalized()
	d := newDirtyFlags()

	d.Passives = !slices.Equal(old.AllocatedNodes, b.AllocatedNodes) ||
		!maps.Equal(old.Masteries, b.Masteries)

	for _, slot := range changedSlots(old.Gear(), b.Gear()) {
		d.Items[slot] = struct{}{}
	}

	d.Skills = skillsChanged(old.SkillGroups, b.SkillGroups)
	d.Config = !shallowEqual(old.Config, b.Config)

	for _, nodeID := range changedSockets(prev.jewels, b.JewelSockets()) {
		d.Jewels[nodeID] = struct{}{}
	}
	return d
}

// changedSlots returns the slots whose item id differs, including slots
// that were emptied or filled.
func changedSlots(old, cur map[string]build.Item) []string {
	var out []string
	for slot, item := range cur {
		prev, ok := old[slot]
		if !ok || prev.ID != item.ID {
			out = append(out, slot)
		}
	}
	for slot := range old {
		if _, ok := cur[slot]; !ok {
			out = append(out, slot)
		}
	}
	slices.Sort(out)
	return out
}

// changedSockets returns the socket nodes whose jewel was added, removed or
// replaced.
func changedSockets(old, cur map[int]build.Item) []int {
	var out []int
	for nodeID, jewel := range cur {
		prev, ok := old[nodeID]
		if !ok || prev.ID != jewel.ID {
			out = append(out, nodeID)
		}
	}
	for nodeID := range old {
		if _, ok := cur[nodeID]; !ok {
			out = append(out, nodeID)
		}
	}
	slices.Sort(out)
	return out
}

// skillsChanged compares skill groups by count, then by id and enabled state.
// Groups are replaced wholesale on edit, so the same backing array means the
// same groups.
func skillsChanged(old, cur []build.SkillGroup) bool {
	if len(old) != len(cur) {
		return true
	}
	if len(cur) == 0 || &old[0] == &cur[0] {
		return false
	}
	for i := range cur {
		if old[i].ID != cur[i].ID || old[i].Enabled != cur[i].Enabled {
			return true
		}
	}
	return false
}

// shallowEqual compares two configurations key by key. Values are compared
// with == when comparable; maps and slices only by identity.
func shallowEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !sameValue(av, bv) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func, reflect.Chan:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if ta.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}
