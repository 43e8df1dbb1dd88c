package env

import (
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
	"github.com/udisondev/buildplanner/internal/processor"
)

func TestSetup_Full(t *testing.T) {
	o, procs := newTestOrchestrator(t)

	e := setupFull(t, o, baseBuild())

	assert.Equal(t, uint64(1), e.Version())
	assert.Equal(t, int32(1), procs.passives.Load())
	assert.Equal(t, int32(1), procs.items.Load())
	assert.Equal(t, int32(1), procs.skills.Load())
	assert.Equal(t, int32(1), procs.config.Load())
	assert.Zero(t, procs.jewels.Load(), "no jewels equipped")

	player := e.PlayerDB()
	assert.InDelta(t, 70, player.Sum(mod.Base, nil, "Life"), 1e-9, "swap set is excluded")
	assert.InDelta(t, 0.08, player.Sum(mod.Inc, nil, "Life"), 1e-9)
	assert.InDelta(t, 1.3, player.More(nil, "Damage"), 1e-9)
	assert.InDelta(t, 20, player.Sum(mod.Base, &mod.Query{Flags: mod.FlagAttack}, "PhysicalDamage"), 1e-9)
	assert.InDelta(t, 2, player.Sum(mod.Base, nil, "PowerCharge"), 1e-9)

	assert.Len(t, e.ItemDBs(), 3)
	assert.Len(t, e.SwapItemDBs(), 1)
	swap, ok := e.ItemDB(build.SlotWeapon1Swap)
	require.True(t, ok)
	assert.InDelta(t, 1000, swap.Sum(mod.Base, nil, "Life"), 1e-9)

	assert.InDelta(t, 40, e.EnemyDB().Sum(mod.Base, nil, "FireResist"), 1e-9)
	assert.Equal(t, map[string]bool{"Onslaught": true}, e.Conditions())
	assert.Equal(t, true, e.Config()["Onslaught"])

	flags := e.DirtyFlags()
	assert.True(t, flags.Passives && flags.Skills && flags.Config)
	assert.True(t, flags.AllItems())
}

func TestSetup_Attributes(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	e := setupFull(t, o, baseBuild())

	// Marauder 32/14/14, helmet +5 Str, node 103 +10 Int, INC Str ignored.
	assert.Equal(t, Attributes{Str: 37, Dex: 14, Int: 24}, e.Attributes())

	b := baseBuild()
	b.Class = "Unknown"
	b.AllocatedNodes = append(b.AllocatedNodes, 105)
	e = setupFull(t, o, b)

	// neutral 20 + 5 AllAttributes each
	assert.Equal(t, Attributes{Str: 30, Dex: 25, Int: 35}, e.Attributes())

	q := e.Query()
	assert.Equal(t, 30.0, q.Stats["Str"])
	assert.True(t, q.Conditions["Onslaught"])
}

func TestSetup_ConfigOnlyChange(t *testing.T) {
	o, procs := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())
	procs.reset()

	b := baseBuild()
	b.Config["PowerCharge"] = 3
	next := setupAccelerated(t, o, b, prev)

	flags := next.DirtyFlags()
	assert.True(t, flags.Config)
	assert.False(t, flags.Passives)
	assert.False(t, flags.Skills)
	assert.Empty(t, flags.Items)
	assert.Empty(t, flags.Jewels)

	assert.Same(t, prev.PassiveDB(), next.PassiveDB())
	assert.Same(t, prev.SkillDB(), next.SkillDB())
	assertSameSlots(t, prev.ItemDBs(), next.ItemDBs())
	assert.NotSame(t, prev.ConfigDB(), next.ConfigDB())
	assert.NotSame(t, prev.PlayerDB(), next.PlayerDB())

	assert.Equal(t, int32(1), procs.config.Load())
	assert.Zero(t, procs.passives.Load()+procs.items.Load()+procs.skills.Load()+procs.jewels.Load())

	assert.InDelta(t, 3, next.PlayerDB().Sum(mod.Base, nil, "PowerCharge"), 1e-9)
	assert.Equal(t, prev.Version()+1, next.Version())
}

func TestSetup_IdenticalBuild(t *testing.T) {
	o, procs := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())
	procs.reset()

	next := setupAccelerated(t, o, baseBuild(), prev)

	assert.False(t, next.DirtyFlags().Any())
	assert.Equal(t, prev.Version()+1, next.Version())
	assert.Same(t, prev.PassiveDB(), next.PassiveDB())
	assert.Same(t, prev.SkillDB(), next.SkillDB())
	assert.Same(t, prev.ConfigDB(), next.ConfigDB())
	assert.Same(t, prev.PlayerDB(), next.PlayerDB())
	assert.Same(t, prev.EnemyDB(), next.EnemyDB())
	assertSameSlots(t, prev.ItemDBs(), next.ItemDBs())
	assertSameSlots(t, prev.SwapItemDBs(), next.SwapItemDBs())
	assert.Zero(t, procs.passives.Load()+procs.items.Load()+procs.skills.Load()+procs.config.Load()+procs.jewels.Load())

	again := setupAccelerated(t, o, baseBuild(), next)
	assert.Equal(t, uint64(3), again.Version())
}

func TestSetup_AcceleratedWithoutPrevious(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	e, err := o.Setup(context.Background(), baseBuild(), WithAccelerated(nil))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), e.Version())
}

func TestSetup_DirtyFlagsCloneIndependence(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())

	b := baseBuild()
	b.Items[build.SlotHelmet] = build.Item{ID: "helm-2", Mods: []string{"BASE Life 60"}}
	next := setupAccelerated(t, o, b, prev)

	flags := next.DirtyFlags()
	require.Contains(t, flags.Items, build.SlotHelmet)
	flags.Items["Ring 1"] = struct{}{}
	flags.Jewels[999] = struct{}{}
	delete(flags.Items, build.SlotHelmet)

	fresh := next.DirtyFlags()
	assert.Equal(t, []string{build.SlotHelmet}, fresh.ItemSlots())
	assert.Empty(t, fresh.Jewels)

	prevFlags := prev.DirtyFlags()
	assert.Equal(t, []string{AllSlots}, prevFlags.ItemSlots())
	assert.NotContains(t, prevFlags.Jewels, 999)
}

func TestSetup_SingleSlotReplaced(t *testing.T) {
	o, procs := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())
	procs.reset()

	b := baseBuild()
	b.Items[build.SlotHelmet] = build.Item{ID: "helm-2", Mods: []string{"BASE Life 60"}}
	delete(b.Items, build.SlotBoots)
	b.Items[build.SlotWeapon2Swap] = build.Item{ID: "quiver-1", Mods: []string{"BASE Life 1"}}
	next := setupAccelerated(t, o, b, prev)

	assert.Equal(t, []string{build.SlotBoots, build.SlotHelmet, build.SlotWeapon2Swap}, next.DirtyFlags().ItemSlots())
	assert.Equal(t, int32(1), procs.items.Load())

	prevItems, nextItems := prev.ItemDBs(), next.ItemDBs()
	assert.Same(t, prevItems[build.SlotWeapon1], nextItems[build.SlotWeapon1])
	assert.NotSame(t, prevItems[build.SlotHelmet], nextItems[build.SlotHelmet])
	assert.NotContains(t, nextItems, build.SlotBoots)
	assert.Contains(t, prevItems, build.SlotBoots, "previous slot map untouched")
	assert.Len(t, next.SwapItemDBs(), 2)
	assert.Len(t, prev.SwapItemDBs(), 1)

	assert.InDelta(t, 60, next.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
	assert.InDelta(t, 70, prev.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
	assert.Same(t, prev.PassiveDB(), next.PassiveDB())
}

func TestSetup_JewelAddedWithoutPassiveChange(t *testing.T) {
	o, procs := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())
	prevCount := prev.PassiveDB().Count()
	procs.reset()

	b := baseBuild()
	b.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-1", Mods: []string{"BASE Life 7", "BASE Dex 3"}}
	next := setupAccelerated(t, o, b, prev)

	flags := next.DirtyFlags()
	assert.False(t, flags.Passives)
	assert.Contains(t, flags.Jewels, 300)
	assert.Empty(t, flags.Items, "jewel slots are not gear slots")

	assert.NotSame(t, prev.PassiveDB(), next.PassiveDB())
	assert.Equal(t, prevCount, prev.PassiveDB().Count(), "previous passives must not be mutated")
	assert.Equal(t, prevCount+2, next.PassiveDB().Count())
	assert.Zero(t, procs.passives.Load())
	assert.Equal(t, int32(1), procs.jewels.Load())

	assert.InDelta(t, 77, next.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
	assert.Equal(t, 17.0, next.Attributes().Dex)
	assert.Equal(t, map[int]build.Item{300: b.Items[build.JewelSlot(300)]}, next.JewelSockets())

	// replacing the jewel drops the old mods
	b2 := baseBuild()
	b2.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-2", Mods: []string{"BASE Life 1"}}
	replaced := setupAccelerated(t, o, b2, next)
	assert.InDelta(t, 71, replaced.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
	assert.Equal(t, 1, replaced.PassiveDB().CountBySource(processor.SourceJewel, ""))
}

func TestSetup_PassiveRebuildRemergesJewels(t *testing.T) {
	o, procs := newTestOrchestrator(t)
	b := baseBuild()
	b.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-1", Mods: []string{"BASE Life 7"}}
	prev := setupFull(t, o, b)
	require.Equal(t, 1, prev.PassiveDB().CountBySource(processor.SourceJewel, "300"))
	procs.reset()

	b2 := baseBuild()
	b2.Items[build.JewelSlot(300)] = b.Items[build.JewelSlot(300)]
	b2.AllocatedNodes = append(b2.AllocatedNodes, 100)
	next := setupAccelerated(t, o, b2, prev)

	flags := next.DirtyFlags()
	assert.True(t, flags.Passives)
	assert.Empty(t, flags.Jewels)
	assert.Equal(t, int32(1), procs.jewels.Load())
	assert.Equal(t, 1, next.PassiveDB().CountBySource(processor.SourceJewel, "300"))
	assert.InDelta(t, 87, next.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
}

func TestSetup_JewelDeactivatedWithSocket(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	b := baseBuild()
	b.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-1", Mods: []string{"BASE Life 7"}}
	prev := setupFull(t, o, b)

	b2 := baseBuild()
	b2.Items[build.JewelSlot(300)] = b.Items[build.JewelSlot(300)]
	b2.AllocatedNodes = []int{101, 103}
	next := setupAccelerated(t, o, b2, prev)

	assert.Contains(t, next.DirtyFlags().Jewels, 300)
	assert.Zero(t, next.PassiveDB().CountBySource(processor.SourceJewel, ""))
	assert.Empty(t, next.JewelSockets())
}

func TestSetup_AcceleratedMatchesFull(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	prev := setupFull(t, o, baseBuild())

	b := baseBuild()
	b.AllocatedNodes = []int{100, 103, 107, 200, 300}
	b.Masteries = map[int]int{200: 2}
	b.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-1", Mods: []string{"INC Life 0.07"}}
	b.Items[build.SlotGloves] = build.Item{ID: "gloves-1", Mods: []string{"BASE Life 25"}}
	b.SkillGroups = []build.SkillGroup{{ID: "g1", Enabled: false}, {ID: "g2", Enabled: true, Mods: []string{"BASE Life 500"}}}
	b.Config = map[string]any{"FullLife": true, "enemyColdResist": 25}

	accel := setupAccelerated(t, o, b, prev)
	full := setupFull(t, o, b)

	q := full.Query()
	for _, stat := range []string{"Life", "Damage", "Str", "Int", "PowerCharge"} {
		assert.InDelta(t, full.PlayerDB().Calc(q, stat).Value, accel.PlayerDB().Calc(q, stat).Value, 1e-9, stat)
		assert.Equal(t, full.PlayerDB().Calc(q, stat).ModCount, accel.PlayerDB().Calc(q, stat).ModCount, stat)
	}
	assert.Equal(t, full.Attributes(), accel.Attributes())
	assert.Equal(t, full.Conditions(), accel.Conditions())
	assert.InDelta(t, 25, accel.EnemyDB().Sum(mod.Base, nil, "ColdResist"), 1e-9)
	assert.Zero(t, accel.EnemyDB().Sum(mod.Base, nil, "FireResist"))
}

func TestSetup_Failures(t *testing.T) {
	for _, category := range []string{"passives", "items", "skills", "config"} {
		t.Run(category, func(t *testing.T) {
			o, procs := newTestOrchestrator(t)
			procs.failOn = category

			e, err := o.Setup(context.Background(), baseBuild())
			assert.ErrorIs(t, err, errProcessor)
			assert.Nil(t, e)
		})
	}

	t.Run("jewels in accelerated", func(t *testing.T) {
		o, procs := newTestOrchestrator(t)
		prev := setupFull(t, o, baseBuild())
		procs.failOn = "jewels"

		b := baseBuild()
		b.Items[build.JewelSlot(300)] = build.Item{ID: "jewel-1", Mods: []string{"BASE Life 7"}}
		e, err := o.Setup(context.Background(), b, WithAccelerated(prev))
		assert.ErrorIs(t, err, errProcessor)
		assert.Nil(t, e)
		assert.Zero(t, prev.PassiveDB().CountBySource(processor.SourceJewel, ""))
	})

	t.Run("parser", func(t *testing.T) {
		boom := errors.New("parser unavailable")
		tree := mustTree(t)
		o := NewOrchestrator(processor.NewProvider(func(context.Context) (processor.Parser, error) {
			return nil, boom
		}), processor.NewReference(), tree)

		e, err := o.Setup(context.Background(), baseBuild())
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, e)
	})
}

func TestSetup_CallerEditsDoNotReachEnvironment(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	b := baseBuild()
	prev := setupFull(t, o, b)

	b.Items[build.SlotHelmet] = build.Item{ID: "helm-2", Mods: []string{"BASE Life 400"}}
	b.Config["PowerCharge"] = 5
	b.AllocatedNodes[0] = 100
	b.Masteries[200] = 1
	b.SkillGroups[1].Enabled = true

	kept := prev.Build()
	assert.Equal(t, "helm-1", kept.Items[build.SlotHelmet].ID)
	assert.Equal(t, 2, kept.Config["PowerCharge"])
	assert.Equal(t, []int{101, 103, 300}, kept.AllocatedNodes)
	assert.Empty(t, kept.Masteries)
	assert.False(t, kept.SkillGroups[1].Enabled)
	assert.Equal(t, 2, prev.Config()["PowerCharge"])

	accel := setupAccelerated(t, o, b, prev)
	full := setupFull(t, o, b)

	flags := accel.DirtyFlags()
	assert.True(t, flags.Passives)
	assert.True(t, flags.Skills)
	assert.True(t, flags.Config)
	assert.Equal(t, []string{build.SlotHelmet}, flags.ItemSlots())

	q := full.Query()
	for _, stat := range []string{"Life", "PowerCharge", "Str"} {
		assert.InDelta(t, full.PlayerDB().Calc(q, stat).Value, accel.PlayerDB().Calc(q, stat).Value, 1e-9, stat)
	}
	assert.InDelta(t, 5, accel.PlayerDB().Sum(mod.Base, nil, "PowerCharge"), 1e-9)
	assert.InDelta(t, 70, prev.PlayerDB().Sum(mod.Base, nil, "Life"), 1e-9)
}

func TestEnvironment_BuildReturnsCopy(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	e := setupFull(t, o, baseBuild())

	got := e.Build()
	got.Items[build.SlotHelmet] = build.Item{ID: "other"}
	got.AllocatedNodes[0] = 999

	assert.Equal(t, "helm-1", e.Build().Items[build.SlotHelmet].ID)
	assert.Equal(t, 101, e.Build().AllocatedNodes[0])
}

func TestSetup_NilBuildNormalized(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	e, err := o.Setup(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, e.PlayerDB().Count())
	assert.Equal(t, Attributes{Str: 20, Dex: 20, Int: 20}, e.Attributes())
	assert.Empty(t, e.ItemDBs())
}

func assertSameSlots(t *testing.T, want, got map[string]*moddb.DB) {
	t.Helper()
	require.Equal(t, slices.Sorted(maps.Keys(want)), slices.Sorted(maps.Keys(got)))
	for slot, db := range want {
		assert.Same(t, db, got[slot], slot)
	}
}
