package env

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/moddb"
	"github.com/udisondev/buildplanner/internal/processor"
	"github.com/udisondev/buildplanner/internal/testutil"
)

// countingProcessors wraps the reference processors and counts calls per category.
type countingProcessors struct {
	*processor.Reference
	passives, items, skills, config, jewels atomic.Int32
	failOn                                  string
}

var errProcessor = testutil.ErrSimulated

func (c *countingProcessors) fail(category string) error {
	if c.failOn == category {
		return errProcessor
	}
	return nil
}

func (c *countingProcessors) Passives(ctx context.Context, nodes []int, masteries map[int]int, tree *data.Tree, p processor.Parser) (*moddb.DB, error) {
	c.passives.Add(1)
	if err := c.fail("passives"); err != nil {
		return nil, err
	}
	return c.Reference.Passives(ctx, nodes, masteries, tree, p)
}

func (c *countingProcessors) Items(ctx context.Context, items map[string]build.Item, p processor.Parser) (processor.ItemDBs, error) {
	c.items.Add(1)
	if err := c.fail("items"); err != nil {
		return processor.ItemDBs{}, err
	}
	return c.Reference.Items(ctx, items, p)
}

func (c *countingProcessors) Skills(ctx context.Context, groups []build.SkillGroup, p processor.Parser) (*moddb.DB, error) {
	c.skills.Add(1)
	if err := c.fail("skills"); err != nil {
		return nil, err
	}
	return c.Reference.Skills(ctx, groups, p)
}

func (c *countingProcessors) Config(ctx context.Context, cfg map[string]any) (processor.ConfigResult, error) {
	c.config.Add(1)
	if err := c.fail("config"); err != nil {
		return processor.ConfigResult{}, err
	}
	return c.Reference.Config(ctx, cfg)
}

func (c *countingProcessors) Jewels(ctx context.Context, sockets map[int]build.Item, p processor.Parser) (*moddb.DB, error) {
	c.jewels.Add(1)
	if err := c.fail("jewels"); err != nil {
		return nil, err
	}
	return c.Reference.Jewels(ctx, sockets, p)
}

func (c *countingProcessors) reset() {
	c.passives.Store(0)
	c.items.Store(0)
	c.skills.Store(0)
	c.config.Store(0)
	c.jewels.Store(0)
}

func mustTree(t *testing.T) *data.Tree {
	t.Helper()
	tree, err := data.LoadTree("")
	require.NoError(t, err)
	return tree
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *countingProcessors) {
	t.Helper()
	tree := mustTree(t)
	procs := &countingProcessors{Reference: &processor.Reference{Strict: true}}
	return NewOrchestrator(processor.NewLineParserProvider(), procs, tree), procs
}

func baseBuild() *build.Build {
	return &build.Build{
		Class:          "Marauder",
		AllocatedNodes: []int{101, 103, 300},
		Masteries:      map[int]int{},
		Items: map[string]build.Item{
			build.SlotHelmet:      {ID: "helm-1", Mods: []string{"BASE Life 40", "BASE Str 5"}},
			build.SlotWeapon1:     {ID: "axe-1", Mods: []string{"BASE PhysicalDamage 20 flags=Attack"}},
			build.SlotWeapon1Swap: {ID: "bow-1", Mods: []string{"BASE Life 1000"}},
			build.SlotBoots:       {ID: "boots-1", Mods: []string{"BASE Life 30", "INC Str 0.5"}},
		},
		SkillGroups: []build.SkillGroup{
			{ID: "g1", Enabled: true, Mods: []string{"MORE Damage 0.3"}},
			{ID: "g2", Enabled: false, Mods: []string{"BASE Life 500"}},
		},
		Config: map[string]any{
			"Onslaught":       true,
			"PowerCharge":     2,
			"enemyFireResist": 40,
		},
	}
}

func setupFull(t *testing.T, o *Orchestrator, b *build.Build) *Environment {
	t.Helper()
	e, err := o.Setup(context.Background(), b)
	require.NoError(t, err)
	return e
}

func setupAccelerated(t *testing.T, o *Orchestrator, b *build.Build, prev *Environment) *Environment {
	t.Helper()
	e, err := o.Setup(context.Background(), b, WithAccelerated(prev))
	require.NoError(t, err)
	return e
}
