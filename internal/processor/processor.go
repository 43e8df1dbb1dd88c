// Package processor defines the contracts of the category processors that
// turn build data into modifier databases, and ships a reference
// implementation of them.
package processor

import (
	"context"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
)

// Mod sources assigned by processors. Single-change update paths rely on
// them to remove the mods of one node, jewel or item.
const (
	SourceTree    = "Tree"
	SourceMastery = "Mastery"
	SourceJewel   = "Jewel"
	SourceItem    = "Item"
	SourceSkill   = "Skill"
	SourceConfig  = "Config"
)

// EnemyPrefix marks configuration keys that describe the enemy rather than
// the player ("enemyFireResist").
const EnemyPrefix = "enemy"

// Parser turns one line of modifier text into mods tagged with source.
type Parser interface {
	Parse(line, source, sourceID string) ([]mod.Mod, error)
}

// ParserProvider returns the shared parser, loading it on first use.
type ParserProvider interface {
	Parser(ctx context.Context) (Parser, error)
}

// ItemDBs holds one database per occupied gear slot, split by weapon set.
type ItemDBs struct {
	Primary map[string]*moddb.DB
	Swap    map[string]*moddb.DB
}

// Lookup returns the database of slot from the set it belongs to.
func (r ItemDBs) Lookup(slot string) (*moddb.DB, bool) {
	set := r.Primary
	if build.IsSwapSlot(slot) {
		set = r.Swap
	}
	db, ok := set[slot]
	return db, ok
}

// ConfigResult is the output of configuration processing.
type ConfigResult struct {
	DB         *moddb.DB
	Conditions map[string]bool
}

// Processors converts each build category into modifier databases.
// Every call returns fresh databases owned by the caller.
//
// Incremental updates remove mods by source, so implementations must tag:
// node mods SourceTree and mastery mods SourceMastery, both with the node id
// as sourceID; jewel mods SourceJewel with the socket node id.
type Processors interface {
	// Passives processes allocated nodes and the masteries selected on them.
	Passives(ctx context.Context, nodes []int, masteries map[int]int, tree *data.Tree, p Parser) (*moddb.DB, error)
	Items(ctx context.Context, items map[string]build.Item, p Parser) (ItemDBs, error)
	Skills(ctx context.Context, groups []build.SkillGroup, p Parser) (*moddb.DB, error)
	Config(ctx context.Context, cfg map[string]any) (ConfigResult, error)
	// Jewels processes socketed jewels. Every returned mod must come from
	// (SourceJewel, strconv.Itoa(nodeID)).
	Jewels(ctx context.Context, sockets map[int]build.Item, p Parser) (*moddb.DB, error)
}
