// Package env assembles calculation environments from builds and keeps them
// up to date incrementally.
package env

import (
	"maps"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
)

// Attributes are the derived core attributes of a character.
type Attributes struct {
	Str float64
	Dex float64
	Int float64
}

// Environment is a versioned snapshot of every active modifier of a build.
//
// An Environment is never mutated after it is returned. Derived environments
// share unchanged category databases with their predecessor by reference,
// so callers must treat every *moddb.DB obtained here as read-only. Maps and
// dirty flags are cloned on access.
type Environment struct {
	build *build.Build
	tree  *data.Tree

	passiveDB   *moddb.DB
	itemDBs     map[string]*moddb.DB
	itemDBsSwap map[string]*moddb.DB
	skillDB     *moddb.DB
	configDB    *moddb.DB
	playerDB    *moddb.DB
	enemyDB     *moddb.DB

	jewels     map[int]build.Item
	attributes Attributes
	config     map[string]any
	conditions map[string]bool

	dirty   DirtyFlags
	version uint64
}

// derive returns a shallow copy of e: every database and map is shared.
func (e *Environment) derive() *Environment {
	next := *e
	next.version = e.version + 1
	return &next
}

// Build returns a copy of the build the environment was computed from.
func (e *Environment) Build() *build.Build { return e.build.Clone() }

// Tree returns the tree data the environment was computed against.
func (e *Environment) Tree() *data.Tree { return e.tree }

// Version returns the version counter: 1 for a full build, previous+1 for
// every derived environment.
func (e *Environment) Version() uint64 { return e.version }

// PassiveDB returns the passives database, jewel mods included.
func (e *Environment) PassiveDB() *moddb.DB { return e.passiveDB }

// SkillDB returns the skills database.
func (e *Environment) SkillDB() *moddb.DB { return e.skillDB }

// ConfigDB returns the configuration database.
func (e *Environment) ConfigDB() *moddb.DB { return e.configDB }

// PlayerDB returns the flattened union of the category databases.
func (e *Environment) PlayerDB() *moddb.DB { return e.playerDB }

// EnemyDB returns the enemy database derived from configuration.
func (e *Environment) EnemyDB() *moddb.DB { return e.enemyDB }

// ItemDB returns the database of one gear slot from either weapon set.
func (e *Environment) ItemDB(slot string) (*moddb.DB, bool) {
	set := e.itemDBs
	if build.IsSwapSlot(slot) {
		set = e.itemDBsSwap
	}
	db, ok := set[slot]
	return db, ok
}

// ItemDBs returns a copy of the primary weapon set slot map.
func (e *Environment) ItemDBs() map[string]*moddb.DB { return maps.Clone(e.itemDBs) }

// SwapItemDBs returns a copy of the alternate weapon set slot map.
func (e *Environment) SwapItemDBs() map[string]*moddb.DB { return maps.Clone(e.itemDBsSwap) }

// JewelSockets returns a copy of the socket node → jewel map.
func (e *Environment) JewelSockets() map[int]build.Item { return maps.Clone(e.jewels) }

// Attributes returns the derived attributes.
func (e *Environment) Attributes() Attributes { return e.attributes }

// Config returns a copy of the resolved configuration with condition flags
// from configuration processing merged in.
func (e *Environment) Config() map[string]any {
	out := make(map[string]any, len(e.config)+len(e.conditions))
	maps.Copy(out, e.config)
	for k, v := range e.conditions {
		out[k] = v
	}
	return out
}

// Conditions returns a copy of the condition flags.
func (e *Environment) Conditions() map[string]bool { return maps.Clone(e.conditions) }

// DirtyFlags returns a copy of the change record that produced e.
func (e *Environment) DirtyFlags() DirtyFlags { return e.dirty.Clone() }

// Query returns a query carrying the environment conditions and attributes,
// for stat resolution against PlayerDB.
func (e *Environment) Query() *mod.Query {
	return &mod.Query{
		Conditions: maps.Clone(e.conditions),
		Stats: map[string]float64{
			"Str": e.attributes.Str,
			"Dex": e.attributes.Dex,
			"Int": e.attributes.Int,
		},
	}
}
