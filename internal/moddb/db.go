// Package moddb stores modifiers by stat name and answers aggregation queries.
package moddb

import (
	"slices"

	"github.com/udisondev/buildplanner/internal/mod"
)

// Actor identifies whose modifiers a database holds.
type Actor string

const (
	ActorPlayer Actor = "player"
	ActorEnemy  Actor = "enemy"
)

// DB is a hierarchical store of mods keyed by stat name.
//
// Queries read the local buckets first and then the parent chain; parent
// results are appended, never shadowed. Queries never mutate the database.
//
// DB is not safe for concurrent mutation. Environments share databases by
// reference only after they stop being mutated.
type DB struct {
	actor  Actor
	parent *DB
	mods   map[string][]mod.Mod
}

// New creates an empty database for actor. parent may be nil.
func New(actor Actor, parent *DB) *DB {
	return &DB{
		actor:  actor,
		parent: parent,
		mods:   make(map[string][]mod.Mod),
	}
}

// Actor returns the actor tag.
func (db *DB) Actor() Actor {
	return db.actor
}

// Parent returns the parent database or nil.
func (db *DB) Parent() *DB {
	return db.parent
}

// AddMod appends m to its stat bucket.
func (db *DB) AddMod(m mod.Mod) {
	db.mods[m.Name()] = append(db.mods[m.Name()], m)
}

// AddList appends mods in order.
func (db *DB) AddList(mods []mod.Mod) {
	for _, m := range mods {
		db.AddMod(m)
	}
}

// AddDB appends every local mod of other. Mods are shared, not copied.
// The parent of other is not merged.
func (db *DB) AddDB(other *DB) {
	if other == nil {
		return
	}
	for _, name := range other.Names() {
		db.mods[name] = append(db.mods[name], other.mods[name]...)
	}
}

// RemoveBySource drops local mods from source (and sourceID, when not empty).
// Returns how many mods were removed.
func (db *DB) RemoveBySource(source, sourceID string) int {
	removed := 0
	for name, bucket := range db.mods {
		kept := make([]mod.Mod, 0, len(bucket))
		for _, m := range bucket {
			if m.FromSource(source, sourceID) {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(db.mods, name)
			continue
		}
		if len(kept) != len(bucket) {
			db.mods[name] = kept
		}
	}
	return removed
}

// Clone returns a database with the same actor, parent and a fresh copy of
// every local bucket, so that mutating the clone leaves db untouched.
func (db *DB) Clone() *DB {
	out := &DB{
		actor:  db.actor,
		parent: db.parent,
		mods:   make(map[string][]mod.Mod, len(db.mods)),
	}
	for name, bucket := range db.mods {
		out.mods[name] = slices.Clone(bucket)
	}
	return out
}

// Count returns the number of local mods.
func (db *DB) Count() int {
	n := 0
	for _, bucket := range db.mods {
		n += len(bucket)
	}
	return n
}

// CountBySource returns how many local mods come from source (and sourceID,
// when not empty).
func (db *DB) CountBySource(source, sourceID string) int {
	n := 0
	for _, bucket := range db.mods {
		for _, m := range bucket {
			if m.FromSource(source, sourceID) {
				n++
			}
		}
	}
	return n
}

// Names returns the local stat names in sorted order.
func (db *DB) Names() []string {
	names := make([]string, 0, len(db.mods))
	for name := range db.mods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Mods returns a copy of the local bucket for name.
func (db *DB) Mods(name string) []mod.Mod {
	return slices.Clone(db.mods[name])
}

// each visits every mod stored under names, local first then parents.
func (db *DB) each(names []string, fn func(mod.Mod)) {
	for cur := db; cur != nil; cur = cur.parent {
		for _, name := range names {
			for _, m := range cur.mods[name] {
				fn(m)
			}
		}
	}
}
