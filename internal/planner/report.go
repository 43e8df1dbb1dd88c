package planner

import (
	"github.com/udisondev/buildplanner/internal/env"
	"github.com/udisondev/buildplanner/internal/moddb"
)

// DefaultStats are reported when no stat is requested.
var DefaultStats = []string{"Life", "Mana", "Damage"}

// StatLine is one resolved player stat.
type StatLine struct {
	Name   string
	Result moddb.CalcResult
}

// Stats resolves names against the player database of e under the
// environment's conditions and attributes.
func Stats(e *env.Environment, names ...string) []StatLine {
	q := e.Query()
	out := make([]StatLine, 0, len(names))
	for _, name := range names {
		out = append(out, StatLine{Name: name, Result: e.PlayerDB().Calc(q, name)})
	}
	return out
}

// Breakdown lists every player mod contributing to name.
func Breakdown(e *env.Environment, name string) []moddb.Tabulated {
	return e.PlayerDB().Tabulate(e.Query(), name)
}
