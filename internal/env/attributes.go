package env

import (
	"maps"
	"slices"

	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/mod"
	"github.com/udisondev/buildplanner/internal/moddb"
)

// calcAttributes derives Str/Dex/Int from the class base values plus BASE
// mods on passives and primary gear, summed in slot order. INC and MORE
// attribute mods are not applied.
func calcAttributes(tree *data.Tree, class string, passives *moddb.DB, items map[string]*moddb.DB, conditions map[string]bool) Attributes {
	base, _ := tree.Class(class)
	q := &mod.Query{Conditions: conditions}
	slots := slices.Sorted(maps.Keys(items))

	sum := func(name string) float64 {
		total := 0.0
		if passives != nil {
			total += passives.Sum(mod.Base, q, name)
		}
		for _, slot := range slots {
			total += items[slot].Sum(mod.Base, q, name)
		}
		return total
	}

	all := sum("AllAttributes")
	return Attributes{
		Str: base.BaseStr + sum("Str") + all,
		Dex: base.BaseDex + sum("Dex") + all,
		Int: base.BaseInt + sum("Int") + all,
	}
}
