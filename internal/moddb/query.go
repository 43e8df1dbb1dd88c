package moddb

import "github.com/udisondev/buildplanner/internal/mod"

// Applies reports whether m contributes under q.
//
// Flags: every bit set on the mod must be set on the query; zero matches all.
// Conditions: gating conditions are checked, scaling ones always pass.
func Applies(m mod.Mod, q *mod.Query) bool {
	var flags mod.ModFlag
	var keywords mod.KeywordFlag
	if q != nil {
		flags = q.Flags
		keywords = q.KeywordFlags
	}
	if !m.Flags().Matches(flags) || !m.KeywordFlags().Matches(keywords) {
		return false
	}
	if c := m.Condition(); c != nil && !c.Passes(q) {
		return false
	}
	return true
}

// EffectiveValue returns the value m contributes under q after scaling.
func EffectiveValue(m mod.Mod, q *mod.Query) float64 {
	v := m.Value()
	if c := m.Condition(); c != nil {
		v *= c.Scale(q)
	}
	return v
}

func (db *DB) eachMatching(typ mod.Type, q *mod.Query, names []string, fn func(mod.Mod)) {
	db.each(names, func(m mod.Mod) {
		if m.Type() == typ && Applies(m, q) {
			fn(m)
		}
	})
}

// Sum adds the effective values of matching mods of typ (BASE or INC) across
// names.
func (db *DB) Sum(typ mod.Type, q *mod.Query, names ...string) float64 {
	var total float64
	db.eachMatching(typ, q, names, func(m mod.Mod) {
		total += EffectiveValue(m, q)
	})
	return total
}

// More returns the product of (1 + value) over matching MORE mods, 1 if none.
func (db *DB) More(q *mod.Query, names ...string) float64 {
	product := 1.0
	db.eachMatching(mod.More, q, names, func(m mod.Mod) {
		product *= 1 + EffectiveValue(m, q)
	})
	return product
}

// Flag reports whether any matching FLAG mod exists.
func (db *DB) Flag(q *mod.Query, names ...string) bool {
	found := false
	db.eachMatching(mod.Flag, q, names, func(mod.Mod) {
		found = true
	})
	return found
}

// Override returns the greatest matching OVERRIDE value. The first mod seen
// wins ties. ok is false when no OVERRIDE mod matched.
func (db *DB) Override(q *mod.Query, name string) (value float64, ok bool) {
	db.eachMatching(mod.Override, q, []string{name}, func(m mod.Mod) {
		v := EffectiveValue(m, q)
		if !ok || v > value {
			value = v
			ok = true
		}
	})
	return value, ok
}

// ListEntry pairs a LIST mod with its raw value.
type ListEntry struct {
	Mod   mod.Mod
	Value any
}

// List returns matching LIST mods in storage order.
func (db *DB) List(q *mod.Query, name string) []ListEntry {
	var out []ListEntry
	db.eachMatching(mod.List, q, []string{name}, func(m mod.Mod) {
		out = append(out, ListEntry{Mod: m, Value: m.ListValue()})
	})
	return out
}

// CalcResult is the full resolution of one or more stats.
type CalcResult struct {
	Value       float64
	Base        float64
	Inc         float64
	More        float64
	ModCount    int
	Override    float64
	HasOverride bool
}

// Calc resolves names to base*(1+inc)*more, replaced by the greatest
// OVERRIDE when one matched. FLAG and LIST mods are ignored.
func (db *DB) Calc(q *mod.Query, names ...string) CalcResult {
	res := CalcResult{More: 1}
	db.each(names, func(m mod.Mod) {
		if !Applies(m, q) {
			return
		}
		v := EffectiveValue(m, q)
		switch m.Type() {
		case mod.Base:
			res.Base += v
		case mod.Inc:
			res.Inc += v
		case mod.More:
			res.More *= 1 + v
		case mod.Override:
			if !res.HasOverride || v > res.Override {
				res.Override = v
				res.HasOverride = true
			}
		default:
			return
		}
		res.ModCount++
	})
	res.Value = res.Base * (1 + res.Inc) * res.More
	if res.HasOverride {
		res.Value = res.Override
	}
	return res
}

// Tabulated is one matching mod with the value it contributes.
type Tabulated struct {
	Mod   mod.Mod
	Value float64
}

// Tabulate lists every matching mod stored under names with its effective
// value, local first then parents.
func (db *DB) Tabulate(q *mod.Query, names ...string) []Tabulated {
	var out []Tabulated
	db.each(names, func(m mod.Mod) {
		if Applies(m, q) {
			out = append(out, Tabulated{Mod: m, Value: EffectiveValue(m, q)})
		}
	})
	return out
}
