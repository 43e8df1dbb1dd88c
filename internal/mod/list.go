package mod

// Sink receives mods in bulk. *moddb.DB implements it.
type Sink interface {
	AddList(mods []Mod)
}

// ModList is an ordered staging collection of mods.
// Processors accumulate mods here before committing them to a database.
type ModList struct {
	mods []Mod
}

// NewModList creates a list holding a copy of mods.
func NewModList(mods ...Mod) *ModList {
	l := &ModList{mods: make([]Mod, len(mods))}
	copy(l.mods, mods)
	return l
}

// Add appends mods in order.
func (l *ModList) Add(mods ...Mod) {
	l.mods = append(l.mods, mods...)
}

// Len returns the number of held mods.
func (l *ModList) Len() int {
	return len(l.mods)
}

// All returns a copy of the held mods in order.
func (l *ModList) All() []Mod {
	out := make([]Mod, len(l.mods))
	copy(out, l.mods)
	return out
}

// Filter returns a new list with the mods for which keep returns true.
func (l *ModList) Filter(keep func(Mod) bool) *ModList {
	out := &ModList{mods: make([]Mod, 0, len(l.mods))}
	for _, m := range l.mods {
		if keep(m) {
			out.mods = append(out.mods, m)
		}
	}
	return out
}

// Map returns a new list with fn applied to every mod.
func (l *ModList) Map(fn func(Mod) Mod) *ModList {
	out := &ModList{mods: make([]Mod, len(l.mods))}
	for i, m := range l.mods {
		out.mods[i] = fn(m)
	}
	return out
}

// Each calls fn for every mod in order.
func (l *ModList) Each(fn func(Mod)) {
	for _, m := range l.mods {
		fn(m)
	}
}

// Some reports whether any mod satisfies pred.
func (l *ModList) Some(pred func(Mod) bool) bool {
	for _, m := range l.mods {
		if pred(m) {
			return true
		}
	}
	return false
}

// Every reports whether all mods satisfy pred. True for an empty list.
func (l *ModList) Every(pred func(Mod) bool) bool {
	for _, m := range l.mods {
		if !pred(m) {
			return false
		}
	}
	return true
}

// Find returns the first mod satisfying pred.
func (l *ModList) Find(pred func(Mod) bool) (Mod, bool) {
	for _, m := range l.mods {
		if pred(m) {
			return m, true
		}
	}
	return Mod{}, false
}

// HasName reports whether any mod targets the named stat.
func (l *ModList) HasName(name string) bool {
	return l.Some(func(m Mod) bool { return m.name == name })
}

// HasType reports whether any mod has the given type.
func (l *ModList) HasType(typ Type) bool {
	return l.Some(func(m Mod) bool { return m.typ == typ })
}

// FilterBySource returns a new list with only the mods from source
// (and sourceID, when not empty).
func (l *ModList) FilterBySource(source, sourceID string) *ModList {
	return l.Filter(func(m Mod) bool { return m.FromSource(source, sourceID) })
}

// RemoveBySource drops the mods from source (and sourceID, when not empty)
// in place and returns how many were removed.
func (l *ModList) RemoveBySource(source, sourceID string) int {
	n := 0
	for _, m := range l.mods {
		if !m.FromSource(source, sourceID) {
			l.mods[n] = m
			n++
		}
	}
	removed := len(l.mods) - n
	clear(l.mods[n:])
	l.mods = l.mods[:n]
	return removed
}

// ApplyTo bulk-inserts every held mod into dst.
func (l *ModList) ApplyTo(dst Sink) {
	if len(l.mods) == 0 {
		return
	}
	dst.AddList(l.All())
}
