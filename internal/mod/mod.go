package mod

import "fmt"

// Type defines how a modifier contributes to a stat.
type Type int8

const (
	Base     Type = iota // Additive flat value
	Inc                  // Additive percentage, summed before applying
	More                 // Multiplicative percentage, each applied separately
	Override             // Replaces the final value
	Flag                 // Boolean presence
	List                 // Structured value collected as-is
)

var typeNames = [...]string{
	Base:     "BASE",
	Inc:      "INC",
	More:     "MORE",
	Override: "OVERRIDE",
	Flag:     "FLAG",
	List:     "LIST",
}

// String returns the upper-case type name ("BASE", "INC", ...).
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int8(t))
	}
	return typeNames[t]
}

// ParseType converts an upper-case type name back to a Type.
func ParseType(s string) (Type, bool) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return 0, false
}

// Mod is a single typed numeric effect on a named stat.
//
// Mod is immutable: all fields are unexported and set only by New.
// The same Mod value may be stored in any number of databases.
type Mod struct {
	name         string
	typ          Type
	value        float64
	listValue    any
	flags        ModFlag
	keywordFlags KeywordFlag
	condition    Condition
	source       string
	sourceID     string
}

// Option configures a Mod at construction time.
type Option func(*Mod)

// WithFlags restricts the mod to queries carrying all of the given flags.
func WithFlags(f ModFlag) Option {
	return func(m *Mod) { m.flags = f }
}

// WithKeywordFlags restricts the mod to queries carrying all of the given keyword flags.
func WithKeywordFlags(f KeywordFlag) Option {
	return func(m *Mod) { m.keywordFlags = f }
}

// WithCondition attaches a gating or scaling condition.
func WithCondition(c Condition) Option {
	return func(m *Mod) { m.condition = c }
}

// WithSource tags the mod with its origin (e.g. "Tree", "100").
func WithSource(source, sourceID string) Option {
	return func(m *Mod) {
		m.source = source
		m.sourceID = sourceID
	}
}

// New creates a numeric mod.
func New(name string, typ Type, value float64, opts ...Option) Mod {
	m := Mod{name: name, typ: typ, value: value}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewList creates a LIST mod carrying a structured value.
func NewList(name string, value any, opts ...Option) Mod {
	m := New(name, List, 0, opts...)
	m.listValue = value
	return m
}

// Name returns the stat name.
func (m Mod) Name() string { return m.name }

// Type returns the modifier type.
func (m Mod) Type() Type { return m.typ }

// Value returns the raw numeric value.
func (m Mod) Value() float64 { return m.value }

// ListValue returns the structured value of a LIST mod, nil otherwise.
func (m Mod) ListValue() any { return m.listValue }

// Flags returns the damage/attack targeting bitset.
func (m Mod) Flags() ModFlag { return m.flags }

// KeywordFlags returns the skill keyword targeting bitset.
func (m Mod) KeywordFlags() KeywordFlag { return m.keywordFlags }

// Condition returns the attached condition or nil.
func (m Mod) Condition() Condition { return m.condition }

// Source returns the origin category of the mod.
func (m Mod) Source() string { return m.source }

// SourceID returns the identifier within the source category.
func (m Mod) SourceID() string { return m.sourceID }

// FromSource reports whether the mod originates from source, and from sourceID
// when sourceID is not empty.
func (m Mod) FromSource(source, sourceID string) bool {
	if m.source != source {
		return false
	}
	return sourceID == "" || m.sourceID == sourceID
}

// String formats the mod for logs and breakdowns.
func (m Mod) String() string {
	if m.typ == List {
		return fmt.Sprintf("%s %s %v [%s:%s]", m.typ, m.name, m.listValue, m.source, m.sourceID)
	}
	return fmt.Sprintf("%s %s %g [%s:%s]", m.typ, m.name, m.value, m.source, m.sourceID)
}
