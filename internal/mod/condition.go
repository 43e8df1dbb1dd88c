package mod

import "math"

// Query carries the evaluation context a condition is checked against.
// Nil maps behave as empty.
type Query struct {
	Flags        ModFlag
	KeywordFlags KeywordFlag
	Conditions   map[string]bool
	Stats        map[string]float64
	SlotName     string
}

func (q *Query) stat(name string) float64 {
	if q == nil {
		return 0
	}
	return q.Stats[name]
}

func (q *Query) condition(name string) bool {
	if q == nil {
		return false
	}
	return q.Conditions[name]
}

// Condition gates or scales a mod.
//
// Gating conditions decide whether the mod applies at all; scaling
// conditions always apply and adjust the contributed value.
type Condition interface {
	// Passes reports whether the mod applies under q.
	Passes(q *Query) bool
	// Scale returns the factor the raw value is multiplied by.
	Scale(q *Query) float64
}

// Cond is a boolean lookup, optionally negated. Absent variables are false.
type Cond struct {
	Var string
	Neg bool
}

func (c Cond) Passes(q *Query) bool { return q.condition(c.Var) == !c.Neg }
func (c Cond) Scale(*Query) float64 { return 1 }

// StatThreshold applies while a query stat is at least Threshold.
type StatThreshold struct {
	Stat      string
	Threshold float64
}

func (c StatThreshold) Passes(q *Query) bool { return q.stat(c.Stat) >= c.Threshold }
func (c StatThreshold) Scale(*Query) float64 { return 1 }

// SocketedIn applies only when the query targets the named slot.
type SocketedIn struct {
	Var string
}

func (c SocketedIn) Passes(q *Query) bool {
	return q != nil && q.SlotName == c.Var
}
func (c SocketedIn) Scale(*Query) float64 { return 1 }

// PerStat scales the value by floor(stat / Div).
type PerStat struct {
	Stat string
	Div  float64
}

func (c PerStat) Passes(*Query) bool { return true }

func (c PerStat) Scale(q *Query) float64 {
	div := c.Div
	if div == 0 {
		div = 1
	}
	return math.Floor(q.stat(c.Stat) / div)
}

// Multiplier scales the value by a named query stat.
type Multiplier struct {
	Var string
}

func (c Multiplier) Passes(*Query) bool { return true }
func (c Multiplier) Scale(q *Query) float64 { return q.stat(c.Var) }
