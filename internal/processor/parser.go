package processor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/buildplanner/internal/mod"
)

// ErrUnsupportedLine is returned for lines the parser cannot interpret.
var ErrUnsupportedLine = errors.New("unsupported mod line")

// LineParser parses the compact mod grammar used by tree and item data:
//
//	TYPE Stat value [flags=A|B] [kw=A|B] [if=Var|if=!Var] [min=Stat:N]
//	                [socket=Slot_Name] [per=Stat/N] [mult=Var]
//
// FLAG lines may omit the value. LIST lines keep the value as a string.
// Underscores in socket names stand for spaces. A line carries at most one
// condition.
type LineParser struct{}

// NewLineParser creates a LineParser.
func NewLineParser() *LineParser {
	return &LineParser{}
}

// Parse implements Parser.
func (LineParser) Parse(line, source, sourceID string) ([]mod.Mod, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLine, line)
	}
	typ, ok := mod.ParseType(fields[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown type in %q", ErrUnsupportedLine, line)
	}
	name := fields[1]
	rest := fields[2:]

	opts := []mod.Option{mod.WithSource(source, sourceID)}

	var value float64
	var listValue string
	switch {
	case typ == mod.List:
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: LIST without value in %q", ErrUnsupportedLine, line)
		}
		listValue = rest[0]
		rest = rest[1:]
	case typ == mod.Flag && (len(rest) == 0 || strings.Contains(rest[0], "=")):
		value = 1
	default:
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: missing value in %q", ErrUnsupportedLine, line)
		}
		v, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad value in %q: %v", ErrUnsupportedLine, line, err)
		}
		value = v
		rest = rest[1:]
	}

	var cond mod.Condition
	for _, opt := range rest {
		key, val, ok := strings.Cut(opt, "=")
		if !ok || val == "" {
			return nil, fmt.Errorf("%w: bad option %q in %q", ErrUnsupportedLine, opt, line)
		}
		var next mod.Condition
		switch key {
		case "flags":
			f, err := mod.ParseModFlags(val)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedLine, err)
			}
			opts = append(opts, mod.WithFlags(f))
		case "kw":
			f, err := mod.ParseKeywordFlags(val)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedLine, err)
			}
			opts = append(opts, mod.WithKeywordFlags(f))
		case "if":
			v, neg := strings.CutPrefix(val, "!")
			next = mod.Cond{Var: v, Neg: neg}
		case "min":
			stat, n, err := splitNumber(val, ":")
			if err != nil {
				return nil, fmt.Errorf("%w: %v in %q", ErrUnsupportedLine, err, line)
			}
			next = mod.StatThreshold{Stat: stat, Threshold: n}
		case "socket":
			next = mod.SocketedIn{Var: strings.ReplaceAll(val, "_", " ")}
		case "per":
			stat, n, err := splitNumber(val, "/")
			if err != nil {
				return nil, fmt.Errorf("%w: %v in %q", ErrUnsupportedLine, err, line)
			}
			next = mod.PerStat{Stat: stat, Div: n}
		case "mult":
			next = mod.Multiplier{Var: val}
		default:
			return nil, fmt.Errorf("%w: unknown option %q in %q", ErrUnsupportedLine, key, line)
		}
		if next != nil {
			if cond != nil {
				return nil, fmt.Errorf("%w: more than one condition in %q", ErrUnsupportedLine, line)
			}
			cond = next
		}
	}
	if cond != nil {
		opts = append(opts, mod.WithCondition(cond))
	}

	if typ == mod.List {
		return []mod.Mod{mod.NewList(name, listValue, opts...)}, nil
	}
	return []mod.Mod{mod.New(name, typ, value, opts...)}, nil
}

func splitNumber(s, sep string) (string, float64, error) {
	stat, num, ok := strings.Cut(s, sep)
	if !ok || stat == "" {
		return "", 0, fmt.Errorf("expected Stat%sN, got %q", sep, s)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad number %q", num)
	}
	return stat, n, nil
}
