package data

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tree.yaml
var defaultTreeYAML []byte

type treeFile struct {
	Classes []ClassTemplate `yaml:"classes"`
	Nodes   []Node          `yaml:"nodes"`
}

// LoadTree reads tree data from a YAML file.
// An empty path loads the embedded default tree.
func LoadTree(path string) (*Tree, error) {
	raw := defaultTreeYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading tree data %s: %w", path, err)
		}
		raw = b
	}

	t, err := ParseTree(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing tree data %q: %w", path, err)
	}

	slog.Info("loaded tree data", "path", path, "nodes", t.NodeCount(), "classes", len(t.classes))
	return t, nil
}

// ParseTree decodes YAML tree data.
func ParseTree(raw []byte) (*Tree, error) {
	var f treeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return NewTree(f.Nodes, f.Classes), nil
}
