package data

import "slices"

// Node is a passive tree node.
type Node struct {
	ID          int              `yaml:"id"`
	Name        string           `yaml:"name"`
	Stats       []string         `yaml:"stats"`
	JewelSocket bool             `yaml:"jewel_socket"`
	Masteries   map[int][]string `yaml:"masteries"` // effect id → stat lines
}

// IsMastery reports whether the node offers selectable mastery effects.
func (n *Node) IsMastery() bool {
	return len(n.Masteries) > 0
}

// Tree is the passive tree and class data a build is evaluated against.
// A loaded Tree is read-only.
type Tree struct {
	nodes   map[int]*Node
	classes map[string]*ClassTemplate
}

// NewTree builds a Tree from nodes and classes. Later duplicates win.
func NewTree(nodes []Node, classes []ClassTemplate) *Tree {
	t := &Tree{
		nodes:   make(map[int]*Node, len(nodes)),
		classes: make(map[string]*ClassTemplate, len(classes)),
	}
	for i := range nodes {
		n := nodes[i]
		t.nodes[n.ID] = &n
	}
	for i := range classes {
		c := classes[i]
		t.classes[c.Name] = &c
	}
	return t
}

// Node returns the node with id.
func (t *Tree) Node(id int) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// ClassNames returns the known class names in sorted order.
func (t *Tree) ClassNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.classes))
	for name := range t.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
