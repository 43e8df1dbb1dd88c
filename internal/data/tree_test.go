package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTree_Default(t *testing.T) {
	tree, err := LoadTree("")
	require.NoError(t, err)

	n, ok := tree.Node(100)
	require.True(t, ok)
	assert.Equal(t, "Heart of the Warrior", n.Name)
	assert.Contains(t, n.Stats, "BASE Life 10")

	socket, ok := tree.Node(300)
	require.True(t, ok)
	assert.True(t, socket.JewelSocket)

	mastery, ok := tree.Node(200)
	require.True(t, ok)
	assert.True(t, mastery.IsMastery())
	assert.Len(t, mastery.Masteries[1], 1)

	assert.Contains(t, tree.ClassNames(), "Marauder")
}

func TestLoadTree_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	content := "classes:\n  - {name: Tester, str: 1, dex: 2, int: 3}\nnodes:\n  - id: 7\n    name: Seven\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tree, err := LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.NodeCount())

	c, ok := tree.Class("Tester")
	require.True(t, ok)
	assert.Equal(t, ClassTemplate{Name: "Tester", BaseStr: 1, BaseDex: 2, BaseInt: 3}, c)
}

func TestLoadTree_Errors(t *testing.T) {
	_, err := LoadTree(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseTree([]byte("nodes:\n  - id: 1\n  - id: 1\n"))
	assert.ErrorContains(t, err, "duplicate node id 1")

	_, err = ParseTree([]byte("nodes: [::"))
	assert.Error(t, err)
}

func TestClass_UnknownFallsBackToNeutral(t *testing.T) {
	tree, err := LoadTree("")
	require.NoError(t, err)

	c, ok := tree.Class("Nobody")
	assert.False(t, ok)
	assert.Equal(t, "Nobody", c.Name)
	assert.Equal(t, float64(NeutralAttribute), c.BaseStr)
	assert.Equal(t, float64(NeutralAttribute), c.BaseDex)
	assert.Equal(t, float64(NeutralAttribute), c.BaseInt)

	var nilTree *Tree
	_, ok = nilTree.Class("Marauder")
	assert.False(t, ok)
}
