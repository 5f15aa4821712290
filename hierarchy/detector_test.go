package hierarchy_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/hierarchy"
	"github.com/latticehq/lattice/api/model"
)

func node(id, parentID string) model.TimelineNode {
	return model.TimelineNode{ID: id, ParentID: parentID, Type: model.NodeTypeJob, OwnerID: "owner-1"}
}

// chain builds root -> n1 -> n2 -> ... -> n<length-1>.
func chain(length int) []model.TimelineNode {
	nodes := []model.TimelineNode{node("n0", "")}
	for i := 1; i < length; i++ {
		nodes = append(nodes, node(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i-1)))
	}
	return nodes
}

func TestValidateMove(t *testing.T) {
	forest := []model.TimelineNode{
		node("root", ""),
		node("a", "root"),
		node("b", "a"),
		node("c", "b"),
		node("other", ""),
	}

	t.Run("legal reparent", func(t *testing.T) {
		assert.NoError(t, hierarchy.ValidateMove(forest, "c", "other", 0))
	})

	t.Run("detach to root is always legal", func(t *testing.T) {
		assert.NoError(t, hierarchy.ValidateMove(forest, "b", "", 0))
	})

	t.Run("unknown node", func(t *testing.T) {
		err := hierarchy.ValidateMove(forest, "ghost", "root", 0)
		assert.ErrorIs(t, err, lattice_errors.ErrNodeNotFound)
	})

	t.Run("unknown parent", func(t *testing.T) {
		err := hierarchy.ValidateMove(forest, "c", "ghost", 0)
		assert.ErrorIs(t, err, lattice_errors.ErrNodeNotFound)
	})

	t.Run("self parent is a cycle", func(t *testing.T) {
		err := hierarchy.ValidateMove(forest, "a", "a", 0)
		bre, ok := lattice_errors.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, lattice_errors.RuleCycle, bre.Rule)
	})

	t.Run("moving under own descendant is a cycle", func(t *testing.T) {
		err := hierarchy.ValidateMove(forest, "a", "c", 0)
		bre, ok := lattice_errors.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, lattice_errors.RuleCycle, bre.Rule)
		assert.Contains(t, bre.Message, "a")
	})

	t.Run("moving under direct child is a cycle", func(t *testing.T) {
		err := hierarchy.ValidateMove(forest, "a", "b", 0)
		_, ok := lattice_errors.AsBusinessRule(err)
		assert.True(t, ok)
	})

	t.Run("depth limit enforced", func(t *testing.T) {
		nodes := chain(10)
		nodes = append(nodes, node("x", ""))
		// x under the deepest node would land at depth 11.
		err := hierarchy.ValidateMove(nodes, "x", "n9", 10)
		bre, ok := lattice_errors.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, lattice_errors.RuleMaxDepth, bre.Rule)

		// Under a shallower ancestor it fits.
		assert.NoError(t, hierarchy.ValidateMove(nodes, "x", "n5", 10))
	})

	t.Run("depth accounts for the moved subtree's height", func(t *testing.T) {
		nodes := chain(8)
		nodes = append(nodes,
			node("s0", ""),
			node("s1", "s0"),
			node("s2", "s1"),
		)
		// Subtree of height 3 under depth 8 would reach 11.
		err := hierarchy.ValidateMove(nodes, "s0", "n7", 10)
		bre, ok := lattice_errors.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, lattice_errors.RuleMaxDepth, bre.Rule)
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("healthy forest", func(t *testing.T) {
		report := hierarchy.Analyze([]model.TimelineNode{
			node("root", ""),
			node("a", "root"),
			node("b", "root"),
			node("c", "a"),
		}, 10)

		assert.False(t, report.HasCycles)
		assert.Empty(t, report.Cycles)
		assert.Empty(t, report.OrphanedNodes)
		assert.Equal(t, 3, report.MaxDepth)
	})

	t.Run("detects a cycle", func(t *testing.T) {
		report := hierarchy.Analyze([]model.TimelineNode{
			node("a", "c"),
			node("b", "a"),
			node("c", "b"),
			node("clean", ""),
		}, 10)

		assert.True(t, report.HasCycles)
		require.Len(t, report.Cycles, 1)
		assert.Len(t, report.Cycles[0], 3)
		assert.Equal(t, 1, report.MaxDepth)
	})

	t.Run("detects orphaned parent pointers", func(t *testing.T) {
		report := hierarchy.Analyze([]model.TimelineNode{
			node("a", ""),
			node("b", "gone"),
			node("c", "also-gone"),
		}, 10)

		assert.False(t, report.HasCycles)
		assert.Equal(t, []string{"b", "c"}, report.OrphanedNodes)
	})

	t.Run("empty forest", func(t *testing.T) {
		report := hierarchy.Analyze(nil, 10)
		assert.False(t, report.HasCycles)
		assert.Zero(t, report.MaxDepth)
	})
}

func TestRecoverySuggestions(t *testing.T) {
	t.Run("healthy forest yields nothing", func(t *testing.T) {
		suggestions := hierarchy.RecoverySuggestions([]model.TimelineNode{
			node("root", ""),
			node("a", "root"),
		}, 10)
		assert.Empty(t, suggestions)
	})

	t.Run("cycle and orphan each get a detach", func(t *testing.T) {
		suggestions := hierarchy.RecoverySuggestions([]model.TimelineNode{
			node("a", "b"),
			node("b", "a"),
			node("lost", "gone"),
		}, 10)

		require.Len(t, suggestions, 2)
		for _, s := range suggestions {
			assert.Equal(t, "detach", s.Action)
		}
	})

	t.Run("over-deep chain suggests flattening", func(t *testing.T) {
		suggestions := hierarchy.RecoverySuggestions(chain(12), 10)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "flatten", suggestions[0].Action)
	})
}

func TestDepthStats(t *testing.T) {
	maxDepth, rootCount := hierarchy.DepthStats([]model.TimelineNode{
		node("r1", ""),
		node("r2", ""),
		node("a", "r1"),
		node("b", "a"),
	})
	assert.Equal(t, 3, maxDepth)
	assert.Equal(t, 2, rootCount)
}

func TestValidateMoveAgainstCorruptForest(t *testing.T) {
	// A pre-existing cycle above the target parent must refuse the move
	// instead of walking forever.
	nodes := []model.TimelineNode{
		node("a", "b"),
		node("b", "a"),
		node("x", ""),
	}
	err := hierarchy.ValidateMove(nodes, "x", "a", 10)
	var bre *lattice_errors.BusinessRuleError
	assert.True(t, errors.As(err, &bre))
}
