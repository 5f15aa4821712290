// api/hierarchy/detector.go

// Package hierarchy validates the parent-pointer forest of one owner's
// timeline nodes: move validation, full-forest health scans and advisory
// recovery suggestions. It is pure; callers pass a snapshot of the forest.
package hierarchy

import (
	"fmt"
	"sort"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
)

// DefaultMaxDepth bounds how deep a timeline hierarchy may nest.
const DefaultMaxDepth = 10

// AnalysisReport is the result of a full-forest health scan.
type AnalysisReport struct {
	HasCycles     bool       `json:"has_cycles"`
	Cycles        [][]string `json:"cycles,omitempty"`
	OrphanedNodes []string   `json:"orphaned_nodes,omitempty"`
	MaxDepth      int        `json:"max_depth"`
}

// Suggestion is an advisory fix for detected corruption. It never mutates.
type Suggestion struct {
	NodeID string `json:"node_id"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type forest struct {
	parent   map[string]string
	children map[string][]string
	nodes    map[string]model.TimelineNode
}

func index(nodes []model.TimelineNode) forest {
	f := forest{
		parent:   make(map[string]string, len(nodes)),
		children: make(map[string][]string),
		nodes:    make(map[string]model.TimelineNode, len(nodes)),
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
		f.parent[n.ID] = n.ParentID
		if n.ParentID != "" {
			f.children[n.ParentID] = append(f.children[n.ParentID], n.ID)
		}
	}
	return f
}

// ValidateMove decides whether reattaching nodeID under newParentID keeps
// the forest legal. An empty newParentID detaches the node to a root.
// Returns ErrNodeNotFound for unknown ids, a BusinessRuleError for a cycle
// or a depth violation, and nil when the move is safe.
func ValidateMove(nodes []model.TimelineNode, nodeID, newParentID string, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	f := index(nodes)

	if _, ok := f.nodes[nodeID]; !ok {
		return lattice_errors.ErrNodeNotFound
	}
	if newParentID == "" {
		// Detaching can only reduce depth.
		return nil
	}
	if _, ok := f.nodes[newParentID]; !ok {
		return lattice_errors.ErrNodeNotFound
	}
	if newParentID == nodeID {
		return lattice_errors.NewCycleError(nodeID)
	}

	// Walk up from the proposed parent; meeting nodeID means nodeID would
	// become its own ancestor.
	seen := map[string]bool{}
	for cur := newParentID; cur != ""; cur = f.parent[cur] {
		if cur == nodeID {
			return lattice_errors.NewCycleError(nodeID)
		}
		if seen[cur] {
			// Pre-existing corruption above the target; refuse the move.
			return lattice_errors.NewCycleError(nodeID)
		}
		seen[cur] = true
	}

	if depthOf(f, newParentID)+1+height(f, nodeID) > maxDepth {
		return lattice_errors.NewMaxDepthError(maxDepth)
	}
	return nil
}

// Analyze scans the whole forest for cycles, orphaned parent pointers and
// the deepest chain. Orphans are nodes whose parentId names a node missing
// from the snapshot (deleted, or belonging to another owner).
func Analyze(nodes []model.TimelineNode, maxDepth int) AnalysisReport {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	f := index(nodes)
	report := AnalysisReport{}

	for id, parentID := range f.parent {
		if parentID == "" {
			continue
		}
		if _, ok := f.nodes[parentID]; !ok {
			report.OrphanedNodes = append(report.OrphanedNodes, id)
		}
	}
	sort.Strings(report.OrphanedNodes)

	// Cycle detection via iterative three-color walk over parent pointers.
	state := make(map[string]int, len(f.nodes)) // 0 unvisited, 1 on path, 2 done
	inCycle := map[string]bool{}
	for id := range f.nodes {
		if state[id] != 0 {
			continue
		}
		var path []string
		cur := id
		for {
			if cur == "" {
				break
			}
			if _, ok := f.nodes[cur]; !ok {
				break // orphan edge, already reported
			}
			if state[cur] == 2 {
				break
			}
			if state[cur] == 1 {
				// Found the cycle entry point; slice it out of the path.
				for i := len(path) - 1; i >= 0; i-- {
					inCycle[path[i]] = true
					if path[i] == cur {
						cycle := append([]string(nil), path[i:]...)
						report.Cycles = append(report.Cycles, cycle)
						break
					}
				}
				break
			}
			state[cur] = 1
			path = append(path, cur)
			cur = f.parent[cur]
		}
		for _, p := range path {
			state[p] = 2
		}
	}
	report.HasCycles = len(report.Cycles) > 0

	for id := range f.nodes {
		if inCycle[id] {
			continue
		}
		if d := depthOf(f, id); d > report.MaxDepth {
			report.MaxDepth = d
		}
	}
	return report
}

// RecoverySuggestions proposes fixes for the corruption Analyze finds.
func RecoverySuggestions(nodes []model.TimelineNode, maxDepth int) []Suggestion {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	report := Analyze(nodes, maxDepth)
	var suggestions []Suggestion

	for _, cycle := range report.Cycles {
		if len(cycle) == 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			NodeID: cycle[0],
			Action: "detach",
			Reason: fmt.Sprintf("detach node %s to break a parent cycle of length %d", cycle[0], len(cycle)),
		})
	}
	for _, id := range report.OrphanedNodes {
		suggestions = append(suggestions, Suggestion{
			NodeID: id,
			Action: "detach",
			Reason: fmt.Sprintf("node %s points at a parent that no longer exists; detach it to a root", id),
		})
	}
	if report.MaxDepth > maxDepth {
		suggestions = append(suggestions, Suggestion{
			Action: "flatten",
			Reason: fmt.Sprintf("deepest chain is %d levels, over the limit of %d; reparent intermediate nodes", report.MaxDepth, maxDepth),
		})
	}
	return suggestions
}

// depthOf counts ancestors plus one. Root nodes have depth 1. Walks are
// bounded by the node count so corrupted state cannot loop forever.
func depthOf(f forest, id string) int {
	depth := 0
	cur := id
	for steps := 0; cur != "" && steps <= len(f.nodes); steps++ {
		if _, ok := f.nodes[cur]; !ok {
			break
		}
		depth++
		cur = f.parent[cur]
	}
	return depth
}

// height is the number of levels in the subtree rooted at id, inclusive.
func height(f forest, id string) int {
	max := 1
	for _, child := range f.children[id] {
		if h := 1 + height(f, child); h > max {
			max = h
		}
	}
	return max
}

// DepthStats computes total depth metrics for the stats endpoint.
func DepthStats(nodes []model.TimelineNode) (maxDepth, rootCount int) {
	f := index(nodes)
	for id, parentID := range f.parent {
		if parentID == "" {
			rootCount++
		}
		if d := depthOf(f, id); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth, rootCount
}
