// api/model/node.go
package model

import (
	"time"
)

// NodeType enumerates the kinds of timeline entries a user can record.
type NodeType string

const (
	NodeTypeJob              NodeType = "job"
	NodeTypeEducation        NodeType = "education"
	NodeTypeProject          NodeType = "project"
	NodeTypeEvent            NodeType = "event"
	NodeTypeAction           NodeType = "action"
	NodeTypeCareerTransition NodeType = "careerTransition"
)

// AllNodeTypes lists every valid node type, in display order.
var AllNodeTypes = []NodeType{
	NodeTypeJob,
	NodeTypeEducation,
	NodeTypeProject,
	NodeTypeEvent,
	NodeTypeAction,
	NodeTypeCareerTransition,
}

func (t NodeType) Valid() bool {
	for _, known := range AllNodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TimelineNode is a single entry in a user's career timeline. The parent
// pointer graph restricted to one owner's nodes must remain a forest.
type TimelineNode struct {
	ID        string                 `json:"id"`
	Type      NodeType               `json:"type"`
	Label     string                 `json:"label"`
	ParentID  string                 `json:"parent_id,omitempty"`
	OwnerID   string                 `json:"owner_id"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TreeNode is a TimelineNode with its children nested, used by the full-tree
// read API.
type TreeNode struct {
	TimelineNode
	Children []*TreeNode `json:"children"`
}

// HierarchyStats is the read-only aggregate over one owner's forest.
type HierarchyStats struct {
	TotalNodes  int              `json:"total_nodes"`
	NodesByType map[NodeType]int `json:"nodes_by_type"`
	MaxDepth    int              `json:"max_depth"`
	RootNodes   int              `json:"root_nodes"`
}

// CreateNodeRequest is the payload for POST /nodes.
type CreateNodeRequest struct {
	Type     NodeType               `json:"type"`
	Label    string                 `json:"label"`
	ParentID string                 `json:"parent_id,omitempty"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

// UpdateNodeRequest is the payload for PATCH /nodes/:id. Only label and meta
// are patchable; parent changes go through the move operation.
type UpdateNodeRequest struct {
	Label *string                `json:"label,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// MoveNodeRequest reparents a node. An empty NewParentID makes it a root.
type MoveNodeRequest struct {
	NewParentID string `json:"new_parent_id"`
}
