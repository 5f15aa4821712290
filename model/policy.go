// api/model/policy.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// VisibilityLevel is the depth of detail a grant exposes. Full implies
// overview; "none" only appears as a resolved effective level.
type VisibilityLevel string

const (
	LevelNone     VisibilityLevel = "none"
	LevelOverview VisibilityLevel = "overview"
	LevelFull     VisibilityLevel = "full"
)

func (l VisibilityLevel) Valid() bool {
	return l == LevelOverview || l == LevelFull
}

// Satisfies reports whether a grant at level l covers a request at level
// requested. A full grant covers an overview request, not the converse.
func (l VisibilityLevel) Satisfies(requested VisibilityLevel) bool {
	if l == requested {
		return true
	}
	return l == LevelFull && requested == LevelOverview
}

// AccessAction is the operation a policy governs.
type AccessAction string

const (
	ActionView AccessAction = "view"
	ActionEdit AccessAction = "edit"
)

func (a AccessAction) Valid() bool {
	return a == ActionView || a == ActionEdit
}

// SubjectType scopes a policy to an individual user, every member of an
// organization, or the unauthenticated public.
type SubjectType string

const (
	SubjectUser   SubjectType = "user"
	SubjectOrg    SubjectType = "org"
	SubjectPublic SubjectType = "public"
)

func (s SubjectType) Valid() bool {
	return s == SubjectUser || s == SubjectOrg || s == SubjectPublic
}

// PolicyEffect is ALLOW or DENY. DENY overrides ALLOW at the same
// (action, level) coordinate.
type PolicyEffect string

const (
	EffectAllow PolicyEffect = "ALLOW"
	EffectDeny  PolicyEffect = "DENY"
)

// NodePolicy is a stored grant or denial of access to a single node.
// Uniqueness holds on (NodeID, Level, Action, SubjectType, SubjectID);
// SubjectID is empty iff SubjectType is public.
type NodePolicy struct {
	ID          string          `json:"id"`
	NodeID      string          `json:"node_id"`
	Level       VisibilityLevel `json:"level"`
	Action      AccessAction    `json:"action"`
	SubjectType SubjectType     `json:"subject_type"`
	SubjectID   string          `json:"subject_id,omitempty"`
	Effect      PolicyEffect    `json:"effect"`
	GrantedBy   string          `json:"granted_by"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// Active reports whether the policy is in force at the given instant. An
// expired policy is inert, not deleted.
func (p NodePolicy) Active(now time.Time) bool {
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// SubjectKey identifies the party a grant applies to: "user:<id>",
// "org:<id>" or "public".
func (p NodePolicy) SubjectKey() SubjectKey {
	return NewSubjectKey(p.SubjectType, p.SubjectID)
}

type SubjectKey string

func NewSubjectKey(t SubjectType, id string) SubjectKey {
	if t == SubjectPublic {
		return SubjectKey(string(SubjectPublic))
	}
	return SubjectKey(fmt.Sprintf("%s:%s", t, id))
}

// Parse splits a subject key back into its type and id.
func (k SubjectKey) Parse() (SubjectType, string, error) {
	if k == SubjectKey(SubjectPublic) {
		return SubjectPublic, "", nil
	}
	parts := strings.SplitN(string(k), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("malformed subject key %q", k)
	}
	t := SubjectType(parts[0])
	if t != SubjectUser && t != SubjectOrg {
		return "", "", fmt.Errorf("malformed subject key %q", k)
	}
	return t, parts[1], nil
}

// SubjectRef is a (type, id) pair used when querying policies for the set of
// subjects a caller embodies.
type SubjectRef struct {
	Type SubjectType `json:"type"`
	ID   string      `json:"id,omitempty"`
}

// ShareTarget is one recipient of an in-progress share configuration.
type ShareTarget struct {
	SubjectType SubjectType     `json:"subject_type"`
	SubjectID   string          `json:"subject_id,omitempty"`
	Level       VisibilityLevel `json:"level"`
	CanEdit     bool            `json:"can_edit,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// ShareRequest is the payload for POST /shares: the cross product of targets
// and nodes becomes ALLOW policies, atomically.
type ShareRequest struct {
	Targets []ShareTarget `json:"targets"`
	NodeIDs []string      `json:"node_ids"`
}

// UpdatePermissionRequest mutates the grant identified by a subject key.
type UpdatePermissionRequest struct {
	Level     VisibilityLevel `json:"level"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// SharedNodeRef names a node covered by a grant, for display.
type SharedNodeRef struct {
	NodeID string   `json:"node_id"`
	Label  string   `json:"label"`
	Type   NodeType `json:"type"`
}

// SubjectPermission is the current state of one subject's access across the
// selected nodes.
type SubjectPermission struct {
	SubjectType SubjectType     `json:"subject_type"`
	SubjectID   string          `json:"subject_id,omitempty"`
	Level       VisibilityLevel `json:"level"`
	CanEdit     bool            `json:"can_edit"`
	Nodes       []SharedNodeRef `json:"nodes"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// CurrentPermissions groups existing grants by subject for the share dialog.
type CurrentPermissions struct {
	Users         []SubjectPermission `json:"users"`
	Organizations []SubjectPermission `json:"organizations"`
	Public        *SubjectPermission  `json:"public,omitempty"`
}

// AccessibleNode is one row of the bulk "what can this user see" listing.
type AccessibleNode struct {
	NodeID  string          `json:"node_id"`
	Level   VisibilityLevel `json:"level"`
	CanEdit bool            `json:"can_edit"`
}
