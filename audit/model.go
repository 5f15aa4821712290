// api/audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	NodeID        string          `json:"node_id,omitempty"`
	PolicyID      string          `json:"policy_id,omitempty"`
	AccessGranted bool            `json:"access_granted"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}

// Audit actions recorded by the DAOs and the access service.
const (
	ActionCreateNode   = "CREATE_NODE"
	ActionUpdateNode   = "UPDATE_NODE"
	ActionMoveNode     = "MOVE_NODE"
	ActionDeleteNode   = "DELETE_NODE"
	ActionShareGrant   = "SHARE_GRANT"
	ActionShareUpdate  = "SHARE_UPDATE"
	ActionShareRevoke  = "SHARE_REVOKE"
	ActionAccessDenied = "ACCESS_DENIED"
	ActionCreateOrg    = "CREATE_ORGANIZATION"
	ActionAddMember    = "ADD_MEMBER"
	ActionRemoveMember = "REMOVE_MEMBER"
	ActionCreateUser   = "CREATE_USER"
)
