package model

import "time"

// OrgType classifies an organization.
type OrgType string

const (
	OrgTypeCompany     OrgType = "company"
	OrgTypeEducational OrgType = "educational_institution"
	OrgTypeNonprofit   OrgType = "nonprofit"
	OrgTypeOther       OrgType = "other"
)

func (t OrgType) Valid() bool {
	switch t {
	case OrgTypeCompany, OrgTypeEducational, OrgTypeNonprofit, OrgTypeOther:
		return true
	}
	return false
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      OrgType   `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberRole is the user's standing inside an organization. Membership is a
// pure relation; it carries no ownership.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
	RoleAlumni MemberRole = "alumni"
)

func (r MemberRole) Valid() bool {
	return r == RoleMember || r == RoleAdmin || r == RoleAlumni
}

type OrgMembership struct {
	OrgID    string     `json:"org_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}
