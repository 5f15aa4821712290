// api/util/validation_util.go

package util

import (
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/schema"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateCreateNode(req model.CreateNodeRequest) error {
	if !req.Type.Valid() {
		return lattice_errors.ErrInvalidNodeType
	}
	if req.Label == "" {
		return lattice_errors.NewValidationError("label", "label cannot be empty")
	}
	return schema.ValidateMeta(req.Type, req.Meta)
}

func (v *ValidationUtil) ValidateUpdateNode(nodeType model.NodeType, req model.UpdateNodeRequest) error {
	if req.Label == nil && req.Meta == nil {
		return lattice_errors.NewValidationError("", "nothing to update")
	}
	if req.Label != nil && *req.Label == "" {
		return lattice_errors.NewValidationError("label", "label cannot be empty")
	}
	if req.Meta != nil {
		return schema.ValidateMeta(nodeType, req.Meta)
	}
	return nil
}

// ValidateShareRequest checks the whole share payload before any policy is
// written, since the batch is all-or-nothing.
func (v *ValidationUtil) ValidateShareRequest(req model.ShareRequest) error {
	if len(req.Targets) == 0 {
		return lattice_errors.NewValidationError("targets", "share request must have at least one target")
	}
	if len(req.NodeIDs) == 0 {
		return lattice_errors.NewValidationError("node_ids", "share request must name at least one node")
	}
	for _, target := range req.Targets {
		if !target.SubjectType.Valid() {
			return lattice_errors.NewValidationError("subject_type", "subject type must be user, org or public")
		}
		if target.SubjectType == model.SubjectPublic && target.SubjectID != "" {
			return lattice_errors.NewValidationError("subject_id", "public targets cannot carry a subject id")
		}
		if target.SubjectType != model.SubjectPublic && target.SubjectID == "" {
			return lattice_errors.NewValidationError("subject_id", "subject id is required for user and org targets")
		}
		if !target.Level.Valid() {
			return lattice_errors.NewValidationError("level", "level must be overview or full")
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateUpdatePermission(req model.UpdatePermissionRequest) error {
	if !req.Level.Valid() {
		return lattice_errors.NewValidationError("level", "level must be overview or full")
	}
	return nil
}

func (v *ValidationUtil) ValidateOrganization(organization model.Organization) error {
	if organization.Name == "" {
		return lattice_errors.NewValidationError("name", "organization name cannot be empty")
	}
	if !organization.Type.Valid() {
		return lattice_errors.NewValidationError("type", "unknown organization type")
	}
	return nil
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if user.Name == "" {
		return lattice_errors.NewValidationError("name", "user name cannot be empty")
	}
	if user.Email == "" {
		return lattice_errors.NewValidationError("email", "user email cannot be empty")
	}
	return nil
}
