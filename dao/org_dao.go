// api/dao/org_dao.go
package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/audit"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	lattice_neo4j "github.com/latticehq/lattice/api/model/neo4j"
)

type OrgDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewOrgDAO(driver neo4j.Driver, auditService audit.Service) *OrgDAO {
	dao := &OrgDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Organization", zap.Error(err))
	}
	return dao
}

func (dao *OrgDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Organization ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_organization_id IF NOT EXISTS
        FOR (o:` + lattice_neo4j.LabelOrganization + `) REQUIRE o.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Organization ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *OrgDAO) CreateOrganization(ctx context.Context, org model.Organization) (*model.Organization, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE (o:` + lattice_neo4j.LabelOrganization + ` $props)
        RETURN o.id AS id
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"props": map[string]interface{}{
				"id":        org.ID,
				"name":      org.Name,
				"orgType":   string(org.Type),
				"createdAt": formatTime(org.CreatedAt),
				"updatedAt": formatTime(org.UpdatedAt),
			},
		})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if !res.Next() {
			return nil, lattice_errors.ErrInternalServer
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to create organization", zap.Error(err), zap.String("name", org.Name))
		return nil, err
	}

	logger.Info("Organization created successfully", zap.String("orgID", org.ID))
	return &org, nil
}

func (dao *OrgDAO) GetOrganization(ctx context.Context, orgID string) (*model.Organization, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (o:` + lattice_neo4j.LabelOrganization + ` {id: $id})
        RETURN o
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": orgID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			rawOrg, _ := res.Record().Get("o")
			org := mapNodeToOrganization(rawOrg.(neo4j.Node))
			return &org, nil
		}
		return nil, lattice_errors.ErrOrgNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Organization), nil
}

// AddMember links a user to an organization. Re-adding an existing member
// updates the role in place.
func (dao *OrgDAO) AddMember(ctx context.Context, orgID, userID string, role model.MemberRole) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (o:` + lattice_neo4j.LabelOrganization + ` {id: $orgId})
        MERGE (u:` + lattice_neo4j.LabelUser + ` {id: $userId})
        MERGE (u)-[m:` + lattice_neo4j.RelMemberOf + `]->(o)
        ON CREATE SET m.joinedAt = $joinedAt
        SET m.role = $role
        RETURN o.id
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"orgId":    orgID,
			"userId":   userID,
			"role":     string(role),
			"joinedAt": formatTime(time.Now()),
		})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if !res.Next() {
			return nil, lattice_errors.ErrOrgNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to add member",
			zap.Error(err),
			zap.String("orgID", orgID),
			zap.String("userID", userID))
		return err
	}

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        userID,
		Action:        audit.ActionAddMember,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(nil, map[string]interface{}{"org_id": orgID, "role": role}),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *OrgDAO) RemoveMember(ctx context.Context, orgID, userID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:` + lattice_neo4j.LabelUser + ` {id: $userId})-[m:` + lattice_neo4j.RelMemberOf + `]->(:` + lattice_neo4j.LabelOrganization + ` {id: $orgId})
        DELETE m
        RETURN count(m) AS removed
        `
		res, err := transaction.Run(query, map[string]interface{}{"orgId": orgID, "userId": userID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			removed, _ := res.Record().Get("removed")
			if count, ok := removed.(int64); ok && count > 0 {
				return nil, nil
			}
		}
		return nil, lattice_errors.ErrOrgNotFound
	})
	if err != nil {
		logger.Error("Failed to remove member",
			zap.Error(err),
			zap.String("orgID", orgID),
			zap.String("userID", userID))
		return err
	}

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        userID,
		Action:        audit.ActionRemoveMember,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(map[string]interface{}{"org_id": orgID}, nil),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// OrgIDsForUser lists the organizations a user belongs to; the permission
// resolver expands user subjects through this.
func (dao *OrgDAO) OrgIDsForUser(ctx context.Context, userID string) ([]string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:` + lattice_neo4j.LabelUser + ` {id: $userId})-[:` + lattice_neo4j.RelMemberOf + `]->(o:` + lattice_neo4j.LabelOrganization + `)
        RETURN o.id AS orgId
        `
		res, err := transaction.Run(query, map[string]interface{}{"userId": userID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		var orgIDs []string
		for res.Next() {
			rawID, _ := res.Record().Get("orgId")
			if id, ok := rawID.(string); ok {
				orgIDs = append(orgIDs, id)
			}
		}
		return orgIDs, nil
	})
	if err != nil {
		logger.Error("Failed to fetch org memberships", zap.Error(err), zap.String("userID", userID))
		return nil, err
	}
	return result.([]string), nil
}

func (dao *OrgDAO) GetMembers(ctx context.Context, orgID string) ([]model.OrgMembership, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + lattice_neo4j.LabelUser + `)-[m:` + lattice_neo4j.RelMemberOf + `]->(o:` + lattice_neo4j.LabelOrganization + ` {id: $orgId})
        RETURN u.id AS userId, m.role AS role, m.joinedAt AS joinedAt
        ORDER BY m.joinedAt
        `
		res, err := transaction.Run(query, map[string]interface{}{"orgId": orgID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		var members []model.OrgMembership
		for res.Next() {
			record := res.Record()
			rawUserID, _ := record.Get("userId")
			rawRole, _ := record.Get("role")
			rawJoinedAt, _ := record.Get("joinedAt")
			role, _ := rawRole.(string)
			members = append(members, model.OrgMembership{
				OrgID:    orgID,
				UserID:   rawUserID.(string),
				Role:     model.MemberRole(role),
				JoinedAt: parseTime(rawJoinedAt),
			})
		}
		return members, nil
	})
	if err != nil {
		logger.Error("Failed to fetch org members", zap.Error(err), zap.String("orgID", orgID))
		return nil, err
	}
	return result.([]model.OrgMembership), nil
}

func mapNodeToOrganization(node neo4j.Node) model.Organization {
	props := node.Props
	return model.Organization{
		ID:        stringProp(props, "id"),
		Name:      stringProp(props, "name"),
		Type:      model.OrgType(stringProp(props, "orgType")),
		CreatedAt: parseTime(props["createdAt"]),
		UpdatedAt: parseTime(props["updatedAt"]),
	}
}
