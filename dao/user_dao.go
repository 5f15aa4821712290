// api/dao/user_dao.go
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

type UserDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewUserDAO(driver neo4j.Driver, auditService audit.Service) *UserDAO {
	dao := &UserDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for User", zap.Error(err))
	}
	return dao
}

func (dao *UserDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on User ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_user_id IF NOT EXISTS
        FOR (u:` + lattice_neo4j.LabelUser + `) REQUIRE u.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on User ID", zap.Error(err))
		return err
	}
	return nil
}

// CreateUser registers a user profile. Owner nodes may already exist as bare
// id-only stubs from MERGE, so creation is itself a MERGE that fills in the
// profile fields.
func (dao *UserDAO) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (u:` + lattice_neo4j.LabelUser + ` {id: $id})
        ON CREATE SET u.createdAt = $createdAt
        SET u.name = $name,
            u.email = $email,
            u.externalId = $externalId,
            u.updatedAt = $updatedAt
        RETURN u.id AS id
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"externalId": user.ExternalID,
			"createdAt":  formatTime(user.CreatedAt),
			"updatedAt":  formatTime(user.UpdatedAt),
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
		logger.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return nil, err
	}

	logger.Info("User created successfully", zap.String("userID", user.ID))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        user.ID,
		Action:        audit.ActionCreateUser,
		AccessGranted: true,
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return &user, nil
}

func (dao *UserDAO) GetUser(ctx context.Context, userID string) (*model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + lattice_neo4j.LabelUser + ` {id: $id})
        RETURN u
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": userID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			rawUser, _ := res.Record().Get("u")
			props := rawUser.(neo4j.Node).Props
			user := model.User{
				ID:         stringProp(props, "id"),
				Name:       stringProp(props, "name"),
				Email:      stringProp(props, "email"),
				ExternalID: stringProp(props, "externalId"),
				CreatedAt:  parseTime(props["createdAt"]),
				UpdatedAt:  parseTime(props["updatedAt"]),
			}
			return &user, nil
		}
		return nil, lattice_errors.ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.User), nil
}
