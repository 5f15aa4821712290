// api/dao/policy_dao.go
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

type PolicyDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewPolicyDAO(driver neo4j.Driver, auditService audit.Service) *PolicyDAO {
	dao := &PolicyDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for NodePolicy", zap.Error(err))
	}
	return dao
}

func (dao *PolicyDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on NodePolicy ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_node_policy_id IF NOT EXISTS
        FOR (p:` + lattice_neo4j.LabelNodePolicy + `) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on NodePolicy ID", zap.Error(err))
		return err
	}
	return nil
}

// UpsertPolicies writes a batch of policies in one transaction. A policy is
// identified by its (node, level, action, subject) tuple; re-sharing the same
// tuple refreshes effect, grantor and expiry instead of duplicating it.
// The batch is atomic, either every policy lands or none do.
func (dao *PolicyDAO) UpsertPolicies(ctx context.Context, policies []model.NodePolicy, grantedBy string) error {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $nodeId})
        MERGE (n)-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + ` {
            nodeId: $nodeId,
            level: $level,
            action: $action,
            subjectType: $subjectType,
            subjectId: $subjectId
        })
        ON CREATE SET p.id = $id, p.createdAt = $createdAt
        SET p.effect = $effect,
            p.grantedBy = $grantedBy,
            p.expiresAt = $expiresAt
        RETURN p.id AS id
        `
		for _, policy := range policies {
			params := map[string]interface{}{
				"nodeId":      policy.NodeID,
				"level":       string(policy.Level),
				"action":      string(policy.Action),
				"subjectType": string(policy.SubjectType),
				"subjectId":   policy.SubjectID,
				"id":          uuid.New().String(),
				"createdAt":   formatTime(time.Now()),
				"effect":      string(policy.Effect),
				"grantedBy":   grantedBy,
				"expiresAt":   formatNullableTime(policy.ExpiresAt),
			}
			res, err := transaction.Run(query, params)
			if err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
			if !res.Next() {
				return nil, lattice_errors.ErrNodeNotFound
			}
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to upsert policies",
			zap.Error(err),
			zap.Int("count", len(policies)),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policies upserted successfully",
		zap.Int("count", len(policies)),
		zap.String("grantedBy", grantedBy),
		zap.Duration("duration", duration))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        grantedBy,
		Action:        audit.ActionShareGrant,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(nil, policies),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// PoliciesForNode returns every policy attached to a node, expired ones
// included. Filtering by expiry is the resolver's job.
func (dao *PolicyDAO) PoliciesForNode(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (:` + lattice_neo4j.LabelTimelineNode + ` {id: $nodeId})-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + `)
        RETURN p
        ORDER BY p.createdAt
        `
		res, err := transaction.Run(query, map[string]interface{}{"nodeId": nodeID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		var policies []model.NodePolicy
		for res.Next() {
			rawPolicy, ok := res.Record().Get("p")
			if !ok {
				continue
			}
			policies = append(policies, mapNodeToPolicy(rawPolicy.(neo4j.Node)))
		}
		return policies, nil
	})
	if err != nil {
		logger.Error("Failed to fetch policies for node", zap.Error(err), zap.String("nodeID", nodeID))
		return nil, err
	}
	return result.([]model.NodePolicy), nil
}

// PoliciesForNodes fetches policies for a batch of nodes in one round trip,
// keyed by node id.
func (dao *PolicyDAO) PoliciesForNodes(ctx context.Context, nodeIDs []string) (map[string][]model.NodePolicy, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + `)-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + `)
        WHERE n.id IN $nodeIds
        RETURN n.id AS nodeId, p
        ORDER BY p.createdAt
        `
		res, err := transaction.Run(query, map[string]interface{}{"nodeIds": nodeIDs})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		grouped := make(map[string][]model.NodePolicy)
		for res.Next() {
			record := res.Record()
			rawNodeID, _ := record.Get("nodeId")
			rawPolicy, ok := record.Get("p")
			if !ok {
				continue
			}
			nodeID := rawNodeID.(string)
			grouped[nodeID] = append(grouped[nodeID], mapNodeToPolicy(rawPolicy.(neo4j.Node)))
		}
		return grouped, nil
	})
	if err != nil {
		logger.Error("Failed to fetch policies for nodes", zap.Error(err), zap.Int("count", len(nodeIDs)))
		return nil, err
	}
	return result.(map[string][]model.NodePolicy), nil
}

// NodeIDsWithPoliciesFor returns ids of nodes carrying at least one live
// ALLOW policy matching the given subject set. This is the candidate scan
// behind "list what is shared with me"; the resolver still makes the final
// call per node.
func (dao *PolicyDAO) NodeIDsWithPoliciesFor(ctx context.Context, subjects []model.SubjectRef) ([]string, error) {
	var userID string
	var orgIDs []string
	for _, subject := range subjects {
		switch subject.Type {
		case model.SubjectUser:
			userID = subject.ID
		case model.SubjectOrg:
			orgIDs = append(orgIDs, subject.ID)
		}
	}
	if orgIDs == nil {
		orgIDs = []string{}
	}

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + lattice_neo4j.LabelNodePolicy + `)
        WHERE p.effect = 'ALLOW'
          AND (p.expiresAt IS NULL OR p.expiresAt > $now)
          AND (
            p.subjectType = 'public'
            OR (p.subjectType = 'user' AND p.subjectId = $userId)
            OR (p.subjectType = 'org' AND p.subjectId IN $orgIds)
          )
        RETURN DISTINCT p.nodeId AS nodeId
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"now":    formatTime(time.Now()),
			"userId": userID,
			"orgIds": orgIDs,
		})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		var nodeIDs []string
		for res.Next() {
			rawID, _ := res.Record().Get("nodeId")
			if id, ok := rawID.(string); ok {
				nodeIDs = append(nodeIDs, id)
			}
		}
		return nodeIDs, nil
	})
	if err != nil {
		logger.Error("Failed to scan policy candidates", zap.Error(err), zap.String("userID", userID))
		return nil, err
	}
	return result.([]string), nil
}

type grantWriteResult struct {
	count   int
	nodeIDs []string
}

// UpdateGrantLevel rewrites the visibility level and expiry of every ALLOW
// policy the owner has granted to a subject across their nodes. It returns
// the number of rewritten policies and the ids of the nodes they sit on, so
// callers can invalidate per-node caches.
func (dao *PolicyDAO) UpdateGrantLevel(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string, level model.VisibilityLevel, expiresAt *time.Time) (int, []string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + `)-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        MATCH (n)-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + `)
        WHERE p.effect = 'ALLOW'
          AND p.subjectType = $subjectType
          AND p.subjectId = $subjectId
        SET p.level = $level, p.expiresAt = $expiresAt
        RETURN count(p) AS updated, collect(DISTINCT n.id) AS nodeIds
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"ownerId":     ownerID,
			"subjectType": string(subjectType),
			"subjectId":   subjectID,
			"level":       string(level),
			"expiresAt":   formatNullableTime(expiresAt),
		})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			updated, _ := record.Get("updated")
			if count, ok := updated.(int64); ok && count > 0 {
				rawIDs, _ := record.Get("nodeIds")
				return grantWriteResult{count: int(count), nodeIDs: toStringSlice(rawIDs)}, nil
			}
		}
		return nil, lattice_errors.ErrPolicyNotFound
	})
	if err != nil {
		logger.Error("Failed to update grant level",
			zap.Error(err),
			zap.String("ownerID", ownerID),
			zap.String("subjectID", subjectID))
		return 0, nil, err
	}

	write := result.(grantWriteResult)
	updated := write.count
	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        ownerID,
		Action:        audit.ActionShareUpdate,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(nil, map[string]interface{}{
			"subject_type": subjectType,
			"subject_id":   subjectID,
			"level":        level,
			"updated":      updated,
		}),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return updated, write.nodeIDs, nil
}

// RemoveGrant deletes every policy the owner has granted to a subject and
// returns the removed count plus the ids of the nodes the policies sat on.
func (dao *PolicyDAO) RemoveGrant(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string) (int, []string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + `)-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        MATCH (n)-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + `)
        WHERE p.subjectType = $subjectType AND p.subjectId = $subjectId
        WITH p, n.id AS nodeId
        DETACH DELETE p
        RETURN count(p) AS removed, collect(DISTINCT nodeId) AS nodeIds
        `
		res, err := transaction.Run(query, map[string]interface{}{
			"ownerId":     ownerID,
			"subjectType": string(subjectType),
			"subjectId":   subjectID,
		})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			removed, _ := record.Get("removed")
			if count, ok := removed.(int64); ok && count > 0 {
				rawIDs, _ := record.Get("nodeIds")
				return grantWriteResult{count: int(count), nodeIDs: toStringSlice(rawIDs)}, nil
			}
		}
		return nil, lattice_errors.ErrPolicyNotFound
	})
	if err != nil {
		logger.Error("Failed to remove grant",
			zap.Error(err),
			zap.String("ownerID", ownerID),
			zap.String("subjectID", subjectID))
		return 0, nil, err
	}

	write := result.(grantWriteResult)
	removed := write.count
	logger.Info("Grant removed",
		zap.String("ownerID", ownerID),
		zap.String("subjectID", subjectID),
		zap.Int("removed", removed))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        ownerID,
		Action:        audit.ActionShareRevoke,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(map[string]interface{}{
			"subject_type": subjectType,
			"subject_id":   subjectID,
			"removed":      removed,
		}, nil),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return removed, write.nodeIDs, nil
}
