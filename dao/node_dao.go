// api/dao/node_dao.go
package dao

import (
	"context"
	"encoding/json"
	"fmt"
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

type NodeDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewNodeDAO(driver neo4j.Driver, auditService audit.Service) *NodeDAO {
	dao := &NodeDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for TimelineNode", zap.Error(err))
	}
	return dao
}

func (dao *NodeDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on TimelineNode ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_timeline_node_id IF NOT EXISTS
        FOR (n:` + lattice_neo4j.LabelTimelineNode + `) REQUIRE n.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on TimelineNode ID", zap.Error(err))
		return err
	}
	return nil
}

// CreateNode persists a timeline node for its owner. When a parent is given
// it must already belong to the same owner; a missing or foreign parent
// surfaces as ErrNodeNotFound so existence is never leaked.
func (dao *NodeDAO) CreateNode(ctx context.Context, node model.TimelineNode) (*model.TimelineNode, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now

	metaJSON, _ := json.Marshal(node.Meta)

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		if node.ParentID != "" {
			checkQuery := `
            MATCH (p:` + lattice_neo4j.LabelTimelineNode + ` {id: $parentId})-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
            RETURN p.id
            `
			checkResult, err := transaction.Run(checkQuery, map[string]interface{}{
				"parentId": node.ParentID,
				"ownerId":  node.OwnerID,
			})
			if err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
			if !checkResult.Next() {
				return nil, lattice_errors.ErrNodeNotFound
			}
		}

		createQuery := `
        MERGE (u:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        CREATE (n:` + lattice_neo4j.LabelTimelineNode + ` $props)
        CREATE (n)-[:` + lattice_neo4j.RelOwnedBy + `]->(u)
        WITH n
        RETURN n.id AS id
        `
		params := map[string]interface{}{
			"ownerId": node.OwnerID,
			"props": map[string]interface{}{
				"id":        node.ID,
				"nodeType":  string(node.Type),
				"label":     node.Label,
				"ownerId":   node.OwnerID,
				"meta":      string(metaJSON),
				"createdAt": formatTime(node.CreatedAt),
				"updatedAt": formatTime(node.UpdatedAt),
			},
		}
		result, err := transaction.Run(createQuery, params)
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, lattice_errors.ErrInternalServer
		}

		if node.ParentID != "" {
			edgeQuery := `
            MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
            MATCH (p:` + lattice_neo4j.LabelTimelineNode + ` {id: $parentId})
            CREATE (n)-[:` + lattice_neo4j.RelChildOf + `]->(p)
            `
			if _, err := transaction.Run(edgeQuery, map[string]interface{}{
				"id":       node.ID,
				"parentId": node.ParentID,
			}); err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create node",
			zap.Error(err),
			zap.String("label", node.Label),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Node created successfully",
		zap.String("nodeID", node.ID),
		zap.String("ownerID", node.OwnerID),
		zap.Duration("duration", duration))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        node.OwnerID,
		Action:        audit.ActionCreateNode,
		NodeID:        node.ID,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(nil, node),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return &node, nil
}

// GetNodeByID fetches a node scoped to its owner. Cross-owner lookups
// behave as not found.
func (dao *NodeDAO) GetNodeByID(ctx context.Context, id, ownerID string) (*model.TimelineNode, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        OPTIONAL MATCH (n)-[:` + lattice_neo4j.RelChildOf + `]->(p:` + lattice_neo4j.LabelTimelineNode + `)
        RETURN n, p.id AS parentId
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": id, "ownerId": ownerID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			rawNode, _ := record.Get("n")
			node := mapNodeToTimelineNode(rawNode.(neo4j.Node), parentIDFromRecord(record, "parentId"))
			return &node, nil
		}
		return nil, lattice_errors.ErrNodeNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.TimelineNode), nil
}

// GetNodeOwner resolves a node's owner without owner scoping; used by the
// permission resolver only.
func (dao *NodeDAO) GetNodeOwner(ctx context.Context, nodeID string) (string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})-[:` + lattice_neo4j.RelOwnedBy + `]->(u:` + lattice_neo4j.LabelUser + `)
        RETURN u.id AS ownerId
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": nodeID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			ownerID, _ := res.Record().Get("ownerId")
			return ownerID, nil
		}
		return nil, lattice_errors.ErrNodeNotFound
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", result), nil
}

// GetNodeAnyOwner fetches a node without owner scoping; callers must have
// resolved access first.
func (dao *NodeDAO) GetNodeAnyOwner(ctx context.Context, nodeID string) (*model.TimelineNode, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
        OPTIONAL MATCH (n)-[:` + lattice_neo4j.RelChildOf + `]->(p:` + lattice_neo4j.LabelTimelineNode + `)
        RETURN n, p.id AS parentId
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": nodeID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			rawNode, _ := record.Get("n")
			node := mapNodeToTimelineNode(rawNode.(neo4j.Node), parentIDFromRecord(record, "parentId"))
			return &node, nil
		}
		return nil, lattice_errors.ErrNodeNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.TimelineNode), nil
}

// UpdateNode patches label and meta. Parent changes go through MoveNode.
func (dao *NodeDAO) UpdateNode(ctx context.Context, id, ownerID string, label *string, meta map[string]interface{}) (*model.TimelineNode, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldNode, err := dao.GetNodeByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	setClauses := "n.updatedAt = $updatedAt"
	params := map[string]interface{}{
		"id":        id,
		"ownerId":   ownerID,
		"updatedAt": formatTime(time.Now()),
	}
	if label != nil {
		setClauses += ", n.label = $label"
		params["label"] = *label
	}
	if meta != nil {
		metaJSON, _ := json.Marshal(meta)
		setClauses += ", n.meta = $meta"
		params["meta"] = string(metaJSON)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        SET ` + setClauses + `
        WITH n
        OPTIONAL MATCH (n)-[:` + lattice_neo4j.RelChildOf + `]->(p:` + lattice_neo4j.LabelTimelineNode + `)
        RETURN n, p.id AS parentId
        `
		res, err := transaction.Run(query, params)
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			rawNode, _ := record.Get("n")
			node := mapNodeToTimelineNode(rawNode.(neo4j.Node), parentIDFromRecord(record, "parentId"))
			return &node, nil
		}
		return nil, lattice_errors.ErrNodeNotFound
	})
	if err != nil {
		logger.Error("Failed to update node", zap.Error(err), zap.String("nodeID", id))
		return nil, err
	}

	updated := result.(*model.TimelineNode)

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        ownerID,
		Action:        audit.ActionUpdateNode,
		NodeID:        id,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(oldNode, updated),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return updated, nil
}

// DeleteNode removes the node and its whole subtree, together with every
// policy stored on any deleted node, in one write transaction.
func (dao *NodeDAO) DeleteNode(ctx context.Context, id, ownerID string) (int, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        MATCH (d:` + lattice_neo4j.LabelTimelineNode + `)-[:` + lattice_neo4j.RelChildOf + `*0..]->(n)
        WITH collect(DISTINCT d) AS doomed
        UNWIND doomed AS d
        OPTIONAL MATCH (d)-[:` + lattice_neo4j.RelHasPolicy + `]->(p:` + lattice_neo4j.LabelNodePolicy + `)
        DETACH DELETE d, p
        RETURN size(doomed) AS deleted
        `
		res, err := transaction.Run(query, map[string]interface{}{"id": id, "ownerId": ownerID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			deleted, _ := res.Record().Get("deleted")
			if count, ok := deleted.(int64); ok && count > 0 {
				return count, nil
			}
		}
		return nil, lattice_errors.ErrNodeNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete node",
			zap.Error(err),
			zap.String("nodeID", id),
			zap.Duration("duration", duration))
		return 0, err
	}

	deleted := int(result.(int64))
	logger.Info("Node deleted successfully",
		zap.String("nodeID", id),
		zap.Int("deletedCount", deleted),
		zap.Duration("duration", duration))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        ownerID,
		Action:        audit.ActionDeleteNode,
		NodeID:        id,
		AccessGranted: true,
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return deleted, nil
}

// MoveNode reparents a node. The ancestor chain is re-checked inside the
// write transaction, so a concurrent move cannot slip a cycle past the
// service-level validation.
func (dao *NodeDAO) MoveNode(ctx context.Context, id, newParentID, ownerID string) (*model.TimelineNode, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		checkQuery := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})-[:` + lattice_neo4j.RelOwnedBy + `]->(:` + lattice_neo4j.LabelUser + ` {id: $ownerId})
        RETURN n.id
        `
		checkResult, err := transaction.Run(checkQuery, map[string]interface{}{"id": id, "ownerId": ownerID})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if !checkResult.Next() {
			return nil, lattice_errors.ErrNodeNotFound
		}

		if newParentID != "" {
			parentResult, err := transaction.Run(checkQuery, map[string]interface{}{"id": newParentID, "ownerId": ownerID})
			if err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
			if !parentResult.Next() {
				return nil, lattice_errors.ErrNodeNotFound
			}

			cycleQuery := `
            MATCH (p:` + lattice_neo4j.LabelTimelineNode + ` {id: $parentId})-[:` + lattice_neo4j.RelChildOf + `*0..]->(a:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
            RETURN a.id LIMIT 1
            `
			cycleResult, err := transaction.Run(cycleQuery, map[string]interface{}{"parentId": newParentID, "id": id})
			if err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
			if cycleResult.Next() {
				return nil, lattice_errors.NewCycleError(id)
			}
		}

		detachQuery := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
        OPTIONAL MATCH (n)-[r:` + lattice_neo4j.RelChildOf + `]->()
        DELETE r
        SET n.updatedAt = $updatedAt
        `
		if _, err := transaction.Run(detachQuery, map[string]interface{}{
			"id":        id,
			"updatedAt": formatTime(time.Now()),
		}); err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}

		if newParentID != "" {
			attachQuery := `
            MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
            MATCH (p:` + lattice_neo4j.LabelTimelineNode + ` {id: $parentId})
            CREATE (n)-[:` + lattice_neo4j.RelChildOf + `]->(p)
            `
			if _, err := transaction.Run(attachQuery, map[string]interface{}{"id": id, "parentId": newParentID}); err != nil {
				return nil, lattice_errors.ErrDatabaseOperation
			}
		}

		readQuery := `
        MATCH (n:` + lattice_neo4j.LabelTimelineNode + ` {id: $id})
        OPTIONAL MATCH (n)-[:` + lattice_neo4j.RelChildOf + `]->(p:` + lattice_neo4j.LabelTimelineNode + `)
        RETURN n, p.id AS parentId
        `
		res, err := transaction.Run(readQuery, map[string]interface{}{"id": id})
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		if res.Next() {
			record := res.Record()
			rawNode, _ := record.Get("n")
			node := mapNodeToTimelineNode(rawNode.(neo4j.Node), parentIDFromRecord(record, "parentId"))
			return &node, nil
		}
		return nil, lattice_errors.ErrInternalServer
	})
	if err != nil {
		logger.Error("Failed to move node",
			zap.Error(err),
			zap.String("nodeID", id),
			zap.String("newParentID", newParentID))
		return nil, err
	}

	moved := result.(*model.TimelineNode)
	logger.Info("Node moved successfully",
		zap.String("nodeID", id),
		zap.String("newParentID", newParentID))

	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        ownerID,
		Action:        audit.ActionMoveNode,
		NodeID:        id,
		AccessGranted: true,
		ChangeDetails: createChangeDetails(map[string]string{"parent_id": newParentID}, moved),
	}
	if err := dao.AuditService.LogAccess(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return moved, nil
}

// GetAllNodes returns the owner's entire forest, parents resolved.
func (dao *NodeDAO) GetAllNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+`)-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        OPTIONAL MATCH (n)-[:`+lattice_neo4j.RelChildOf+`]->(p:`+lattice_neo4j.LabelTimelineNode+`)
        RETURN n, p.id AS parentId
        ORDER BY n.createdAt
        `, map[string]interface{}{"ownerId": ownerID})
}

// GetChildren returns the direct children of a node, owner scoped.
func (dao *NodeDAO) GetChildren(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+` {id: $id})-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        MATCH (c:`+lattice_neo4j.LabelTimelineNode+`)-[:`+lattice_neo4j.RelChildOf+`]->(n)
        RETURN c AS n, n.id AS parentId
        ORDER BY c.createdAt
        `, map[string]interface{}{"id": id, "ownerId": ownerID})
}

// GetAncestors returns the chain above a node in root-to-parent order.
func (dao *NodeDAO) GetAncestors(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+` {id: $id})-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        MATCH path = (n)-[:`+lattice_neo4j.RelChildOf+`*1..]->(a:`+lattice_neo4j.LabelTimelineNode+`)
        WITH a, length(path) AS dist
        OPTIONAL MATCH (a)-[:`+lattice_neo4j.RelChildOf+`]->(ap:`+lattice_neo4j.LabelTimelineNode+`)
        RETURN a AS n, ap.id AS parentId
        ORDER BY dist DESC
        `, map[string]interface{}{"id": id, "ownerId": ownerID})
}

// GetSubtree returns the node and its descendants down to maxDepth levels.
func (dao *NodeDAO) GetSubtree(ctx context.Context, id, ownerID string, maxDepth int) ([]model.TimelineNode, error) {
	// Variable-length bounds cannot be parameterized in Cypher.
	query := fmt.Sprintf(`
        MATCH (n:%s {id: $id})-[:%s]->(:%s {id: $ownerId})
        MATCH path = (d:%s)-[:%s*0..%d]->(n)
        WITH DISTINCT d
        OPTIONAL MATCH (d)-[:%s]->(dp:%s)
        RETURN d AS n, dp.id AS parentId
        ORDER BY d.createdAt
        `,
		lattice_neo4j.LabelTimelineNode, lattice_neo4j.RelOwnedBy, lattice_neo4j.LabelUser,
		lattice_neo4j.LabelTimelineNode, lattice_neo4j.RelChildOf, maxDepth,
		lattice_neo4j.RelChildOf, lattice_neo4j.LabelTimelineNode)
	return dao.queryNodes(ctx, query, map[string]interface{}{"id": id, "ownerId": ownerID})
}

// GetRootNodes returns the owner's nodes that have no parent.
func (dao *NodeDAO) GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+`)-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        WHERE NOT (n)-[:`+lattice_neo4j.RelChildOf+`]->()
        RETURN n, null AS parentId
        ORDER BY n.createdAt
        `, map[string]interface{}{"ownerId": ownerID})
}

// GetNodesByType filters the owner's nodes by node type.
func (dao *NodeDAO) GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+` {nodeType: $nodeType})-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        OPTIONAL MATCH (n)-[:`+lattice_neo4j.RelChildOf+`]->(p:`+lattice_neo4j.LabelTimelineNode+`)
        RETURN n, p.id AS parentId
        ORDER BY n.createdAt
        `, map[string]interface{}{"nodeType": string(nodeType), "ownerId": ownerID})
}

// GetNodesByIDs fetches a batch of the owner's nodes for display grouping.
func (dao *NodeDAO) GetNodesByIDs(ctx context.Context, ownerID string, ids []string) ([]model.TimelineNode, error) {
	return dao.queryNodes(ctx, `
        MATCH (n:`+lattice_neo4j.LabelTimelineNode+`)-[:`+lattice_neo4j.RelOwnedBy+`]->(:`+lattice_neo4j.LabelUser+` {id: $ownerId})
        WHERE n.id IN $ids
        OPTIONAL MATCH (n)-[:`+lattice_neo4j.RelChildOf+`]->(p:`+lattice_neo4j.LabelTimelineNode+`)
        RETURN n, p.id AS parentId
        `, map[string]interface{}{"ownerId": ownerID, "ids": ids})
}

func (dao *NodeDAO) queryNodes(ctx context.Context, query string, params map[string]interface{}) ([]model.TimelineNode, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		res, err := transaction.Run(query, params)
		if err != nil {
			return nil, lattice_errors.ErrDatabaseOperation
		}
		var nodes []model.TimelineNode
		for res.Next() {
			record := res.Record()
			rawNode, ok := record.Get("n")
			if !ok {
				continue
			}
			nodes = append(nodes, mapNodeToTimelineNode(rawNode.(neo4j.Node), parentIDFromRecord(record, "parentId")))
		}
		return nodes, nil
	})
	if err != nil {
		logger.Error("Failed to query nodes", zap.Error(err))
		return nil, err
	}
	return result.([]model.TimelineNode), nil
}
