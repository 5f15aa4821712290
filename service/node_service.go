// api/service/node_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/db"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/hierarchy"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/util"
)

// INodeService defines the interface for timeline node operations
type INodeService interface {
	CreateNode(ctx context.Context, req model.CreateNodeRequest, ownerID string) (*model.TimelineNode, error)
	GetNodeByID(ctx context.Context, nodeID, ownerID string) (*model.TimelineNode, error)
	UpdateNode(ctx context.Context, nodeID, ownerID string, req model.UpdateNodeRequest) (*model.TimelineNode, error)
	DeleteNode(ctx context.Context, nodeID, ownerID string) (int, error)
	MoveNode(ctx context.Context, nodeID, ownerID string, req model.MoveNodeRequest) (*model.TimelineNode, error)
	ListNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error)
	GetChildren(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error)
	GetAncestors(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error)
	GetSubtree(ctx context.Context, nodeID, ownerID string, maxDepth int) ([]model.TimelineNode, error)
	GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error)
	GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error)
	GetFullTree(ctx context.Context, ownerID string) ([]*model.TreeNode, error)
	GetHierarchyStats(ctx context.Context, ownerID string) (*model.HierarchyStats, error)
	ValidateHierarchy(ctx context.Context, ownerID string) (*hierarchy.AnalysisReport, error)
	RecoverySuggestions(ctx context.Context, ownerID string) ([]hierarchy.Suggestion, error)
}

// NodeStore is the persistence surface the node service needs.
type NodeStore interface {
	CreateNode(ctx context.Context, node model.TimelineNode) (*model.TimelineNode, error)
	GetNodeByID(ctx context.Context, id, ownerID string) (*model.TimelineNode, error)
	UpdateNode(ctx context.Context, id, ownerID string, label *string, meta map[string]interface{}) (*model.TimelineNode, error)
	DeleteNode(ctx context.Context, id, ownerID string) (int, error)
	MoveNode(ctx context.Context, id, newParentID, ownerID string) (*model.TimelineNode, error)
	GetAllNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error)
	GetChildren(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error)
	GetAncestors(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error)
	GetSubtree(ctx context.Context, id, ownerID string, maxDepth int) ([]model.TimelineNode, error)
	GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error)
	GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error)
}

// HierarchyLocker serializes structural changes per owner so concurrent
// moves cannot race each other past the cycle validation.
type HierarchyLocker interface {
	Lock(ctx context.Context, ownerID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, ownerID string) error
}

type redisHierarchyLocker struct{}

func (redisHierarchyLocker) Lock(ctx context.Context, ownerID string, ttl time.Duration) (bool, error) {
	return db.LockHierarchy(ctx, ownerID, ttl)
}

func (redisHierarchyLocker) Unlock(ctx context.Context, ownerID string) error {
	return db.UnlockHierarchy(ctx, ownerID)
}

// NodeService handles business logic for timeline node operations
type NodeService struct {
	store           NodeStore
	locker          HierarchyLocker
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
	maxDepth        int
}

var _ INodeService = &NodeService{}

// NewNodeService creates a new instance of NodeService
func NewNodeService(store NodeStore, locker HierarchyLocker, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus, maxDepth int) *NodeService {
	if maxDepth <= 0 {
		maxDepth = hierarchy.DefaultMaxDepth
	}
	service := &NodeService{
		store:           store,
		locker:          locker,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		maxDepth:        maxDepth,
	}

	eventBus.Subscribe(util.EventNodeCreated, service.handleNodeCreated)
	eventBus.Subscribe(util.EventNodeMoved, service.handleNodeMoved)
	eventBus.Subscribe(util.EventNodeDeleted, service.handleNodeDeleted)

	return service
}

func (s *NodeService) handleNodeCreated(ctx context.Context, event util.Event) error {
	node := event.Payload.(model.TimelineNode)
	logger.Info("Node created event received", zap.String("nodeID", node.ID))

	if err := s.notificationSvc.NotifyNodeChange(ctx, "created", node); err != nil {
		logger.Warn("Failed to send node creation notification", zap.Error(err), zap.String("nodeID", node.ID))
	}
	return nil
}

func (s *NodeService) handleNodeMoved(ctx context.Context, event util.Event) error {
	node := event.Payload.(model.TimelineNode)
	logger.Info("Node moved event received", zap.String("nodeID", node.ID))

	if err := s.notificationSvc.NotifyNodeChange(ctx, "moved", node); err != nil {
		logger.Warn("Failed to send node move notification", zap.Error(err), zap.String("nodeID", node.ID))
	}
	return nil
}

func (s *NodeService) handleNodeDeleted(ctx context.Context, event util.Event) error {
	nodeID := event.Payload.(string)
	logger.Info("Node deleted event received", zap.String("nodeID", nodeID))

	if err := s.notificationSvc.NotifyNodeChange(ctx, "deleted", model.TimelineNode{ID: nodeID}); err != nil {
		logger.Warn("Failed to send node deletion notification", zap.Error(err), zap.String("nodeID", nodeID))
	}
	return nil
}

// CreateNode validates the payload against the node type's schema and
// persists it under the owner.
func (s *NodeService) CreateNode(ctx context.Context, req model.CreateNodeRequest, ownerID string) (*model.TimelineNode, error) {
	if ownerID == "" {
		return nil, lattice_errors.ErrAuthenticationRequired
	}
	if err := s.validationUtil.ValidateCreateNode(req); err != nil {
		return nil, err
	}

	node := model.TimelineNode{
		Type:     req.Type,
		Label:    req.Label,
		ParentID: req.ParentID,
		OwnerID:  ownerID,
		Meta:     req.Meta,
	}

	created, err := s.store.CreateNode(ctx, node)
	if err != nil {
		logger.Error("Error creating node", zap.Error(err), zap.String("ownerID", ownerID))
		return nil, err
	}

	if err := s.cacheService.SetNode(ctx, *created); err != nil {
		logger.Warn("Failed to cache node", zap.Error(err), zap.String("nodeID", created.ID))
	}

	s.eventBus.Publish(ctx, util.EventNodeCreated, *created)

	logger.Info("Node created successfully", zap.String("nodeID", created.ID), zap.String("ownerID", ownerID))
	return created, nil
}

// GetNodeByID retrieves one of the owner's nodes.
func (s *NodeService) GetNodeByID(ctx context.Context, nodeID, ownerID string) (*model.TimelineNode, error) {
	cached, err := s.cacheService.GetNode(ctx, nodeID)
	if err == nil && cached != nil && cached.OwnerID == ownerID {
		return cached, nil
	}

	node, err := s.store.GetNodeByID(ctx, nodeID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetNode(ctx, *node); err != nil {
		logger.Warn("Failed to cache node", zap.Error(err), zap.String("nodeID", nodeID))
	}
	return node, nil
}

// UpdateNode patches label and meta after re-validating against the schema.
func (s *NodeService) UpdateNode(ctx context.Context, nodeID, ownerID string, req model.UpdateNodeRequest) (*model.TimelineNode, error) {
	existing, err := s.store.GetNodeByID(ctx, nodeID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.validationUtil.ValidateUpdateNode(existing.Type, req); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateNode(ctx, nodeID, ownerID, req.Label, req.Meta)
	if err != nil {
		logger.Error("Error updating node", zap.Error(err), zap.String("nodeID", nodeID))
		return nil, err
	}

	if err := s.cacheService.SetNode(ctx, *updated); err != nil {
		logger.Warn("Failed to update node in cache", zap.Error(err), zap.String("nodeID", nodeID))
	}

	s.eventBus.Publish(ctx, util.EventNodeUpdated, *updated)
	return updated, nil
}

// DeleteNode removes the node and every descendant, returning how many
// nodes were deleted.
func (s *NodeService) DeleteNode(ctx context.Context, nodeID, ownerID string) (int, error) {
	acquired, err := s.locker.Lock(ctx, ownerID, hierarchyLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, fmt.Errorf("hierarchy for owner %s is busy, retry", ownerID)
	}
	defer func() {
		if err := s.locker.Unlock(ctx, ownerID); err != nil {
			logger.Warn("Failed to release hierarchy lock", zap.Error(err), zap.String("ownerID", ownerID))
		}
	}()

	deleted, err := s.store.DeleteNode(ctx, nodeID, ownerID)
	if err != nil {
		logger.Error("Error deleting node", zap.Error(err), zap.String("nodeID", nodeID))
		return 0, err
	}

	if err := s.cacheService.DeleteNode(ctx, nodeID); err != nil {
		logger.Warn("Failed to delete node from cache", zap.Error(err), zap.String("nodeID", nodeID))
	}
	if err := s.cacheService.DeleteNodePolicies(ctx, nodeID); err != nil {
		logger.Warn("Failed to delete node policies from cache", zap.Error(err), zap.String("nodeID", nodeID))
	}

	s.eventBus.Publish(ctx, util.EventNodeDeleted, nodeID)

	logger.Info("Node deleted successfully",
		zap.String("nodeID", nodeID),
		zap.Int("deleted", deleted),
		zap.String("ownerID", ownerID))
	return deleted, nil
}

const hierarchyLockTTL = 10 * time.Second

// MoveNode reparents a node. The move is validated against the owner's
// in-memory forest first, then re-checked inside the store transaction; the
// per-owner lock keeps concurrent moves from interleaving.
func (s *NodeService) MoveNode(ctx context.Context, nodeID, ownerID string, req model.MoveNodeRequest) (*model.TimelineNode, error) {
	acquired, err := s.locker.Lock(ctx, ownerID, hierarchyLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("hierarchy for owner %s is busy, retry", ownerID)
	}
	defer func() {
		if err := s.locker.Unlock(ctx, ownerID); err != nil {
			logger.Warn("Failed to release hierarchy lock", zap.Error(err), zap.String("ownerID", ownerID))
		}
	}()

	nodes, err := s.store.GetAllNodes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.ValidateMove(nodes, nodeID, req.NewParentID, s.maxDepth); err != nil {
		return nil, err
	}

	moved, err := s.store.MoveNode(ctx, nodeID, req.NewParentID, ownerID)
	if err != nil {
		logger.Error("Error moving node",
			zap.Error(err),
			zap.String("nodeID", nodeID),
			zap.String("newParentID", req.NewParentID))
		return nil, err
	}

	if err := s.cacheService.SetNode(ctx, *moved); err != nil {
		logger.Warn("Failed to update node in cache", zap.Error(err), zap.String("nodeID", nodeID))
	}

	s.eventBus.Publish(ctx, util.EventNodeMoved, *moved)
	return moved, nil
}

func (s *NodeService) ListNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	return s.store.GetAllNodes(ctx, ownerID)
}

func (s *NodeService) GetChildren(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error) {
	return s.store.GetChildren(ctx, nodeID, ownerID)
}

func (s *NodeService) GetAncestors(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error) {
	return s.store.GetAncestors(ctx, nodeID, ownerID)
}

func (s *NodeService) GetSubtree(ctx context.Context, nodeID, ownerID string, maxDepth int) ([]model.TimelineNode, error) {
	if maxDepth <= 0 || maxDepth > s.maxDepth {
		maxDepth = s.maxDepth
	}
	return s.store.GetSubtree(ctx, nodeID, ownerID, maxDepth)
}

func (s *NodeService) GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	return s.store.GetRootNodes(ctx, ownerID)
}

func (s *NodeService) GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error) {
	if !nodeType.Valid() {
		return nil, lattice_errors.ErrInvalidNodeType
	}
	return s.store.GetNodesByType(ctx, nodeType, ownerID)
}

// GetFullTree returns the owner's forest with children nested under their
// parents. Nodes whose parent is missing are surfaced as roots rather than
// dropped.
func (s *NodeService) GetFullTree(ctx context.Context, ownerID string) ([]*model.TreeNode, error) {
	nodes, err := s.store.GetAllNodes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return nestNodes(nodes), nil
}

func nestNodes(nodes []model.TimelineNode) []*model.TreeNode {
	byID := make(map[string]*model.TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &model.TreeNode{TimelineNode: n, Children: []*model.TreeNode{}}
	}

	var roots []*model.TreeNode
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID == "" {
			roots = append(roots, tn)
			continue
		}
		parent, ok := byID[n.ParentID]
		if !ok {
			roots = append(roots, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	sort.Slice(roots, func(i, j int) bool {
		return roots[i].CreatedAt.Before(roots[j].CreatedAt)
	})
	return roots
}

// GetHierarchyStats aggregates counts and depth over the owner's forest.
func (s *NodeService) GetHierarchyStats(ctx context.Context, ownerID string) (*model.HierarchyStats, error) {
	nodes, err := s.store.GetAllNodes(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byType := make(map[model.NodeType]int)
	for _, n := range nodes {
		byType[n.Type]++
	}
	maxDepth, rootCount := hierarchy.DepthStats(nodes)

	return &model.HierarchyStats{
		TotalNodes:  len(nodes),
		NodesByType: byType,
		MaxDepth:    maxDepth,
		RootNodes:   rootCount,
	}, nil
}

// ValidateHierarchy runs the full-forest health scan: cycles, orphans and
// depth overruns.
func (s *NodeService) ValidateHierarchy(ctx context.Context, ownerID string) (*hierarchy.AnalysisReport, error) {
	nodes, err := s.store.GetAllNodes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	report := hierarchy.Analyze(nodes, s.maxDepth)
	return &report, nil
}

// RecoverySuggestions proposes repairs for an unhealthy forest.
func (s *NodeService) RecoverySuggestions(ctx context.Context, ownerID string) ([]hierarchy.Suggestion, error) {
	nodes, err := s.store.GetAllNodes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return hierarchy.RecoverySuggestions(nodes, s.maxDepth), nil
}
