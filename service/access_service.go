// api/service/access_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/access"
	"github.com/latticehq/lattice/api/audit"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/schema"
	"github.com/latticehq/lattice/api/util"
)

// IAccessService defines the interface for permission resolution
type IAccessService interface {
	CanAccess(ctx context.Context, userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) (bool, error)
	EffectiveLevel(ctx context.Context, userID, nodeID string) (model.VisibilityLevel, error)
	AccessibleNodes(ctx context.Context, userID string, action model.AccessAction, minLevel model.VisibilityLevel) ([]model.AccessibleNode, error)
	NodeForViewer(ctx context.Context, userID, nodeID string) (*model.TimelineNode, error)
	PublicNode(ctx context.Context, nodeID string) (*model.TimelineNode, error)
}

// ViewerNodeSource fetches nodes without owner scoping; access is resolved
// before the fetch.
type ViewerNodeSource interface {
	GetNodeAnyOwner(ctx context.Context, nodeID string) (*model.TimelineNode, error)
}

// AccessService wraps the permission resolver and shapes nodes to the
// viewer's effective visibility level.
type AccessService struct {
	resolver     *access.Resolver
	nodes        ViewerNodeSource
	auditService audit.Service
}

var _ IAccessService = &AccessService{}

// NewAccessService creates a new instance of AccessService. It subscribes to
// node, share and membership events so stale access decisions are dropped
// promptly.
func NewAccessService(resolver *access.Resolver, nodes ViewerNodeSource, auditService audit.Service, eventBus *util.EventBus) *AccessService {
	service := &AccessService{
		resolver:     resolver,
		nodes:        nodes,
		auditService: auditService,
	}

	invalidateNode := func(ctx context.Context, event util.Event) error {
		switch payload := event.Payload.(type) {
		case model.TimelineNode:
			resolver.InvalidateNode(payload.ID)
		case string:
			resolver.InvalidateNode(payload)
		}
		return nil
	}
	eventBus.Subscribe(util.EventNodeDeleted, invalidateNode)
	eventBus.Subscribe(util.EventNodeMoved, invalidateNode)

	invalidateAll := func(ctx context.Context, event util.Event) error {
		resolver.InvalidateAll()
		return nil
	}
	eventBus.Subscribe(util.EventShareGranted, invalidateAll)
	eventBus.Subscribe(util.EventShareUpdated, invalidateAll)
	eventBus.Subscribe(util.EventShareRevoked, invalidateAll)

	// Membership changes reshape which org grants a user embodies, so every
	// cached decision is suspect, not just one node's.
	eventBus.Subscribe(util.EventMemberAdded, invalidateAll)
	eventBus.Subscribe(util.EventMemberRemoved, invalidateAll)

	return service
}

func (s *AccessService) CanAccess(ctx context.Context, userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) (bool, error) {
	return s.resolver.CanAccess(ctx, userID, nodeID, action, level)
}

func (s *AccessService) EffectiveLevel(ctx context.Context, userID, nodeID string) (model.VisibilityLevel, error) {
	return s.resolver.EffectiveLevel(ctx, userID, nodeID)
}

func (s *AccessService) AccessibleNodes(ctx context.Context, userID string, action model.AccessAction, minLevel model.VisibilityLevel) ([]model.AccessibleNode, error) {
	return s.resolver.ListAccessibleNodes(ctx, userID, action, minLevel)
}

// NodeForViewer returns the node shaped to the viewer's effective level. No
// access at all reads as not found, so callers cannot probe for existence.
func (s *AccessService) NodeForViewer(ctx context.Context, userID, nodeID string) (*model.TimelineNode, error) {
	level, err := s.resolver.EffectiveLevel(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	if level == model.LevelNone {
		s.logDenied(ctx, userID, nodeID)
		return nil, lattice_errors.ErrNodeNotFound
	}
	return s.fetchAtLevel(ctx, nodeID, level)
}

// PublicNode resolves a node as the anonymous viewer would see it.
func (s *AccessService) PublicNode(ctx context.Context, nodeID string) (*model.TimelineNode, error) {
	return s.NodeForViewer(ctx, "", nodeID)
}

func (s *AccessService) fetchAtLevel(ctx context.Context, nodeID string, level model.VisibilityLevel) (*model.TimelineNode, error) {
	node, err := s.nodes.GetNodeAnyOwner(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if level == model.LevelOverview {
		trimmed := *node
		trimmed.Meta = schema.OverviewMeta(node.Type, node.Meta)
		return &trimmed, nil
	}
	return node, nil
}

func (s *AccessService) logDenied(ctx context.Context, userID, nodeID string) {
	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        userID,
		Action:        audit.ActionAccessDenied,
		NodeID:        nodeID,
		AccessGranted: false,
	}
	if err := s.auditService.LogAccess(ctx, auditLog); err != nil {
		logger.Warn("Failed to record denied access", zap.Error(err), zap.String("nodeID", nodeID))
	}
}
