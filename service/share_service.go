// api/service/share_service.go
package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/util"
)

// IShareService defines the interface for the sharing workflow
type IShareService interface {
	GetCurrentPermissions(ctx context.Context, ownerID string, nodeIDs []string) (*model.CurrentPermissions, error)
	ExecuteShare(ctx context.Context, ownerID string, req model.ShareRequest) (int, error)
	UpdatePermission(ctx context.Context, ownerID string, key model.SubjectKey, req model.UpdatePermissionRequest) (int, error)
	RemovePermission(ctx context.Context, ownerID string, key model.SubjectKey) (int, error)
}

// ShareStore is the policy persistence surface the share service needs.
type ShareStore interface {
	UpsertPolicies(ctx context.Context, policies []model.NodePolicy, grantedBy string) error
	PoliciesForNodes(ctx context.Context, nodeIDs []string) (map[string][]model.NodePolicy, error)
	UpdateGrantLevel(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string, level model.VisibilityLevel, expiresAt *time.Time) (int, []string, error)
	RemoveGrant(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string) (int, []string, error)
}

// OwnedNodeSource verifies node ownership and supplies display labels.
type OwnedNodeSource interface {
	GetNodesByIDs(ctx context.Context, ownerID string, ids []string) ([]model.TimelineNode, error)
}

// ShareService handles the sharing workflow: grants are configured as a
// batch and committed atomically.
type ShareService struct {
	policies        ShareStore
	nodes           OwnedNodeSource
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IShareService = &ShareService{}

// NewShareService creates a new instance of ShareService
func NewShareService(policies ShareStore, nodes OwnedNodeSource, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *ShareService {
	service := &ShareService{
		policies:        policies,
		nodes:           nodes,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe(util.EventShareGranted, service.handleShareChanged)
	eventBus.Subscribe(util.EventShareUpdated, service.handleShareChanged)
	eventBus.Subscribe(util.EventShareRevoked, service.handleShareChanged)

	return service
}

func (s *ShareService) handleShareChanged(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(shareChangePayload)
	if !ok {
		return nil
	}
	logger.Info("Share change event received",
		zap.String("eventType", event.Type),
		zap.String("grantedBy", payload.OwnerID),
		zap.Strings("subjects", payload.SubjectKeys))

	for _, nodeID := range payload.NodeIDs {
		if err := s.cacheService.DeleteNodePolicies(ctx, nodeID); err != nil {
			logger.Warn("Failed to invalidate cached policies", zap.Error(err), zap.String("nodeID", nodeID))
		}
	}

	if err := s.notificationSvc.NotifyShareChange(ctx, event.Type, payload.OwnerID, payload.SubjectKeys); err != nil {
		logger.Warn("Failed to send share change notification", zap.Error(err))
	}
	return nil
}

type shareChangePayload struct {
	OwnerID     string
	NodeIDs     []string
	SubjectKeys []string
}

// verifyOwnership checks that every requested node exists and belongs to the
// owner. Any miss fails the whole request.
func (s *ShareService) verifyOwnership(ctx context.Context, ownerID string, nodeIDs []string) ([]model.TimelineNode, error) {
	unique := make(map[string]bool, len(nodeIDs))
	var ids []string
	for _, id := range nodeIDs {
		if !unique[id] {
			unique[id] = true
			ids = append(ids, id)
		}
	}

	nodes, err := s.nodes.GetNodesByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if len(nodes) != len(ids) {
		return nil, lattice_errors.ErrNodeNotFound
	}
	return nodes, nil
}

// GetCurrentPermissions reports the existing grants across the selected
// nodes, grouped by subject, for the share dialog.
func (s *ShareService) GetCurrentPermissions(ctx context.Context, ownerID string, nodeIDs []string) (*model.CurrentPermissions, error) {
	nodes, err := s.verifyOwnership(ctx, ownerID, nodeIDs)
	if err != nil {
		return nil, err
	}

	nodeByID := make(map[string]model.TimelineNode, len(nodes))
	var ids []string
	for _, n := range nodes {
		nodeByID[n.ID] = n
		ids = append(ids, n.ID)
	}

	grouped, err := s.policies.PoliciesForNodes(ctx, ids)
	if err != nil {
		return nil, err
	}

	type aggregate struct {
		perm     model.SubjectPermission
		nodeSeen map[string]bool
	}
	bySubject := make(map[model.SubjectKey]*aggregate)
	now := time.Now()

	for nodeID, policies := range grouped {
		node := nodeByID[nodeID]
		for _, p := range policies {
			if p.Effect != model.EffectAllow || !p.Active(now) {
				continue
			}
			key := p.SubjectKey()
			agg, ok := bySubject[key]
			if !ok {
				agg = &aggregate{
					perm: model.SubjectPermission{
						SubjectType: p.SubjectType,
						SubjectID:   p.SubjectID,
						Level:       model.LevelNone,
					},
					nodeSeen: make(map[string]bool),
				}
				bySubject[key] = agg
			}
			switch p.Action {
			case model.ActionView:
				if p.Level.Satisfies(agg.perm.Level) || agg.perm.Level == model.LevelNone {
					agg.perm.Level = p.Level
					agg.perm.ExpiresAt = p.ExpiresAt
				}
			case model.ActionEdit:
				agg.perm.CanEdit = true
			}
			if !agg.nodeSeen[nodeID] {
				agg.nodeSeen[nodeID] = true
				agg.perm.Nodes = append(agg.perm.Nodes, model.SharedNodeRef{
					NodeID: nodeID,
					Label:  node.Label,
					Type:   node.Type,
				})
			}
		}
	}

	result := &model.CurrentPermissions{
		Users:         []model.SubjectPermission{},
		Organizations: []model.SubjectPermission{},
	}
	for _, agg := range bySubject {
		sort.Slice(agg.perm.Nodes, func(i, j int) bool {
			return agg.perm.Nodes[i].NodeID < agg.perm.Nodes[j].NodeID
		})
		switch agg.perm.SubjectType {
		case model.SubjectUser:
			result.Users = append(result.Users, agg.perm)
		case model.SubjectOrg:
			result.Organizations = append(result.Organizations, agg.perm)
		case model.SubjectPublic:
			perm := agg.perm
			result.Public = &perm
		}
	}
	sort.Slice(result.Users, func(i, j int) bool {
		return result.Users[i].SubjectID < result.Users[j].SubjectID
	})
	sort.Slice(result.Organizations, func(i, j int) bool {
		return result.Organizations[i].SubjectID < result.Organizations[j].SubjectID
	})
	return result, nil
}

// ExecuteShare commits a share configuration: the cross product of targets
// and nodes becomes ALLOW policies in one atomic batch. Edit grants always
// carry full visibility since editing implies seeing everything.
func (s *ShareService) ExecuteShare(ctx context.Context, ownerID string, req model.ShareRequest) (int, error) {
	if ownerID == "" {
		return 0, lattice_errors.ErrAuthenticationRequired
	}
	if err := s.validationUtil.ValidateShareRequest(req); err != nil {
		return 0, err
	}
	nodes, err := s.verifyOwnership(ctx, ownerID, req.NodeIDs)
	if err != nil {
		return 0, err
	}

	var policies []model.NodePolicy
	var subjectKeys []string
	for _, target := range req.Targets {
		subjectKeys = append(subjectKeys, string(model.NewSubjectKey(target.SubjectType, target.SubjectID)))
		for _, node := range nodes {
			policies = append(policies, model.NodePolicy{
				NodeID:      node.ID,
				Level:       target.Level,
				Action:      model.ActionView,
				SubjectType: target.SubjectType,
				SubjectID:   target.SubjectID,
				Effect:      model.EffectAllow,
				ExpiresAt:   target.ExpiresAt,
			})
			if target.CanEdit {
				policies = append(policies, model.NodePolicy{
					NodeID:      node.ID,
					Level:       model.LevelFull,
					Action:      model.ActionEdit,
					SubjectType: target.SubjectType,
					SubjectID:   target.SubjectID,
					Effect:      model.EffectAllow,
					ExpiresAt:   target.ExpiresAt,
				})
			}
		}
	}

	if err := s.policies.UpsertPolicies(ctx, policies, ownerID); err != nil {
		logger.Error("Error executing share",
			zap.Error(err),
			zap.String("ownerID", ownerID),
			zap.Int("policies", len(policies)))
		return 0, err
	}

	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	s.eventBus.Publish(ctx, util.EventShareGranted, shareChangePayload{
		OwnerID:     ownerID,
		NodeIDs:     nodeIDs,
		SubjectKeys: subjectKeys,
	})

	logger.Info("Share executed successfully",
		zap.String("ownerID", ownerID),
		zap.Int("targets", len(req.Targets)),
		zap.Int("nodes", len(nodes)),
		zap.Int("policies", len(policies)))
	return len(policies), nil
}

// UpdatePermission rewrites the level and expiry of an existing grant across
// all of the owner's nodes.
func (s *ShareService) UpdatePermission(ctx context.Context, ownerID string, key model.SubjectKey, req model.UpdatePermissionRequest) (int, error) {
	subjectType, subjectID, err := key.Parse()
	if err != nil {
		return 0, lattice_errors.NewValidationError("subject_key", err.Error())
	}
	if err := s.validationUtil.ValidateUpdatePermission(req); err != nil {
		return 0, err
	}

	updated, nodeIDs, err := s.policies.UpdateGrantLevel(ctx, ownerID, subjectType, subjectID, req.Level, req.ExpiresAt)
	if err != nil {
		return 0, err
	}

	s.eventBus.Publish(ctx, util.EventShareUpdated, shareChangePayload{
		OwnerID:     ownerID,
		NodeIDs:     nodeIDs,
		SubjectKeys: []string{string(key)},
	})
	return updated, nil
}

// RemovePermission revokes every policy the owner granted to a subject.
func (s *ShareService) RemovePermission(ctx context.Context, ownerID string, key model.SubjectKey) (int, error) {
	subjectType, subjectID, err := key.Parse()
	if err != nil {
		return 0, lattice_errors.NewValidationError("subject_key", err.Error())
	}

	removed, nodeIDs, err := s.policies.RemoveGrant(ctx, ownerID, subjectType, subjectID)
	if err != nil {
		return 0, err
	}

	s.eventBus.Publish(ctx, util.EventShareRevoked, shareChangePayload{
		OwnerID:     ownerID,
		NodeIDs:     nodeIDs,
		SubjectKeys: []string{string(key)},
	})
	return removed, nil
}
