// api/service/org_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/dao"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/util"
)

// IOrganizationService defines the interface for organization operations
type IOrganizationService interface {
	CreateOrganization(ctx context.Context, org model.Organization, userID string) (*model.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (*model.Organization, error)
	AddMember(ctx context.Context, orgID, userID string, role model.MemberRole) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	GetMembers(ctx context.Context, orgID string) ([]model.OrgMembership, error)
	OrganizationsForUser(ctx context.Context, userID string) ([]model.Organization, error)
}

// OrganizationService handles business logic for organization operations
type OrganizationService struct {
	orgDAO          *dao.OrgDAO
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IOrganizationService = &OrganizationService{}

// NewOrganizationService creates a new instance of OrganizationService
func NewOrganizationService(orgDAO *dao.OrgDAO, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *OrganizationService {
	service := &OrganizationService{
		orgDAO:          orgDAO,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe(util.EventOrgCreated, service.handleOrgCreated)

	return service
}

func (s *OrganizationService) handleOrgCreated(ctx context.Context, event util.Event) error {
	org := event.Payload.(model.Organization)
	logger.Info("Organization created event received", zap.String("orgID", org.ID))

	if err := s.notificationSvc.NotifyOrganizationChange(ctx, "created", org); err != nil {
		logger.Warn("Failed to send organization creation notification", zap.Error(err), zap.String("orgID", org.ID))
	}
	return nil
}

// CreateOrganization handles the creation of a new organization
func (s *OrganizationService) CreateOrganization(ctx context.Context, org model.Organization, userID string) (*model.Organization, error) {
	if err := s.validationUtil.ValidateOrganization(org); err != nil {
		return nil, err
	}

	created, err := s.orgDAO.CreateOrganization(ctx, org)
	if err != nil {
		logger.Error("Error creating organization", zap.Error(err), zap.String("userID", userID))
		return nil, err
	}

	if err := s.cacheService.SetOrganization(ctx, *created); err != nil {
		logger.Warn("Failed to cache organization", zap.Error(err), zap.String("orgID", created.ID))
	}

	s.eventBus.Publish(ctx, util.EventOrgCreated, *created)

	logger.Info("Organization created successfully", zap.String("orgID", created.ID), zap.String("userID", userID))
	return created, nil
}

// GetOrganization retrieves an organization by its ID
func (s *OrganizationService) GetOrganization(ctx context.Context, orgID string) (*model.Organization, error) {
	cached, err := s.cacheService.GetOrganization(ctx, orgID)
	if err == nil && cached != nil {
		return cached, nil
	}

	org, err := s.orgDAO.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetOrganization(ctx, *org); err != nil {
		logger.Warn("Failed to cache organization", zap.Error(err), zap.String("orgID", orgID))
	}
	return org, nil
}

// AddMember links a user into the organization with a role. Membership only
// widens what org-scoped grants reach; it never confers ownership.
func (s *OrganizationService) AddMember(ctx context.Context, orgID, userID string, role model.MemberRole) error {
	if !role.Valid() {
		role = model.RoleMember
	}
	if err := s.orgDAO.AddMember(ctx, orgID, userID, role); err != nil {
		logger.Error("Error adding member", zap.Error(err), zap.String("orgID", orgID), zap.String("userID", userID))
		return err
	}

	s.eventBus.Publish(ctx, util.EventMemberAdded, model.OrgMembership{OrgID: orgID, UserID: userID, Role: role})
	return nil
}

// RemoveMember unlinks a user from the organization.
func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, userID string) error {
	if err := s.orgDAO.RemoveMember(ctx, orgID, userID); err != nil {
		logger.Error("Error removing member", zap.Error(err), zap.String("orgID", orgID), zap.String("userID", userID))
		return err
	}

	s.eventBus.Publish(ctx, util.EventMemberRemoved, model.OrgMembership{OrgID: orgID, UserID: userID})
	return nil
}

// GetMembers lists the organization's memberships.
func (s *OrganizationService) GetMembers(ctx context.Context, orgID string) ([]model.OrgMembership, error) {
	return s.orgDAO.GetMembers(ctx, orgID)
}

// OrganizationsForUser lists every organization the user is a member of.
func (s *OrganizationService) OrganizationsForUser(ctx context.Context, userID string) ([]model.Organization, error) {
	orgIDs, err := s.orgDAO.OrgIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	orgs := make([]model.Organization, 0, len(orgIDs))
	for _, orgID := range orgIDs {
		org, err := s.GetOrganization(ctx, orgID)
		if err != nil {
			logger.Warn("Skipping unresolvable membership", zap.Error(err), zap.String("orgID", orgID))
			continue
		}
		orgs = append(orgs, *org)
	}
	return orgs, nil
}
