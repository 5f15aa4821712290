// api/service/user_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/dao"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/util"
)

// IUserService defines the interface for user operations
type IUserService interface {
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// UserService handles business logic for user operations
type UserService struct {
	userDAO         *dao.UserDAO
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IUserService = &UserService{}

// NewUserService creates a new instance of UserService
func NewUserService(userDAO *dao.UserDAO, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *UserService {
	return &UserService{
		userDAO:         userDAO,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if err := s.validationUtil.ValidateUser(user); err != nil {
		return nil, err
	}

	created, err := s.userDAO.CreateUser(ctx, user)
	if err != nil {
		logger.Error("Error creating user", zap.Error(err), zap.String("email", user.Email))
		return nil, err
	}

	if err := s.notificationSvc.NotifyUserChange(ctx, "created", *created); err != nil {
		logger.Warn("Failed to send user creation notification", zap.Error(err), zap.String("userID", created.ID))
	}
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userDAO.GetUser(ctx, userID)
}
