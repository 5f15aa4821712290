// api/util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyNodeChange(ctx context.Context, changeType string, node model.TimelineNode) error {
	// In a real implementation, you might send this to a message queue or external notification service
	switch changeType {
	case "created":
		logger.Info("NOTIFICATION: Timeline node created",
			zap.String("nodeID", node.ID),
			zap.String("label", node.Label))
	case "updated":
		logger.Info("NOTIFICATION: Timeline node updated",
			zap.String("nodeID", node.ID),
			zap.String("label", node.Label))
	case "moved":
		logger.Info("NOTIFICATION: Timeline node moved",
			zap.String("nodeID", node.ID),
			zap.String("newParentID", node.ParentID))
	case "deleted":
		logger.Info("NOTIFICATION: Timeline node deleted",
			zap.String("nodeID", node.ID))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}
	return nil
}

func (n *NotificationService) NotifyShareChange(ctx context.Context, changeType string, grantedBy string, subjectKeys []string) error {
	logger.Info("NOTIFICATION: Share configuration changed",
		zap.String("changeType", changeType),
		zap.String("grantedBy", grantedBy),
		zap.Strings("subjects", subjectKeys))
	return nil
}

func (n *NotificationService) NotifyOrganizationChange(ctx context.Context, changeType string, org model.Organization) error {
	logger.Info("NOTIFICATION: Organization changed",
		zap.String("changeType", changeType),
		zap.String("orgID", org.ID),
		zap.String("orgName", org.Name))
	return nil
}

func (n *NotificationService) NotifyUserChange(ctx context.Context, changeType string, user model.User) error {
	logger.Info("NOTIFICATION: User changed",
		zap.String("changeType", changeType),
		zap.String("userID", user.ID),
		zap.String("userName", user.Name))
	return nil
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// Mock email sending
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}
