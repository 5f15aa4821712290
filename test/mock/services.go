// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/latticehq/lattice/api/hierarchy"
	"github.com/latticehq/lattice/api/model"
)

// MockNodeService is a mock implementation of service.INodeService
type MockNodeService struct {
	mock.Mock
}

func (m *MockNodeService) CreateNode(ctx context.Context, req model.CreateNodeRequest, ownerID string) (*model.TimelineNode, error) {
	args := m.Called(ctx, req, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetNodeByID(ctx context.Context, nodeID, ownerID string) (*model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) UpdateNode(ctx context.Context, nodeID, ownerID string, req model.UpdateNodeRequest) (*model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) DeleteNode(ctx context.Context, nodeID, ownerID string) (int, error) {
	args := m.Called(ctx, nodeID, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockNodeService) MoveNode(ctx context.Context, nodeID, ownerID string, req model.MoveNodeRequest) (*model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) ListNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetChildren(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetAncestors(ctx context.Context, nodeID, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetSubtree(ctx context.Context, nodeID, ownerID string, maxDepth int) ([]model.TimelineNode, error) {
	args := m.Called(ctx, nodeID, ownerID, maxDepth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, nodeType, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeService) GetFullTree(ctx context.Context, ownerID string) ([]*model.TreeNode, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TreeNode), args.Error(1)
}

func (m *MockNodeService) GetHierarchyStats(ctx context.Context, ownerID string) (*model.HierarchyStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HierarchyStats), args.Error(1)
}

func (m *MockNodeService) ValidateHierarchy(ctx context.Context, ownerID string) (*hierarchy.AnalysisReport, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hierarchy.AnalysisReport), args.Error(1)
}

func (m *MockNodeService) RecoverySuggestions(ctx context.Context, ownerID string) ([]hierarchy.Suggestion, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hierarchy.Suggestion), args.Error(1)
}

// MockShareService is a mock implementation of service.IShareService
type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) GetCurrentPermissions(ctx context.Context, ownerID string, nodeIDs []string) (*model.CurrentPermissions, error) {
	args := m.Called(ctx, ownerID, nodeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CurrentPermissions), args.Error(1)
}

func (m *MockShareService) ExecuteShare(ctx context.Context, ownerID string, req model.ShareRequest) (int, error) {
	args := m.Called(ctx, ownerID, req)
	return args.Int(0), args.Error(1)
}

func (m *MockShareService) UpdatePermission(ctx context.Context, ownerID string, key model.SubjectKey, req model.UpdatePermissionRequest) (int, error) {
	args := m.Called(ctx, ownerID, key, req)
	return args.Int(0), args.Error(1)
}

func (m *MockShareService) RemovePermission(ctx context.Context, ownerID string, key model.SubjectKey) (int, error) {
	args := m.Called(ctx, ownerID, key)
	return args.Int(0), args.Error(1)
}

// MockUserService is a mock implementation of service.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
