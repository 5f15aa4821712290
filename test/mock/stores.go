// test/mock/stores.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/latticehq/lattice/api/model"
)

// MockNodeStore is a mock implementation of service.NodeStore. It also
// implements service.OwnedNodeSource so one instance can back both the node
// and share services in tests.
type MockNodeStore struct {
	mock.Mock
}

func (m *MockNodeStore) CreateNode(ctx context.Context, node model.TimelineNode) (*model.TimelineNode, error) {
	args := m.Called(ctx, node)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetNodeByID(ctx context.Context, id, ownerID string) (*model.TimelineNode, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) UpdateNode(ctx context.Context, id, ownerID string, label *string, meta map[string]interface{}) (*model.TimelineNode, error) {
	args := m.Called(ctx, id, ownerID, label, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) DeleteNode(ctx context.Context, id, ownerID string) (int, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockNodeStore) MoveNode(ctx context.Context, id, newParentID, ownerID string) (*model.TimelineNode, error) {
	args := m.Called(ctx, id, newParentID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetAllNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetChildren(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetAncestors(ctx context.Context, id, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetSubtree(ctx context.Context, id, ownerID string, maxDepth int) ([]model.TimelineNode, error) {
	args := m.Called(ctx, id, ownerID, maxDepth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetRootNodes(ctx context.Context, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetNodesByType(ctx context.Context, nodeType model.NodeType, ownerID string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, nodeType, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

func (m *MockNodeStore) GetNodesByIDs(ctx context.Context, ownerID string, ids []string) ([]model.TimelineNode, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineNode), args.Error(1)
}

// MockShareStore is a mock implementation of service.ShareStore
type MockShareStore struct {
	mock.Mock
}

func (m *MockShareStore) UpsertPolicies(ctx context.Context, policies []model.NodePolicy, grantedBy string) error {
	args := m.Called(ctx, policies, grantedBy)
	return args.Error(0)
}

func (m *MockShareStore) PoliciesForNodes(ctx context.Context, nodeIDs []string) (map[string][]model.NodePolicy, error) {
	args := m.Called(ctx, nodeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]model.NodePolicy), args.Error(1)
}

func (m *MockShareStore) UpdateGrantLevel(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string, level model.VisibilityLevel, expiresAt *time.Time) (int, []string, error) {
	args := m.Called(ctx, ownerID, subjectType, subjectID, level, expiresAt)
	var nodeIDs []string
	if args.Get(1) != nil {
		nodeIDs = args.Get(1).([]string)
	}
	return args.Int(0), nodeIDs, args.Error(2)
}

func (m *MockShareStore) RemoveGrant(ctx context.Context, ownerID string, subjectType model.SubjectType, subjectID string) (int, []string, error) {
	args := m.Called(ctx, ownerID, subjectType, subjectID)
	var nodeIDs []string
	if args.Get(1) != nil {
		nodeIDs = args.Get(1).([]string)
	}
	return args.Int(0), nodeIDs, args.Error(2)
}

// FakeHierarchyLocker is an in-memory service.HierarchyLocker. Set Busy to
// simulate a held lock.
type FakeHierarchyLocker struct {
	Busy    bool
	Locks   int
	Unlocks int
}

func (f *FakeHierarchyLocker) Lock(ctx context.Context, ownerID string, ttl time.Duration) (bool, error) {
	if f.Busy {
		return false, nil
	}
	f.Locks++
	return true, nil
}

func (f *FakeHierarchyLocker) Unlock(ctx context.Context, ownerID string) error {
	f.Unlocks++
	return nil
}

// FakeSessionStore is an in-memory controller.SessionStore.
type FakeSessionStore struct {
	Sessions map[string]string
	Err      error
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{Sessions: map[string]string{}}
}

func (f *FakeSessionStore) CreateSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sessions[sessionID] = userID
	return nil
}
