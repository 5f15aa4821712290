// api/service/node_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/test/mock"
	"github.com/latticehq/lattice/api/util"
)

const testMaxDepth = 10

func newNodeService(store *mock.MockNodeStore, locker *mock.FakeHierarchyLocker) *service.NodeService {
	return service.NewNodeService(
		store,
		locker,
		util.NewValidationUtil(),
		util.NewCacheService(),
		util.NewNotificationService(),
		util.NewEventBus(),
		testMaxDepth,
	)
}

func ownedNode(id, parentID string) model.TimelineNode {
	return model.TimelineNode{
		ID:       id,
		ParentID: parentID,
		Type:     model.NodeTypeJob,
		Label:    "node " + id,
		OwnerID:  "user-1",
	}
}

func TestCreateNode(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an authenticated owner", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		_, err := svc.CreateNode(ctx, model.CreateNodeRequest{Type: model.NodeTypeJob, Label: "x"}, "")
		assert.ErrorIs(t, err, lattice_errors.ErrAuthenticationRequired)
		store.AssertNotCalled(t, "CreateNode", tmock.Anything, tmock.Anything)
	})

	t.Run("rejects unknown node type", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		_, err := svc.CreateNode(ctx, model.CreateNodeRequest{Type: "hobby", Label: "x"}, "user-1")
		assert.ErrorIs(t, err, lattice_errors.ErrInvalidNodeType)
	})

	t.Run("rejects empty label", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		_, err := svc.CreateNode(ctx, model.CreateNodeRequest{Type: model.NodeTypeJob}, "user-1")
		ve, ok := lattice_errors.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "label", ve.Field)
	})

	t.Run("rejects meta that fails the type schema", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		_, err := svc.CreateNode(ctx, model.CreateNodeRequest{
			Type:  model.NodeTypeJob,
			Label: "Acme",
			Meta:  map[string]interface{}{"company": "Acme"},
		}, "user-1")
		ve, ok := lattice_errors.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "meta.title", ve.Field)
		store.AssertNotCalled(t, "CreateNode", tmock.Anything, tmock.Anything)
	})

	t.Run("persists under the owner", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		created := ownedNode("n1", "")
		store.On("CreateNode", tmock.Anything, tmock.MatchedBy(func(n model.TimelineNode) bool {
			return n.OwnerID == "user-1" && n.Type == model.NodeTypeJob && n.Label == "Acme"
		})).Return(&created, nil)

		node, err := svc.CreateNode(ctx, model.CreateNodeRequest{
			Type:  model.NodeTypeJob,
			Label: "Acme",
			Meta:  map[string]interface{}{"title": "Engineer"},
		}, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "n1", node.ID)
		store.AssertExpectations(t)
	})
}

func TestUpdateNode(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to update", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		existing := ownedNode("n1", "")
		store.On("GetNodeByID", tmock.Anything, "n1", "user-1").Return(&existing, nil)

		_, err := svc.UpdateNode(ctx, "n1", "user-1", model.UpdateNodeRequest{})
		_, ok := lattice_errors.AsValidation(err)
		assert.True(t, ok)
		store.AssertNotCalled(t, "UpdateNode", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("patches label", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		existing := ownedNode("n1", "")
		updated := existing
		updated.Label = "renamed"
		label := "renamed"

		store.On("GetNodeByID", tmock.Anything, "n1", "user-1").Return(&existing, nil)
		store.On("UpdateNode", tmock.Anything, "n1", "user-1", &label, map[string]interface{}(nil)).Return(&updated, nil)

		node, err := svc.UpdateNode(ctx, "n1", "user-1", model.UpdateNodeRequest{Label: &label})
		require.NoError(t, err)
		assert.Equal(t, "renamed", node.Label)
		store.AssertExpectations(t)
	})

	t.Run("missing node", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		store.On("GetNodeByID", tmock.Anything, "ghost", "user-1").Return(nil, lattice_errors.ErrNodeNotFound)

		label := "x"
		_, err := svc.UpdateNode(ctx, "ghost", "user-1", model.UpdateNodeRequest{Label: &label})
		assert.ErrorIs(t, err, lattice_errors.ErrNodeNotFound)
	})
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the cascade count and releases the lock", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		locker := &mock.FakeHierarchyLocker{}
		svc := newNodeService(store, locker)

		store.On("DeleteNode", tmock.Anything, "n1", "user-1").Return(3, nil)

		deleted, err := svc.DeleteNode(ctx, "n1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
		assert.Equal(t, 1, locker.Locks)
		assert.Equal(t, 1, locker.Unlocks)
	})

	t.Run("held lock rejects the delete", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{Busy: true})

		_, err := svc.DeleteNode(ctx, "n1", "user-1")
		assert.Error(t, err)
		store.AssertNotCalled(t, "DeleteNode", tmock.Anything, tmock.Anything, tmock.Anything)
	})
}

func TestMoveNode(t *testing.T) {
	ctx := context.Background()
	forest := []model.TimelineNode{
		ownedNode("root", ""),
		ownedNode("a", "root"),
		ownedNode("b", "a"),
		ownedNode("other", ""),
	}

	t.Run("legal move", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		locker := &mock.FakeHierarchyLocker{}
		svc := newNodeService(store, locker)

		moved := ownedNode("b", "other")
		store.On("GetAllNodes", tmock.Anything, "user-1").Return(forest, nil)
		store.On("MoveNode", tmock.Anything, "b", "other", "user-1").Return(&moved, nil)

		node, err := svc.MoveNode(ctx, "b", "user-1", model.MoveNodeRequest{NewParentID: "other"})
		require.NoError(t, err)
		assert.Equal(t, "other", node.ParentID)
		assert.Equal(t, 1, locker.Locks)
		assert.Equal(t, 1, locker.Unlocks)
		store.AssertExpectations(t)
	})

	t.Run("cycle never reaches the store", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		locker := &mock.FakeHierarchyLocker{}
		svc := newNodeService(store, locker)

		store.On("GetAllNodes", tmock.Anything, "user-1").Return(forest, nil)

		_, err := svc.MoveNode(ctx, "a", "user-1", model.MoveNodeRequest{NewParentID: "b"})
		bre, ok := lattice_errors.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, lattice_errors.RuleCycle, bre.Rule)
		store.AssertNotCalled(t, "MoveNode", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything)
		assert.Equal(t, 1, locker.Unlocks, "lock must be released after a rejected move")
	})

	t.Run("busy hierarchy rejects the move", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{Busy: true})

		_, err := svc.MoveNode(ctx, "b", "user-1", model.MoveNodeRequest{NewParentID: "other"})
		assert.Error(t, err)
		store.AssertNotCalled(t, "GetAllNodes", tmock.Anything, tmock.Anything)
	})

	t.Run("unknown target parent", func(t *testing.T) {
		store := new(mock.MockNodeStore)
		svc := newNodeService(store, &mock.FakeHierarchyLocker{})

		store.On("GetAllNodes", tmock.Anything, "user-1").Return(forest, nil)

		_, err := svc.MoveNode(ctx, "b", "user-1", model.MoveNodeRequest{NewParentID: "ghost"})
		assert.ErrorIs(t, err, lattice_errors.ErrNodeNotFound)
	})
}

func TestGetSubtreeClampsDepth(t *testing.T) {
	ctx := context.Background()
	store := new(mock.MockNodeStore)
	svc := newNodeService(store, &mock.FakeHierarchyLocker{})

	store.On("GetSubtree", tmock.Anything, "n1", "user-1", testMaxDepth).Return([]model.TimelineNode{}, nil)

	// Both an absurd depth and an unset one fall back to the service maximum.
	_, err := svc.GetSubtree(ctx, "n1", "user-1", 500)
	require.NoError(t, err)
	_, err = svc.GetSubtree(ctx, "n1", "user-1", 0)
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "GetSubtree", 2)
}

func TestGetNodesByTypeRejectsUnknownType(t *testing.T) {
	store := new(mock.MockNodeStore)
	svc := newNodeService(store, &mock.FakeHierarchyLocker{})

	_, err := svc.GetNodesByType(context.Background(), "hobby", "user-1")
	assert.ErrorIs(t, err, lattice_errors.ErrInvalidNodeType)
}

func TestGetFullTree(t *testing.T) {
	ctx := context.Background()
	store := new(mock.MockNodeStore)
	svc := newNodeService(store, &mock.FakeHierarchyLocker{})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withCreated := func(n model.TimelineNode, offset time.Duration) model.TimelineNode {
		n.CreatedAt = base.Add(offset)
		return n
	}

	store.On("GetAllNodes", tmock.Anything, "user-1").Return([]model.TimelineNode{
		withCreated(ownedNode("late-root", ""), 2*time.Hour),
		withCreated(ownedNode("root", ""), 0),
		withCreated(ownedNode("a", "root"), time.Hour),
		withCreated(ownedNode("b", "a"), time.Hour),
		withCreated(ownedNode("orphan", "gone"), time.Hour),
	}, nil)

	tree, err := svc.GetFullTree(ctx, "user-1")
	require.NoError(t, err)

	// Roots ordered by creation time; the orphan surfaces as a root rather
	// than vanishing.
	require.Len(t, tree, 3)
	assert.Equal(t, "root", tree[0].ID)
	assert.Equal(t, "orphan", tree[1].ID)
	assert.Equal(t, "late-root", tree[2].ID)

	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "a", tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "b", tree[0].Children[0].Children[0].ID)
}

func TestGetHierarchyStats(t *testing.T) {
	ctx := context.Background()
	store := new(mock.MockNodeStore)
	svc := newNodeService(store, &mock.FakeHierarchyLocker{})

	project := ownedNode("p1", "root")
	project.Type = model.NodeTypeProject

	store.On("GetAllNodes", tmock.Anything, "user-1").Return([]model.TimelineNode{
		ownedNode("root", ""),
		ownedNode("a", "root"),
		project,
	}, nil)

	stats, err := svc.GetHierarchyStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 2, stats.NodesByType[model.NodeTypeJob])
	assert.Equal(t, 1, stats.NodesByType[model.NodeTypeProject])
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 1, stats.RootNodes)
}
