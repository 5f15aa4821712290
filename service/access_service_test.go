// api/service/access_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticehq/lattice/api/access"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/test/mock"
	"github.com/latticehq/lattice/api/util"
)

// fakeAccessStore backs the resolver with in-memory owners, policies and
// memberships, and doubles as the viewer node source.
type fakeAccessStore struct {
	owners   map[string]string
	policies map[string][]model.NodePolicy
	orgs     map[string][]string
}

func newFakeAccessStore() *fakeAccessStore {
	return &fakeAccessStore{
		owners:   map[string]string{},
		policies: map[string][]model.NodePolicy{},
		orgs:     map[string][]string{},
	}
}

func (f *fakeAccessStore) GetNodeOwner(ctx context.Context, nodeID string) (string, error) {
	owner, ok := f.owners[nodeID]
	if !ok {
		return "", lattice_errors.ErrNodeNotFound
	}
	return owner, nil
}

func (f *fakeAccessStore) PoliciesForNode(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	return f.policies[nodeID], nil
}

func (f *fakeAccessStore) NodeIDsWithPoliciesFor(ctx context.Context, subjects []model.SubjectRef) ([]string, error) {
	return nil, nil
}

func (f *fakeAccessStore) OrgIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return f.orgs[userID], nil
}

func (f *fakeAccessStore) GetNodeAnyOwner(ctx context.Context, nodeID string) (*model.TimelineNode, error) {
	if _, ok := f.owners[nodeID]; !ok {
		return nil, lattice_errors.ErrNodeNotFound
	}
	return &model.TimelineNode{ID: nodeID, OwnerID: f.owners[nodeID], Type: model.NodeTypeJob}, nil
}

// A membership change must drop cached decisions: a removed org member would
// otherwise keep org-scoped access until the decision TTL expires.
func TestMembershipChangeDropsCachedDecisions(t *testing.T) {
	ctx := context.Background()
	f := newFakeAccessStore()
	f.owners["n1"] = "alice"
	f.orgs["bob"] = []string{"acme"}
	f.policies["n1"] = []model.NodePolicy{{
		NodeID:      "n1",
		Level:       model.LevelOverview,
		Action:      model.ActionView,
		SubjectType: model.SubjectOrg,
		SubjectID:   "acme",
		Effect:      model.EffectAllow,
	}}

	resolver := access.NewResolver(f, f, f, time.Minute)
	bus := util.NewEventBus()
	svc := service.NewAccessService(resolver, f, new(mock.MockAuditService), bus)

	ok, err := svc.CanAccess(ctx, "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.True(t, ok)

	// Remove the membership behind the cache's back: the stale allow persists
	// until the member event lands.
	f.orgs["bob"] = nil
	ok, err = svc.CanAccess(ctx, "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.True(t, ok, "decision should still be cached")

	bus.Publish(ctx, util.EventMemberRemoved, model.OrgMembership{OrgID: "acme", UserID: "bob"})
	assert.Eventually(t, func() bool {
		ok, err := svc.CanAccess(ctx, "bob", "n1", model.ActionView, model.LevelOverview)
		return err == nil && !ok
	}, time.Second, 10*time.Millisecond, "membership removal should invalidate cached decisions")
}

func TestMembershipGrantTakesEffectPromptly(t *testing.T) {
	ctx := context.Background()
	f := newFakeAccessStore()
	f.owners["n1"] = "alice"
	f.policies["n1"] = []model.NodePolicy{{
		NodeID:      "n1",
		Level:       model.LevelOverview,
		Action:      model.ActionView,
		SubjectType: model.SubjectOrg,
		SubjectID:   "acme",
		Effect:      model.EffectAllow,
	}}

	resolver := access.NewResolver(f, f, f, time.Minute)
	bus := util.NewEventBus()
	svc := service.NewAccessService(resolver, f, new(mock.MockAuditService), bus)

	ok, err := svc.CanAccess(ctx, "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.False(t, ok)

	f.orgs["bob"] = []string{"acme"}
	bus.Publish(ctx, util.EventMemberAdded, model.OrgMembership{OrgID: "acme", UserID: "bob", Role: model.RoleMember})
	assert.Eventually(t, func() bool {
		ok, err := svc.CanAccess(ctx, "bob", "n1", model.ActionView, model.LevelOverview)
		return err == nil && ok
	}, time.Second, 10*time.Millisecond, "new membership should be visible once the member event lands")
}
