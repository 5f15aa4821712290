package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticehq/lattice/api/access"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
)

// fakeStore is an in-memory backing for the resolver: node owners, policies
// and org memberships.
type fakeStore struct {
	owners   map[string]string
	policies map[string][]model.NodePolicy
	orgs     map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		owners:   map[string]string{},
		policies: map[string][]model.NodePolicy{},
		orgs:     map[string][]string{},
	}
}

func (f *fakeStore) GetNodeOwner(ctx context.Context, nodeID string) (string, error) {
	owner, ok := f.owners[nodeID]
	if !ok {
		return "", lattice_errors.ErrNodeNotFound
	}
	return owner, nil
}

func (f *fakeStore) PoliciesForNode(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	return f.policies[nodeID], nil
}

func (f *fakeStore) NodeIDsWithPoliciesFor(ctx context.Context, subjects []model.SubjectRef) ([]string, error) {
	match := map[model.SubjectKey]bool{}
	for _, s := range subjects {
		match[model.NewSubjectKey(s.Type, s.ID)] = true
	}
	var ids []string
	now := time.Now()
	for nodeID, policies := range f.policies {
		for _, p := range policies {
			if p.Effect == model.EffectAllow && p.Active(now) && match[p.SubjectKey()] {
				ids = append(ids, nodeID)
				break
			}
		}
	}
	return ids, nil
}

func (f *fakeStore) OrgIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return f.orgs[userID], nil
}

func (f *fakeStore) addPolicy(nodeID string, level model.VisibilityLevel, action model.AccessAction, subjectType model.SubjectType, subjectID string, effect model.PolicyEffect, expiresAt *time.Time) {
	f.policies[nodeID] = append(f.policies[nodeID], model.NodePolicy{
		NodeID:      nodeID,
		Level:       level,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Effect:      effect,
		ExpiresAt:   expiresAt,
	})
}

func newResolver(f *fakeStore) *access.Resolver {
	// Zero TTL disables the decision cache so each assertion hits resolve.
	return access.NewResolver(f, f, f, 0)
}

func TestOwnerAlwaysHasFullAccess(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	// Even an explicit DENY against the owner does not apply.
	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "alice", model.EffectDeny, nil)

	r := newResolver(f)
	for _, action := range []model.AccessAction{model.ActionView, model.ActionEdit} {
		for _, level := range []model.VisibilityLevel{model.LevelOverview, model.LevelFull} {
			ok, err := r.CanAccess(context.Background(), "alice", "n1", action, level)
			require.NoError(t, err)
			assert.True(t, ok, "owner denied %s at %s", action, level)
		}
	}
}

func TestUnknownNodeIsInaccessibleNotAnError(t *testing.T) {
	r := newResolver(newFakeStore())
	ok, err := r.CanAccess(context.Background(), "alice", "ghost", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFullGrantSatisfiesOverview(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := newResolver(f)
	full, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelFull)
	require.NoError(t, err)
	assert.True(t, full)

	overview, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, overview)
}

func TestOverviewGrantDoesNotSatisfyFull(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := newResolver(f)
	full, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelFull)
	require.NoError(t, err)
	assert.False(t, full)

	level, err := r.EffectiveLevel(context.Background(), "bob", "n1")
	require.NoError(t, err)
	assert.Equal(t, model.LevelOverview, level)
}

func TestDenyOverridesAllowAtExactLevel(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)
	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectDeny, nil)

	r := newResolver(f)
	full, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelFull)
	require.NoError(t, err)
	assert.False(t, full)

	// The DENY is scoped to full; the full ALLOW still covers overview.
	overview, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, overview)
}

func TestDenyThroughOrgMembership(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.orgs["bob"] = []string{"acme"}
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectOrg, "acme", model.EffectDeny, nil)

	r := newResolver(f)
	ok, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredPoliciesAreInert(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, &past)
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "carol", model.EffectAllow, &future)

	r := newResolver(f)
	bob, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelFull)
	require.NoError(t, err)
	assert.False(t, bob, "expired grant should not allow")

	carol, err := r.CanAccess(context.Background(), "carol", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, carol)

	// An expired DENY stops masking the live ALLOW.
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "carol", model.EffectDeny, &past)
	carol, err = r.CanAccess(context.Background(), "carol", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, carol)
}

func TestAnonymousSeesOnlyPublicGrants(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.owners["n2"] = "alice"
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectPublic, "", model.EffectAllow, nil)
	f.addPolicy("n2", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := newResolver(f)
	public, err := r.CanAccess(context.Background(), "", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, public)

	private, err := r.CanAccess(context.Background(), "", "n2", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.False(t, private)
}

func TestPublicSubjectsNeverDeny(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)
	// A public DENY row is ignored entirely.
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectPublic, "", model.EffectDeny, nil)

	r := newResolver(f)
	ok, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEditGrantDoesNotImplyView(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelFull, model.ActionEdit, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := newResolver(f)
	view, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	assert.False(t, view)

	edit, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionEdit, model.LevelFull)
	require.NoError(t, err)
	assert.True(t, edit)
}

func TestListAccessibleNodes(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.owners["n2"] = "alice"
	f.owners["n3"] = "alice"
	f.owners["owned"] = "bob"
	f.orgs["bob"] = []string{"acme"}

	f.addPolicy("n1", model.LevelFull, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)
	f.addPolicy("n1", model.LevelFull, model.ActionEdit, model.SubjectUser, "bob", model.EffectAllow, nil)
	f.addPolicy("n2", model.LevelOverview, model.ActionView, model.SubjectOrg, "acme", model.EffectAllow, nil)
	f.addPolicy("n3", model.LevelOverview, model.ActionView, model.SubjectUser, "someone-else", model.EffectAllow, nil)

	r := newResolver(f)
	nodes, err := r.ListAccessibleNodes(context.Background(), "bob", model.ActionView, model.LevelOverview)
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, "n1", nodes[0].NodeID)
	assert.Equal(t, model.LevelFull, nodes[0].Level)
	assert.True(t, nodes[0].CanEdit)
	assert.Equal(t, "n2", nodes[1].NodeID)
	assert.Equal(t, model.LevelOverview, nodes[1].Level)
	assert.False(t, nodes[1].CanEdit)

	// Requiring full visibility drops the org-level overview grant.
	fullOnly, err := r.ListAccessibleNodes(context.Background(), "bob", model.ActionView, model.LevelFull)
	require.NoError(t, err)
	require.Len(t, fullOnly, 1)
	assert.Equal(t, "n1", fullOnly[0].NodeID)

	// Edit filtering keeps only nodes bob can change.
	editable, err := r.ListAccessibleNodes(context.Background(), "bob", model.ActionEdit, model.LevelOverview)
	require.NoError(t, err)
	require.Len(t, editable, 1)
	assert.Equal(t, "n1", editable[0].NodeID)
}

func TestListAccessibleNodesExcludesOwnedNodes(t *testing.T) {
	f := newFakeStore()
	f.owners["mine"] = "bob"
	f.owners["shared"] = "alice"

	// A public grant on bob's own node puts it in the candidate scan, but
	// ownership is not a grant and owned nodes stay out of the listing.
	f.addPolicy("mine", model.LevelOverview, model.ActionView, model.SubjectPublic, "", model.EffectAllow, nil)
	f.addPolicy("shared", model.LevelOverview, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := newResolver(f)
	nodes, err := r.ListAccessibleNodes(context.Background(), "bob", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "shared", nodes[0].NodeID)

	// Other viewers still see the public node.
	anon, err := r.ListAccessibleNodes(context.Background(), "", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "mine", anon[0].NodeID)
}

func TestDecisionCacheInvalidation(t *testing.T) {
	f := newFakeStore()
	f.owners["n1"] = "alice"
	f.addPolicy("n1", model.LevelOverview, model.ActionView, model.SubjectUser, "bob", model.EffectAllow, nil)

	r := access.NewResolver(f, f, f, time.Minute)
	ok, err := r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	require.NoError(t, err)
	require.True(t, ok)

	// Revoke behind the cache's back; the stale decision persists until the
	// node is invalidated.
	f.policies["n1"] = nil
	ok, _ = r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	assert.True(t, ok)

	r.InvalidateNode("n1")
	ok, _ = r.CanAccess(context.Background(), "bob", "n1", model.ActionView, model.LevelOverview)
	assert.False(t, ok)
}
