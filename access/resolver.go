// api/access/resolver.go

// Package access answers "can subject X perform action A at level L on node
// N". It combines the owner short-circuit, the caller's organization
// memberships and the stored ALLOW/DENY policies, with deny overriding
// allow at the same (action, level) coordinate.
package access

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
)

// NodeSource resolves node ownership without owner scoping; the resolver is
// the one layer that legitimately reads across users.
type NodeSource interface {
	GetNodeOwner(ctx context.Context, nodeID string) (string, error)
}

// PolicySource reads stored policies.
type PolicySource interface {
	PoliciesForNode(ctx context.Context, nodeID string) ([]model.NodePolicy, error)
	NodeIDsWithPoliciesFor(ctx context.Context, subjects []model.SubjectRef) ([]string, error)
}

// MembershipSource expands a user into their organization ids.
type MembershipSource interface {
	OrgIDsForUser(ctx context.Context, userID string) ([]string, error)
}

type Resolver struct {
	nodes    NodeSource
	policies PolicySource
	orgs     MembershipSource
	cache    *decisionCache
	now      func() time.Time
}

func NewResolver(nodes NodeSource, policies PolicySource, orgs MembershipSource, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		nodes:    nodes,
		policies: policies,
		orgs:     orgs,
		cache:    newDecisionCache(cacheTTL),
		now:      time.Now,
	}
}

// CanAccess reports whether userID may perform action at level on nodeID.
// An unknown node is inaccessible, not an error. An empty userID is the
// anonymous public subject.
func (r *Resolver) CanAccess(ctx context.Context, userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) (bool, error) {
	if hit, ok := r.cache.get(userID, nodeID, action, level); ok {
		return hit, nil
	}

	allowed, err := r.resolve(ctx, userID, nodeID, action, level)
	if err != nil {
		return false, err
	}
	r.cache.set(userID, nodeID, action, level, allowed)
	return allowed, nil
}

func (r *Resolver) resolve(ctx context.Context, userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) (bool, error) {
	ownerID, err := r.nodes.GetNodeOwner(ctx, nodeID)
	if err != nil {
		if errors.Is(err, lattice_errors.ErrNodeNotFound) {
			return false, nil
		}
		return false, err
	}

	// Owner short-circuit: the owner always has full access, and DENY rows
	// targeting the owner never apply.
	if userID != "" && userID == ownerID {
		return true, nil
	}

	var orgIDs []string
	if userID != "" {
		orgIDs, err = r.orgs.OrgIDsForUser(ctx, userID)
		if err != nil {
			return false, err
		}
	}

	policies, err := r.policies.PoliciesForNode(ctx, nodeID)
	if err != nil {
		return false, err
	}

	return decide(policies, userID, orgIDs, action, level, r.now()), nil
}

// decide applies the allow-minus-deny rule over one node's policies.
// An ALLOW matches at its own level or, for full grants, at overview.
// A DENY matches only its exact level, and public subjects never deny.
func decide(policies []model.NodePolicy, userID string, orgIDs []string, action model.AccessAction, level model.VisibilityLevel, now time.Time) bool {
	orgSet := make(map[string]bool, len(orgIDs))
	for _, id := range orgIDs {
		orgSet[id] = true
	}

	subjectMatches := func(p model.NodePolicy) bool {
		switch p.SubjectType {
		case model.SubjectPublic:
			return true
		case model.SubjectUser:
			return userID != "" && p.SubjectID == userID
		case model.SubjectOrg:
			return orgSet[p.SubjectID]
		}
		return false
	}

	allowed := false
	for _, p := range policies {
		if !p.Active(now) || p.Action != action {
			continue
		}
		switch p.Effect {
		case model.EffectAllow:
			if p.Level.Satisfies(level) && subjectMatches(p) {
				allowed = true
			}
		case model.EffectDeny:
			if p.Level != level || p.SubjectType == model.SubjectPublic {
				continue
			}
			if subjectMatches(p) {
				return false
			}
		}
	}
	return allowed
}

// EffectiveLevel resolves the maximum visibility userID has on nodeID.
func (r *Resolver) EffectiveLevel(ctx context.Context, userID, nodeID string) (model.VisibilityLevel, error) {
	full, err := r.CanAccess(ctx, userID, nodeID, model.ActionView, model.LevelFull)
	if err != nil {
		return model.LevelNone, err
	}
	if full {
		return model.LevelFull, nil
	}
	overview, err := r.CanAccess(ctx, userID, nodeID, model.ActionView, model.LevelOverview)
	if err != nil {
		return model.LevelNone, err
	}
	if overview {
		return model.LevelOverview, nil
	}
	return model.LevelNone, nil
}

// ListAccessibleNodes returns every node userID can reach through policies
// at or above minLevel, resolved node-by-node with the same semantics as
// CanAccess. Owned nodes are not listed; ownership is not a grant.
func (r *Resolver) ListAccessibleNodes(ctx context.Context, userID string, action model.AccessAction, minLevel model.VisibilityLevel) ([]model.AccessibleNode, error) {
	subjects := []model.SubjectRef{{Type: model.SubjectPublic}}
	if userID != "" {
		subjects = append(subjects, model.SubjectRef{Type: model.SubjectUser, ID: userID})
		orgIDs, err := r.orgs.OrgIDsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, orgID := range orgIDs {
			subjects = append(subjects, model.SubjectRef{Type: model.SubjectOrg, ID: orgID})
		}
	}

	candidates, err := r.policies.NodeIDsWithPoliciesFor(ctx, subjects)
	if err != nil {
		return nil, err
	}

	results := make([]*model.AccessibleNode, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, nodeID := range candidates {
		i, nodeID := i, nodeID
		g.Go(func() error {
			// A public or org grant can put the caller's own node in the
			// candidate set; skip it so the listing stays grants-only.
			ownerID, err := r.nodes.GetNodeOwner(gctx, nodeID)
			if err != nil {
				if errors.Is(err, lattice_errors.ErrNodeNotFound) {
					return nil
				}
				return err
			}
			if userID != "" && userID == ownerID {
				return nil
			}

			level, err := r.EffectiveLevel(gctx, userID, nodeID)
			if err != nil {
				return err
			}
			if level == model.LevelNone || !level.Satisfies(minLevel) {
				return nil
			}
			canEdit, err := r.CanAccess(gctx, userID, nodeID, model.ActionEdit, level)
			if err != nil {
				return err
			}
			if action == model.ActionEdit && !canEdit {
				return nil
			}
			results[i] = &model.AccessibleNode{NodeID: nodeID, Level: level, CanEdit: canEdit}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.AccessibleNode
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

// InvalidateNode drops cached decisions for one node, e.g. after its
// policies change.
func (r *Resolver) InvalidateNode(nodeID string) {
	n := r.cache.invalidateNode(nodeID)
	if n > 0 {
		logger.Debug("Invalidated access decisions", zap.String("nodeID", nodeID), zap.Int("count", n))
	}
}

// InvalidateAll drops every cached decision, e.g. after membership changes.
func (r *Resolver) InvalidateAll() {
	r.cache.reset()
}

type decisionEntry struct {
	allowed   bool
	nodeID    string
	expiresAt time.Time
}

// decisionCache memoizes resolved decisions for a short TTL. Policy expiry
// is only as fresh as the TTL, which is why it stays small.
type decisionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]decisionEntry
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	return &decisionCache{
		ttl:     ttl,
		entries: make(map[string]decisionEntry),
	}
}

func cacheKey(userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) string {
	return userID + "|" + nodeID + "|" + string(action) + "|" + string(level)
}

func (c *decisionCache) get(userID, nodeID string, action model.AccessAction, level model.VisibilityLevel) (bool, bool) {
	if c.ttl <= 0 {
		return false, false
	}
	key := cacheKey(userID, nodeID, action, level)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return false, false
	}
	return entry.allowed, true
}

func (c *decisionCache) set(userID, nodeID string, action model.AccessAction, level model.VisibilityLevel, allowed bool) {
	if c.ttl <= 0 {
		return
	}
	key := cacheKey(userID, nodeID, action, level)
	c.mu.Lock()
	c.entries[key] = decisionEntry{
		allowed:   allowed,
		nodeID:    nodeID,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *decisionCache) invalidateNode(nodeID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, entry := range c.entries {
		if entry.nodeID == nodeID {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

func (c *decisionCache) reset() {
	c.mu.Lock()
	c.entries = make(map[string]decisionEntry)
	c.mu.Unlock()
}
