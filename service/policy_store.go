// api/service/policy_store.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/access"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/model"
)

// PolicyCache is the per-node policy-list cache the resolver reads through.
// A nil slice with a nil error is a miss; a cached empty list comes back
// non-nil.
type PolicyCache interface {
	GetNodePolicies(ctx context.Context, nodeID string) ([]model.NodePolicy, error)
	SetNodePolicies(ctx context.Context, nodeID string, policies []model.NodePolicy) error
}

// CachedPolicyStore fronts a policy source with the encrypted redis cache.
// Reads consult the cache first and backfill on a miss; writers invalidate
// through the share and node services, so a hit is trusted as-is.
type CachedPolicyStore struct {
	inner access.PolicySource
	cache PolicyCache
}

var _ access.PolicySource = &CachedPolicyStore{}

func NewCachedPolicyStore(inner access.PolicySource, cache PolicyCache) *CachedPolicyStore {
	return &CachedPolicyStore{inner: inner, cache: cache}
}

func (s *CachedPolicyStore) PoliciesForNode(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	cached, err := s.cache.GetNodePolicies(ctx, nodeID)
	if err != nil {
		logger.Debug("Policy cache read failed, falling through", zap.Error(err), zap.String("nodeID", nodeID))
	} else if cached != nil {
		return cached, nil
	}

	policies, err := s.inner.PoliciesForNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if policies == nil {
		// A nil slice would round-trip through JSON as null and read back
		// as a miss, so an empty list is stored as [].
		policies = []model.NodePolicy{}
	}
	if err := s.cache.SetNodePolicies(ctx, nodeID, policies); err != nil {
		logger.Debug("Policy cache backfill failed", zap.Error(err), zap.String("nodeID", nodeID))
	}
	return policies, nil
}

// NodeIDsWithPoliciesFor is an index scan across nodes; it passes through
// uncached.
func (s *CachedPolicyStore) NodeIDsWithPoliciesFor(ctx context.Context, subjects []model.SubjectRef) ([]string, error) {
	return s.inner.NodeIDsWithPoliciesFor(ctx, subjects)
}
