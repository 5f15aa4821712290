// api/util/cache_service.go

package util

import (
	"context"

	"github.com/latticehq/lattice/api/db"
	"github.com/latticehq/lattice/api/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetNode(ctx context.Context, nodeID string) (*model.TimelineNode, error) {
	return db.GetCachedNode(ctx, nodeID)
}

func (c *CacheService) SetNode(ctx context.Context, node model.TimelineNode) error {
	return db.CacheNode(ctx, &node)
}

func (c *CacheService) DeleteNode(ctx context.Context, nodeID string) error {
	return db.DeleteCachedNode(ctx, nodeID)
}

func (c *CacheService) GetNodePolicies(ctx context.Context, nodeID string) ([]model.NodePolicy, error) {
	return db.GetCachedNodePolicies(ctx, nodeID)
}

func (c *CacheService) SetNodePolicies(ctx context.Context, nodeID string, policies []model.NodePolicy) error {
	return db.CacheNodePolicies(ctx, nodeID, policies)
}

func (c *CacheService) DeleteNodePolicies(ctx context.Context, nodeID string) error {
	return db.DeleteCachedNodePolicies(ctx, nodeID)
}

func (c *CacheService) GetOrganization(ctx context.Context, organizationID string) (*model.Organization, error) {
	return db.GetCachedOrganization(ctx, organizationID)
}

func (c *CacheService) SetOrganization(ctx context.Context, organization model.Organization) error {
	return db.CacheOrganization(ctx, &organization)
}

func (c *CacheService) DeleteOrganization(ctx context.Context, organizationID string) error {
	return db.DeleteCachedOrganization(ctx, organizationID)
}
