// api/service/services.go
package service

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/latticehq/lattice/api/access"
	"github.com/latticehq/lattice/api/audit"
	"github.com/latticehq/lattice/api/dao"
	"github.com/latticehq/lattice/api/util"
)

type Services struct {
	Node   INodeService
	Share  IShareService
	Access IAccessService
	Org    IOrganizationService
	User   IUserService
	Audit  audit.Service
}

func InitializeServices(
	driver neo4j.Driver,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	maxDepth int,
	decisionCacheTTL time.Duration,
) (*Services, error) {
	nodeDAO := dao.NewNodeDAO(driver, auditService)
	policyDAO := dao.NewPolicyDAO(driver, auditService)
	orgDAO := dao.NewOrgDAO(driver, auditService)
	userDAO := dao.NewUserDAO(driver, auditService)

	policyStore := NewCachedPolicyStore(policyDAO, cacheService)
	resolver := access.NewResolver(nodeDAO, policyStore, orgDAO, decisionCacheTTL)

	services := &Services{
		Node:   NewNodeService(nodeDAO, redisHierarchyLocker{}, validationUtil, cacheService, notificationSvc, eventBus, maxDepth),
		Share:  NewShareService(policyDAO, nodeDAO, validationUtil, cacheService, notificationSvc, eventBus),
		Access: NewAccessService(resolver, nodeDAO, auditService, eventBus),
		Org:    NewOrganizationService(orgDAO, validationUtil, cacheService, notificationSvc, eventBus),
		User:   NewUserService(userDAO, validationUtil, notificationSvc, eventBus),
		Audit:  auditService,
	}

	return services, nil
}
