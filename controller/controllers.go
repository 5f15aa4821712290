// api/controller/controllers.go
package controller

import "github.com/latticehq/lattice/api/service"

type Controllers struct {
	Node   *NodeController
	Share  *ShareController
	Access *AccessController
	Schema *SchemaController
	Org    *OrganizationController
	User   *UserController
	Audit  *AuditController
	Auth   *AuthController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Node:   NewNodeController(services.Node),
		Share:  NewShareController(services.Share),
		Access: NewAccessController(services.Access),
		Schema: NewSchemaController(),
		Org:    NewOrganizationController(services.Org),
		User:   NewUserController(services.User, services.Org),
		Audit:  NewAuditController(services.Audit),
		Auth:   NewAuthController(services.User, redisSessionStore{}),
	}
}
