// api/controller/access_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
	helper_util "github.com/latticehq/lattice/api/util/helper"
)

type AccessController struct {
	accessService service.IAccessService
}

func NewAccessController(accessService service.IAccessService) *AccessController {
	return &AccessController{
		accessService: accessService,
	}
}

// RegisterRoutes registers the authenticated access routes
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	accessGroup := r.Group("/access")
	{
		accessGroup.GET("/nodes", ac.ListAccessibleNodes)
		accessGroup.GET("/nodes/:id", ac.GetNodeForViewer)
	}
}

// RegisterPublicRoutes registers the anonymous surface
func (ac *AccessController) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/public/nodes/:id", ac.GetPublicNode)
}

// ListAccessibleNodes endpoint: everything shared with the caller, with the
// effective level per node. The listing is paginated with limit/offset query
// parameters.
func (ac *AccessController) ListAccessibleNodes(c *gin.Context) {
	action := model.AccessAction(c.DefaultQuery("action", string(model.ActionView)))
	minLevel := model.VisibilityLevel(c.DefaultQuery("level", string(model.LevelOverview)))

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "limit and offset must be integers"))
		return
	}

	nodes, err := ac.accessService.AccessibleNodes(c, util.UserID(c), action, minLevel)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, paginate(nodes, limit, offset))
}

// paginate slices a sorted listing. The resolver already returns nodes in a
// stable order, so limit/offset windows are consistent between calls.
func paginate(nodes []model.AccessibleNode, limit, offset int) []model.AccessibleNode {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(nodes) {
		return []model.AccessibleNode{}
	}
	end := len(nodes)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return nodes[offset:end]
}

// GetNodeForViewer endpoint: the node as the caller is allowed to see it.
func (ac *AccessController) GetNodeForViewer(c *gin.Context) {
	node, err := ac.accessService.NodeForViewer(c, util.UserID(c), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, node)
}

// GetPublicNode endpoint: the node as an anonymous viewer sees it.
func (ac *AccessController) GetPublicNode(c *gin.Context) {
	node, err := ac.accessService.PublicNode(c, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, node)
}
