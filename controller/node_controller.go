// api/controller/node_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
)

type NodeController struct {
	nodeService service.INodeService
}

func NewNodeController(nodeService service.INodeService) *NodeController {
	return &NodeController{
		nodeService: nodeService,
	}
}

// RegisterRoutes registers the API routes
func (nc *NodeController) RegisterRoutes(r *gin.RouterGroup) {
	nodes := r.Group("/nodes")
	{
		nodes.POST("", nc.CreateNode)
		nodes.GET("", nc.ListNodes)
		nodes.GET("/:id", nc.GetNode)
		nodes.PATCH("/:id", nc.UpdateNode)
		nodes.DELETE("/:id", nc.DeleteNode)
		nodes.POST("/:id/move", nc.MoveNode)
		nodes.GET("/:id/children", nc.GetChildren)
		nodes.GET("/:id/ancestors", nc.GetAncestors)
		nodes.GET("/:id/subtree", nc.GetSubtree)
	}
	hier := r.Group("/hierarchy")
	{
		hier.GET("/tree", nc.GetFullTree)
		hier.GET("/roots", nc.GetRootNodes)
		hier.GET("/stats", nc.GetStats)
		hier.GET("/validate", nc.ValidateHierarchy)
		hier.GET("/suggestions", nc.GetSuggestions)
	}
}

// CreateNode endpoint
func (nc *NodeController) CreateNode(c *gin.Context) {
	var req model.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	node, err := nc.nodeService.CreateNode(c, req, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusCreated, node)
}

// ListNodes endpoint. An optional type filter narrows the listing.
func (nc *NodeController) ListNodes(c *gin.Context) {
	ownerID := util.UserID(c)

	if t := c.Query("type"); t != "" {
		nodes, err := nc.nodeService.GetNodesByType(c, model.NodeType(t), ownerID)
		if err != nil {
			util.RespondError(c, err)
			return
		}
		util.RespondOK(c, http.StatusOK, nodes)
		return
	}

	nodes, err := nc.nodeService.ListNodes(c, ownerID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, nodes)
}

// GetNode endpoint
func (nc *NodeController) GetNode(c *gin.Context) {
	node, err := nc.nodeService.GetNodeByID(c, c.Param("id"), util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, node)
}

// UpdateNode endpoint
func (nc *NodeController) UpdateNode(c *gin.Context) {
	var req model.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	node, err := nc.nodeService.UpdateNode(c, c.Param("id"), util.UserID(c), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, node)
}

// DeleteNode endpoint. The whole subtree goes with it.
func (nc *NodeController) DeleteNode(c *gin.Context) {
	deleted, err := nc.nodeService.DeleteNode(c, c.Param("id"), util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, gin.H{"deleted": deleted})
}

// MoveNode endpoint
func (nc *NodeController) MoveNode(c *gin.Context) {
	var req model.MoveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	node, err := nc.nodeService.MoveNode(c, c.Param("id"), util.UserID(c), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, node)
}

// GetChildren endpoint
func (nc *NodeController) GetChildren(c *gin.Context) {
	nodes, err := nc.nodeService.GetChildren(c, c.Param("id"), util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, nodes)
}

// GetAncestors endpoint, root first.
func (nc *NodeController) GetAncestors(c *gin.Context) {
	nodes, err := nc.nodeService.GetAncestors(c, c.Param("id"), util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, nodes)
}

// GetSubtree endpoint
func (nc *NodeController) GetSubtree(c *gin.Context) {
	maxDepth, _ := strconv.Atoi(c.DefaultQuery("max_depth", "0"))

	nodes, err := nc.nodeService.GetSubtree(c, c.Param("id"), util.UserID(c), maxDepth)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, nodes)
}

// GetFullTree endpoint
func (nc *NodeController) GetFullTree(c *gin.Context) {
	tree, err := nc.nodeService.GetFullTree(c, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, tree)
}

// GetRootNodes endpoint
func (nc *NodeController) GetRootNodes(c *gin.Context) {
	nodes, err := nc.nodeService.GetRootNodes(c, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, nodes)
}

// GetStats endpoint
func (nc *NodeController) GetStats(c *gin.Context) {
	stats, err := nc.nodeService.GetHierarchyStats(c, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, stats)
}

// ValidateHierarchy endpoint
func (nc *NodeController) ValidateHierarchy(c *gin.Context) {
	report, err := nc.nodeService.ValidateHierarchy(c, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, report)
}

// GetSuggestions endpoint
func (nc *NodeController) GetSuggestions(c *gin.Context) {
	suggestions, err := nc.nodeService.RecoverySuggestions(c, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, suggestions)
}
