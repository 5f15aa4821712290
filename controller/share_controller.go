// api/controller/share_controller.go
package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
)

type ShareController struct {
	shareService service.IShareService
}

func NewShareController(shareService service.IShareService) *ShareController {
	return &ShareController{
		shareService: shareService,
	}
}

// RegisterRoutes registers the API routes
func (sc *ShareController) RegisterRoutes(r *gin.RouterGroup) {
	shares := r.Group("/shares")
	{
		shares.GET("/permissions", sc.GetCurrentPermissions)
		shares.POST("", sc.ExecuteShare)
		shares.PATCH("/:subjectKey", sc.UpdatePermission)
		shares.DELETE("/:subjectKey", sc.RemovePermission)
	}
}

// GetCurrentPermissions endpoint. nodeIds is a comma-separated list of the
// owner's nodes the share dialog is inspecting.
func (sc *ShareController) GetCurrentPermissions(c *gin.Context) {
	raw := c.Query("nodeIds")
	if raw == "" {
		util.RespondError(c, lattice_errors.NewValidationError("nodeIds", "nodeIds query parameter is required"))
		return
	}
	var nodeIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			nodeIDs = append(nodeIDs, id)
		}
	}

	permissions, err := sc.shareService.GetCurrentPermissions(c, util.UserID(c), nodeIDs)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, permissions)
}

// ExecuteShare endpoint
func (sc *ShareController) ExecuteShare(c *gin.Context) {
	var req model.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	created, err := sc.shareService.ExecuteShare(c, util.UserID(c), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusCreated, gin.H{"policies": created})
}

// UpdatePermission endpoint
func (sc *ShareController) UpdatePermission(c *gin.Context) {
	var req model.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	updated, err := sc.shareService.UpdatePermission(c, util.UserID(c), model.SubjectKey(c.Param("subjectKey")), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, gin.H{"updated": updated})
}

// RemovePermission endpoint
func (sc *ShareController) RemovePermission(c *gin.Context) {
	removed, err := sc.shareService.RemovePermission(c, util.UserID(c), model.SubjectKey(c.Param("subjectKey")))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, gin.H{"removed": removed})
}
