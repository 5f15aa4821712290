// api/controller/org_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
)

type OrganizationController struct {
	organizationService service.IOrganizationService
}

func NewOrganizationController(organizationService service.IOrganizationService) *OrganizationController {
	return &OrganizationController{
		organizationService: organizationService,
	}
}

// RegisterRoutes registers the API routes
func (oc *OrganizationController) RegisterRoutes(r *gin.RouterGroup) {
	organizations := r.Group("/organizations")
	{
		organizations.POST("", oc.CreateOrganization)
		organizations.GET("/:id", oc.GetOrganization)
		organizations.GET("/:id/members", oc.GetMembers)
		organizations.POST("/:id/members", oc.AddMember)
		organizations.DELETE("/:id/members/:userId", oc.RemoveMember)
	}
}

// CreateOrganization endpoint
func (oc *OrganizationController) CreateOrganization(c *gin.Context) {
	var org model.Organization
	if err := c.ShouldBindJSON(&org); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	created, err := oc.organizationService.CreateOrganization(c, org, util.UserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusCreated, created)
}

// GetOrganization endpoint
func (oc *OrganizationController) GetOrganization(c *gin.Context) {
	org, err := oc.organizationService.GetOrganization(c, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, org)
}

// GetMembers endpoint
func (oc *OrganizationController) GetMembers(c *gin.Context) {
	members, err := oc.organizationService.GetMembers(c, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, members)
}

// AddMember endpoint
func (oc *OrganizationController) AddMember(c *gin.Context) {
	var req struct {
		UserID string           `json:"user_id"`
		Role   model.MemberRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		util.RespondError(c, lattice_errors.NewValidationError("user_id", "user_id is required"))
		return
	}

	if err := oc.organizationService.AddMember(c, c.Param("id"), req.UserID, req.Role); err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusCreated, gin.H{"org_id": c.Param("id"), "user_id": req.UserID})
}

// RemoveMember endpoint
func (oc *OrganizationController) RemoveMember(c *gin.Context) {
	if err := oc.organizationService.RemoveMember(c, c.Param("id"), c.Param("userId")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
