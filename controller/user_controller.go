// api/controller/user_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
)

type UserController struct {
	userService service.IUserService
	orgService  service.IOrganizationService
}

func NewUserController(userService service.IUserService, orgService service.IOrganizationService) *UserController {
	return &UserController{
		userService: userService,
		orgService:  orgService,
	}
}

// RegisterRoutes registers the API routes
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", uc.CreateUser)
		users.GET("/:id", uc.GetUser)
		users.GET("/:id/orgs", uc.GetUserOrganizations)
	}
}

// CreateUser endpoint
func (uc *UserController) CreateUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("", "malformed request body"))
		return
	}

	created, err := uc.userService.CreateUser(c, user)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusCreated, created)
}

// GetUser endpoint. The literal id "me" resolves to the caller.
func (uc *UserController) GetUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "me" {
		userID = util.UserID(c)
	}

	user, err := uc.userService.GetUser(c, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, user)
}

// GetUserOrganizations endpoint: the organizations the user belongs to.
func (uc *UserController) GetUserOrganizations(c *gin.Context) {
	userID := c.Param("id")
	if userID == "me" {
		userID = util.UserID(c)
	}

	orgs, err := uc.orgService.OrganizationsForUser(c, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, orgs)
}
