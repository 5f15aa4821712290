// api/controller/auth_controller.go
package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/latticehq/lattice/api/db"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/service"
	"github.com/latticehq/lattice/api/util"
)

const defaultSessionTTL = 24 * time.Hour

// SessionStore persists opaque session tokens; the auth middleware resolves
// them back to user ids on each request.
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
}

type redisSessionStore struct{}

func (redisSessionStore) CreateSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return db.CreateSession(ctx, sessionID, userID, ttl)
}

type AuthController struct {
	userService service.IUserService
	sessions    SessionStore
}

func NewAuthController(userService service.IUserService, sessions SessionStore) *AuthController {
	return &AuthController{
		userService: userService,
		sessions:    sessions,
	}
}

// RegisterRoutes registers the session issuance route. It sits on the
// unauthenticated surface since it is how a caller obtains credentials.
func (ac *AuthController) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/sessions", ac.CreateSession)
	}
}

type createSessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateSession endpoint: issues an opaque bearer token for a known user.
// Identity verification happens upstream at the gateway; this exchanges a
// verified user id for a token the other endpoints accept.
func (ac *AuthController) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, lattice_errors.NewValidationError("user_id", "user_id is required"))
		return
	}

	if _, err := ac.userService.GetUser(c, req.UserID); err != nil {
		util.RespondError(c, err)
		return
	}

	ttl := viper.GetDuration("auth.sessionTTL")
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	token := uuid.New().String()
	if err := ac.sessions.CreateSession(c, token, req.UserID, ttl); err != nil {
		util.RespondError(c, err)
		return
	}

	util.RespondOK(c, http.StatusCreated, gin.H{
		"token":      token,
		"expires_at": time.Now().UTC().Add(ttl),
	})
}
