// api/controller/auth_controller_test.go
package controller_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/latticehq/lattice/api/controller"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/test/mock"
)

func setupAuthRouter(users *mock.MockUserService, sessions *mock.FakeSessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller.NewAuthController(users, sessions).RegisterRoutes(router.Group("/"))
	return router
}

func TestCreateSessionEndpoint(t *testing.T) {
	t.Run("issues a token for a known user", func(t *testing.T) {
		users := new(mock.MockUserService)
		sessions := mock.NewFakeSessionStore()
		router := setupAuthRouter(users, sessions)

		users.On("GetUser", tmock.Anything, "user-1").
			Return(&model.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}, nil)

		w := doJSON(t, router, http.MethodPost, "/auth/sessions", gin.H{"user_id": "user-1"})
		assert.Equal(t, http.StatusCreated, w.Code)

		resp := decodeResponse(t, w)
		require.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		token, ok := data["token"].(string)
		require.True(t, ok)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, data["expires_at"])

		// The issued token resolves back to the user.
		assert.Equal(t, "user-1", sessions.Sessions[token])
		users.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mock.MockUserService)
		sessions := mock.NewFakeSessionStore()
		router := setupAuthRouter(users, sessions)

		users.On("GetUser", tmock.Anything, "ghost").
			Return(nil, lattice_errors.ErrUserNotFound)

		w := doJSON(t, router, http.MethodPost, "/auth/sessions", gin.H{"user_id": "ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "USER_NOT_FOUND", resp.Error.Code)
		assert.Empty(t, sessions.Sessions)
	})

	t.Run("missing user id", func(t *testing.T) {
		users := new(mock.MockUserService)
		router := setupAuthRouter(users, mock.NewFakeSessionStore())

		w := doJSON(t, router, http.MethodPost, "/auth/sessions", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		users.AssertNotCalled(t, "GetUser")
	})

	t.Run("session store failure", func(t *testing.T) {
		users := new(mock.MockUserService)
		sessions := mock.NewFakeSessionStore()
		sessions.Err = assert.AnError
		router := setupAuthRouter(users, sessions)

		users.On("GetUser", tmock.Anything, "user-1").
			Return(&model.User{ID: "user-1"}, nil)

		w := doJSON(t, router, http.MethodPost, "/auth/sessions", gin.H{"user_id": "user-1"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
