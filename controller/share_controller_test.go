// api/controller/share_controller_test.go
package controller_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/latticehq/lattice/api/controller"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/test/mock"
	"github.com/latticehq/lattice/api/util"
)

func setupShareRouter(svc *mock.MockShareService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	controller.NewShareController(svc).RegisterRoutes(router.Group("/"))
	return router
}

func TestGetCurrentPermissionsEndpoint(t *testing.T) {
	t.Run("requires nodeIds", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		w := doJSON(t, router, http.MethodGet, "/shares/permissions", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, util.CodeValidation, decodeResponse(t, w).Error.Code)
		svc.AssertNotCalled(t, "GetCurrentPermissions", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("splits the node id list", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		svc.On("GetCurrentPermissions", tmock.Anything, "user-1", []string{"n1", "n2"}).
			Return(&model.CurrentPermissions{
				Users:         []model.SubjectPermission{},
				Organizations: []model.SubjectPermission{},
			}, nil)

		w := doJSON(t, router, http.MethodGet, "/shares/permissions?nodeIds=n1,%20n2", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestExecuteShareEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		svc.On("ExecuteShare", tmock.Anything, "user-1", tmock.Anything).Return(4, nil)

		w := doJSON(t, router, http.MethodPost, "/shares", gin.H{
			"targets":  []gin.H{{"subject_type": "user", "subject_id": "user-2", "level": "overview"}},
			"node_ids": []string{"n1", "n2"},
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, float64(4), data["policies"])
	})

	t.Run("foreign node", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		svc.On("ExecuteShare", tmock.Anything, "user-1", tmock.Anything).
			Return(0, lattice_errors.ErrNodeNotFound)

		w := doJSON(t, router, http.MethodPost, "/shares", gin.H{
			"targets":  []gin.H{{"subject_type": "user", "subject_id": "user-2", "level": "overview"}},
			"node_ids": []string{"not-mine"},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRemovePermissionEndpoint(t *testing.T) {
	t.Run("revoked", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		svc.On("RemovePermission", tmock.Anything, "user-1", model.SubjectKey("user:user-2")).
			Return(3, nil)

		w := doJSON(t, router, http.MethodDelete, "/shares/user:user-2", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["removed"])
	})

	t.Run("unknown grant", func(t *testing.T) {
		svc := new(mock.MockShareService)
		router := setupShareRouter(svc, "user-1")

		svc.On("RemovePermission", tmock.Anything, "user-1", model.SubjectKey("org:ghost")).
			Return(0, lattice_errors.ErrPolicyNotFound)

		w := doJSON(t, router, http.MethodDelete, "/shares/org:ghost", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, util.CodePolicyNotFound, decodeResponse(t, w).Error.Code)
	})
}

func TestUpdatePermissionEndpoint(t *testing.T) {
	svc := new(mock.MockShareService)
	router := setupShareRouter(svc, "user-1")

	svc.On("UpdatePermission", tmock.Anything, "user-1", model.SubjectKey("user:user-2"),
		model.UpdatePermissionRequest{Level: model.LevelFull}).Return(2, nil)

	w := doJSON(t, router, http.MethodPatch, "/shares/user:user-2", gin.H{"level": "full"})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["updated"])
}
