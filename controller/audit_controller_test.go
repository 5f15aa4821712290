// api/controller/audit_controller_test.go
package controller_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/latticehq/lattice/api/audit"
	"github.com/latticehq/lattice/api/controller"
	"github.com/latticehq/lattice/api/test/mock"
)

func setupAuditRouter(svc *mock.MockAuditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller.NewAuditController(svc).RegisterRoutes(router.Group("/"))
	return router
}

func TestQueryAuditLogsEndpoint(t *testing.T) {
	t.Run("explicit window with filters", func(t *testing.T) {
		svc := new(mock.MockAuditService)
		router := setupAuditRouter(svc)

		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		logs := []audit.AuditLog{{
			Timestamp:     from.Add(time.Hour),
			UserID:        "user-1",
			Action:        audit.ActionAccessDenied,
			NodeID:        "n1",
			AccessGranted: false,
		}}
		svc.On("QueryLogs", tmock.Anything, from, to, "user-1", "n1").Return(logs, nil)

		w := doJSON(t, router, http.MethodGet,
			"/audit/logs?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z&userId=user-1&nodeId=n1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(1), data["count"])
		svc.AssertExpectations(t)
	})

	t.Run("defaults to the last day", func(t *testing.T) {
		svc := new(mock.MockAuditService)
		router := setupAuditRouter(svc)

		svc.On("QueryLogs", tmock.Anything,
			tmock.MatchedBy(func(from time.Time) bool {
				return time.Since(from) > 23*time.Hour && time.Since(from) < 25*time.Hour
			}),
			tmock.MatchedBy(func(to time.Time) bool {
				return time.Since(to) < time.Minute
			}),
			"", "").Return([]audit.AuditLog{}, nil)

		w := doJSON(t, router, http.MethodGet, "/audit/logs", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(0), data["count"])
		assert.NotNil(t, data["logs"])
		svc.AssertExpectations(t)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		svc := new(mock.MockAuditService)
		router := setupAuditRouter(svc)

		w := doJSON(t, router, http.MethodGet, "/audit/logs?from=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		svc.AssertNotCalled(t, "QueryLogs")
	})

	t.Run("rejects inverted windows", func(t *testing.T) {
		svc := new(mock.MockAuditService)
		router := setupAuditRouter(svc)

		w := doJSON(t, router, http.MethodGet,
			"/audit/logs?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "QueryLogs")
	})
}
