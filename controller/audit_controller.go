// api/controller/audit_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticehq/lattice/api/audit"
	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/util"
)

// defaultAuditWindow bounds an unqualified query to the recent past.
const defaultAuditWindow = 24 * time.Hour

type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// RegisterRoutes registers the audit query routes
func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	auditGroup := r.Group("/audit")
	{
		auditGroup.GET("/logs", ac.QueryLogs)
	}
}

// QueryLogs endpoint: audit entries filtered by time window, user and node.
// from/to are RFC3339; the window defaults to the last 24 hours.
func (ac *AuditController) QueryLogs(c *gin.Context) {
	to := time.Now()
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			util.RespondError(c, lattice_errors.NewValidationError("to", "must be an RFC3339 timestamp"))
			return
		}
		to = parsed
	}

	from := to.Add(-defaultAuditWindow)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			util.RespondError(c, lattice_errors.NewValidationError("from", "must be an RFC3339 timestamp"))
			return
		}
		from = parsed
	}
	if !from.Before(to) {
		util.RespondError(c, lattice_errors.NewValidationError("from", "must be before to"))
		return
	}

	logs, err := ac.auditService.QueryLogs(c, from, to, c.Query("userId"), c.Query("nodeId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if logs == nil {
		logs = []audit.AuditLog{}
	}
	util.RespondOK(c, http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}
