// api/controller/schema_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/schema"
	"github.com/latticehq/lattice/api/util"
)

type SchemaController struct{}

func NewSchemaController() *SchemaController {
	return &SchemaController{}
}

// RegisterRoutes registers the API routes. Schemas are static, so the
// endpoints are read-only.
func (sc *SchemaController) RegisterRoutes(r *gin.RouterGroup) {
	schemas := r.Group("/schema")
	{
		schemas.GET("/types", sc.ListNodeTypes)
		schemas.GET("/:type", sc.GetSchema)
	}
}

// ListNodeTypes endpoint
func (sc *SchemaController) ListNodeTypes(c *gin.Context) {
	util.RespondOK(c, http.StatusOK, model.AllNodeTypes)
}

// GetSchema endpoint
func (sc *SchemaController) GetSchema(c *gin.Context) {
	def, err := schema.For(model.NodeType(c.Param("type")))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondOK(c, http.StatusOK, def)
}
