package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	"github.com/latticehq/lattice/api/model"
	"github.com/latticehq/lattice/api/schema"
)

func TestFor(t *testing.T) {
	t.Run("every node type has a schema", func(t *testing.T) {
		for _, nodeType := range model.AllNodeTypes {
			def, err := schema.For(nodeType)
			require.NoError(t, err, "missing schema for %s", nodeType)
			assert.Equal(t, nodeType, def.Type)
			assert.NotEmpty(t, def.Fields)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := schema.For(model.NodeType("hobby"))
		assert.ErrorIs(t, err, lattice_errors.ErrInvalidNodeType)
	})
}

func TestValidateMeta(t *testing.T) {
	t.Run("valid job meta", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeJob, map[string]interface{}{
			"title":     "Staff Engineer",
			"company":   "Acme",
			"startDate": "2023-01-01",
		})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeJob, map[string]interface{}{
			"company": "Acme",
		})
		ve, ok := lattice_errors.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "meta.title", ve.Field)
	})

	t.Run("empty string does not satisfy required", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeEducation, map[string]interface{}{
			"institution": "",
		})
		_, ok := lattice_errors.AsValidation(err)
		assert.True(t, ok)
	})

	t.Run("undeclared field rejected", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeJob, map[string]interface{}{
			"title":  "Engineer",
			"salary": 100000,
		})
		ve, ok := lattice_errors.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "meta.salary", ve.Field)
	})

	t.Run("wrong kind rejected", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeJob, map[string]interface{}{
			"title":   "Engineer",
			"company": 42,
		})
		ve, ok := lattice_errors.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "meta.company", ve.Field)
	})

	t.Run("list field accepts decoded JSON arrays", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeTypeProject, map[string]interface{}{
			"title":        "Side project",
			"technologies": []interface{}{"go", "neo4j"},
		})
		assert.NoError(t, err)
	})

	t.Run("invalid node type", func(t *testing.T) {
		err := schema.ValidateMeta(model.NodeType("hobby"), nil)
		assert.ErrorIs(t, err, lattice_errors.ErrInvalidNodeType)
	})
}

func TestOverviewMeta(t *testing.T) {
	meta := map[string]interface{}{
		"title":       "Staff Engineer",
		"company":     "Acme",
		"location":    "Berlin",
		"startDate":   "2023-01-01",
		"description": "long private text",
	}

	trimmed := schema.OverviewMeta(model.NodeTypeJob, meta)
	assert.Equal(t, "Staff Engineer", trimmed["title"])
	assert.Equal(t, "Acme", trimmed["company"])
	assert.NotContains(t, trimmed, "location")
	assert.NotContains(t, trimmed, "description")

	assert.Nil(t, schema.OverviewMeta(model.NodeTypeJob, nil))
}
