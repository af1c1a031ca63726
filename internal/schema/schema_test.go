package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge/internal/apperr"
)

func validDefinition() *Definition {
	return &Definition{
		Name: "Product",
		Fields: []Field{
			{Name: "title", Type: FieldString, Required: true},
			{Name: "price", Type: FieldNumber},
			{Name: "inStock", Type: FieldBoolean},
			{Name: "releasedAt", Type: FieldDate},
		},
		RBAC: Grants{"ADMIN": {"all"}, "VIEWER": {"read"}},
	}
}

func TestValidateAcceptsWellFormedDefinition(t *testing.T) {
	def := validDefinition()
	require.NoError(t, def.Validate())
	assert.Equal(t, "products", def.TableName)
	assert.Equal(t, "product", def.PathSegment())
}

func TestValidateKeepsExplicitTableName(t *testing.T) {
	def := validDefinition()
	def.TableName = "catalog"
	require.NoError(t, def.Validate())
	assert.Equal(t, "catalog", def.TableName)
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	def := validDefinition()
	def.Fields = nil
	err := def.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, err.Error(), "at least one field")
}

func TestValidateRejectsMissingName(t *testing.T) {
	def := validDefinition()
	def.Name = "  "
	require.ErrorIs(t, def.Validate(), apperr.ErrValidation)
}

func TestValidateRejectsUnknownFieldType(t *testing.T) {
	def := validDefinition()
	def.Fields[0].Type = "blob"
	err := def.Validate()
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "invalid type")
}

func TestValidateRejectsUnnamedField(t *testing.T) {
	def := validDefinition()
	def.Fields = append(def.Fields, Field{Type: FieldString})
	require.ErrorIs(t, def.Validate(), apperr.ErrValidation)
}

func TestValidateRejectsDuplicateFieldNames(t *testing.T) {
	def := validDefinition()
	def.Fields = append(def.Fields, Field{Name: "title", Type: FieldString})
	require.ErrorIs(t, def.Validate(), apperr.ErrValidation)
}

func TestValidateRejectsOwnerFieldCollision(t *testing.T) {
	def := validDefinition()
	def.OwnerField = "title"
	require.ErrorIs(t, def.Validate(), apperr.ErrValidation)
}

func TestValidateRejectsMissingRBAC(t *testing.T) {
	def := validDefinition()
	def.RBAC = nil
	require.ErrorIs(t, def.Validate(), apperr.ErrValidation)
}

func TestCheckDataRequiredFields(t *testing.T) {
	def := validDefinition()

	err := def.CheckData(map[string]any{"price": 10.0}, true)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "title is required")

	require.NoError(t, def.CheckData(map[string]any{"title": "ok"}, true))

	// Patches do not require required fields to be present.
	require.NoError(t, def.CheckData(map[string]any{"price": 1.5}, false))
}

func TestCheckDataTypeMismatches(t *testing.T) {
	def := validDefinition()

	cases := []map[string]any{
		{"title": 12},
		{"title": "x", "price": "cheap"},
		{"title": "x", "inStock": "yes"},
		{"title": "x", "releasedAt": "not-a-date"},
		{"title": "x", "releasedAt": true},
	}
	for i, data := range cases {
		assert.ErrorIs(t, def.CheckData(data, true), apperr.ErrValidation, "case %d", i)
	}
}

func TestCheckDataAcceptsDeclaredTypes(t *testing.T) {
	def := validDefinition()
	data := map[string]any{
		"title":      "widget",
		"price":      19.99,
		"inStock":    true,
		"releasedAt": "2026-01-15",
		"extra":      []any{"undeclared keys pass through"},
	}
	require.NoError(t, def.CheckData(data, true))

	data["releasedAt"] = "2026-01-15T10:30:00Z"
	require.NoError(t, def.CheckData(data, true))
}

func TestCloneIsDeep(t *testing.T) {
	def := validDefinition()
	require.NoError(t, def.Validate())

	cloned := def.Clone()
	cloned.Fields[0].Name = "changed"
	cloned.RBAC["ADMIN"][0] = "read"

	assert.Equal(t, "title", def.Fields[0].Name)
	assert.Equal(t, "all", def.RBAC["ADMIN"][0])
}
