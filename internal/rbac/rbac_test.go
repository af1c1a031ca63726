package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge/internal/schema"
)

func ownedModel() *schema.Definition {
	return &schema.Definition{
		Name:       "Task",
		Fields:     []schema.Field{{Name: "title", Type: schema.FieldString, Required: true}},
		OwnerField: "ownerId",
		RBAC: schema.Grants{
			RoleAdmin:   {PermAll},
			RoleManager: {"create", "read", "update", "delete"},
			RoleViewer:  {"read"},
			"AUDITOR":   {PermAll},
		},
	}
}

func uintPtr(v uint64) *uint64 { return &v }

func TestWildcardAllowsEveryOperationRegardlessOfOwner(t *testing.T) {
	def := ownedModel()
	foreign := uintPtr(99)

	for _, role := range []string{RoleAdmin, "AUDITOR"} {
		for _, op := range []Operation{OpCreate, OpRead, OpUpdate, OpDelete} {
			assert.NoError(t, Authorize(def, role, 1, op, foreign), "role %s op %s", role, op)
		}
	}
}

func TestRawPermissionStillOwnershipGated(t *testing.T) {
	def := ownedModel()

	// Manager holds update and delete, but record 7 belongs to user 99.
	require.Error(t, Authorize(def, RoleManager, 7, OpUpdate, uintPtr(99)))
	require.Error(t, Authorize(def, RoleManager, 7, OpDelete, uintPtr(99)))

	// The same manager succeeds on their own record.
	require.NoError(t, Authorize(def, RoleManager, 7, OpUpdate, uintPtr(7)))
	require.NoError(t, Authorize(def, RoleManager, 7, OpDelete, uintPtr(7)))
}

func TestUnknownRoleAlwaysDenied(t *testing.T) {
	def := ownedModel()
	for _, op := range []Operation{OpCreate, OpRead, OpUpdate, OpDelete} {
		assert.Error(t, Authorize(def, "INTERN", 1, op, nil), "op %s", op)
	}
}

func TestMissingPermissionDenied(t *testing.T) {
	def := ownedModel()
	require.Error(t, Authorize(def, RoleViewer, 1, OpCreate, nil))
	require.Error(t, Authorize(def, RoleViewer, 1, OpUpdate, uintPtr(1)))
	require.NoError(t, Authorize(def, RoleViewer, 1, OpRead, nil))
}

func TestNoOwnerFieldMeansNoOwnershipConstraint(t *testing.T) {
	def := ownedModel()
	def.OwnerField = ""
	require.NoError(t, Authorize(def, RoleManager, 7, OpUpdate, uintPtr(99)))
}

func TestUnownedRecordIsUnconstrained(t *testing.T) {
	def := ownedModel()
	require.NoError(t, Authorize(def, RoleManager, 7, OpUpdate, nil))
}

func TestOwnsRecord(t *testing.T) {
	def := ownedModel()

	assert.True(t, OwnsRecord(def, RoleAdmin, 1, uintPtr(99)))
	assert.True(t, OwnsRecord(def, "AUDITOR", 1, uintPtr(99)))
	assert.True(t, OwnsRecord(def, RoleViewer, 7, uintPtr(7)))
	assert.False(t, OwnsRecord(def, RoleViewer, 7, uintPtr(99)))
}
