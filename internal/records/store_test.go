package records

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, errOpen)
	require.NoError(t, db.Migrate(conn))
	return NewStore(conn)
}

func uintPtr(v uint64) *uint64 { return &v }

func TestCreateAndFindOne(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, errCreate := store.Create(ctx, "Product", map[string]any{"title": "widget"}, uintPtr(1))
	require.NoError(t, errCreate)
	require.NotEmpty(t, rec.ID)

	found, errFind := store.FindOne(ctx, rec.ID, "Product")
	require.NoError(t, errFind)

	data, errDecode := Decode(found)
	require.NoError(t, errDecode)
	assert.Equal(t, "widget", data["title"])
	require.NotNil(t, found.OwnerID)
	assert.Equal(t, uint64(1), *found.OwnerID)
}

func TestFindOneScopesByModel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, errCreate := store.Create(ctx, "Product", map[string]any{"title": "widget"}, nil)
	require.NoError(t, errCreate)

	_, errFind := store.FindOne(ctx, rec.ID, "Order")
	require.ErrorIs(t, errFind, apperr.ErrNotFound)
}

func TestUpdateMergeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, errCreate := store.Create(ctx, "Product", map[string]any{"title": "widget", "price": 5.0}, nil)
	require.NoError(t, errCreate)

	existing, errDecode := Decode(rec)
	require.NoError(t, errDecode)
	existing["price"] = 9.0

	_, errUpdate := store.Update(ctx, rec, existing)
	require.NoError(t, errUpdate)

	found, errFind := store.FindOne(ctx, rec.ID, "Product")
	require.NoError(t, errFind)
	data, errDecodeFound := Decode(found)
	require.NoError(t, errDecodeFound)

	assert.Equal(t, "widget", data["title"], "untouched keys are retained")
	assert.Equal(t, 9.0, data["price"])
}

func TestFindPagePaginationAndOwnerScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		owner := uintPtr(1)
		if i >= 4 {
			owner = uintPtr(2)
		}
		_, errCreate := store.Create(ctx, "Product", map[string]any{"n": float64(i)}, owner)
		require.NoError(t, errCreate)
	}

	rows, total, errAll := store.FindPage(ctx, "Product", nil, 1, 3)
	require.NoError(t, errAll)
	assert.EqualValues(t, 7, total)
	assert.Len(t, rows, 3)

	rows, total, errLast := store.FindPage(ctx, "Product", nil, 3, 3)
	require.NoError(t, errLast)
	assert.EqualValues(t, 7, total)
	assert.Len(t, rows, 1)

	_, total, errScoped := store.FindPage(ctx, "Product", uintPtr(2), 1, 10)
	require.NoError(t, errScoped)
	assert.EqualValues(t, 3, total)
}

func TestDeleteAndDeleteByModel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, errCreate := store.Create(ctx, "Product", map[string]any{"title": "a"}, nil)
	require.NoError(t, errCreate)
	_, errOther := store.Create(ctx, "Product", map[string]any{"title": "b"}, nil)
	require.NoError(t, errOther)
	keep, errKeep := store.Create(ctx, "Order", map[string]any{"title": "c"}, nil)
	require.NoError(t, errKeep)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, errFind := store.FindOne(ctx, rec.ID, "Product")
	require.ErrorIs(t, errFind, apperr.ErrNotFound)

	require.NoError(t, store.DeleteByModel(ctx, "Product"))
	_, total, errPage := store.FindPage(ctx, "Product", nil, 1, 10)
	require.NoError(t, errPage)
	assert.Zero(t, total)

	// Other models are untouched.
	_, errFindKeep := store.FindOne(ctx, keep.ID, "Order")
	require.NoError(t, errFindKeep)
}

func TestHasDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, errCreate := store.Create(ctx, "Product", map[string]any{"sku": "ABC-1"}, nil)
	require.NoError(t, errCreate)

	duplicate, errCheck := store.HasDuplicate(ctx, "Product", "sku", "ABC-1", "")
	require.NoError(t, errCheck)
	assert.True(t, duplicate)

	// The record itself is excluded when updating in place.
	duplicate, errSelf := store.HasDuplicate(ctx, "Product", "sku", "ABC-1", rec.ID)
	require.NoError(t, errSelf)
	assert.False(t, duplicate)

	duplicate, errOtherModel := store.HasDuplicate(ctx, "Order", "sku", "ABC-1", "")
	require.NoError(t, errOtherModel)
	assert.False(t, duplicate, "uniqueness is per model")

	duplicate, errMissing := store.HasDuplicate(ctx, "Product", "sku", "XYZ-9", "")
	require.NoError(t, errMissing)
	assert.False(t, duplicate)
}

func TestHasDuplicateMatchesNumericValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Stored as a JSON number; sqlite extracts it with integer affinity.
	_, errCreate := store.Create(ctx, "Product", map[string]any{"code": 5}, nil)
	require.NoError(t, errCreate)

	// JSON request bodies arrive as float64.
	duplicate, errCheck := store.HasDuplicate(ctx, "Product", "code", float64(5), "")
	require.NoError(t, errCheck)
	assert.True(t, duplicate)

	duplicate, errOther := store.HasDuplicate(ctx, "Product", "code", float64(6), "")
	require.NoError(t, errOther)
	assert.False(t, duplicate)
}
