// Package records implements the generic per-model persistence layer for
// dynamic records. Payloads stay opaque JSON here; field typing is enforced
// upstream against the model declaration.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/db"
	"github.com/schemaforge/schemaforge/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store persists dynamic records through GORM.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store.
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// Decode unmarshals a record's data blob into a map.
func Decode(rec *models.DynamicRecord) (map[string]any, error) {
	data := make(map[string]any)
	if len(rec.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return nil, fmt.Errorf("records: decode data for %s: %w", rec.ID, err)
	}
	return data, nil
}

// encode marshals a data map into the stored JSON form.
func encode(data map[string]any) (datatypes.JSON, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("records: encode data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// Create stores a new record for the model and returns it.
func (s *Store) Create(ctx context.Context, modelName string, data map[string]any, ownerID *uint64) (*models.DynamicRecord, error) {
	blob, err := encode(data)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := models.DynamicRecord{
		ID:        uuid.NewString(),
		ModelName: modelName,
		Data:      blob,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&rec).Error; errCreate != nil {
		return nil, fmt.Errorf("records: create: %w", errCreate)
	}
	return &rec, nil
}

// FindPage returns one page of the model's records, newest first, plus the
// total count. A non-nil ownerID narrows the result to that owner's records.
func (s *Store) FindPage(ctx context.Context, modelName string, ownerID *uint64, page, limit int) ([]models.DynamicRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.DynamicRecord{}).Where("model_name = ?", modelName)
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("records: count: %w", errCount)
	}

	var rows []models.DynamicRecord
	if errFind := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("records: list: %w", errFind)
	}
	return rows, total, nil
}

// FindOne fetches a record by ID scoped to the model.
func (s *Store) FindOne(ctx context.Context, id, modelName string) (*models.DynamicRecord, error) {
	var rec models.DynamicRecord
	errFind := s.db.WithContext(ctx).
		Where("id = ? AND model_name = ?", id, modelName).
		First(&rec).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("record not found")
		}
		return nil, fmt.Errorf("records: find: %w", errFind)
	}
	return &rec, nil
}

// Update replaces a record's data blob. Callers perform the shallow merge
// against the existing data before calling; ID and owner are immutable here.
func (s *Store) Update(ctx context.Context, rec *models.DynamicRecord, data map[string]any) (*models.DynamicRecord, error) {
	blob, err := encode(data)
	if err != nil {
		return nil, err
	}
	rec.Data = blob
	rec.UpdatedAt = time.Now().UTC()
	errUpdate := s.db.WithContext(ctx).Model(&models.DynamicRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{"data": blob, "updated_at": rec.UpdatedAt}).Error
	if errUpdate != nil {
		return nil, fmt.Errorf("records: update: %w", errUpdate)
	}
	return rec, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if errDelete := s.db.WithContext(ctx).Delete(&models.DynamicRecord{}, "id = ?", id).Error; errDelete != nil {
		return fmt.Errorf("records: delete: %w", errDelete)
	}
	return nil
}

// DeleteByModel removes every record belonging to the model. Used by the
// purge option on model deletion.
func (s *Store) DeleteByModel(ctx context.Context, modelName string) error {
	if errDelete := s.db.WithContext(ctx).Delete(&models.DynamicRecord{}, "model_name = ?", modelName).Error; errDelete != nil {
		return fmt.Errorf("records: purge %s: %w", modelName, errDelete)
	}
	return nil
}

// HasDuplicate reports whether another record of the model already holds the
// value in the given data field. Both sides are cast to text before
// comparing, so numeric values match regardless of the JSON storage affinity.
func (s *Store) HasDuplicate(ctx context.Context, modelName, field string, value any, excludeID string) (bool, error) {
	expr := db.JSONExtractTextExpr(s.db, "data", field)
	q := s.db.WithContext(ctx).Model(&models.DynamicRecord{}).
		Where("model_name = ?", modelName).
		Where("CAST("+expr+" AS TEXT) = ?", fmt.Sprint(value))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if errCount := q.Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("records: duplicate check: %w", errCount)
	}
	return count > 0, nil
}
