package models

import (
	"time"

	"gorm.io/datatypes"
)

// DynamicRecord is one row of data for a published model. The payload is an
// opaque JSON blob at this layer; typing lives in the model declaration.
type DynamicRecord struct {
	ID string `gorm:"type:text;primaryKey"` // UUID assigned at creation.

	ModelName string `gorm:"type:text;not null;index"` // Owning model's name.

	Data datatypes.JSON `gorm:"not null"` // Field-name to value mapping.

	OwnerID *uint64 `gorm:"index"` // Creating principal, when the model tracks ownership.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
