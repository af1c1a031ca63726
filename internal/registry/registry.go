// Package registry owns model declarations: it validates, persists, and
// indexes them by name, and keeps the live endpoint set synchronized with
// every mutation before the mutating call returns.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/models"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// Installer receives synchronous endpoint (re)installation callbacks. The
// registry calls it under its own lock so the definition table and the live
// handler set never disagree after a mutating call returns.
type Installer interface {
	Install(def *schema.Definition)
	Uninstall(pathSegment string)
}

// reservedSegments are path segments owned by static routes. Model names
// that would shadow them are rejected at publish time.
var reservedSegments = map[string]struct{}{
	"models": {},
	"auth":   {},
	"health": {},
}

// Registry maintains the persisted and in-memory model definition table.
type Registry struct {
	db        *gorm.DB
	installer Installer

	mu sync.RWMutex

	// byName stores definitions keyed by exact model name.
	byName map[string]*schema.Definition
	// bySegment maps each path segment to the owning model name so two
	// names differing only by case cannot claim the same endpoint path.
	bySegment map[string]string
}

// New constructs a Registry backed by the given connection.
func New(conn *gorm.DB) *Registry {
	return &Registry{
		db:        conn,
		byName:    make(map[string]*schema.Definition),
		bySegment: make(map[string]string),
	}
}

// SetInstaller wires the endpoint binder. Must be called before LoadAll or
// any mutation.
func (r *Registry) SetInstaller(installer Installer) {
	r.installer = installer
}

// LoadAll reads every persisted definition and installs its endpoints.
// Called once at boot before the listener starts.
func (r *Registry) LoadAll(ctx context.Context) error {
	var rows []models.ModelDefinition
	if errFind := r.db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return fmt.Errorf("registry: load definitions: %w", errFind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range rows {
		def, errDecode := fromRow(&rows[i])
		if errDecode != nil {
			log.WithError(errDecode).WithField("model", rows[i].Name).Warn("skipping undecodable model definition")
			continue
		}
		r.byName[def.Name] = def
		r.bySegment[def.PathSegment()] = def.Name
		if r.installer != nil {
			r.installer.Install(def.Clone())
		}
	}
	log.WithField("count", len(r.byName)).Info("model definitions loaded")
	return nil
}

// Publish validates, persists, and installs a definition. An existing
// definition with the same name is overwritten wholesale, keeping only its
// original creation timestamp. Persistence failure leaves neither the
// in-memory table nor the endpoint set changed.
func (r *Registry) Publish(ctx context.Context, def *schema.Definition) (*schema.Definition, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	segment := def.PathSegment()
	if _, reserved := reservedSegments[segment]; reserved {
		return nil, apperr.Validationf("model name %s is reserved", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.bySegment[segment]; taken && owner != def.Name {
		return nil, apperr.Conflictf("model path %s is already used by %s", segment, owner)
	}

	now := time.Now().UTC()
	def.UpdatedAt = now
	if existing, ok := r.byName[def.Name]; ok {
		def.CreatedAt = existing.CreatedAt
	} else {
		def.CreatedAt = now
	}

	if err := r.persistLocked(ctx, def); err != nil {
		return nil, err
	}

	stored := def.Clone()
	r.byName[def.Name] = stored
	r.bySegment[segment] = def.Name
	if r.installer != nil {
		r.installer.Install(stored.Clone())
	}
	log.WithField("model", def.Name).Info("model published")
	return stored.Clone(), nil
}

// Get returns the definition with the exact name, or nil.
func (r *Registry) Get(name string) *schema.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name].Clone()
}

// List returns every current definition. Order is unspecified.
func (r *Registry) List() []*schema.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.Definition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def.Clone())
	}
	return out
}

// Update replaces an existing definition. The targeted name must exist and
// the body may not rename the model. The original creation timestamp is
// preserved and endpoints are reinstalled before returning.
func (r *Registry) Update(ctx context.Context, name string, def *schema.Definition) (*schema.Definition, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if def.Name != name {
		return nil, apperr.Validationf("model name cannot be changed, delete and republish instead")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byName[name]
	if !ok {
		return nil, apperr.NotFoundf("model not found")
	}

	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()

	if err := r.persistLocked(ctx, def); err != nil {
		return nil, err
	}

	stored := def.Clone()
	r.byName[name] = stored
	r.bySegment[def.PathSegment()] = name
	if r.installer != nil {
		r.installer.Install(stored.Clone())
	}
	log.WithField("model", name).Info("model updated")
	return stored.Clone(), nil
}

// Remove deletes a definition and tears its endpoints down before
// returning. Records for the model are deliberately left in place; callers
// opting into a purge delete them separately.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.byName[name]
	if !ok {
		return apperr.NotFoundf("model not found")
	}

	errDelete := r.db.WithContext(ctx).
		Delete(&models.ModelDefinition{}, "name = ?", name).Error
	if errDelete != nil {
		return fmt.Errorf("registry: delete %s: %w", name, errDelete)
	}

	delete(r.byName, name)
	delete(r.bySegment, def.PathSegment())
	if r.installer != nil {
		r.installer.Uninstall(def.PathSegment())
	}
	log.WithField("model", name).Info("model removed")
	return nil
}

// persistLocked upserts the definition row. Caller holds the write lock.
func (r *Registry) persistLocked(ctx context.Context, def *schema.Definition) error {
	row, errEncode := toRow(def)
	if errEncode != nil {
		return errEncode
	}

	var existing models.ModelDefinition
	errFind := r.db.WithContext(ctx).Where("name = ?", def.Name).First(&existing).Error
	switch {
	case errFind == nil:
		row.ID = existing.ID
		if errSave := r.db.WithContext(ctx).Save(row).Error; errSave != nil {
			return fmt.Errorf("registry: save %s: %w", def.Name, errSave)
		}
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		if errCreate := r.db.WithContext(ctx).Create(row).Error; errCreate != nil {
			return fmt.Errorf("registry: create %s: %w", def.Name, errCreate)
		}
	default:
		return fmt.Errorf("registry: lookup %s: %w", def.Name, errFind)
	}
	return nil
}

// toRow converts a definition into its persisted form.
func toRow(def *schema.Definition) (*models.ModelDefinition, error) {
	fieldsJSON, errFields := json.Marshal(def.Fields)
	if errFields != nil {
		return nil, fmt.Errorf("registry: encode fields: %w", errFields)
	}
	rbacJSON, errRBAC := json.Marshal(def.RBAC)
	if errRBAC != nil {
		return nil, fmt.Errorf("registry: encode rbac: %w", errRBAC)
	}
	return &models.ModelDefinition{
		Name:       def.Name,
		TableName:  def.TableName,
		Fields:     fieldsJSON,
		OwnerField: def.OwnerField,
		RBAC:       rbacJSON,
		CreatedAt:  def.CreatedAt,
		UpdatedAt:  def.UpdatedAt,
	}, nil
}

// fromRow decodes a persisted definition row.
func fromRow(row *models.ModelDefinition) (*schema.Definition, error) {
	def := schema.Definition{
		Name:       row.Name,
		TableName:  row.TableName,
		OwnerField: row.OwnerField,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Fields, &def.Fields); err != nil {
		return nil, fmt.Errorf("registry: decode fields for %s: %w", row.Name, err)
	}
	if err := json.Unmarshal(row.RBAC, &def.RBAC); err != nil {
		return nil, fmt.Errorf("registry: decode rbac for %s: %w", row.Name, err)
	}
	return &def, nil
}
