package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/models"
	"github.com/schemaforge/schemaforge/internal/rbac"
	"github.com/schemaforge/schemaforge/internal/records"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// Binder materializes the five CRUD operations for every published model.
// It implements registry.Installer: the registry swaps handler bundles in
// and out synchronously with its own mutations, and requests reach them
// through Dispatch on the router's no-route fallback. Gin's static route
// tree is never mutated after boot.
type Binder struct {
	store  *records.Store
	secret string

	mu sync.RWMutex
	// bundles maps a path segment to the definition its handlers serve.
	bundles map[string]*schema.Definition
}

// NewBinder constructs a Binder.
func NewBinder(store *records.Store, secret string) *Binder {
	return &Binder{
		store:   store,
		secret:  secret,
		bundles: make(map[string]*schema.Definition),
	}
}

// Install publishes or replaces the handler bundle for a model.
func (b *Binder) Install(def *schema.Definition) {
	segment := def.PathSegment()
	if segment == "" {
		return
	}
	b.mu.Lock()
	b.bundles[segment] = def
	b.mu.Unlock()
	log.WithFields(log.Fields{"model": def.Name, "path": "/api/" + segment}).Info("dynamic endpoints installed")
}

// Uninstall tears down the handler bundle for a path segment.
func (b *Binder) Uninstall(segment string) {
	b.mu.Lock()
	delete(b.bundles, strings.ToLower(segment))
	b.mu.Unlock()
	log.WithField("path", "/api/"+segment).Info("dynamic endpoints removed")
}

// definition returns the installed definition for a path segment, or nil.
func (b *Binder) definition(segment string) *schema.Definition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bundles[strings.ToLower(segment)]
}

// Dispatch routes requests that matched no static route. Paths of the form
// /api/<model> and /api/<model>/<id> are served from the installed bundles;
// everything else is 404.
func (b *Binder) Dispatch(c *gin.Context) {
	segment, id, ok := splitDynamicPath(c.Request.URL.Path)
	if !ok {
		respondError(c, apperr.NotFoundf("route not found"))
		return
	}

	def := b.definition(segment)
	if def == nil {
		respondError(c, apperr.NotFoundf("route not found"))
		return
	}

	principal, errAuth := authenticate(c, b.secret)
	if errAuth != nil {
		respondError(c, errAuth)
		return
	}

	switch {
	case c.Request.Method == http.MethodPost && id == "":
		b.create(c, def, principal)
	case c.Request.Method == http.MethodGet && id == "":
		b.list(c, def, principal)
	case c.Request.Method == http.MethodGet:
		b.get(c, def, principal, id)
	case c.Request.Method == http.MethodPut:
		b.update(c, def, principal, id)
	case c.Request.Method == http.MethodDelete:
		b.delete(c, def, principal, id)
	default:
		respondError(c, apperr.NotFoundf("route not found"))
	}
}

// splitDynamicPath extracts the model segment and optional record ID from
// an /api/... path.
func splitDynamicPath(path string) (segment, id string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/api/")
	if trimmed == path {
		return "", "", false
	}
	trimmed = strings.Trim(trimmed, "/")
	parts := strings.Split(trimmed, "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return "", "", false
		}
		return parts[0], "", true
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

// ownerScope returns the owner filter for collection reads: non-admin
// requesters on owner-tracked models only see their own records.
func ownerScope(def *schema.Definition, principal Principal) *uint64 {
	if def.OwnerField == "" || principal.Role == rbac.RoleAdmin {
		return nil
	}
	owner := principal.ID
	return &owner
}

// checkUnique enforces the unique flag on declared fields against the data
// that is about to be persisted.
func (b *Binder) checkUnique(c *gin.Context, def *schema.Definition, data map[string]any, excludeID string) error {
	for _, field := range def.Fields {
		if !field.Unique {
			continue
		}
		value, present := data[field.Name]
		if !present || value == nil {
			continue
		}
		duplicate, errCheck := b.store.HasDuplicate(c.Request.Context(), def.Name, field.Name, value, excludeID)
		if errCheck != nil {
			return errCheck
		}
		if duplicate {
			return apperr.Conflictf("field %s must be unique", field.Name)
		}
	}
	return nil
}

// recordView shapes a stored record for the response envelope.
func recordView(rec *models.DynamicRecord) (gin.H, error) {
	data, errDecode := records.Decode(rec)
	if errDecode != nil {
		return nil, errDecode
	}
	return gin.H{
		"id":        rec.ID,
		"modelName": rec.ModelName,
		"data":      data,
		"ownerId":   rec.OwnerID,
		"createdAt": rec.CreatedAt,
		"updatedAt": rec.UpdatedAt,
	}, nil
}

// create handles POST /api/<model>.
func (b *Binder) create(c *gin.Context, def *schema.Definition, principal Principal) {
	if err := rbac.Authorize(def, principal.Role, principal.ID, rbac.OpCreate, nil); err != nil {
		respondError(c, err)
		return
	}

	data := make(map[string]any)
	if errBind := c.ShouldBindJSON(&data); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	if err := def.CheckData(data, true); err != nil {
		respondError(c, err)
		return
	}

	var ownerID *uint64
	if def.OwnerField != "" {
		// The server is the sole source of truth for ownership; any
		// client-supplied owner value is discarded.
		data[def.OwnerField] = principal.ID
		owner := principal.ID
		ownerID = &owner
	}

	if err := b.checkUnique(c, def, data, ""); err != nil {
		respondError(c, err)
		return
	}

	rec, errCreate := b.store.Create(c.Request.Context(), def.Name, data, ownerID)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}

	view, errView := recordView(rec)
	if errView != nil {
		respondError(c, errView)
		return
	}
	respondCreated(c, view)
}

// listQuery binds the pagination query parameters.
type listQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// list handles GET /api/<model>.
func (b *Binder) list(c *gin.Context, def *schema.Definition, principal Principal) {
	if err := rbac.Authorize(def, principal.Role, principal.ID, rbac.OpRead, nil); err != nil {
		respondError(c, err)
		return
	}

	var q listQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondError(c, apperr.Validationf("invalid query parameters"))
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}

	rows, total, errFind := b.store.FindPage(c.Request.Context(), def.Name, ownerScope(def, principal), q.Page, q.Limit)
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	views := make([]gin.H, 0, len(rows))
	for i := range rows {
		view, errView := recordView(&rows[i])
		if errView != nil {
			respondError(c, errView)
			return
		}
		views = append(views, view)
	}

	respondPage(c, views, NewPagination(q.Page, q.Limit, total))
}

// get handles GET /api/<model>/<id>. Unlike List's silent scoping, a
// non-owned record here is an explicit denial.
func (b *Binder) get(c *gin.Context, def *schema.Definition, principal Principal, id string) {
	if err := rbac.Authorize(def, principal.Role, principal.ID, rbac.OpRead, nil); err != nil {
		respondError(c, err)
		return
	}

	rec, errFind := b.store.FindOne(c.Request.Context(), id, def.Name)
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	if !rbac.OwnsRecord(def, principal.Role, principal.ID, rec.OwnerID) {
		respondError(c, apperr.Forbiddenf("access denied"))
		return
	}

	view, errView := recordView(rec)
	if errView != nil {
		respondError(c, errView)
		return
	}
	respondOK(c, view)
}

// update handles PUT /api/<model>/<id>: a shallow merge of the patch over
// the existing data. The ownership gate runs against the existing record's
// owner; the patch cannot reassign ownership.
func (b *Binder) update(c *gin.Context, def *schema.Definition, principal Principal, id string) {
	patch := make(map[string]any)
	if errBind := c.ShouldBindJSON(&patch); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	rec, errFind := b.store.FindOne(c.Request.Context(), id, def.Name)
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	if err := rbac.Authorize(def, principal.Role, principal.ID, rbac.OpUpdate, rec.OwnerID); err != nil {
		respondError(c, err)
		return
	}

	if def.OwnerField != "" {
		delete(patch, def.OwnerField)
	}

	if err := def.CheckData(patch, false); err != nil {
		respondError(c, err)
		return
	}

	existing, errDecode := records.Decode(rec)
	if errDecode != nil {
		respondError(c, errDecode)
		return
	}
	for key, value := range patch {
		existing[key] = value
	}

	if err := b.checkUnique(c, def, existing, rec.ID); err != nil {
		respondError(c, err)
		return
	}

	updated, errUpdate := b.store.Update(c.Request.Context(), rec, existing)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}

	view, errView := recordView(updated)
	if errView != nil {
		respondError(c, errView)
		return
	}
	respondOK(c, view)
}

// delete handles DELETE /api/<model>/<id>.
func (b *Binder) delete(c *gin.Context, def *schema.Definition, principal Principal, id string) {
	rec, errFind := b.store.FindOne(c.Request.Context(), id, def.Name)
	if errFind != nil {
		respondError(c, errFind)
		return
	}

	if err := rbac.Authorize(def, principal.Role, principal.ID, rbac.OpDelete, rec.OwnerID); err != nil {
		respondError(c, err)
		return
	}

	if errDelete := b.store.Delete(c.Request.Context(), rec.ID); errDelete != nil {
		respondError(c, errDelete)
		return
	}

	respondMessage(c, "Record deleted successfully")
}
