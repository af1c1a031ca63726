package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/records"
	"github.com/schemaforge/schemaforge/internal/registry"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// ModelHandler exposes the model administration endpoints.
type ModelHandler struct {
	registry *registry.Registry
	records  *records.Store
}

// NewModelHandler constructs a ModelHandler.
func NewModelHandler(reg *registry.Registry, store *records.Store) *ModelHandler {
	return &ModelHandler{registry: reg, records: store}
}

// List returns every published model definition.
func (h *ModelHandler) List(c *gin.Context) {
	respondOK(c, h.registry.List())
}

// Get returns a single model definition by name.
func (h *ModelHandler) Get(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	def := h.registry.Get(name)
	if def == nil {
		respondError(c, apperr.NotFoundf("model not found"))
		return
	}
	respondOK(c, def)
}

// Publish validates and stores a new model definition and installs its
// endpoints before responding.
func (h *ModelHandler) Publish(c *gin.Context) {
	var def schema.Definition
	if errBind := c.ShouldBindJSON(&def); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	stored, errPublish := h.registry.Publish(c.Request.Context(), &def)
	if errPublish != nil {
		respondError(c, errPublish)
		return
	}
	respondCreatedMessage(c, "Model published successfully", stored)
}

// Update replaces an existing model definition and reinstalls its endpoints.
func (h *ModelHandler) Update(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	var def schema.Definition
	if errBind := c.ShouldBindJSON(&def); errBind != nil {
		respondError(c, apperr.Validationf("invalid json"))
		return
	}

	stored, errUpdate := h.registry.Update(c.Request.Context(), name, &def)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	respondMessageData(c, "Model updated successfully", stored)
}

// Delete removes a model definition and tears down its endpoints. Records
// are kept unless ?purge=true is passed.
func (h *ModelHandler) Delete(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	def := h.registry.Get(name)
	if def == nil {
		respondError(c, apperr.NotFoundf("model not found"))
		return
	}

	if errRemove := h.registry.Remove(c.Request.Context(), name); errRemove != nil {
		respondError(c, errRemove)
		return
	}

	if strings.EqualFold(c.Query("purge"), "true") {
		if errPurge := h.records.DeleteByModel(c.Request.Context(), def.Name); errPurge != nil {
			respondError(c, errPurge)
			return
		}
	}

	respondMessage(c, "Model deleted successfully")
}
