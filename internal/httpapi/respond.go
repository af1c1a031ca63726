// Package httpapi exposes the HTTP surface: authentication, model
// administration, and the dynamically bound per-model CRUD endpoints.
package httpapi

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/schemaforge/schemaforge/internal/apperr"
)

// Pagination carries listing metadata in the response envelope.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// respondOK writes the success envelope with data.
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondCreated writes the success envelope with a 201 status.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// respondCreatedMessage writes a 201 envelope carrying data and a message.
func respondCreatedMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": data})
}

// respondMessage writes the success envelope with a message only.
func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// respondMessageData writes the success envelope with a message and data.
func respondMessageData(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

// respondPage writes the success envelope with data and pagination metadata.
func respondPage(c *gin.Context, data any, pagination Pagination) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "pagination": pagination})
}

// respondError maps an error to its transport status and the failure
// envelope. Internal errors are logged with detail and returned opaque.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": apperr.Message(err)})
}

// abortError is respondError for middleware chains.
func abortError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": apperr.Message(err)})
}
