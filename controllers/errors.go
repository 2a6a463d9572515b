package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evepupil/anki-genix-backend/services"
	"github.com/evepupil/anki-genix-backend/store"
)

// respondError map lỗi workflow sang mã HTTP: lỗi validation là 400,
// không tìm thấy là 404, còn lại là lỗi sinh nội dung 500.
func respondError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
