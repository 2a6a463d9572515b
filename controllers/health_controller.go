package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthCheck trả trạng thái service cho probe
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "anki-genix-backend",
		"uptime":  time.Since(startTime).String(),
	})
}
