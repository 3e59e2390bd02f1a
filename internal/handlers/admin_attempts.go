package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platform/internal/repository"
)

// ListLoginAttempts exposes the login audit trail to admins, newest first,
// optionally filtered by email.
func ListLoginAttempts(attempts repository.LoginAttemptRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination params"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(c.Query("email")))

		records, total, err := attempts.List(c.Request.Context(), email, page, limit)
		if err != nil {
			log.Println("[ADMIN] [ERROR] list login attempts failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":  records,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}
