package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/models"
)

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email address", field))
			case "oneof":
				details = append(details, fmt.Sprintf("%s has an unsupported value", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// accountIDFromContext reads the account id injected by SessionAuth.
func accountIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("accountId")
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}

// clientMeta captures device context from the request for sessions and the
// login audit trail.
func clientMeta(c *gin.Context) models.DeviceMetadata {
	return models.DeviceMetadata{
		DeviceType: strings.TrimSpace(c.GetHeader("X-Device-Type")),
		DeviceID:   strings.TrimSpace(c.GetHeader("X-Device-Id")),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
}

func accountResponse(account *models.Account) gin.H {
	return gin.H{
		"id":            account.ID.Hex(),
		"email":         account.Email,
		"phone":         account.Phone,
		"firstName":     account.FirstName,
		"lastName":      account.LastName,
		"role":          account.Role,
		"emailVerified": account.EmailVerified,
		"phoneVerified": account.PhoneVerified,
		"profile":       account.Profile,
		"addresses":     account.Addresses,
		"joinedAt":      account.JoinedAt,
		"lastLoginAt":   account.LastLoginAt,
	}
}
