package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platform/internal/auth"
	"platform/internal/models"
	"platform/internal/service"
)

type SignupRequest struct {
	Email               string   `json:"email" binding:"required,email"`
	Phone               string   `json:"phone" binding:"required"`
	Password            string   `json:"password" binding:"required"`
	FirstName           string   `json:"firstName" binding:"required"`
	LastName            string   `json:"lastName" binding:"required"`
	Role                string   `json:"role" binding:"omitempty,oneof=customer vendor delivery_partner admin"`
	FavoriteCuisines    []string `json:"favoriteCuisines"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

func Signup(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		account, token, err := svc.Signup(c.Request.Context(), service.SignupInput{
			Email:               req.Email,
			Phone:               req.Phone,
			Password:            req.Password,
			FirstName:           req.FirstName,
			LastName:            req.LastName,
			Role:                models.Role(req.Role),
			FavoriteCuisines:    req.FavoriteCuisines,
			DietaryRestrictions: req.DietaryRestrictions,
			Device:              clientMeta(c),
		})
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrWeakPassword):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, service.ErrDuplicateEmail):
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			case errors.Is(err, service.ErrDuplicatePhone):
				c.JSON(http.StatusConflict, gin.H{"error": "phone number already registered"})
			default:
				log.Println("[AUTH] [ERROR] signup failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":   token,
			"account": accountResponse(account),
		})
	}
}

func Login(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		account, token, err := svc.Login(c.Request.Context(), req.Identifier, req.Password, c.ClientIP(), clientMeta(c))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountLocked):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed attempts, try again later"})
			case errors.Is(err, service.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			default:
				log.Println("[AUTH] [ERROR] login failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":   token,
			"account": accountResponse(account),
		})
	}
}

func Logout(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyValue, ok := c.Get("sessionKey")
		key, _ := keyValue.(string)
		if !ok || key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := svc.Logout(c.Request.Context(), key); err != nil {
			log.Println("[AUTH] [ERROR] logout failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func GetMe(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		account, err := svc.GetAccount(c.Request.Context(), accountID)
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
				return
			}
			log.Println("[ACCOUNT] [ERROR] get me failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, accountResponse(account))
	}
}

// RequestPasswordReset always answers 202 with the same body so the response
// does not reveal whether the email is registered. The token goes to the mail
// collaborator, never into this response.
func RequestPasswordReset(svc *service.AccountService, deliver func(email, token string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		token, err := svc.RequestPasswordReset(c.Request.Context(), req.Email)
		if err != nil {
			log.Println("[ACCOUNT] [ERROR] password reset request failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if token != "" && deliver != nil {
			deliver(strings.ToLower(strings.TrimSpace(req.Email)), token)
		}

		c.JSON(http.StatusAccepted, gin.H{"message": "if the email is registered, a reset link has been sent"})
	}
}

func ConfirmPasswordReset(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		err := svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrWeakPassword):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, auth.ErrTokenExpired):
				c.JSON(http.StatusBadRequest, gin.H{"error": "reset token expired"})
			case errors.Is(err, auth.ErrTokenInvalid):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset token"})
			default:
				log.Println("[ACCOUNT] [ERROR] password reset confirm failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

func RequestEmailVerification(svc *service.AccountService, deliver func(email, token string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token, err := svc.RequestEmailVerification(c.Request.Context(), accountID)
		if err != nil {
			log.Println("[ACCOUNT] [ERROR] verification request failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if deliver != nil {
			if account, err := svc.GetAccount(c.Request.Context(), accountID); err == nil {
				deliver(account.Email, token)
			}
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "verification email sent"})
	}
}

func VerifyEmail(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req VerifyEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		verified, err := svc.VerifyEmail(c.Request.Context(), accountID, req.Token)
		if err != nil {
			log.Println("[ACCOUNT] [ERROR] email verification failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !verified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "email verified"})
	}
}
