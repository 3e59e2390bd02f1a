package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platform/internal/models"
	"platform/internal/service"
)

type addressRequest struct {
	Type            string     `json:"type" binding:"required,oneof=home work other"`
	Label           string     `json:"label" binding:"required"`
	StreetAddress   string     `json:"streetAddress" binding:"required"`
	ApartmentNumber string     `json:"apartmentNumber"`
	Landmark        string     `json:"landmark"`
	City            string     `json:"city" binding:"required"`
	State           string     `json:"state" binding:"required"`
	PostalCode      string     `json:"postalCode" binding:"required"`
	Country         string     `json:"country"`
	Longitude       *float64   `json:"longitude"`
	Latitude        *float64   `json:"latitude"`
	IsDefault       bool       `json:"isDefault"`
}

func (r addressRequest) toInput() service.AddressInput {
	in := service.AddressInput{
		Type:            models.AddressType(r.Type),
		Label:           r.Label,
		StreetAddress:   r.StreetAddress,
		ApartmentNumber: r.ApartmentNumber,
		Landmark:        r.Landmark,
		City:            r.City,
		State:           r.State,
		PostalCode:      r.PostalCode,
		Country:         r.Country,
		IsDefault:       r.IsDefault,
	}
	if r.Longitude != nil && r.Latitude != nil {
		in.Location = &models.GeoPoint{
			Type:        "Point",
			Coordinates: [2]float64{*r.Longitude, *r.Latitude},
		}
	}
	return in
}

func GetAddresses(svc *service.AccountService) gin.HandlerFunc {
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
			log.Println("[ADDRESS] [ERROR] get addresses failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"addresses": account.Addresses})
	}
}

func CreateAddress(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		address, err := svc.AddAddress(c.Request.Context(), accountID, req.toInput())
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
				return
			}
			log.Println("[ADDRESS] [ERROR] create address failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Println("[ADDRESS] [INFO] address created:", address.ID)
		c.JSON(http.StatusCreated, gin.H{"address": address})
	}
}

func UpdateAddress(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		address, err := svc.UpdateAddress(c.Request.Context(), accountID, addressID, req.toInput())
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			case errors.Is(err, service.ErrAddressNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			default:
				log.Println("[ADDRESS] [ERROR] update address failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		log.Println("[ADDRESS] [INFO] address updated:", addressID)
		c.JSON(http.StatusOK, gin.H{"address": address})
	}
}

func DeleteAddress(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}

		if err := svc.RemoveAddress(c.Request.Context(), accountID, addressID); err != nil {
			switch {
			case errors.Is(err, service.ErrAccountNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			case errors.Is(err, service.ErrAddressNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			default:
				log.Println("[ADDRESS] [ERROR] delete address failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		log.Println("[ADDRESS] [INFO] address deleted:", addressID)
		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}

func GetDefaultAddress(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		address, err := svc.DefaultAddress(c.Request.Context(), accountID)
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
				return
			}
			log.Println("[ADDRESS] [ERROR] get default address failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if address == nil {
			c.JSON(http.StatusOK, gin.H{"address": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"address": address})
	}
}
