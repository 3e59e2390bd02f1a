package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleVendor          Role = "vendor"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleDeliveryPartner, RoleAdmin:
		return true
	}
	return false
}

type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

func (t AddressType) Valid() bool {
	switch t {
	case AddressHome, AddressWork, AddressOther:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// Address is an embedded address entry on an account. At most one address
// per account carries IsDefault=true.
type Address struct {
	ID              string      `bson:"id" json:"id"`
	Type            AddressType `bson:"type" json:"type"`
	Label           string      `bson:"label" json:"label"`
	StreetAddress   string      `bson:"streetAddress" json:"streetAddress"`
	ApartmentNumber string      `bson:"apartmentNumber,omitempty" json:"apartmentNumber,omitempty"`
	Landmark        string      `bson:"landmark,omitempty" json:"landmark,omitempty"`
	City            string      `bson:"city" json:"city"`
	State           string      `bson:"state" json:"state"`
	PostalCode      string      `bson:"postalCode" json:"postalCode"`
	Country         string      `bson:"country" json:"country"`
	Location        *GeoPoint   `bson:"location,omitempty" json:"location,omitempty"`
	IsDefault       bool        `bson:"isDefault" json:"isDefault"`
	CreatedAt       time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds customer-facing preferences and loyalty counters, embedded
// in the account document.
type Profile struct {
	ReferralCode        string     `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	TotalOrders         int        `bson:"totalOrders" json:"totalOrders"`
	TotalSpent          float64    `bson:"totalSpent" json:"totalSpent"`
	LoyaltyPoints       int        `bson:"loyaltyPoints" json:"loyaltyPoints"`
	FavoriteCuisines    StringList `bson:"favoriteCuisines,omitempty" json:"favoriteCuisines,omitempty"`
	DietaryRestrictions StringList `bson:"dietaryRestrictions,omitempty" json:"dietaryRestrictions,omitempty"`
	PushNotifications   bool       `bson:"pushNotifications" json:"pushNotifications"`
	EmailNotifications  bool       `bson:"emailNotifications" json:"emailNotifications"`
	SMSNotifications    bool       `bson:"smsNotifications" json:"smsNotifications"`
	MarketingEmails     bool       `bson:"marketingEmails" json:"marketingEmails"`
	CreatedAt           time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Account is the platform identity record. Profile and Addresses are owned
// sub-documents persisted atomically with the account.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`

	EmailVerified bool `bson:"emailVerified" json:"emailVerified"`
	PhoneVerified bool `bson:"phoneVerified" json:"phoneVerified"`
	IsActive      bool `bson:"isActive" json:"isActive"`

	Profile   Profile   `bson:"profile" json:"profile"`
	Addresses []Address `bson:"addresses" json:"addresses"`

	PasswordResetToken     string    `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires   time.Time `bson:"passwordResetExpires,omitempty" json:"-"`
	EmailVerificationToken string    `bson:"emailVerificationToken,omitempty" json:"-"`
	PhoneVerificationToken string    `bson:"phoneVerificationToken,omitempty" json:"-"`

	JoinedAt    time.Time  `bson:"joinedAt" json:"joinedAt"`
	LastLoginAt *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a *Account) IsCustomer() bool {
	return a.Role == RoleCustomer
}

// DefaultAddress returns the flagged default, falling back to the first
// address, then nil. The fallback order is relied on by callers.
func (a *Account) DefaultAddress() *Address {
	for i := range a.Addresses {
		if a.Addresses[i].IsDefault {
			return &a.Addresses[i]
		}
	}
	if len(a.Addresses) > 0 {
		return &a.Addresses[0]
	}
	return nil
}
