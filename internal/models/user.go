package models

import "time"

// Address is the optional structured address on a user profile.
type Address struct {
	Country    string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	TaxID      string `json:"taxId,omitempty"`
}

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Position     string    `json:"position,omitempty"`
	Address      Address   `json:"address"`
	ProfileImage string    `json:"profileImage,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
