package users

import (
	"github.com/google/uuid"
)

// RegisterInput creates an account. A cart is provisioned in the same
// transaction with the configured VAT and discount defaults.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AddressInput creates or replaces one shipping address.
type AddressInput struct {
	UserID     uuid.UUID
	AddressID  *uuid.UUID
	Line1      string
	Line2      *string
	City       string
	Region     string
	PostalCode string
	Country    string
	IsDefault  bool
}
