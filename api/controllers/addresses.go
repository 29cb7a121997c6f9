package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/praco-io/praco-backend/api/responses"
	"github.com/praco-io/praco-backend/api/validators"
	userssvc "github.com/praco-io/praco-backend/internal/users"
	"github.com/praco-io/praco-backend/pkg/db/models"
	pkgerrors "github.com/praco-io/praco-backend/pkg/errors"
	"github.com/praco-io/praco-backend/pkg/logger"
)

type addressRequest struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" validate:"required"`
	Region     string  `json:"region"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required"`
	IsDefault  bool    `json:"is_default"`
}

type addressResponse struct {
	ID         uuid.UUID `json:"id"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	Region     string    `json:"region,omitempty"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
}

func newAddressResponse(address *models.Address) addressResponse {
	return addressResponse{
		ID:         address.ID,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		Region:     address.Region,
		PostalCode: address.PostalCode,
		Country:    address.Country,
		IsDefault:  address.IsDefault,
	}
}

// AddressList returns the caller's saved addresses.
func AddressList(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.ListAddresses(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(addresses))
		for i := range addresses {
			out = append(out, newAddressResponse(&addresses[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AddressCreate saves a new address for the caller.
func AddressCreate(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return addressSave(svc, logg, false)
}

// AddressUpdate replaces an existing address owned by the caller.
func AddressUpdate(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return addressSave(svc, logg, true)
}

func addressSave(svc userssvc.Service, logg *logger.Logger, update bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var addressID *uuid.UUID
		if update {
			id, err := pathUUID(r, "addressId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			addressID = &id
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.SaveAddress(r.Context(), userssvc.AddressInput{
			UserID:     userID,
			AddressID:  addressID,
			Line1:      validators.SanitizeString(payload.Line1, 255),
			Line2:      payload.Line2,
			City:       validators.SanitizeString(payload.City, 120),
			Region:     validators.SanitizeString(payload.Region, 120),
			PostalCode: validators.SanitizeString(payload.PostalCode, 32),
			Country:    validators.SanitizeString(payload.Country, 120),
			IsDefault:  payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if !update {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newAddressResponse(address))
	}
}

// AddressDelete removes an address owned by the caller.
func AddressDelete(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAddress(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
