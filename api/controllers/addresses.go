package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/api/responses"
	"github.com/davemoreau/maplewood-commerce/api/validators"
	"github.com/davemoreau/maplewood-commerce/internal/users"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// AddressesList returns the customer's saved address book.
func AddressesList(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := repo.ListAddresses(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}

type addAddressRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zip_code" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

// AddressAdd appends a new address; a duplicate location is a no-op.
func AddressAdd(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, err := repo.AppendAddress(r.Context(), userID, types.SavedAddress{
			FullName: strings.TrimSpace(payload.FullName),
			Phone:    strings.TrimSpace(payload.Phone),
			Address:  strings.TrimSpace(payload.Address),
			City:     strings.TrimSpace(payload.City),
			State:    strings.TrimSpace(payload.State),
			ZipCode:  strings.TrimSpace(payload.ZipCode),
			Country:  strings.TrimSpace(payload.Country),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address"))
			return
		}
		if !added {
			responses.WriteSuccess(w, map[string]string{"status": "already_saved"})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "saved"})
	}
}

// AddressRemove deletes one saved address; removing the default promotes
// the oldest remaining entry.
func AddressRemove(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := parseAddressID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := repo.RemoveAddress(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove address"))
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "address not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// AddressSetDefault marks one saved address as the default.
func AddressSetDefault(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := parseAddressID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := repo.SetDefaultAddress(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address"))
			return
		}
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "address not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "default_set"})
	}
}

func parseAddressID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "addressId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id")
	}
	return parsed, nil
}
