package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sajidhasan/fieldorder/api/responses"
	"github.com/sajidhasan/fieldorder/api/validators"
	"github.com/sajidhasan/fieldorder/internal/customers"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// CustomerSearcher runs the live customer search against the remote API.
type CustomerSearcher interface {
	SearchCustomers(ctx context.Context, businessUnit int, query, employeeID string, limit, offset int) ([]types.CustomerPayload, error)
}

// CustomerCache is the slice of the sync engine the handlers need.
type CustomerCache interface {
	Search(ctx context.Context, businessUnit int, query string, limit int) ([]types.CustomerPayload, error)
	Sync(ctx context.Context, employeeID string) (customers.SyncResult, error)
}

// EmployeeResolver supplies the signed-in employee id.
type EmployeeResolver interface {
	EmployeeID(ctx context.Context) (string, error)
}

type customerSearchResponse struct {
	Source    string                  `json:"source"`
	Customers []types.CustomerPayload `json:"customers"`
}

// CustomersSearch tries the remote search first and falls back to the local
// cache when the API is unreachable, so the picker keeps working offline.
func CustomersSearch(remote CustomerSearcher, cache CustomerCache, who EmployeeResolver, searchLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		businessUnit, err := validators.RequireQueryInt(r, "business_unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if businessUnit <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "business unit must be positive"))
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		limit, err := validators.ParseQueryInt(r, "limit", searchLimit, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if remote != nil && who != nil {
			if employeeID, err := who.EmployeeID(r.Context()); err == nil && employeeID != "" {
				found, err := remote.SearchCustomers(r.Context(), businessUnit, query, employeeID, limit, 0)
				if err == nil {
					responses.WriteSuccess(w, customerSearchResponse{Source: "remote", Customers: found})
					return
				}
				if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				if logg != nil {
					logg.Warn(r.Context(), "remote customer search unreachable, using local cache")
				}
			}
		}

		found, err := cache.Search(r.Context(), businessUnit, query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerSearchResponse{Source: "cache", Customers: found})
	}
}

// CustomersSync triggers a full pull of the employee's customer list into
// the local cache.
func CustomersSync(cache CustomerCache, who EmployeeResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil || who == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		employeeID, err := who.EmployeeID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := cache.Sync(r.Context(), employeeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
