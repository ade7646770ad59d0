package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sajidhasan/fieldorder/api/responses"
	"github.com/sajidhasan/fieldorder/api/validators"
	cartsvc "github.com/sajidhasan/fieldorder/internal/cart"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// CartService is the slice of the cart manager the handlers need.
type CartService interface {
	Selection() cartsvc.Selection
	Current(ctx context.Context) (*types.Cart, error)
	SelectBusinessUnit(ctx context.Context, businessUnit int) error
	SelectCustomer(ctx context.Context, customer types.CustomerPayload) error
	AddLine(ctx context.Context, input cartsvc.AddLineInput) (*types.Cart, error)
	RemoveLine(ctx context.Context, itemCode string) (*types.Cart, error)
	Finalize(ctx context.Context) (*types.Order, error)
}

func CartCurrent(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cart, err := svc.Current(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func CartSelection(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		responses.WriteSuccess(w, svc.Selection())
	}
}

type selectBusinessUnitRequest struct {
	BusinessUnit int `json:"zid" validate:"required,gt=0"`
}

func CartSelectBusinessUnit(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload selectBusinessUnitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SelectBusinessUnit(r.Context(), payload.BusinessUnit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Selection())
	}
}

// selectCustomerRequest mirrors the full customer wire shape so picker
// results pass straight through.
type selectCustomerRequest struct {
	BusinessUnit int    `json:"zid"`
	Code         string `json:"xcus" validate:"required"`
	OrgName      string `json:"xorg"`
	Address      string `json:"xadd1"`
	City         string `json:"xcity"`
	State        string `json:"xstate"`
	Mobile       string `json:"xmobile"`
	TaxNumber    string `json:"xtaxnum"`
	Salesman     string `json:"xsp"`
	Salesman1    string `json:"xsp1"`
	Salesman2    string `json:"xsp2"`
	Salesman3    string `json:"xsp3"`
}

func CartSelectCustomer(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload selectCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer := types.CustomerPayload{
			BusinessUnit: payload.BusinessUnit,
			Code:         payload.Code,
			OrgName:      payload.OrgName,
			Address:      payload.Address,
		}
		if err := svc.SelectCustomer(r.Context(), customer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Selection())
	}
}

type addLineRequest struct {
	ItemCode    string      `json:"xitem" validate:"required"`
	Description string      `json:"xdesc"`
	Quantity    int         `json:"xqty" validate:"required,gt=0"`
	UnitPrice   types.Money `json:"xprice"`
	Latitude    *float64    `json:"xlat"`
	Longitude   *float64    `json:"xlong"`
}

func CartAddLine(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddLine(r.Context(), cartsvc.AddLineInput{
			ItemCode:    payload.ItemCode,
			Description: payload.Description,
			UnitPrice:   payload.UnitPrice,
			Quantity:    payload.Quantity,
			Latitude:    payload.Latitude,
			Longitude:   payload.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveLine drops one line. The response cart is null once the last
// line is gone.
func CartRemoveLine(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemCode := chi.URLParam(r, "itemCode")
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		cart, err := svc.RemoveLine(r.Context(), itemCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func CartFinalize(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		order, err := svc.Finalize(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"key":   order.Key(),
			"order": order,
		})
	}
}
