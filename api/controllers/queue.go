package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sajidhasan/fieldorder/api/responses"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// QueueService is the slice of the order queue manager the handlers need.
type QueueService interface {
	Load(ctx context.Context) ([]types.Order, error)
	SendOne(ctx context.Context, key string) ([]types.OrderConfirmation, error)
	SendAll(ctx context.Context) ([]types.OrderConfirmation, error)
	DeleteOne(ctx context.Context, key string) error
}

type queuedOrderResponse struct {
	Key   string      `json:"key"`
	Total types.Money `json:"total"`
	Order types.Order `json:"order"`
}

func QueueList(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		orders, err := svc.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]queuedOrderResponse, 0, len(orders))
		for _, order := range orders {
			out = append(out, queuedOrderResponse{
				Key:   order.Key(),
				Total: order.Total(),
				Order: order,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

func QueueSendAll(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		confirmations, err := svc.SendAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"confirmations": confirmations})
	}
}

func QueueSendOne(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		key, err := queueKeyParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmations, err := svc.SendOne(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"confirmations": confirmations})
	}
}

func QueueDelete(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		key, err := queueKeyParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOne(r.Context(), key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// queueKeyParam extracts the composite order key. Keys contain colons, so
// the path segment arrives URL-encoded.
func queueKeyParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order key is required")
	}
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order key")
	}
	return key, nil
}
