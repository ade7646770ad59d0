package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sajidhasan/fieldorder/api/responses"
	"github.com/sajidhasan/fieldorder/api/validators"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// ItemSearcher runs the live item search against the remote API. Items are
// never cached locally; price and stock must be current at capture time.
type ItemSearcher interface {
	SearchItems(ctx context.Context, businessUnit int, query string, limit, offset int) ([]types.Item, error)
}

func ItemsSearch(remote ItemSearcher, searchLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if remote == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		businessUnit, err := validators.RequireQueryInt(r, "business_unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		limit, err := validators.ParseQueryInt(r, "limit", searchLimit, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := remote.SearchItems(r.Context(), businessUnit, query, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}
