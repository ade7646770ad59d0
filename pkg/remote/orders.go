package remote

import (
	"context"
	"net/http"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// CreateBulkOrder submits a batch of finalized orders and returns the
// server-confirmed documents. Both single sends and the bulk flush use it.
func (c *Client) CreateBulkOrder(ctx context.Context, orders []types.Order) ([]types.OrderConfirmation, error) {
	if len(orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no orders to submit")
	}
	var confirmations []types.OrderConfirmation
	err := c.call(ctx, callOptions{
		method: http.MethodPost,
		path:   "/orders/create-bulk",
		body:   orders,
	}, &confirmations)
	if err != nil {
		return nil, err
	}
	return confirmations, nil
}
