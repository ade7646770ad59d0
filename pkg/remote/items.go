package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

// SearchItems runs the interactive item search for one business unit.
func (c *Client) SearchItems(ctx context.Context, businessUnit int, query string, limit, offset int) ([]types.Item, error) {
	if businessUnit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business unit is required")
	}
	params := url.Values{}
	params.Set("item_name", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var items []types.Item
	err := c.call(ctx, callOptions{
		method: http.MethodGet,
		path:   fmt.Sprintf("/items/all/%d", businessUnit),
		query:  params,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}
