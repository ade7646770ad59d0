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

// SearchCustomers runs the interactive customer search for one business unit.
func (c *Client) SearchCustomers(ctx context.Context, businessUnit int, query, employeeID string, limit, offset int) ([]types.CustomerPayload, error) {
	if businessUnit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business unit is required")
	}
	params := url.Values{}
	params.Set("customer", query)
	params.Set("employee_id", employeeID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var customers []types.CustomerPayload
	err := c.call(ctx, callOptions{
		method: http.MethodPost,
		path:   fmt.Sprintf("/customers/all/%d", businessUnit),
		query:  params,
	}, &customers)
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// PullCustomers fetches one page of the employee's full customer list for
// the sync engine. A short or empty page signals the end of the data.
func (c *Client) PullCustomers(ctx context.Context, employeeID string, limit, offset int) ([]types.CustomerPayload, error) {
	if employeeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	params := url.Values{}
	params.Set("employee_id", employeeID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var customers []types.CustomerPayload
	err := c.call(ctx, callOptions{
		method: http.MethodGet,
		path:   "/customers/all-sync",
		query:  params,
	}, &customers)
	if err != nil {
		return nil, err
	}
	return customers, nil
}
