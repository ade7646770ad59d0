package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sajidhasan/fieldorder/pkg/config"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

// TokenSource supplies the bearer token for authenticated calls. Refresh is
// invoked exactly once when the server answers 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Client is the ERP REST wrapper with centralized auth, logging and error
// mapping for the sync engine and the order queue.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenSource
	searchLimit int
	logger      *logger.Logger
}

// NewClient validates the configuration and builds the wrapper. The token
// source is attached separately because the session manager that implements
// it needs the client for login/refresh calls.
func NewClient(cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote base url is required")
	}
	searchLimit := cfg.SearchLimit
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		searchLimit: searchLimit,
		logger:      logg,
	}, nil
}

// UseTokenSource wires the session manager in after construction.
func (c *Client) UseTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// SearchLimit is the page size for interactive search calls.
func (c *Client) SearchLimit() int {
	return c.searchLimit
}

// Ping reports reachability of the remote API.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

type callOptions struct {
	method string
	path   string
	query  url.Values
	body   any
	// auth requests skip the bearer header (login/refresh).
	noAuth bool
}

func (c *Client) call(ctx context.Context, opts callOptions, out any) error {
	resp, err := c.send(ctx, opts, false)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.noAuth && c.tokens != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if _, err := c.tokens.Refresh(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token refresh failed")
		}
		resp, err = c.send(ctx, opts, true)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapStatus(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode remote response")
	}
	return nil
}

func (c *Client) send(ctx context.Context, opts callOptions, retried bool) (*http.Response, error) {
	var bodyReader io.Reader
	if opts.body != nil {
		encoded, err := json.Marshal(opts.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode remote request")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + opts.path
	if len(opts.query) > 0 {
		endpoint += "?" + opts.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, opts.method, endpoint, bodyReader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build remote request")
	}
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if !opts.noAuth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "no access token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.logger != nil {
		lctx := c.logger.WithFields(ctx, map[string]any{
			"method":  opts.method,
			"path":    opts.path,
			"retried": retried,
		})
		c.logger.Debug(lctx, "remote.request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote call failed")
	}
	return resp, nil
}

// errorBody matches the upstream error envelope ({"detail": "..."}).
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) mapStatus(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	message := strings.TrimSpace(body.Detail)
	if message == "" {
		message = fmt.Sprintf("remote returned status %d", resp.StatusCode)
	}

	var code pkgerrors.Code
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	default:
		code = pkgerrors.CodeDependency
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}
