// Package api is a client of the membership API proxy that owns members,
// products and sale invoices.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	statusTextUnreachable = "Unable to reach the API server. Is it running?"
	statusTextTimeout     = "Request timeout"
	statusTextClient      = "An unknown error occurred in the kiosk client."
)

// Error is returned for every failed request. Status is the HTTP status of the response,
// 408 if no response arrived in time, 500 if no response arrived at all and 400 if the
// request could not be built.
type Error struct {
	Status     int
	StatusText string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf returns the status of an *Error in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("can't parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("can't create cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Request sends body (if not nil) as JSON to path and decodes a 2xx response into out (if not nil).
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return &Error{
			Status:     http.StatusBadRequest,
			StatusText: statusTextClient,
			Message:    err.Error(),
			Err:        err,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Message:    errorMessage(data, resp.Status),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Status:     http.StatusInternalServerError,
			StatusText: http.StatusText(http.StatusInternalServerError),
			Message:    fmt.Sprintf("can't decode response: %v", err),
			Err:        err,
		}
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	// path is already escaped, its segments may contain encoded slashes
	escaped := strings.TrimLeft(path, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("can't unescape path: %w", err)
	}

	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + "/" + escaped
	u.Path = c.baseURL.Path + "/" + unescaped
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("can't encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("can't build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	return req, nil
}

func transportError(err error) *Error {
	if isTimeout(err) {
		return &Error{
			Status:     http.StatusRequestTimeout,
			StatusText: statusTextTimeout,
			Message:    err.Error(),
			Err:        err,
		}
	}

	return &Error{
		Status:     http.StatusInternalServerError,
		StatusText: statusTextUnreachable,
		Message:    err.Error(),
		Err:        err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorMessage extracts a message from an error body of the API, which is either
// {"message": ...}, {"error": ...} or {"detail": ...}.
func errorMessage(body []byte, fallback string) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}

	if err := json.Unmarshal(body, &m); err == nil {
		switch {
		case m.Message != "":
			return m.Message
		case m.Error != "":
			return m.Error
		case m.Detail != "":
			return m.Detail
		}
	}

	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 256 {
		return s
	}
	return fallback
}
