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
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrAPIUnavailable reports that no HTTP listener is configured.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// Client calls the daemon's HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient returns a Client for bind (host:port or URL). An empty bind
// yields a nil Client, whose methods return ErrAPIUnavailable.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GenerateReport posts req to /api/report.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	var resp ReportResponse
	if c == nil {
		return resp, ErrAPIUnavailable
	}
	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("encode report request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/report", nil, bytes.NewReader(body), &resp)
	return resp, err
}

// ReadTail fetches /api/tail for req.
func (c *Client) ReadTail(ctx context.Context, req TailRequest) (TailResponse, error) {
	var resp TailResponse
	if c == nil {
		return resp, ErrAPIUnavailable
	}
	values := url.Values{}
	values.Set("path", req.Path)
	values.Set("offset", strconv.FormatUint(req.Offset, 10))
	err := c.do(ctx, http.MethodGet, "/api/tail", values, nil, &resp)
	return resp, err
}

// Health probes /api/health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	if c == nil {
		return resp, ErrAPIUnavailable
	}
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
	return resp, err
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	if c == nil {
		return resp, ErrAPIUnavailable
	}
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		remote := &RemoteError{Status: resp.StatusCode}
		var payload ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			remote.Kind = payload.Kind
			remote.Message = payload.Error
		}
		return remote
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
