// Package client fetches directory records from the REST API and tracks the
// loading state of the most recent fetch.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/models"
	"go.uber.org/zap"
)

// DefaultLocalPort is the port a local directory server listens on.
const DefaultLocalPort = 5000

// failedToFetch is the message surfaced for any non-success status.
const failedToFetch = "Failed to fetch"

// FetchError carries the single human-readable message shown to users.
type FetchError struct {
	Message string
	Status  int
	Err     error
}

func (f *FetchError) Error() string {
	return f.Message
}

// Is reports FetchError as ErrFetchFailed.
func (f *FetchError) Is(target error) bool {
	return target == e.ErrFetchFailed
}

func (f *FetchError) Unwrap() error {
	return f.Err
}

// Client talks to the directory REST API. It never retries; callers trigger
// another fetch explicitly.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:5000/api. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.Named("client"),
	}
}

// BaseURL returns the API root the client calls.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCollection retrieves the full collection.
func (c *Client) FetchCollection(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if _, err := c.get(ctx, "/companies", &companies); err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []models.Company{}
	}
	return companies, nil
}

// GetCompany retrieves one record. A 404 is reported as ErrNotFound.
func (c *Client) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var company models.Company
	status, err := c.get(ctx, "/companies/"+strconv.FormatInt(id, 10), &company)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("company %d: %w", id, e.ErrNotFound)
		}
		return nil, err
	}
	return &company, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, &FetchError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("path", path), zap.Error(err))
		return 0, &FetchError{Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("unexpected status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return resp.StatusCode, &FetchError{Message: failedToFetch, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &FetchError{Message: "Invalid response from server", Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, nil
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	if err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

// ResolveBaseURL picks the API root. An explicit override wins. An origin on
// a loopback host talks to a local server on localPort; any other origin
// uses the /api path on the origin itself.
func ResolveBaseURL(override string, origin *url.URL, localPort int) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	if localPort <= 0 {
		localPort = DefaultLocalPort
	}
	if origin == nil || isLoopback(origin.Hostname()) {
		return fmt.Sprintf("http://localhost:%d/api", localPort)
	}
	scheme := origin.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + origin.Host + "/api"
}

func isLoopback(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
