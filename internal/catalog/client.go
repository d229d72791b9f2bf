package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no source knows the requested title.
var ErrNotFound = errors.New("catalog: not found")

// Client defines the contract for querying the remote catalog service.
type Client interface {
	Lookup(ctx context.Context, title string) (Record, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewHTTPClient constructs a new HTTP-backed catalog client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = logrus.New()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Lookup retrieves metadata for an exact title match.
func (c *HTTPClient) Lookup(ctx context.Context, title string) (Record, error) {
	rel := &url.URL{Path: "/movies"}
	q := rel.Query()
	q.Set("title", title)
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Record{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload Record
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Record{}, fmt.Errorf("decode catalog response: %w", err)
		}
		return payload, nil
	case http.StatusNotFound:
		return Record{}, ErrNotFound
	default:
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"title":  title,
		}).Warn("catalog: unexpected upstream status")
		return Record{}, fmt.Errorf("catalog: upstream returned %d", resp.StatusCode)
	}
}
