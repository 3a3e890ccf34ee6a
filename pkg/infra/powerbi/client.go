package powerbi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

const defaultBaseURL = "https://api.powerbi.com/v1.0/myorg"

type client struct {
	baseURL     string
	httpClient  *http.Client
	auth        *authenticator
	maxAttempts uint64
}

// Option configures the Power BI client.
type Option func(*client, *options)

type options struct {
	authEndpoint string
}

// WithBaseURL overrides the admin API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *client, _ *options) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAuthEndpoint overrides the token endpoint.
func WithAuthEndpoint(endpoint string) Option {
	return func(_ *client, o *options) {
		o.authEndpoint = endpoint
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client, _ *options) {
		c.httpClient = httpClient
	}
}

// WithMaxAttempts bounds request retries.
func WithMaxAttempts(attempts uint64) Option {
	return func(c *client, _ *options) {
		c.maxAttempts = attempts
	}
}

// NewClient creates an authenticated Power BI admin API client. Transient
// failures (429, 5xx, network errors) are retried with exponential
// backoff; a 401 invalidates the cached token so the next attempt
// re-authenticates.
func NewClient(cfg *model.TapConfig, opts ...Option) interfaces.PowerBI {
	c := &client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxAttempts: 5,
	}
	o := &options{}
	for _, opt := range opts {
		opt(c, o)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	c.auth = newAuthenticator(cfg, o.authEndpoint, c.httpClient)
	return c
}

// Get fetches one page from the admin API.
func (c *client) Get(ctx context.Context, path string, query url.Values) (*model.APIPage, error) {
	logger := ctxlog.From(ctx)

	var page *model.APIPage
	operation := func() error {
		result, err := c.doGet(ctx, path, query)
		if err != nil {
			return err
		}
		page = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, goerr.Wrap(err, "admin API request failed", goerr.V("path", path))
	}

	logger.Debug("Fetched API page",
		"path", path,
		"rows", len(page.Rows),
		"has_continuation", page.ContinuationToken != "",
	)
	return page, nil
}

func (c *client) doGet(ctx context.Context, path string, query url.Values) (*model.APIPage, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(goerr.Wrap(err, "failed to build request", goerr.V("url", endpoint)))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("path", path))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodePage(resp.Body)
	case resp.StatusCode == http.StatusUnauthorized:
		c.auth.Invalidate()
		return nil, goerr.New("authentication rejected, token invalidated", goerr.V("path", path))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, goerr.New("transient API failure",
			goerr.V("status", resp.StatusCode),
			goerr.V("path", path))
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, backoff.Permanent(goerr.New("API request rejected",
			goerr.V("status", resp.StatusCode),
			goerr.V("path", path),
			goerr.V("detail", strings.TrimSpace(string(detail)))))
	}
}

// decodePage understands both response shapes: metadata endpoints return
// rows under "value", the activity events endpoint returns them under
// "activityEventEntities" with a continuation token.
func decodePage(r io.Reader) (*model.APIPage, error) {
	var body struct {
		Value                 []map[string]any `json:"value"`
		ActivityEventEntities []map[string]any `json:"activityEventEntities"`
		ContinuationToken     string           `json:"continuationToken"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, backoff.Permanent(goerr.Wrap(err, "failed to decode API response"))
	}

	rows := body.Value
	if rows == nil {
		rows = body.ActivityEventEntities
	}
	return &model.APIPage{
		Rows:              rows,
		ContinuationToken: body.ContinuationToken,
	}, nil
}
