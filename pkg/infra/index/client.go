package index

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

type client struct {
	baseURL    string
	uploadURL  string
	token      string
	httpClient *http.Client
}

// Option configures the package index client.
type Option func(*client)

// WithBaseURL sets the index base URL used for lookups.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUploadURL sets the upload endpoint.
func WithUploadURL(uploadURL string) Option {
	return func(c *client) {
		c.uploadURL = uploadURL
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a package index client. The token authenticates
// uploads; it never appears in logs or errors.
func NewClient(token string, opts ...Option) interfaces.PackageIndex {
	c := &client{
		baseURL:    "https://pypi.org",
		uploadURL:  "https://upload.pypi.org/legacy/",
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup asks the index JSON API whether name at version exists. The
// answer is a typed result: a missing version and a broken index are kept
// distinct instead of being inferred from error text.
func (c *client) Lookup(ctx context.Context, name, version string) (*model.LookupResult, error) {
	lookupURL := fmt.Sprintf("%s/pypi/%s/%s/json", c.baseURL, url.PathEscape(name), url.PathEscape(version))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build lookup request", goerr.V("url", lookupURL))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.LookupResult{
			State:  model.LookupTransientError,
			Detail: err.Error(),
		}, nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return &model.LookupResult{State: model.LookupFound}, nil
	case resp.StatusCode == http.StatusNotFound:
		return &model.LookupResult{
			State:  model.LookupNotFound,
			Detail: fmt.Sprintf("%s %s is not available on the index", name, version),
		}, nil
	default:
		return &model.LookupResult{
			State:  model.LookupTransientError,
			Detail: fmt.Sprintf("index lookup returned status %d", resp.StatusCode),
		}, nil
	}
}

// Upload publishes the artifact with a PyPI-legacy multipart POST. Uploads
// are irreversible: once a version is accepted it cannot be reused.
func (c *client) Upload(ctx context.Context, artifact *model.Artifact) error {
	file, err := os.Open(artifact.Path)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact", goerr.V("path", artifact.Path))
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		":action":          "file_upload",
		"protocol_version": "1",
		"metadata_version": "2.1",
		"name":             artifact.Name,
		"version":          artifact.Version,
		"filetype":         "sdist",
		"pyversion":        "source",
		"sha256_digest":    artifact.SHA256,
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return goerr.Wrap(err, "failed to write form field", goerr.V("field", key))
		}
	}

	part, err := form.CreateFormFile("content", artifact.Filename)
	if err != nil {
		return goerr.Wrap(err, "failed to create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return goerr.Wrap(err, "failed to write artifact to form")
	}
	if err := form.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return goerr.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.SetBasicAuth("__token__", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("index rejected upload",
			goerr.V("status", resp.StatusCode),
			goerr.V("detail", strings.TrimSpace(string(detail))),
			goerr.V("filename", artifact.Filename),
		)
	}

	return nil
}
