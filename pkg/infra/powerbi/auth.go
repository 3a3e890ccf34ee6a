package powerbi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

const (
	oauthScope    = "https://api.powerbi.com"
	oauthResource = "https://analysis.windows.net/powerbi/api"

	// Tokens are refreshed this long before their reported expiry.
	refreshSkew = 60 * time.Second
)

// authenticator performs the Azure AD resource-owner password grant and
// caches the token until shortly before expiry. One authenticator serves
// one client; it is safe for concurrent use.
type authenticator struct {
	cfg        *model.TapConfig
	endpoint   string
	httpClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newAuthenticator(cfg *model.TapConfig, endpoint string, httpClient *http.Client) *authenticator {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/token", cfg.TenantID)
	}
	return &authenticator{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Token returns a valid access token, requesting a new one when the cached
// token is missing or about to expire.
func (a *authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.expires.Add(-refreshSkew)) {
		return a.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"scope":      {oauthScope},
		"resource":   {oauthResource},
		"client_id":  {a.cfg.ClientID},
		"username":   {a.cfg.Username},
		"password":   {a.cfg.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", goerr.New("authentication failed",
			goerr.V("status", resp.StatusCode),
			goerr.V("detail", strings.TrimSpace(string(detail))),
		)
	}

	var payload struct {
		AccessToken string      `json:"access_token"`
		ExpiresIn   json.Number `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", goerr.Wrap(err, "failed to decode token response")
	}
	if payload.AccessToken == "" {
		return "", goerr.New("token response carries no access token")
	}

	a.token = payload.AccessToken
	a.expires = tokenExpiry(payload.AccessToken, payload.ExpiresIn)
	return a.token, nil
}

// Invalidate drops the cached token so the next request re-authenticates.
// The client calls this when the API answers 401.
func (a *authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.expires = time.Time{}
}

// tokenExpiry derives the token expiry from expires_in, falling back to
// the JWT's own exp claim. The token is only introspected here, never
// trusted, so the parse skips verification.
func tokenExpiry(token string, expiresIn json.Number) time.Time {
	if seconds, err := expiresIn.Int64(); err == nil && seconds > 0 {
		return time.Now().Add(time.Duration(seconds) * time.Second)
	}

	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err == nil && !parsed.Expiration().IsZero() {
		return parsed.Expiration()
	}

	// No usable expiry information; keep the token for a conservative hour.
	return time.Now().Add(time.Hour)
}
