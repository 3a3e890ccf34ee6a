package powerbi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/powerbi"
)

func testConfig() *model.TapConfig {
	return &model.TapConfig{
		TenantID: "tenant",
		ClientID: "client-id",
		Username: "user@example.com",
		Password: "hunter2",
	}
}

// newAuthServer serves password-grant tokens, numbering them by request.
func newAuthServer(t *testing.T, issued *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm())
		gt.Value(t, r.PostForm.Get("grant_type")).Equal("password")
		gt.Value(t, r.PostForm.Get("resource")).Equal("https://analysis.windows.net/powerbi/api")
		gt.Value(t, r.PostForm.Get("client_id")).Equal("client-id")
		gt.Value(t, r.PostForm.Get("username")).Equal("user@example.com")
		gt.Value(t, r.PostForm.Get("password")).Equal("hunter2")

		n := issued.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "tok%d", "expires_in": "3600"}`, n)
	}))
}

func TestClient_Get(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	var gotAuth, gotQuery string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"value": [{"id": "a"}, {"id": "b"}]}`)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL))

	query := url.Values{"$top": {"2"}}
	page := gt.R1(c.Get(context.Background(), "/admin/apps", query)).NoError(t)

	gt.Value(t, len(page.Rows)).Equal(2)
	gt.Value(t, page.Rows[0]["id"]).Equal("a")
	gt.Value(t, gotAuth).Equal("Bearer tok1")
	gt.Value(t, gotQuery).Equal("%24top=2")
}

func TestClient_TokenIsCached(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL))

	ctx := context.Background()
	_ = gt.R1(c.Get(ctx, "/admin/apps", nil)).NoError(t)
	_ = gt.R1(c.Get(ctx, "/admin/groups", nil)).NoError(t)

	gt.Value(t, issued.Load()).Equal(int64(1))
}

func TestClient_ActivityEventShape(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"activityEventEntities": [{"Id": "1"}], "continuationToken": "abc%20def"}`)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL))

	page := gt.R1(c.Get(context.Background(), "/admin/activityevents", nil)).NoError(t)
	gt.Value(t, len(page.Rows)).Equal(1)
	gt.Value(t, page.ContinuationToken).Equal("abc%20def")
}

func TestClient_ReauthenticatesOn401(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	var apiCalls atomic.Int64
	var lastAuth string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if apiCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"value": [{"id": "a"}]}`)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL),
		powerbi.WithMaxAttempts(3))

	page := gt.R1(c.Get(context.Background(), "/admin/apps", nil)).NoError(t)

	gt.Value(t, len(page.Rows)).Equal(1)
	gt.Value(t, apiCalls.Load()).Equal(int64(2))
	// The 401 invalidated the cached token and a fresh one was issued.
	gt.Value(t, issued.Load()).Equal(int64(2))
	gt.Value(t, lastAuth).Equal("Bearer tok2")
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	var apiCalls atomic.Int64
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL),
		powerbi.WithMaxAttempts(3))

	_ = gt.R1(c.Get(context.Background(), "/admin/apps", nil)).NoError(t)
	gt.Value(t, apiCalls.Load()).Equal(int64(2))
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var issued atomic.Int64
	authSrv := newAuthServer(t, &issued)
	defer authSrv.Close()

	var apiCalls atomic.Int64
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		http.Error(w, "bad filter expression", http.StatusBadRequest)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL),
		powerbi.WithMaxAttempts(3))

	_, err := c.Get(context.Background(), "/admin/apps", nil)
	gt.Error(t, err)
	gt.Value(t, apiCalls.Load()).Equal(int64(1))
}

func TestClient_AuthFailureIsFatal(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
	}))
	defer authSrv.Close()

	var apiCalls atomic.Int64
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
	}))
	defer apiSrv.Close()

	c := powerbi.NewClient(testConfig(),
		powerbi.WithBaseURL(apiSrv.URL),
		powerbi.WithAuthEndpoint(authSrv.URL),
		powerbi.WithMaxAttempts(3))

	_, err := c.Get(context.Background(), "/admin/apps", nil)
	gt.Error(t, err)
	gt.Value(t, apiCalls.Load()).Equal(int64(0))
}
