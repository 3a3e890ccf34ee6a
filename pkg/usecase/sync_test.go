package usecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/singer"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

type apiRequest struct {
	Path  string
	Query url.Values
}

type mockPowerBI struct {
	requests []apiRequest
	handler  func(call int, path string, query url.Values) (*model.APIPage, error)
}

func (m *mockPowerBI) Get(ctx context.Context, path string, query url.Values) (*model.APIPage, error) {
	call := len(m.requests)
	m.requests = append(m.requests, apiRequest{Path: path, Query: query})
	return m.handler(call, path, query)
}

type emitted struct {
	Type   string         `json:"type"`
	Stream string         `json:"stream"`
	Record map[string]any `json:"record"`
	Value  *model.State   `json:"value"`
}

func decodeMessages(t *testing.T, buf *bytes.Buffer) []emitted {
	t.Helper()

	var messages []emitted
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var msg emitted
		gt.NoError(t, json.Unmarshal([]byte(line), &msg))
		messages = append(messages, msg)
	}
	return messages
}

func messageTypes(messages []emitted) []string {
	types := make([]string, 0, len(messages))
	for _, msg := range messages {
		types = append(types, msg.Type)
	}
	return types
}

func skipTopStream(pageSize int) *model.Stream {
	return &model.Stream{
		Name:        "Apps",
		Path:        "/admin/apps",
		PrimaryKeys: []string{"id"},
		Pagination:  model.PaginateSkipTop,
		PageSize:    pageSize,
		Schema: singer.NewSchema(
			singer.RequiredProp("id", singer.String()),
			singer.Prop("name", singer.String()),
		),
	}
}

func activityStream() *model.Stream {
	return &model.Stream{
		Name:           "ActivityEvents",
		Path:           "/admin/activityevents",
		PrimaryKeys:    []string{"Id"},
		ReplicationKey: "CreationTime",
		Pagination:     model.PaginateActivityWindow,
		Schema: singer.NewSchema(
			singer.RequiredProp("Id", singer.String()),
			singer.RequiredProp("CreationTime", singer.DateTime()),
		),
	}
}

func tapConfig() *model.TapConfig {
	return &model.TapConfig{
		TenantID: "tenant",
		ClientID: "client",
		Username: "user@example.com",
		Password: "secret",
	}
}

func TestSync_SkipTopPagination(t *testing.T) {
	pages := []*model.APIPage{
		{Rows: []map[string]any{{"id": "a"}, {"id": "b"}}},
		{Rows: []map[string]any{{"id": "c"}, {"id": "d"}}},
		{Rows: nil},
	}
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return pages[call], nil
		},
	}

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{skipTopStream(2)}))

	gt.NoError(t, uc.Run(context.Background(), tapConfig(), nil, nil))

	gt.Value(t, len(client.requests)).Equal(3)
	gt.Value(t, client.requests[0].Path).Equal("/admin/apps")
	gt.Value(t, client.requests[0].Query.Get("$top")).Equal("2")
	gt.Value(t, client.requests[0].Query.Has("$skip")).Equal(false)
	gt.Value(t, client.requests[1].Query.Get("$skip")).Equal("2")
	gt.Value(t, client.requests[2].Query.Get("$skip")).Equal("4")

	messages := decodeMessages(t, &buf)
	gt.Value(t, messageTypes(messages)).Equal([]string{
		"SCHEMA", "RECORD", "RECORD", "RECORD", "RECORD", "STATE",
	})
	gt.Value(t, messages[1].Record["id"]).Equal("a")
}

func TestSync_SkipTopShortFinalPage(t *testing.T) {
	// A short page does not end pagination; only an empty page does.
	pages := []*model.APIPage{
		{Rows: []map[string]any{{"id": "a"}, {"id": "b"}}},
		{Rows: []map[string]any{{"id": "c"}}},
		{Rows: nil},
	}
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return pages[call], nil
		},
	}

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{skipTopStream(2)}))

	gt.NoError(t, uc.Run(context.Background(), tapConfig(), nil, nil))
	gt.Value(t, len(client.requests)).Equal(3)
}

func TestSync_StreamParamFixups(t *testing.T) {
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return &model.APIPage{}, nil
		},
	}

	cfg := tapConfig()
	cfg.StreamConfig = map[string]model.StreamSettings{
		"Apps": {Parameters: "?$select=name&$filter=usersCount gt 0 and $count gt 5"},
	}

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{skipTopStream(2)}))

	gt.NoError(t, uc.Run(context.Background(), cfg, nil, nil))

	query := client.requests[0].Query
	// Primary keys are appended to a user $select, and $count is forced on
	// when the filter references it.
	gt.Value(t, query.Get("$select")).Equal("name,id")
	gt.Value(t, query.Get("$count")).Equal("true")
	gt.Value(t, query.Get("$filter")).Equal("usersCount gt 0 and $count gt 5")
}

func TestSync_StreamConfigString(t *testing.T) {
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return &model.APIPage{}, nil
		},
	}

	cfg := tapConfig()
	cfg.StreamConfigString = `{"Apps": {"parameters": "$select=id"}}`

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{skipTopStream(2)}))

	gt.NoError(t, uc.Run(context.Background(), cfg, nil, nil))
	gt.Value(t, client.requests[0].Query.Get("$select")).Equal("id")
}

func TestSync_DeselectedStreamSkipped(t *testing.T) {
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return &model.APIPage{}, nil
		},
	}

	catalog := &model.Catalog{
		Streams: []model.CatalogEntry{
			{
				TapStreamID: "Apps",
				Stream:      "Apps",
				Metadata: []model.CatalogMetadata{
					{Breadcrumb: []string{}, Metadata: map[string]any{"selected": false}},
				},
			},
		},
	}

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{skipTopStream(2)}))

	gt.NoError(t, uc.Run(context.Background(), tapConfig(), catalog, nil))
	gt.Value(t, len(client.requests)).Equal(0)
	gt.Value(t, buf.Len()).Equal(0)
}

func TestSync_ActivityWindows(t *testing.T) {
	pages := []*model.APIPage{
		{
			Rows:              []map[string]any{{"Id": "1", "CreationTime": "2020-01-01T05:00:00Z"}},
			ContinuationToken: "abc%20def",
		},
		{
			Rows: []map[string]any{{"Id": "2", "CreationTime": "2020-01-01T08:00:00Z"}},
		},
		{
			Rows: nil,
		},
	}
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return pages[call], nil
		},
	}

	cfg := tapConfig()
	cfg.StartDate = "2020-01-01T00:00:00Z"
	now := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{activityStream()}),
		usecase.WithClock(func() time.Time { return now }))

	gt.NoError(t, uc.Run(context.Background(), cfg, nil, nil))

	gt.Value(t, len(client.requests)).Equal(3)

	// Day one: quoted single-day window, then the continuation token alone,
	// URL-unescaped and re-quoted.
	first := client.requests[0].Query
	gt.Value(t, first.Get("startDateTime")).Equal("'2020-01-01T00:00:00Z'")
	gt.Value(t, first.Get("endDateTime")).Equal("'2020-01-01T23:59:59Z'")

	second := client.requests[1].Query
	gt.Value(t, second.Get("continuationToken")).Equal("'abc def'")
	gt.Value(t, second.Has("startDateTime")).Equal(false)

	// Day two: the window advances by one day; day three never starts
	// because it is not before "now".
	third := client.requests[2].Query
	gt.Value(t, third.Get("startDateTime")).Equal("'2020-01-02T00:00:00Z'")
	gt.Value(t, third.Get("endDateTime")).Equal("'2020-01-02T23:59:59Z'")

	messages := decodeMessages(t, &buf)
	gt.Value(t, messageTypes(messages)).Equal([]string{
		"SCHEMA", "RECORD", "RECORD", "STATE", "STATE",
	})

	// The bookmark is the max CreationTime seen, checkpointed per window.
	final := messages[len(messages)-1].Value
	bm, ok := final.Bookmark("ActivityEvents")
	gt.Value(t, ok).Equal(true)
	gt.Value(t, bm.ReplicationKey).Equal("CreationTime")
	gt.Value(t, bm.ReplicationKeyValue).Equal("2020-01-01T08:00:00Z")
}

func TestSync_ActivityResumesFromBookmark(t *testing.T) {
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return &model.APIPage{}, nil
		},
	}

	state := model.NewState()
	state.SetBookmark("ActivityEvents", "CreationTime", "2020-01-02T10:00:00Z")
	now := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{activityStream()}),
		usecase.WithClock(func() time.Time { return now }))

	gt.NoError(t, uc.Run(context.Background(), tapConfig(), nil, state))

	// The bookmark wins over start_date: the window resumes mid-day.
	gt.Value(t, len(client.requests)).Equal(1)
	query := client.requests[0].Query
	gt.Value(t, query.Get("startDateTime")).Equal("'2020-01-02T10:00:00Z'")
	gt.Value(t, query.Get("endDateTime")).Equal("'2020-01-02T23:59:59Z'")
}

func TestSync_ActivityRequiresStartDate(t *testing.T) {
	client := &mockPowerBI{
		handler: func(call int, path string, query url.Values) (*model.APIPage, error) {
			return &model.APIPage{}, nil
		},
	}

	var buf bytes.Buffer
	uc := usecase.NewSync(client, singer.NewWriter(&buf),
		usecase.WithStreams([]*model.Stream{activityStream()}))

	err := uc.Run(context.Background(), tapConfig(), nil, nil)
	gt.Error(t, err)
}
