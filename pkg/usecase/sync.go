package usecase

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/singer"
)

type syncUseCase struct {
	client  interfaces.PowerBI
	writer  *singer.Writer
	streams []*model.Stream
	now     func() time.Time
}

// SyncOption configures the sync engine.
type SyncOption func(*syncUseCase)

// WithClock replaces the wall clock. The activity stream stops advancing
// day windows once the next window start reaches "now", which tests pin.
func WithClock(now func() time.Time) SyncOption {
	return func(uc *syncUseCase) {
		uc.now = now
	}
}

// WithStreams replaces the stream registry.
func WithStreams(streams []*model.Stream) SyncOption {
	return func(uc *syncUseCase) {
		uc.streams = streams
	}
}

// NewSync creates the sync engine emitting Singer messages through writer.
func NewSync(client interfaces.PowerBI, writer *singer.Writer, opts ...SyncOption) interfaces.SyncUseCase {
	uc := &syncUseCase{
		client:  client,
		writer:  writer,
		streams: Streams(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run syncs every selected stream in registry order. Incremental streams
// resume from their bookmark; a STATE message follows each completed day
// window and every stream end.
func (uc *syncUseCase) Run(ctx context.Context, cfg *model.TapConfig, catalog *model.Catalog, state *model.State) error {
	logger := ctxlog.From(ctx)
	if state == nil {
		state = model.NewState()
	}

	for _, stream := range uc.streams {
		if catalog != nil && !catalog.IsSelected(stream.Name) {
			logger.Info("Skipping deselected stream", "stream", stream.Name)
			continue
		}

		var bookmarkProps []string
		if stream.Incremental() {
			bookmarkProps = []string{stream.ReplicationKey}
		}
		if err := uc.writer.WriteSchema(stream.Name, stream.Schema, stream.PrimaryKeys, bookmarkProps); err != nil {
			return err
		}

		logger.Info("Syncing stream", "stream", stream.Name)

		var err error
		switch stream.Pagination {
		case model.PaginateActivityWindow:
			err = uc.syncActivityWindows(ctx, stream, cfg, state)
		default:
			err = uc.syncSkipTop(ctx, stream, cfg, state)
		}
		if err != nil {
			return goerr.Wrap(err, "stream sync failed", goerr.V("stream", stream.Name))
		}
	}

	return nil
}

// syncSkipTop walks a metadata endpoint with $top/$skip pagination. The
// first request carries no $skip; pagination stops at the first empty page,
// so a short final page still triggers one more request.
func (uc *syncUseCase) syncSkipTop(ctx context.Context, stream *model.Stream, cfg *model.TapConfig, state *model.State) error {
	params, err := streamRequestParams(cfg, stream)
	if err != nil {
		return err
	}

	pages := 0
	for {
		query := cloneValues(params)
		query.Set("$top", strconv.Itoa(stream.PageSize))
		if pages > 0 {
			query.Set("$skip", strconv.Itoa(pages*stream.PageSize))
		}

		page, err := uc.client.Get(ctx, stream.Path, query)
		if err != nil {
			return err
		}

		for _, row := range page.Rows {
			if err := uc.writer.WriteRecord(stream.Name, row); err != nil {
				return err
			}
		}

		if len(page.Rows) == 0 {
			break
		}
		pages++
	}

	return uc.writer.WriteState(state)
}

// syncActivityWindows walks the activity events endpoint one UTC day at a
// time. Within a day, requests follow the continuation token; when the
// token runs out the window advances one day until the next window start
// reaches now. The API only accepts a single day per request.
func (uc *syncUseCase) syncActivityWindows(ctx context.Context, stream *model.Stream, cfg *model.TapConfig, state *model.State) error {
	logger := ctxlog.From(ctx)

	start, maxSeen, err := uc.windowStart(stream, cfg, state)
	if err != nil {
		return err
	}

	for {
		dayStart := start
		windowEnd := truncateDay(dayStart).Add(24*time.Hour - time.Microsecond)
		token := ""

		for {
			query := url.Values{}
			if token != "" {
				query.Set("continuationToken", "'"+token+"'")
			} else {
				query.Set("startDateTime", quoteTime(dayStart))
				query.Set("endDateTime", quoteTime(windowEnd))
			}

			page, err := uc.client.Get(ctx, stream.Path, query)
			if err != nil {
				return err
			}

			for _, row := range page.Rows {
				if err := uc.writer.WriteRecord(stream.Name, row); err != nil {
					return err
				}
				maxSeen = laterReplicationValue(maxSeen, row, stream.ReplicationKey)
			}

			if page.ContinuationToken == "" {
				break
			}
			if unescaped, err := url.QueryUnescape(page.ContinuationToken); err == nil {
				token = unescaped
			} else {
				token = page.ContinuationToken
			}
		}

		// Day window completed: checkpoint before moving on.
		if maxSeen != "" {
			state.SetBookmark(stream.Name, stream.ReplicationKey, maxSeen)
		}
		if err := uc.writer.WriteState(state); err != nil {
			return err
		}

		next := truncateDay(dayStart).Add(24 * time.Hour)
		if !next.Before(uc.now().UTC()) {
			logger.Info("Next window start is after now, stream done",
				"stream", stream.Name,
				"next_window", next.Format(time.RFC3339),
			)
			return nil
		}
		start = next
	}
}

// windowStart resolves the first window start: the bookmark wins over the
// configured start_date. The activity stream cannot sync without one of
// the two.
func (uc *syncUseCase) windowStart(stream *model.Stream, cfg *model.TapConfig, state *model.State) (time.Time, string, error) {
	if bm, ok := state.Bookmark(stream.Name); ok && bm.ReplicationKeyValue != "" {
		ts, err := model.ParseReplicationTime(bm.ReplicationKeyValue)
		if err != nil {
			return time.Time{}, "", goerr.Wrap(err, "invalid bookmark value",
				goerr.V("stream", stream.Name),
				goerr.V("value", bm.ReplicationKeyValue))
		}
		return ts, bm.ReplicationKeyValue, nil
	}

	start, err := cfg.StartTime()
	if err != nil {
		return time.Time{}, "", err
	}
	if start.IsZero() {
		return time.Time{}, "", goerr.New("stream requires a bookmark or start_date",
			goerr.V("stream", stream.Name))
	}
	return start, "", nil
}

// streamRequestParams merges the user-configured query parameters with two
// fix-ups: $count is forced on when the $filter expression references it,
// and primary keys missing from a user $select are appended so records stay
// addressable.
func streamRequestParams(cfg *model.TapConfig, stream *model.Stream) (url.Values, error) {
	user, err := cfg.StreamParams(stream.Name)
	if err != nil {
		return nil, err
	}

	params := cloneValues(user)

	if filter := params.Get("$filter"); strings.Contains(filter, "$count") {
		params.Set("$count", "true")
	}

	if selected := params.Get("$select"); selected != "" {
		fields := strings.Split(selected, ",")
		present := make(map[string]bool, len(fields))
		for _, f := range fields {
			present[f] = true
		}
		for _, pk := range stream.PrimaryKeys {
			if !present[pk] {
				fields = append(fields, pk)
			}
		}
		params.Set("$select", strings.Join(fields, ","))
	}

	return params, nil
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vs := range values {
		out[key] = append([]string(nil), vs...)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// quoteTime renders the single-quote-wrapped timestamp literal the activity
// events endpoint expects.
func quoteTime(t time.Time) string {
	return "'" + t.UTC().Format("2006-01-02T15:04:05") + "Z'"
}

func laterReplicationValue(current string, row map[string]any, key string) string {
	raw, ok := row[key].(string)
	if !ok || raw == "" {
		return current
	}
	if current == "" {
		return raw
	}

	currentTS, err1 := model.ParseReplicationTime(current)
	rawTS, err2 := model.ParseReplicationTime(raw)
	if err1 != nil || err2 != nil {
		// Fall back to lexical comparison; both formats sort correctly.
		if raw > current {
			return raw
		}
		return current
	}
	if rawTS.After(currentTS) {
		return raw
	}
	return current
}
