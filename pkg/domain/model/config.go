package model

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// TapConfig is the tap configuration loaded from the --config JSON file.
// The password never appears in logs; it is redacted by field name and by
// the masq tag.
type TapConfig struct {
	TenantID  string `json:"tenant_id"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Password  string `json:"password" masq:"secret"`
	StartDate string `json:"start_date,omitempty"`

	// StreamConfig holds per-stream request parameters. StreamConfigString
	// is a JSON-encoded alternative for environments where nested objects
	// cannot be expressed; it is only consulted when StreamConfig is empty.
	StreamConfig       map[string]StreamSettings `json:"stream_config,omitempty"`
	StreamConfigString string                    `json:"stream_config_string,omitempty"`
}

// StreamSettings is the per-stream section of stream_config. Parameters is a
// URL query string, with or without a leading "?".
type StreamSettings struct {
	Parameters string `json:"parameters"`
}

// Validate checks that all required credentials are present.
func (c *TapConfig) Validate() error {
	switch {
	case c.TenantID == "":
		return goerr.New("tap config is missing tenant_id")
	case c.ClientID == "":
		return goerr.New("tap config is missing client_id")
	case c.Username == "":
		return goerr.New("tap config is missing username")
	case c.Password == "":
		return goerr.New("tap config is missing password")
	}
	return nil
}

// StreamParams returns the configured request parameters for the named
// stream, parsed from its query string. Streams without configuration get
// empty values.
func (c *TapConfig) StreamParams(stream string) (url.Values, error) {
	settings, err := c.streamSettings()
	if err != nil {
		return nil, err
	}

	raw := strings.TrimLeft(settings[stream].Parameters, "?")
	if raw == "" {
		return url.Values{}, nil
	}

	params, err := url.ParseQuery(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse stream parameters",
			goerr.V("stream", stream))
	}
	return params, nil
}

func (c *TapConfig) streamSettings() (map[string]StreamSettings, error) {
	if len(c.StreamConfig) > 0 {
		return c.StreamConfig, nil
	}
	if c.StreamConfigString == "" {
		return nil, nil
	}

	var settings map[string]StreamSettings
	if err := json.Unmarshal([]byte(c.StreamConfigString), &settings); err != nil {
		return nil, goerr.Wrap(err, "failed to parse stream_config_string")
	}
	return settings, nil
}

// StartTime parses the configured start_date. The zero time is returned when
// no start_date is configured.
func (c *TapConfig) StartTime() (time.Time, error) {
	if c.StartDate == "" {
		return time.Time{}, nil
	}
	return ParseReplicationTime(c.StartDate)
}

// ParseReplicationTime parses the timestamp formats that appear in bookmark
// values and start_date configuration.
func ParseReplicationTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, goerr.New("unrecognized timestamp format",
		goerr.V("value", value))
}
