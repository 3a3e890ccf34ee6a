package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/singer"
)

func cmdAbout() *cli.Command {
	return &cli.Command{
		Name:  "about",
		Usage: "Print plugin information and the config schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			about := map[string]any{
				"name":         types.AppName,
				"version":      types.Version,
				"capabilities": []string{"catalog", "discover", "state"},
				"settings":     configSchema(),
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(about); err != nil {
				return goerr.Wrap(err, "failed to encode about output")
			}
			return nil
		},
	}
}

func configSchema() singer.Schema {
	return singer.NewSchema(
		singer.RequiredProp("tenant_id", singer.String()),
		singer.RequiredProp("client_id", singer.String()),
		singer.RequiredProp("username", singer.String()),
		singer.RequiredProp("password", singer.String()),
		singer.Prop("start_date", singer.DateTime()),
		singer.Prop("stream_config", singer.Object(
			singer.Prop("parameters", singer.String()),
		)),
		singer.Prop("stream_config_string", singer.String()),
	)
}
