package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func cmdDiscover() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Emit the stream catalog as JSON on stdout",
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog := usecase.NewDiscover().Catalog()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(catalog); err != nil {
				return goerr.Wrap(err, "failed to encode catalog")
			}
			return nil
		},
	}
}
