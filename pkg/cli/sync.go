package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/cli/config"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/infra/powerbi"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/singer"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func cmdSync() *cli.Command {
	var tapCfg config.Tap

	return &cli.Command{
		Name:  "sync",
		Usage: "Extract records as Singer messages on stdout",
		Flags: tapCfg.Flags(true),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := tapCfg.LoadConfig()
			if err != nil {
				return err
			}
			catalog, err := tapCfg.LoadCatalog()
			if err != nil {
				return err
			}
			state, err := tapCfg.LoadState()
			if err != nil {
				return err
			}

			client := powerbi.NewClient(cfg)
			writer := singer.NewWriter(os.Stdout)

			return usecase.NewSync(client, writer).Run(ctx, cfg, catalog, state)
		},
	}
}
