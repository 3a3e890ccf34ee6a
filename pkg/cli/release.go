package cli

import (
	"context"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/cli/config"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func cmdRelease() *cli.Command {
	var (
		releaseCfg config.Release
		indexCfg   config.Index
		archiveCfg config.Archive
		notifyCfg  config.Notify
		sentryCfg  config.Sentry
	)

	flags := append(releaseCfg.Flags(), indexCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "release",
		Aliases: []string{"r"},
		Usage:   "Run the build-and-test and publish stages",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			store, err := archiveCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure artifact store")
			}

			index := indexCfg.Configure()
			opts := []usecase.PipelineOption{
				usecase.WithTestCommand(releaseCfg.TestCommand),
			}
			if store != nil {
				opts = append(opts, usecase.WithArtifactStore(store))
			}
			if notifier := notifyCfg.Configure(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			pipeline := usecase.NewPipeline(
				usecase.NewProject(),
				usecase.NewVersionResolver(releaseCfg.ReleaseBranch),
				usecase.NewPublish(index),
				usecase.NewVerify(index, int(indexCfg.PollAttempts), indexCfg.PollInterval),
				opts...,
			)

			result, err := pipeline.Run(ctx, releaseCfg.Request())
			if err != nil {
				sentry.CaptureException(err)
				printFailure(err)
				return err
			}

			printSuccess(result)
			return nil
		},
	}
}

// Human-facing summaries go to stderr; stdout stays clean for tooling.
func printSuccess(result *model.ReleaseResult) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(os.Stderr, "✔ published %s %s\n", result.Artifact.Name, result.Version.Version)
	color.New(color.Faint).Fprintf(os.Stderr,
		"  channel=%s attempts=%d elapsed=%s\n",
		result.Version.Channel,
		result.Verify.Attempts,
		result.Duration.Round(time.Second),
	)
	if result.ArchiveURI != "" {
		color.New(color.Faint).Fprintf(os.Stderr, "  archived to %s\n", result.ArchiveURI)
	}
}

func printFailure(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✘ release failed: %v\n", err)
}
