package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/cli/config"
	ghctrl "github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/controller/github"
	controller "github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/controller/http"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		githubCfg  config.GitHub
		releaseCfg config.Release
		indexCfg   config.Index
		archiveCfg config.Archive
		notifyCfg  config.Notify
		sentryCfg  config.Sentry
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, releaseCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server triggering release runs on push",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			githubClient, err := githubCfg.Configure()
			if err != nil {
				return err
			}
			if githubClient == nil {
				return goerr.New("serve requires GitHub App credentials to fetch source snapshots")
			}

			store, err := archiveCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure artifact store")
			}

			index := indexCfg.Configure()
			opts := []usecase.PipelineOption{
				usecase.WithTestCommand(releaseCfg.TestCommand),
				usecase.WithCommitStatus(githubClient),
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
			trigger := usecase.NewTrigger(
				usecase.NewSource(githubClient),
				pipeline,
				usecase.WithRunNumberSeed(releaseCfg.RunNumberSeed),
			)
			processor := ghctrl.NewEventProcessor(trigger)

			server, err := controller.NewServer(
				ctx,
				processor,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
