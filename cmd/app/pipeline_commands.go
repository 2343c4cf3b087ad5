package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/outreach/cmd/app/commands"
	"github.com/allisson/outreach/internal/app"
	"github.com/allisson/outreach/internal/config"
)

func getPipelineCommands() []*cli.Command {
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}

	return []*cli.Command{
		{
			Name:  "process-campaign",
			Usage: "Run the staged pipeline over a campaign's eligible prospects",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "campaign-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Campaign ID (UUID)",
				},
				formatFlag,
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				logger := container.Logger()
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.PipelineUseCase()
				if err != nil {
					return err
				}

				return commands.RunProcessCampaign(
					ctx,
					useCase,
					logger,
					os.Stdout,
					cmd.String("campaign-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "retry-failed",
			Usage: "Run the idempotent retry sweeps over failed pipeline work",
			Flags: []cli.Flag{formatFlag},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				logger := container.Logger()
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.PipelineUseCase()
				if err != nil {
					return err
				}

				return commands.RunRetryFailed(ctx, useCase, logger, os.Stdout, cmd.String("format"))
			},
		},
		{
			Name:  "poll-replies",
			Usage: "Sweep sent email jobs for replies the webhook missed",
			Flags: []cli.Flag{formatFlag},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				logger := container.Logger()
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.CorrelationUseCase()
				if err != nil {
					return err
				}

				return commands.RunPollReplies(ctx, useCase, logger, os.Stdout, cmd.String("format"))
			},
		},
		{
			Name:  "import-prospects",
			Usage: "Import prospects into a campaign from a CSV file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "campaign-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Campaign ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "file",
					Required: true,
					Usage:    "Path to the CSV file (website, contact_email, company_name columns)",
				},
				formatFlag,
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				logger := container.Logger()
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.ImporterUseCase()
				if err != nil {
					return err
				}

				return commands.RunImportProspects(
					ctx,
					useCase,
					logger,
					os.Stdout,
					cmd.String("campaign-id"),
					cmd.String("file"),
					cmd.String("format"),
				)
			},
		},
	}
}
