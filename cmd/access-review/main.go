package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/olisabosun/aws-automated-access-review/cmd/access-review/commands"
	"github.com/olisabosun/aws-automated-access-review/internal/di"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "access-review",
		Usage: "Deploy the automated AWS access review",
		Description: `Provisions the access review stack (scheduled audit Lambda, report S3
bucket, SES notification wiring) and uploads the current function code.

Re-running against an existing stack updates it in place.`,
		Commands: []*cli.Command{
			commands.DeployCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Deployment failed")
		os.Exit(1)
	}
}
