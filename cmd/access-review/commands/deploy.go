package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/olisabosun/aws-automated-access-review/internal/deployer"
	"github.com/olisabosun/aws-automated-access-review/internal/di"
	"github.com/olisabosun/aws-automated-access-review/internal/packager"
	"github.com/olisabosun/aws-automated-access-review/internal/services"
	"github.com/olisabosun/aws-automated-access-review/internal/template"
)

type runFunc func(ctx context.Context, cfg deployer.Config) error

// DeployCommand returns the deploy command: create or update the access
// review stack and push freshly packaged function code.
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return newDeployCommand(logger, runDeploy)
}

// newDeployCommand separates flag handling from pipeline execution so
// tests can substitute the runner.
func newDeployCommand(logger *zerolog.Logger, run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Create or update the access review stack and upload function code",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stack-name",
				Usage: "CloudFormation stack name",
				Value: deployer.DefaultStackName,
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region",
				Value: deployer.DefaultRegion,
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Schedule expression for the recurring review",
				Value: deployer.DefaultSchedule,
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "Recipient address for review reports (required)",
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Named AWS credential profile (defaults to ambient credentials)",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "CloudFormation template path",
				Value: deployer.DefaultTemplatePath,
			},
			&cli.StringFlag{
				Name:  "source-dir",
				Usage: "Function source directory to package",
				Value: deployer.DefaultSourceDir,
			},
		},
		Action: func(c *cli.Context) error {
			// Every flag takes exactly one value; anything left over is
			// an unrecognized option, not an argument.
			if c.Args().Present() {
				return &deployer.StepError{
					Step: "resolve-config",
					Kind: deployer.KindUsage,
					Err:  fmt.Errorf("unrecognized option: %s", c.Args().First()),
				}
			}

			cfg := deployer.Config{
				StackName:      c.String("stack-name"),
				Region:         c.String("region"),
				Schedule:       c.String("schedule"),
				RecipientEmail: c.String("email"),
				Profile:        c.String("profile"),
				TemplatePath:   c.String("template"),
				SourceDir:      c.String("source-dir"),
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info().
				Str("stack_name", cfg.StackName).
				Str("region", cfg.Region).
				Msg("Starting deployment")
			return run(c.Context, cfg)
		},
	}
}

func runDeploy(ctx context.Context, cfg deployer.Config) error {
	container, err := di.New(
		di.WithRegion(cfg.Region),
		di.WithProfile(cfg.Profile),
		di.WithProviders(
			func() *packager.Packager { return packager.New(cfg.SourceDir) },
			func() *template.Checker {
				return template.NewChecker(deployer.OutputBucket, deployer.OutputFunctionArn)
			},
			provideDeployer,
		),
	)
	if err != nil {
		return err
	}

	return container.Invoke(func(d *deployer.Deployer) error {
		_, err := d.Run(ctx, cfg)
		return err
	})
}

func provideDeployer(
	identity *services.IdentityService,
	templates *template.Checker,
	archiver *packager.Packager,
	stacks *services.StackService,
	buckets *services.BucketService,
	functions *services.FunctionService,
) *deployer.Deployer {
	return deployer.New(identity, templates, archiver, stacks, buckets, functions)
}
