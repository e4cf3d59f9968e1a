// Package deployer runs the deployment pipeline for the automated access
// review: verify credentials, check the template, package the function
// source, converge the CloudFormation stack, resolve its outputs, push
// the packaged code, and report. Steps execute strictly in order and the
// first failure aborts the run.
package deployer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/olisabosun/aws-automated-access-review/internal/services"
)

// Output keys the converged stack must export. Absence of either after a
// successful convergence is a template/driver mismatch, never defaulted.
const (
	OutputBucket      = "AccessReviewS3Bucket"
	OutputFunctionArn = "AccessReviewLambdaArn"
)

// Collaborator contracts, implemented by internal/services and the
// packager. Each remote call is attempted exactly once.

type Identity interface {
	VerifyCaller(ctx context.Context) (string, error)
}

type TemplateChecker interface {
	Check(path string) error
}

type Archiver interface {
	Package(ctx context.Context) (string, error)
}

type Stacks interface {
	Converge(ctx context.Context, in services.ConvergeInput) (*services.ConvergeResult, error)
	Outputs(ctx context.Context, stackName string) (map[string]string, error)
}

type Buckets interface {
	Verify(ctx context.Context, bucket string) error
}

type Functions interface {
	UpdateCode(ctx context.Context, functionArn, archivePath string) error
}

type Deployer struct {
	identity  Identity
	templates TemplateChecker
	archiver  Archiver
	stacks    Stacks
	buckets   Buckets
	functions Functions
	out       io.Writer
}

func New(
	identity Identity,
	templates TemplateChecker,
	archiver Archiver,
	stacks Stacks,
	buckets Buckets,
	functions Functions,
) *Deployer {
	return &Deployer{
		identity:  identity,
		templates: templates,
		archiver:  archiver,
		stacks:    stacks,
		buckets:   buckets,
		functions: functions,
		out:       os.Stdout,
	}
}

// WithOutput redirects the rendered report. Used by tests.
func (d *Deployer) WithOutput(w io.Writer) *Deployer {
	d.out = w
	return d
}

// Run executes the pipeline once. No state is retained between runs
// beyond whatever AWS persists.
func (d *Deployer) Run(ctx context.Context, cfg Config) (*Report, error) {
	runID := ksuid.New().String()
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", runID).
		Str("stack_name", cfg.StackName).
		Str("region", cfg.Region).
		Logger()
	ctx = logger.WithContext(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().Msg("Verifying caller identity")
	callerArn, err := d.identity.VerifyCaller(ctx)
	if err != nil {
		return nil, &StepError{Step: "verify-credentials", Kind: KindCredentials, Err: err}
	}
	logger.Info().Str("caller_arn", callerArn).Msg("Caller identity verified")

	if err := d.templates.Check(cfg.TemplatePath); err != nil {
		return nil, &StepError{Step: "check-template", Kind: KindConvergence, Err: err}
	}

	logger.Info().Str("source_dir", cfg.SourceDir).Msg("Packaging function source")
	archivePath, err := d.archiver.Package(ctx)
	if err != nil {
		return nil, &StepError{Step: "package-artifact", Kind: KindPackaging, Err: err}
	}

	logger.Info().Msg("Converging CloudFormation stack")
	result, err := d.stacks.Converge(ctx, services.ConvergeInput{
		StackName:      cfg.StackName,
		TemplatePath:   cfg.TemplatePath,
		RecipientEmail: cfg.RecipientEmail,
		Schedule:       cfg.Schedule,
	})
	if err != nil {
		return nil, &StepError{Step: "converge-stack", Kind: KindConvergence, Err: err}
	}
	if result.NoChanges {
		logger.Info().Msg("Stack already matches template, continuing with code update")
	} else {
		logger.Info().
			Str("operation", result.Operation).
			Str("stack_id", result.StackID).
			Msg("Stack converged")
	}

	outputs, err := d.stacks.Outputs(ctx, cfg.StackName)
	if err != nil {
		return nil, &StepError{Step: "resolve-outputs", Kind: KindConsistency, Err: err}
	}

	bucket, ok := outputs[OutputBucket]
	if !ok {
		return nil, &StepError{
			Step: "resolve-outputs",
			Kind: KindConsistency,
			Err:  fmt.Errorf("stack %s did not export output %s", cfg.StackName, OutputBucket),
		}
	}
	functionArn, ok := outputs[OutputFunctionArn]
	if !ok {
		return nil, &StepError{
			Step: "resolve-outputs",
			Kind: KindConsistency,
			Err:  fmt.Errorf("stack %s did not export output %s", cfg.StackName, OutputFunctionArn),
		}
	}

	if err := d.buckets.Verify(ctx, bucket); err != nil {
		return nil, &StepError{Step: "verify-bucket", Kind: KindConsistency, Err: err}
	}

	logger.Info().Str("function_arn", functionArn).Msg("Updating function code")
	if err := d.functions.UpdateCode(ctx, functionArn, archivePath); err != nil {
		return nil, &StepError{Step: "update-function-code", Kind: KindCodeUpdate, Err: err}
	}

	report := &Report{
		RunID:          runID,
		StackName:      cfg.StackName,
		StackID:        result.StackID,
		Region:         cfg.Region,
		FunctionArn:    functionArn,
		Bucket:         bucket,
		RecipientEmail: cfg.RecipientEmail,
		Schedule:       cfg.Schedule,
		Profile:        cfg.Profile,
		Operation:      result.Operation,
		NoChanges:      result.NoChanges,
	}
	fmt.Fprint(d.out, report.Render())
	return report, nil
}
