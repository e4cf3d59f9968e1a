package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// CloudFormation can take a while to settle IAM and scheduler resources.
const stackWaitTimeout = 30 * time.Minute

// Parameter keys the access review template expects.
const (
	paramRecipientEmail     = "RecipientEmail"
	paramScheduleExpression = "ScheduleExpression"
)

type ConvergeInput struct {
	StackName      string
	TemplatePath   string
	RecipientEmail string
	Schedule       string
}

type ConvergeResult struct {
	StackName string
	StackID   string
	Operation string

	// NoChanges is set when the stack already matched the template. The
	// run continues: function code is pushed regardless, because
	// CloudFormation does not compare code contents.
	NoChanges bool
}

// StackService drives CloudFormation stack convergence: one idempotent
// create-or-update call that blocks until the stack reaches a terminal
// state.
type StackService struct {
	client *cloudformation.Client
}

func NewStackService(client *cloudformation.Client) *StackService {
	return &StackService{client: client}
}

// Converge creates the stack if it does not exist, otherwise updates it
// in place, then blocks until CloudFormation reports a terminal state. An
// update that requires no changes is a success, not a failure; treating
// it as fatal would make re-deployment impossible.
func (s *StackService) Converge(ctx context.Context, in ConvergeInput) (*ConvergeResult, error) {
	logger := zerolog.Ctx(ctx)

	template, err := os.ReadFile(in.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", in.TemplatePath, err)
	}

	exists, err := s.stackExists(ctx, in.StackName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if stack exists: %w", err)
	}

	params := []types.Parameter{
		{
			ParameterKey:   aws.String(paramRecipientEmail),
			ParameterValue: aws.String(in.RecipientEmail),
		},
		{
			ParameterKey:   aws.String(paramScheduleExpression),
			ParameterValue: aws.String(in.Schedule),
		},
	}

	if exists {
		return s.updateStack(ctx, in.StackName, string(template), params)
	}

	logger.Info().Str("stack_name", in.StackName).Msg("Stack does not exist, creating")
	return s.createStack(ctx, in.StackName, string(template), params)
}

func (s *StackService) stackExists(ctx context.Context, stackName string) (bool, error) {
	_, err := s.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isStackMissingError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *StackService) createStack(
	ctx context.Context,
	stackName, template string,
	parameters []types.Parameter,
) (*ConvergeResult, error) {
	result, err := s.client.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(template),
		Parameters:   parameters,
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
		},
		Tags: []types.Tag{
			{
				Key:   aws.String("ManagedBy"),
				Value: aws.String("aws-automated-access-review"),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	waiter := cloudformation.NewStackCreateCompleteWaiter(s.client)
	err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}, stackWaitTimeout)
	if err != nil {
		return nil, fmt.Errorf("stack creation did not complete: %w", err)
	}

	return &ConvergeResult{
		StackName: stackName,
		StackID:   aws.ToString(result.StackId),
		Operation: "CREATE",
	}, nil
}

func (s *StackService) updateStack(
	ctx context.Context,
	stackName, template string,
	parameters []types.Parameter,
) (*ConvergeResult, error) {
	logger := zerolog.Ctx(ctx)

	result, err := s.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(template),
		Parameters:   parameters,
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
		},
	})
	if err != nil {
		if isNoUpdateError(err) {
			logger.Info().Str("stack_name", stackName).Msg("No updates needed for stack")
			return &ConvergeResult{
				StackName: stackName,
				StackID:   stackName,
				Operation: "UPDATE",
				NoChanges: true,
			}, nil
		}
		return nil, err
	}

	waiter := cloudformation.NewStackUpdateCompleteWaiter(s.client)
	err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}, stackWaitTimeout)
	if err != nil {
		return nil, fmt.Errorf("stack update did not complete: %w", err)
	}

	return &ConvergeResult{
		StackName: stackName,
		StackID:   aws.ToString(result.StackId),
		Operation: "UPDATE",
	}, nil
}

// Outputs returns the stack's exported outputs as a plain map. Fetched
// fresh on every call; the stack may have just changed.
func (s *StackService) Outputs(ctx context.Context, stackName string) (map[string]string, error) {
	result, err := s.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe stack %s: %w", stackName, err)
	}
	if len(result.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", stackName)
	}
	return foldOutputs(result.Stacks[0].Outputs), nil
}

func foldOutputs(outputs []types.Output) map[string]string {
	folded := make(map[string]string, len(outputs))
	for _, output := range outputs {
		if output.OutputKey != nil && output.OutputValue != nil {
			folded[*output.OutputKey] = *output.OutputValue
		}
	}
	return folded
}

// isStackMissingError reports whether a DescribeStacks error means the
// stack simply does not exist yet.
func isStackMissingError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" &&
			strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return false
}

// isNoUpdateError reports whether an UpdateStack error is the
// "No updates are to be performed" response, which is a success case.
func isNoUpdateError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" &&
			(strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed") ||
				strings.Contains(apiErr.ErrorMessage(), "No updates to be performed"))
	}
	return false
}
