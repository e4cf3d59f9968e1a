package services

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog"
)

// FunctionService pushes packaged archives as new Lambda function code.
// This runs after every convergence, including no-change ones, because
// CloudFormation does not reliably propagate code-only changes.
type FunctionService struct {
	client *lambda.Client
}

func NewFunctionService(client *lambda.Client) *FunctionService {
	return &FunctionService{client: client}
}

// UpdateCode uploads the archive's bytes as the function's new code body.
func (s *FunctionService) UpdateCode(ctx context.Context, functionArn, archivePath string) error {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}

	_, err = s.client.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionArn),
		ZipFile:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to update function code for %s: %w", functionArn, err)
	}

	logger.Info().
		Str("function_arn", functionArn).
		Int("archive_bytes", len(data)).
		Msg("Updated function code")
	return nil
}
