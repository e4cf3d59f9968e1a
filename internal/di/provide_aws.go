package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

func ProvideContext() context.Context {
	return context.Background()
}

// ProvideAWSConfig loads the SDK configuration for the target region,
// selecting the named shared profile when one was supplied.
func ProvideAWSConfig(ctx context.Context, region Region, profile Profile) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(string(region)),
	}
	if profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(string(profile)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

func ProvideSTSClient(config aws.Config) *sts.Client {
	return sts.NewFromConfig(config)
}

func ProvideCloudFormationClient(config aws.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(config)
}

func ProvideS3Client(config aws.Config) *s3.Client {
	return s3.NewFromConfig(config)
}

func ProvideLambdaClient(config aws.Config) *lambda.Client {
	return lambda.NewFromConfig(config)
}
