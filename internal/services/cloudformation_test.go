package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsNoUpdateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "no updates to be performed",
			err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "No updates are to be performed.",
			},
			want: true,
		},
		{
			name: "alternate phrasing",
			err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "No updates to be performed",
			},
			want: true,
		},
		{
			name: "wrapped no-update error",
			err: fmt.Errorf("failed to update stack: %w", &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "No updates are to be performed.",
			}),
			want: true,
		},
		{
			name: "other validation error",
			err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "Template format error",
			},
			want: false,
		},
		{
			name: "other error code",
			err: &smithy.GenericAPIError{
				Code:    "AccessDenied",
				Message: "No updates are to be performed.",
			},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNoUpdateError(tt.err))
		})
	}
}

func TestIsStackMissingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "stack does not exist",
			err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "Stack with id aws-access-review does not exist",
			},
			want: true,
		},
		{
			name: "unrelated validation error",
			err: &smithy.GenericAPIError{
				Code:    "ValidationError",
				Message: "Template format error",
			},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("timeout"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStackMissingError(tt.err))
		})
	}
}

func TestFoldOutputs(t *testing.T) {
	outputs := []types.Output{
		{
			OutputKey:   aws.String("AccessReviewS3Bucket"),
			OutputValue: aws.String("my-bucket"),
		},
		{
			OutputKey:   aws.String("AccessReviewLambdaArn"),
			OutputValue: aws.String("arn:x:y:fn"),
		},
		{
			// Outputs with a nil value are skipped, never defaulted.
			OutputKey: aws.String("Dangling"),
		},
	}

	folded := foldOutputs(outputs)
	assert.Equal(t, map[string]string{
		"AccessReviewS3Bucket":  "my-bucket",
		"AccessReviewLambdaArn": "arn:x:y:fn",
	}, folded)
}

func TestFoldOutputsEmpty(t *testing.T) {
	assert.Empty(t, foldOutputs(nil))
}
