package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// IdentityService guards the pipeline: it confirms the selected
// credentials can authenticate against the target region before any
// infrastructure is touched.
type IdentityService struct {
	client *sts.Client
}

func NewIdentityService(client *sts.Client) *IdentityService {
	return &IdentityService{client: client}
}

// VerifyCaller performs a read-only caller-identity check. Exactly one
// attempt; any failure aborts the run. Returns the caller ARN for logging.
func (s *IdentityService) VerifyCaller(ctx context.Context) (string, error) {
	identity, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return aws.ToString(identity.Arn), nil
}
