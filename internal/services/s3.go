package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BucketService verifies the report bucket a converged stack claims to
// have provisioned actually resolves.
type BucketService struct {
	client *s3.Client
}

func NewBucketService(client *s3.Client) *BucketService {
	return &BucketService{client: client}
}

// Verify performs a read-only existence check against the bucket.
func (s *BucketService) Verify(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return fmt.Errorf("report bucket %s is not reachable: %w", bucket, err)
	}
	return nil
}
