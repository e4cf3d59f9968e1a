package template

import (
	"os"
	"path/filepath"
	"testing"
)

const validTemplate = `AWSTemplateFormatVersion: "2010-09-09"
Description: Automated access review
Parameters:
  RecipientEmail:
    Type: String
  ScheduleExpression:
    Type: String
Resources:
  ReportBucket:
    Type: AWS::S3::Bucket
Outputs:
  AccessReviewS3Bucket:
    Value: !Ref ReportBucket
  AccessReviewLambdaArn:
    Value: !GetAtt AccessReviewFunction.Arn
`

const missingOutputTemplate = `AWSTemplateFormatVersion: "2010-09-09"
Resources:
  ReportBucket:
    Type: AWS::S3::Bucket
Outputs:
  AccessReviewS3Bucket:
    Value: !Ref ReportBucket
`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access-review.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheck(t *testing.T) {
	checker := NewChecker("AccessReviewS3Bucket", "AccessReviewLambdaArn")

	tests := []struct {
		name     string
		template string
		wantErr  string
	}{
		{
			name:     "both outputs present",
			template: validTemplate,
			wantErr:  "",
		},
		{
			name:     "missing function output",
			template: missingOutputTemplate,
			wantErr:  "AccessReviewLambdaArn",
		},
		{
			name:     "no outputs section",
			template: "Resources:\n  ReportBucket:\n    Type: AWS::S3::Bucket\n",
			wantErr:  "AccessReviewS3Bucket",
		},
		{
			name:     "unparseable template",
			template: "Outputs: [not: valid\n",
			wantErr:  "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemplate(t, tt.template)
			err := checker.Check(path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Check() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Check() = nil, want error containing %q", tt.wantErr)
			}
			if !contains(err.Error(), tt.wantErr) {
				t.Errorf("Check() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckMissingFile(t *testing.T) {
	checker := NewChecker("AccessReviewS3Bucket")
	if err := checker.Check(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Check() = nil, want error for missing file")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
