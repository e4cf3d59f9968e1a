package deployer

import (
	"fmt"
	"strings"
)

// Report is the post-deployment summary. Purely informational; nothing
// consumes it downstream.
type Report struct {
	RunID          string
	StackName      string
	StackID        string
	Region         string
	FunctionArn    string
	Bucket         string
	RecipientEmail string
	Schedule       string
	Profile        string
	Operation      string
	NoChanges      bool
}

func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("\n✓ Deployment complete\n")
	fmt.Fprintf(&b, "  Stack:     %s (%s)\n", r.StackName, r.Region)
	fmt.Fprintf(&b, "  Function:  %s\n", r.FunctionArn)
	fmt.Fprintf(&b, "  Reports:   s3://%s\n", r.Bucket)
	fmt.Fprintf(&b, "  Recipient: %s\n", r.RecipientEmail)
	fmt.Fprintf(&b, "  Schedule:  %s\n", r.Schedule)
	b.WriteString("\nFirst-time deployments: verify the recipient address in SES before reports can be delivered.\n")
	fmt.Fprintf(&b, "\nRun a review now:\n  %s\n", r.InvokeCommand())
	return b.String()
}

// InvokeCommand builds the copy-pasteable command for triggering an
// immediate review run. The profile clause is appended only when a
// credential profile was supplied.
func (r *Report) InvokeCommand() string {
	cmd := fmt.Sprintf("aws lambda invoke --function-name %s --region %s", r.FunctionArn, r.Region)
	if r.Profile != "" {
		cmd += " --profile " + r.Profile
	}
	return cmd + " access-review-output.json"
}
