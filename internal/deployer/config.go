package deployer

import "errors"

// Defaults for the deployment configuration. Anything not set explicitly
// on the command line falls back to these.
const (
	DefaultStackName = "aws-access-review"
	DefaultRegion    = "us-east-1"
	DefaultSchedule  = "rate(30 days)"

	DefaultTemplatePath = "templates/access-review.yaml"
	DefaultSourceDir    = "lambda"
)

// Config is the deployment configuration for a single run. It is built
// once from flags and defaults and never modified afterwards.
type Config struct {
	StackName      string
	Region         string
	Schedule       string
	RecipientEmail string

	// Profile names a shared credential profile. Empty means the SDK's
	// ambient default credential chain.
	Profile string

	TemplatePath string
	SourceDir    string
}

// Validate enforces required fields. It must pass before any remote call
// is made.
func (c Config) Validate() error {
	if c.RecipientEmail == "" {
		return &StepError{
			Step: "resolve-config",
			Kind: KindUsage,
			Err:  errors.New("recipient email is required (set --email)"),
		}
	}
	return nil
}
