package deployer

import "fmt"

// Kind classifies a deployment failure. Every failure is fatal; the kind
// tells the operator which part of the run to look at.
type Kind string

const (
	KindUsage       Kind = "usage"
	KindCredentials Kind = "credentials"
	KindPackaging   Kind = "packaging"
	KindConvergence Kind = "convergence"
	KindConsistency Kind = "consistency"
	KindCodeUpdate  Kind = "code-update"
)

// StepError records which pipeline step failed and how. The wrapped error
// carries the provider's message verbatim.
type StepError struct {
	Step string
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
