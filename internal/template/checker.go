// Package template performs a pre-flight structural check of the
// CloudFormation template before any remote call is made: the stack must
// export the outputs that later pipeline steps depend on, otherwise the
// deployment would converge successfully and then fail on output lookup.
package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Checker validates that a template exports a set of required output keys.
type Checker struct {
	required []string
}

func NewChecker(required ...string) *Checker {
	return &Checker{required: required}
}

// document decodes only the Outputs section; values stay as raw nodes so
// intrinsic function tags (!Ref, !Sub, !GetAtt) pass through untouched.
type document struct {
	Outputs map[string]yaml.Node `yaml:"Outputs"`
}

func (c *Checker) Check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse template %s: %w", path, err)
	}

	for _, key := range c.required {
		if _, ok := doc.Outputs[key]; !ok {
			return fmt.Errorf("template %s does not export output %s", path, key)
		}
	}
	return nil
}
