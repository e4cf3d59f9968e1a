// Package di provides a lightweight wrapper around uber's dig dependency
// injection framework. It wires the AWS clients, service wrappers, and
// deployment pipeline for a single run.
package di

import (
	"go.uber.org/dig"

	"github.com/olisabosun/aws-automated-access-review/internal/services"
)

// Container defines a dependency injection container based on uber's dig.
// This interface allows for easy testing and mocking of the DI container.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error
}

// New creates a dependency injection container scoped to the given region
// and optional credential profile. Both are registered as typed string
// dependencies so providers can require them as parameters.
func New(opts ...Option) (Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()
	if err := container.Provide(func() Region { return o.region }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() Profile { return o.profile }); err != nil {
		return nil, err
	}

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideContext,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideSTSClient,
	ProvideCloudFormationClient,
	ProvideS3Client,
	ProvideLambdaClient,
	services.NewIdentityService,
	services.NewStackService,
	services.NewBucketService,
	services.NewFunctionService,
}
