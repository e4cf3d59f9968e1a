package di

// Region is the target AWS region for every client in the container.
type Region string

// Profile names a shared credential profile; empty means the ambient
// default credential chain.
type Profile string

// Option is a function that configures the dependency injection container.
type Option func(*options)

func WithRegion(region string) Option {
	return func(opts *options) {
		opts.region = Region(region)
	}
}

func WithProfile(profile string) Option {
	return func(opts *options) {
		opts.profile = Profile(profile)
	}
}

// WithProviders adds constructor functions to the dependency injection
// container. Providers can declare dependencies as function parameters,
// which will be automatically resolved by the container.
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	region    Region
	profile   Profile
	providers []any
}
