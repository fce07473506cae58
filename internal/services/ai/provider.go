package ai

import (
	"context"
)

// DescriptionProvider is the interface for AI providers that condense an
// email into a one-sentence task description.
type DescriptionProvider interface {
	// DescribeTask produces a single imperative sentence describing the
	// work requested in the message. Implementations must not return an
	// empty string on success.
	DescribeTask(ctx context.Context, subject, body string) (string, error)
}

// ProviderFactory creates a description provider from config values
type ProviderFactory func(config map[string]string) (DescriptionProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (DescriptionProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
