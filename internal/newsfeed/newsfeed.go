package newsfeed

import (
	"context"
	"fmt"
	"time"

	"NewsDigest/internal/domain"
)

// Request carries all parameters required to list headlines for one symbol.
type Request struct {
	Symbol     string
	Exchange   string
	Language   string
	Start      time.Time
	WindowDays int
}

// End returns the inclusive upper bound of the collection window.
func (r Request) End() time.Time {
	return r.Start.AddDate(0, 0, r.WindowDays)
}

// Contains reports whether t falls inside [Start, End].
func (r Request) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End())
}

// Provider captures a single headline source (TradingView, etc.).
type Provider interface {
	Name() string
	List(ctx context.Context, req Request) ([]domain.Headline, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("news provider %s is not registered", name)
}
