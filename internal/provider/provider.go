// Package provider defines the uniform contract for external search-metrics
// data sources. Providers are injected into pipeline stages, never held as
// global state, so every stage is testable against fakes.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// DomainMetrics is a provider's view of a single domain.
type DomainMetrics struct {
	Domain       string    `json:"domain"`
	Authority    float64   `json:"authority"`
	Traffic      float64   `json:"traffic"`
	KeywordCount float64   `json:"keyword_count"`
	Source       string    `json:"source"`
	AsOf         time.Time `json:"as_of"`
}

// SERPEntry is one ranked result for a keyword.
type SERPEntry struct {
	Domain         string   `json:"domain"`
	Authority      float64  `json:"authority"`
	HasAnswerBox   bool     `json:"has_answer_box"`
	ContentSignals []string `json:"content_signals,omitempty"`
}

// DomainKeyword is one keyword a domain ranks for.
type DomainKeyword struct {
	Term       string       `json:"term"`
	Volume     float64      `json:"volume"`
	Difficulty float64      `json:"difficulty"`
	Position   int          `json:"position"`
	Intent     model.Intent `json:"intent"`
	Category   string       `json:"category,omitempty"`
}

// MetricsProvider is the narrow interface each external data source sits
// behind. Calls are tagged with source identity and timestamp; the pipeline
// never assumes any single provider is available for a run.
type MetricsProvider interface {
	// Name returns the provider's source identity.
	Name() string
	// GetDomainMetrics returns authority/traffic/keyword-count for a domain.
	GetDomainMetrics(ctx context.Context, domain string) (*DomainMetrics, error)
	// GetSERP returns the top-depth ranked entries for a keyword.
	GetSERP(ctx context.Context, keyword string, depth int) ([]SERPEntry, error)
	// GetKeywordsForDomain returns up to limit keywords the domain ranks for.
	GetKeywordsForDomain(ctx context.Context, domain string, limit int) ([]DomainKeyword, error)
}

// FirstPartyProvider supplies ground-truth metrics for the target domain only
// (e.g. the owner's search console). Its values override third-party
// reconciliation for the target.
type FirstPartyProvider interface {
	MetricsProvider
	FirstParty() bool
}

// Registry holds the providers available to a run plus the designated
// primary source used when reconciliation variance is too high to blend.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]MetricsProvider
	primary   string
	breakers  *resilience.ProviderBreakers
}

// NewRegistry creates an empty registry with the given primary source name.
func NewRegistry(primary string) *Registry {
	return &Registry{
		providers: make(map[string]MetricsProvider),
		primary:   primary,
		breakers:  resilience.NewProviderBreakers(resilience.DefaultBreakerConfig()),
	}
}

// Register adds a provider. The first registered provider becomes primary if
// none was designated.
func (r *Registry) Register(p MetricsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	if r.primary == "" {
		r.primary = p.Name()
	}
}

// Primary returns the designated primary source name.
func (r *Registry) Primary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.primary
}

// Get returns a provider by name, or nil.
func (r *Registry) Get(name string) MetricsProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// All returns every registered provider in unspecified order.
func (r *Registry) All() []MetricsProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MetricsProvider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Breaker returns the circuit breaker guarding the named provider. A
// provider that exhausts retries across enough entities is tripped out of
// the run instead of being re-retried per entity.
func (r *Registry) Breaker(name string) *resilience.Breaker {
	return r.breakers.Get(name)
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
