package configs

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/looplj/acquiesce"
)

// entry is one row of the substring-match inference table (spec.md §6
// "Default-inference"): a model name selects its envelope when every
// needle in Contains is a substring of the lower-cased model name.
type entry struct {
	contains []string
	build    func() acquiesce.Envelope
}

// Registry is the model-name → envelope inference table. The zero value has
// no entries and no cache; NewRegistry returns one seeded with the built-in
// entries (currently Kimi K2), and callers may Register additional entries
// for their own model families.
type Registry struct {
	entries []entry
	cache   *gocache.Cache
}

// NewRegistry builds a registry seeded with the built-in model families and
// a TTL cache in front of repeated lookups, since a long-lived host may
// consult Infer once per incoming request.
func NewRegistry() *Registry {
	r := &Registry{
		cache: gocache.New(10*time.Minute, 20*time.Minute),
	}
	r.Register([]string{"kimi", "k2"}, KimiK2)

	return r
}

// Register adds an entry matched when every needle in contains is found in
// the (lower-cased, trimmed) model name. Entries are tried in registration
// order; the first match wins.
func (r *Registry) Register(contains []string, build func() acquiesce.Envelope) {
	r.entries = append(r.entries, entry{contains: contains, build: build})
}

// Infer resolves a model name to its default envelope, or reports
// acquiesce.InitInferFailed if no entry matches.
func (r *Registry) Infer(modelName string) (acquiesce.Envelope, error) {
	key := strings.ToLower(strings.TrimSpace(modelName))

	if cached, ok := r.cache.Get(key); ok {
		//nolint:forcetypeassert // Only this package populates the cache.
		return cached.(acquiesce.Envelope), nil
	}

	for _, e := range r.entries {
		matched := true

		for _, needle := range e.contains {
			if !strings.Contains(key, needle) {
				matched = false
				break
			}
		}

		if matched {
			built := e.build()
			r.cache.SetDefault(key, built)

			return built, nil
		}
	}

	return acquiesce.Envelope{}, &acquiesce.InitError{Kind: acquiesce.InitInferFailed}
}

// defaultRegistry is the package-level registry used by the package-level
// Infer convenience function.
var defaultRegistry = NewRegistry()

// Infer resolves a model name against the default registry.
func Infer(modelName string) (acquiesce.Envelope, error) {
	return defaultRegistry.Infer(modelName)
}
