package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// IProvider is a minimal text-completion adapter over one AI backend.
type IProvider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Registry maps provider names to adapters. The default provider is the
// first one registered.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]IProvider
	def       string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]IProvider)}
}

func (r *Registry) Register(p IProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(p.Name())
	if len(r.providers) == 0 {
		r.def = name
	}
	r.providers[name] = p
}

func (r *Registry) Get(name string) (IProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.def
	}
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
