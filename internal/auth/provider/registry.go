package provider

import (
	"fmt"
	"sort"
)

// Registry holds the configured identity providers by name. One of them is
// the default used when a login request does not name a provider.
type Registry struct {
	providers   map[string]OAuthProvider
	defaultName string
}

// NewRegistry registers providers by name; the first one becomes the
// default. Later registrations with the same name replace earlier ones.
func NewRegistry(list ...OAuthProvider) *Registry {
	r := &Registry{providers: make(map[string]OAuthProvider, len(list))}
	for _, p := range list {
		if r.defaultName == "" {
			r.defaultName = p.Name()
		}
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the named provider, or the default one for an empty name.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %q", name)
	}
	return p, nil
}

// Names lists registered provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
