package providers

import (
	"fmt"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/ports"
)

// Registry maps providers to the factory machines configured at startup.
type Registry struct {
	machines map[machine.Provider]ports.FactoryMachine
}

func NewRegistry(machines ...ports.FactoryMachine) *Registry {
	r := &Registry{machines: make(map[machine.Provider]ports.FactoryMachine, len(machines))}
	for _, m := range machines {
		r.machines[m.Provider()] = m
	}
	return r
}

// Lookup returns ports.ErrProviderNotConfigured for providers without credentials.
func (r *Registry) Lookup(provider machine.Provider) (ports.FactoryMachine, error) {
	m, ok := r.machines[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrProviderNotConfigured, provider)
	}
	return m, nil
}

// Providers lists the configured providers.
func (r *Registry) Providers() []machine.Provider {
	providers := make([]machine.Provider, 0, len(r.machines))
	for _, p := range machine.Providers() {
		if _, ok := r.machines[p]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}
