package ports

import (
	"context"
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
)

// ErrProviderNotConfigured is returned by a registry for providers without credentials.
var ErrProviderNotConfigured = errors.New("provider is not configured")

// GenerationRequest is what a worker sends to a factory machine for one item.
type GenerationRequest struct {
	ItemID     kernel.UUID
	Model      string
	MediaType  kernel.MediaType
	Parameters kernel.Parameters
}

// GeneratedOutput is a single media file returned by a provider.
type GeneratedOutput struct {
	URL         string
	ContentType string
	Width       int
	Height      int
}

// GenerationResult is the provider's answer for one request.
type GenerationResult struct {
	RequestID string
	Seed      *int64
	Outputs   []GeneratedOutput
	Metadata  map[string]string
}

// FactoryMachine calls one provider's generation API.
type FactoryMachine interface {
	Provider() machine.Provider
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// FactoryMachineRegistry resolves the factory machine serving a provider.
type FactoryMachineRegistry interface {
	Lookup(provider machine.Provider) (FactoryMachine, error)
}
