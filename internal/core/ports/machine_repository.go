package ports

import (
	"context"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
)

// MachineRepository defines the persistence contract for factory machine definitions.
type MachineRepository interface {
	// Add persists a new definition. A duplicate slug yields errs.ErrObjectAlreadyExists.
	Add(ctx context.Context, def *machine.Definition) error

	Update(ctx context.Context, def *machine.Definition) error

	Get(ctx context.Context, id kernel.UUID) (*machine.Definition, error)

	GetBySlug(ctx context.Context, slug string) (*machine.Definition, error)

	// GetBySlugs returns the definitions found, keyed by slug. Missing slugs are simply absent.
	GetBySlugs(ctx context.Context, slugs []string) (map[string]*machine.Definition, error)
}
