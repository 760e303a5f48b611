package commands

import (
	"errors"
	"fmt"
	"strings"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"
)

var (
	ErrSyncMachineCatalogCommandIsNotConstructed = errors.New(
		"SyncMachineCatalogCommand must be created via NewSyncMachineCatalogCommand constructor",
	)
)

// SyncMachineCatalogCommand upserts machine definitions by slug. Machines
// absent from the catalog are left untouched.
type SyncMachineCatalogCommand struct {
	entries []machine.Attributes

	guard guard.ConstructorGuard
}

func NewSyncMachineCatalogCommand(entries []machine.Attributes) (SyncMachineCatalogCommand, error) {
	seen := make(map[string]int, len(entries))
	var problems []error
	for i, e := range entries {
		slug := strings.TrimSpace(e.Slug)
		if slug == "" {
			problems = append(problems, fmt.Errorf("entry %d: %w", i, errs.NewValueIsRequiredError("slug")))
			continue
		}
		if first, dup := seen[slug]; dup {
			problems = append(problems, fmt.Errorf("entry %d: %w", i,
				errs.NewValueIsInvalidErrorWithCause("slug", fmt.Errorf("%q already defined by entry %d", slug, first))))
			continue
		}
		seen[slug] = i
	}
	if err := errors.Join(problems...); err != nil {
		return SyncMachineCatalogCommand{}, err
	}

	return SyncMachineCatalogCommand{
		entries: append([]machine.Attributes(nil), entries...),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c SyncMachineCatalogCommand) Validate() error {
	return c.guard.Validate(ErrSyncMachineCatalogCommandIsNotConstructed)
}

func (c SyncMachineCatalogCommand) Entries() []machine.Attributes {
	return append([]machine.Attributes(nil), c.entries...)
}
