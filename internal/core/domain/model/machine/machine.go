package machine

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
	"artfactory/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	// ErrDefinitionIsNotConstructed is returned when a Definition was not created
	// through NewDefinition or RestoreDefinition.
	ErrDefinitionIsNotConstructed = errors.New("Definition must be created via NewDefinition constructor")

	// ErrMachineInactive is returned when ordering from a deactivated machine.
	ErrMachineInactive = errors.New("machine is inactive")

	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)
)

// Attributes are the mutable and immutable descriptive fields of a Definition.
type Attributes struct {
	Slug       string
	Name       string
	Provider   Provider
	Model      string
	MediaType  kernel.MediaType
	CostPerRun decimal.Decimal
	Defaults   kernel.Parameters
	Rules      []Rule
}

// Definition is a factory machine: one model of one provider, with its
// parameter defaults and validation rules. Slug, provider and media type are
// fixed at creation; everything else may be updated.
type Definition struct {
	id        kernel.UUID
	attrs     Attributes
	active    bool
	createdAt time.Time
	updatedAt time.Time

	guard guard.ConstructorGuard
}

// NewDefinition creates an active machine definition.
//
// Example:
//
//	def, err := machine.NewDefinition(kernel.NewUUID(), machine.Attributes{
//	    Slug:       "fal-flux-schnell",
//	    Name:       "FLUX.1 [schnell]",
//	    Provider:   machine.ProviderFal,
//	    Model:      "fal-ai/flux/schnell",
//	    MediaType:  kernel.MediaTypeImage,
//	    CostPerRun: decimal.RequireFromString("0.003"),
//	    Defaults:   kernel.NewParameters(map[string]any{"width": 1024, "height": 1024}),
//	}, time.Now())
func NewDefinition(id kernel.UUID, attrs Attributes, now time.Time) (*Definition, error) {
	return RestoreDefinition(id, attrs, true, now, now)
}

// RestoreDefinition rebuilds a definition loaded from persistence, re-checking every invariant.
func RestoreDefinition(
	id kernel.UUID,
	attrs Attributes,
	active bool,
	createdAt, updatedAt time.Time,
) (*Definition, error) {
	attrs.Slug = strings.TrimSpace(attrs.Slug)
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.Model = strings.TrimSpace(attrs.Model)

	if err := errors.Join(
		id.Validate(),
		validateSlug(attrs.Slug),
		attrs.Provider.Validate(),
		attrs.MediaType.Validate(),
		validateMutable(attrs),
	); err != nil {
		return nil, err
	}

	attrs.Rules = slices.Clone(attrs.Rules)
	d := &Definition{
		id:        id,
		attrs:     attrs,
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
		guard:     guard.NewConstructorGuard(),
	}
	if err := d.RuleSet().Check(attrs.Defaults, false); err != nil {
		return nil, fmt.Errorf("default parameters: %w", err)
	}
	return d, nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return errs.NewValueIsRequiredError("slug")
	}
	if !slugPattern.MatchString(slug) {
		return errs.NewValueIsInvalidErrorWithCause("slug", fmt.Errorf("%q must match %s", slug, slugPattern))
	}
	return nil
}

func validateMutable(attrs Attributes) error {
	var problems []error
	if attrs.Name == "" {
		problems = append(problems, errs.NewValueIsRequiredError("name"))
	}
	if attrs.Model == "" {
		problems = append(problems, errs.NewValueIsRequiredError("model"))
	}
	if attrs.CostPerRun.IsNegative() {
		problems = append(problems, errs.NewValueIsOutOfRangeError("cost per run", attrs.CostPerRun, 0, "unbounded"))
	}
	for _, rule := range attrs.Rules {
		if err := rule.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	return errors.Join(problems...)
}

// Validate ensures the definition was created through a constructor.
func (d *Definition) Validate() error {
	if d == nil {
		return ErrDefinitionIsNotConstructed
	}
	return d.guard.Validate(ErrDefinitionIsNotConstructed)
}

func (d *Definition) ID() kernel.UUID                      { return d.id }
func (d *Definition) Slug() string                         { return d.attrs.Slug }
func (d *Definition) Name() string                         { return d.attrs.Name }
func (d *Definition) Provider() Provider                   { return d.attrs.Provider }
func (d *Definition) Model() string                        { return d.attrs.Model }
func (d *Definition) MediaType() kernel.MediaType          { return d.attrs.MediaType }
func (d *Definition) CostPerRun() decimal.Decimal          { return d.attrs.CostPerRun }
func (d *Definition) DefaultParameters() kernel.Parameters { return d.attrs.Defaults }
func (d *Definition) Rules() []Rule                        { return slices.Clone(d.attrs.Rules) }
func (d *Definition) IsActive() bool                       { return d.active }
func (d *Definition) CreatedAt() time.Time                 { return d.createdAt }
func (d *Definition) UpdatedAt() time.Time                 { return d.updatedAt }

// Attributes returns a copy of the descriptive fields.
func (d *Definition) Attributes() Attributes {
	attrs := d.attrs
	attrs.Rules = slices.Clone(d.attrs.Rules)
	return attrs
}

// RuleSet composes the base, media type, provider and model layers.
func (d *Definition) RuleSet() RuleSet {
	return ComposeRules(
		BaseRules(),
		MediaTypeRules(d.attrs.MediaType),
		ProviderRules(d.attrs.Provider),
		d.attrs.Rules,
	)
}

// ResolveParameters overlays overrides on the defaults and validates the result.
// The returned set is exactly what is sent to the provider.
func (d *Definition) ResolveParameters(overrides kernel.Parameters) (kernel.Parameters, error) {
	resolved := d.attrs.Defaults.Merge(overrides)
	if err := d.RuleSet().Check(resolved, true); err != nil {
		return kernel.Parameters{}, err
	}
	return resolved, nil
}

// EnsureOrderable returns ErrMachineInactive for deactivated machines.
func (d *Definition) EnsureOrderable() error {
	if !d.active {
		return fmt.Errorf("%w: %s", ErrMachineInactive, d.attrs.Slug)
	}
	return nil
}

// Update replaces the mutable attributes. Slug, provider and media type in
// attrs must match the current ones.
func (d *Definition) Update(attrs Attributes, now time.Time) error {
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.Model = strings.TrimSpace(attrs.Model)

	var problems []error
	if attrs.Slug != "" && attrs.Slug != d.attrs.Slug {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("slug", errors.New("slug cannot be changed")))
	}
	if attrs.Provider != "" && attrs.Provider != d.attrs.Provider {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("provider", errors.New("provider cannot be changed")))
	}
	if attrs.MediaType != "" && attrs.MediaType != d.attrs.MediaType {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("media type", errors.New("media type cannot be changed")))
	}
	problems = append(problems, validateMutable(attrs))
	if err := errors.Join(problems...); err != nil {
		return err
	}

	next := d.attrs
	next.Name = attrs.Name
	next.Model = attrs.Model
	next.CostPerRun = attrs.CostPerRun
	next.Defaults = attrs.Defaults
	next.Rules = slices.Clone(attrs.Rules)

	candidate := &Definition{attrs: next}
	if err := candidate.RuleSet().Check(next.Defaults, false); err != nil {
		return fmt.Errorf("default parameters: %w", err)
	}

	d.attrs = next
	d.updatedAt = now
	return nil
}

// Activate makes the machine orderable again.
func (d *Definition) Activate(now time.Time) {
	if !d.active {
		d.active = true
		d.updatedAt = now
	}
}

// Deactivate stops new orders for the machine; existing items still run.
func (d *Definition) Deactivate(now time.Time) {
	if d.active {
		d.active = false
		d.updatedAt = now
	}
}
