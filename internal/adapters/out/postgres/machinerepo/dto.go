// Package machinerepo persists factory machine definitions. Default
// parameters and model rules are stored as jsonb.
package machinerepo

import (
	"encoding/json"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MachineDTO is the machines row.
type MachineDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug              string    `gorm:"uniqueIndex"`
	Name              string
	Provider          string
	Model             string
	MediaType         string
	CostPerRun        decimal.Decimal `gorm:"type:numeric(12,6)"`
	DefaultParameters []byte          `gorm:"type:jsonb"`
	Rules             []byte          `gorm:"type:jsonb"`
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (MachineDTO) TableName() string {
	return "machines"
}

// RuleDTO is the JSON form of one rule inside the rules column.
type RuleDTO struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Options   []string `json:"options,omitempty"`
}

func fromDomain(def *machine.Definition) (MachineDTO, error) {
	defaults, err := def.DefaultParameters().MarshalJSON()
	if err != nil {
		return MachineDTO{}, err
	}

	rules := make([]RuleDTO, 0, len(def.Rules()))
	for _, r := range def.Rules() {
		rules = append(rules, RuleDTO{
			Name:      r.Name,
			Kind:      string(r.Kind),
			Required:  r.Required,
			Min:       r.Min,
			Max:       r.Max,
			MaxLength: r.MaxLength,
			Options:   r.Options,
		})
	}
	rawRules, err := json.Marshal(rules)
	if err != nil {
		return MachineDTO{}, err
	}

	return MachineDTO{
		ID:                def.ID().Bytes(),
		Slug:              def.Slug(),
		Name:              def.Name(),
		Provider:          def.Provider().String(),
		Model:             def.Model(),
		MediaType:         def.MediaType().String(),
		CostPerRun:        def.CostPerRun(),
		DefaultParameters: defaults,
		Rules:             rawRules,
		Active:            def.IsActive(),
		CreatedAt:         def.CreatedAt(),
		UpdatedAt:         def.UpdatedAt(),
	}, nil
}

func toDomain(dto MachineDTO) (*machine.Definition, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	provider, err := machine.ParseProvider(dto.Provider)
	if err != nil {
		return nil, err
	}
	mediaType, err := kernel.ParseMediaType(dto.MediaType)
	if err != nil {
		return nil, err
	}
	defaults, err := kernel.ParametersFromJSON(dto.DefaultParameters)
	if err != nil {
		return nil, err
	}

	var ruleDTOs []RuleDTO
	if len(dto.Rules) > 0 {
		if err = json.Unmarshal(dto.Rules, &ruleDTOs); err != nil {
			return nil, err
		}
	}
	rules := make([]machine.Rule, 0, len(ruleDTOs))
	for _, r := range ruleDTOs {
		rules = append(rules, machine.Rule{
			Name:      r.Name,
			Kind:      machine.RuleKind(r.Kind),
			Required:  r.Required,
			Min:       r.Min,
			Max:       r.Max,
			MaxLength: r.MaxLength,
			Options:   r.Options,
		})
	}

	return machine.RestoreDefinition(id, machine.Attributes{
		Slug:       dto.Slug,
		Name:       dto.Name,
		Provider:   provider,
		Model:      dto.Model,
		MediaType:  mediaType,
		CostPerRun: dto.CostPerRun,
		Defaults:   defaults,
		Rules:      rules,
	}, dto.Active, dto.CreatedAt, dto.UpdatedAt)
}
