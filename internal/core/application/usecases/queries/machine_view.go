package queries

import (
	"context"
	"encoding/json"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"

	"github.com/shopspring/decimal"
)

// MachineReader loads machine definitions outside of a transaction.
type MachineReader interface {
	GetBySlug(ctx context.Context, slug string) (*machine.Definition, error)
}

// RuleView mirrors machine.Rule with the keys used in the rules column.
type RuleView struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Options   []string `json:"options,omitempty"`
}

type MachineView struct {
	ID                kernel.UUID
	Slug              string
	Name              string
	Provider          string
	Model             string
	MediaType         string
	CostPerRun        decimal.Decimal
	DefaultParameters map[string]any
	Rules             []RuleView
	// EffectiveRules are the composed base, media type, provider and model
	// rules. Only GetMachine fills them.
	EffectiveRules []RuleView
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ruleViews(rules []machine.Rule) []RuleView {
	views := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, RuleView{
			Name:      r.Name,
			Kind:      string(r.Kind),
			Required:  r.Required,
			Min:       r.Min,
			Max:       r.Max,
			MaxLength: r.MaxLength,
			Options:   append([]string(nil), r.Options...),
		})
	}
	return views
}

func decodeRules(raw []byte) ([]RuleView, error) {
	rules := make([]RuleView, 0)
	if len(raw) == 0 {
		return rules, nil
	}
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func machineView(def *machine.Definition) MachineView {
	return MachineView{
		ID:                def.ID(),
		Slug:              def.Slug(),
		Name:              def.Name(),
		Provider:          def.Provider().String(),
		Model:             def.Model(),
		MediaType:         def.MediaType().String(),
		CostPerRun:        def.CostPerRun(),
		DefaultParameters: def.DefaultParameters().Map(),
		Rules:             ruleViews(def.Rules()),
		EffectiveRules:    ruleViews(def.RuleSet().Rules()),
		Active:            def.IsActive(),
		CreatedAt:         def.CreatedAt(),
		UpdatedAt:         def.UpdatedAt(),
	}
}
