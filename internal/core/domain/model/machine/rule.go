package machine

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"unicode/utf8"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
)

// RuleKind is the JSON type a parameter value must have.
type RuleKind string

const (
	KindString  RuleKind = "string"
	KindInteger RuleKind = "integer"
	KindNumber  RuleKind = "number"
	KindBoolean RuleKind = "boolean"
	KindEnum    RuleKind = "enum"
)

var ruleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Rule constrains a single named parameter.
// Min and Max bound numeric kinds, MaxLength bounds strings (in runes)
// and Options lists the values allowed for enums.
type Rule struct {
	Name      string
	Kind      RuleKind
	Required  bool
	Min       *float64
	Max       *float64
	MaxLength int
	Options   []string
}

// Validate checks that the rule itself is well formed.
func (r Rule) Validate() error {
	var problems []error
	if !ruleNamePattern.MatchString(r.Name) {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"rule name", fmt.Errorf("%q must match %s", r.Name, ruleNamePattern)))
	}

	switch r.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean:
	case KindEnum:
		if len(r.Options) == 0 {
			problems = append(problems, errs.NewValueIsRequiredErrorWithCause(
				"rule options", fmt.Errorf("enum rule %s has no options", r.Name)))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"rule kind", fmt.Errorf("%q is not a rule kind", string(r.Kind))))
	}

	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"rule bounds", fmt.Errorf("%s: min %v is greater than max %v", r.Name, *r.Min, *r.Max)))
	}
	if r.MaxLength < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"rule max length", fmt.Errorf("%s: %d is negative", r.Name, r.MaxLength)))
	}

	return errors.Join(problems...)
}

// Check validates a single value against the rule.
func (r Rule) Check(value any) error {
	switch r.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return r.typeError(value)
		}
		if r.MaxLength > 0 {
			if n := utf8.RuneCountInString(s); n > r.MaxLength {
				return errs.NewValueIsOutOfRangeError(r.Name+" length", n, 0, r.MaxLength)
			}
		}
		return nil
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return r.typeError(value)
		}
		return nil
	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return r.typeError(value)
		}
		if !slices.Contains(r.Options, s) {
			return errs.NewValueIsInvalidErrorWithCause(r.Name, fmt.Errorf("%q is not one of %v", s, r.Options))
		}
		return nil
	case KindInteger, KindNumber:
		n, ok := kernel.ToNumber(value)
		if !ok {
			return r.typeError(value)
		}
		if r.Kind == KindInteger && n != math.Trunc(n) {
			return errs.NewValueIsInvalidErrorWithCause(r.Name, fmt.Errorf("%v is not a whole number", n))
		}
		if (r.Min != nil && n < *r.Min) || (r.Max != nil && n > *r.Max) {
			return errs.NewValueIsOutOfRangeError(r.Name, n, boundString(r.Min), boundString(r.Max))
		}
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause(r.Name, fmt.Errorf("%q is not a rule kind", string(r.Kind)))
	}
}

func (r Rule) typeError(value any) error {
	return errs.NewValueIsInvalidErrorWithCause(r.Name, fmt.Errorf("expected %s, got %T", r.Kind, value))
}

func boundString(b *float64) string {
	if b == nil {
		return "unbounded"
	}
	return fmt.Sprint(*b)
}

// Bound is a helper for building Min/Max.
func Bound(v float64) *float64 {
	return &v
}

// RuleSet is an ordered, name-indexed collection of rules.
type RuleSet struct {
	rules []Rule
	index map[string]int
}

// ComposeRules stacks rule layers. A rule in a later layer replaces the rule
// with the same name from an earlier one, keeping the earlier position.
func ComposeRules(layers ...[]Rule) RuleSet {
	set := RuleSet{index: make(map[string]int)}
	for _, layer := range layers {
		for _, rule := range layer {
			if i, ok := set.index[rule.Name]; ok {
				set.rules[i] = rule
				continue
			}
			set.index[rule.Name] = len(set.rules)
			set.rules = append(set.rules, rule)
		}
	}
	return set
}

// Rules returns a copy of the composed rules in order.
func (s RuleSet) Rules() []Rule {
	return slices.Clone(s.rules)
}

// Lookup returns the rule named name.
func (s RuleSet) Lookup(name string) (Rule, bool) {
	i, ok := s.index[name]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Check validates params. Unknown keys are always errors; missing required
// keys are errors only when enforceRequired is set.
func (s RuleSet) Check(params kernel.Parameters, enforceRequired bool) error {
	var problems []error
	for _, key := range params.Keys() {
		rule, ok := s.Lookup(key)
		if !ok {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(key, errors.New("unknown parameter")))
			continue
		}
		value, _ := params.Get(key)
		if err := rule.Check(value); err != nil {
			problems = append(problems, err)
		}
	}

	if enforceRequired {
		for _, rule := range s.rules {
			if rule.Required && !params.Has(rule.Name) {
				problems = append(problems, errs.NewValueIsRequiredError(rule.Name))
			}
		}
	}

	return errors.Join(problems...)
}
