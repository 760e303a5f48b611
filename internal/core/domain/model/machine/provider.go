package machine

import (
	"fmt"
	"strings"

	"artfactory/internal/pkg/errs"
)

// Provider identifies the third-party generation API behind a definition.
type Provider string

const (
	ProviderFal       Provider = "fal"
	ProviderReplicate Provider = "replicate"
	ProviderCivitai   Provider = "civitai"
)

// Providers lists every supported provider.
func Providers() []Provider {
	return []Provider{ProviderFal, ProviderReplicate, ProviderCivitai}
}

// ParseProvider accepts provider names case-insensitively.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p Provider) Validate() error {
	switch p {
	case ProviderFal, ProviderReplicate, ProviderCivitai:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("provider", fmt.Errorf("%q is not a supported provider", string(p)))
	}
}

func (p Provider) String() string {
	return string(p)
}
