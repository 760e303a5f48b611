package product

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"
)

const (
	MaxTags          = 16
	maxTagLength     = 40
	maxTitleLength   = 200
	defaultTitleRune = 80
)

// ErrProductIsNotConstructed is returned when a Product was not created through NewProduct or RestoreProduct.
var ErrProductIsNotConstructed = errors.New("Product must be created via NewProduct constructor")

// Origin ties a product to the order item and machine that produced it.
type Origin struct {
	OrderID    kernel.UUID
	ItemID     kernel.UUID
	MachineID  kernel.UUID
	Provider   string
	Model      string
	Parameters kernel.Parameters
}

// Media describes one output returned by a provider.
type Media struct {
	Type        kernel.MediaType
	URL         string
	ContentType string
	Width       int
	Height      int
	Seed        *int64
	Metadata    map[string]string
}

// Product is a generated media artifact plus its curation state.
type Product struct {
	id        kernel.UUID
	origin    Origin
	media     Media
	title     string
	tags      []string
	favorite  bool
	createdAt time.Time

	isConstructed bool
}

// NewProduct creates a product for one provider output. The title defaults to
// the beginning of prompt.
func NewProduct(id kernel.UUID, origin Origin, media Media, prompt string, now time.Time) (*Product, error) {
	return RestoreProduct(id, origin, media, DefaultTitle(prompt), nil, false, now)
}

// RestoreProduct rebuilds a product from persistence.
func RestoreProduct(
	id kernel.UUID,
	origin Origin,
	media Media,
	title string,
	tags []string,
	favorite bool,
	createdAt time.Time,
) (*Product, error) {
	p := &Product{
		id:            id,
		origin:        origin,
		favorite:      favorite,
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		id.Validate(),
		origin.OrderID.Validate(),
		origin.ItemID.Validate(),
		origin.MachineID.Validate(),
		p.setMedia(media),
		p.setTitle(title),
		p.setTags(tags),
	); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultTitle shortens a prompt to its first 80 runes, with whitespace collapsed.
func DefaultTitle(prompt string) string {
	prompt = strings.Join(strings.Fields(prompt), " ")
	if prompt == "" {
		return "Untitled"
	}
	if utf8.RuneCountInString(prompt) <= defaultTitleRune {
		return prompt
	}
	return strings.TrimSpace(string([]rune(prompt)[:defaultTitleRune]))
}

func (p *Product) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrProductIsNotConstructed
	}
	return nil
}

func (p *Product) ID() kernel.UUID      { return p.id }
func (p *Product) Origin() Origin       { return p.origin }
func (p *Product) Media() Media         { return p.media }
func (p *Product) Title() string        { return p.title }
func (p *Product) Tags() []string       { return slices.Clone(p.tags) }
func (p *Product) IsFavorite() bool     { return p.favorite }
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// Rename changes the gallery title.
func (p *Product) Rename(title string) error {
	return p.setTitle(title)
}

// SetTags replaces the tags. Tags are trimmed, lowercased and de-duplicated.
func (p *Product) SetTags(tags []string) error {
	return p.setTags(tags)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (p *Product) ToggleFavorite() bool {
	p.favorite = !p.favorite
	return p.favorite
}

// SetFavorite sets the favorite flag explicitly.
func (p *Product) SetFavorite(favorite bool) {
	p.favorite = favorite
}

func (p *Product) setMedia(media Media) error {
	var problems []error
	if err := media.Type.Validate(); err != nil {
		problems = append(problems, err)
	}
	if err := validateURL(media.URL); err != nil {
		problems = append(problems, err)
	}
	if media.Width < 0 || media.Height < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("dimensions",
			fmt.Errorf("%dx%d has negative sides", media.Width, media.Height)))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	p.media = media
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errs.NewValueIsRequiredError("url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.NewValueIsInvalidErrorWithCause("url", fmt.Errorf("%q is not an absolute http(s) URL", raw))
	}
	return nil
}

func (p *Product) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errs.NewValueIsRequiredError("title")
	}
	if n := utf8.RuneCountInString(title); n > maxTitleLength {
		return errs.NewValueIsOutOfRangeError("title length", n, 1, maxTitleLength)
	}
	p.title = title
	return nil
}

func (p *Product) setTags(tags []string) error {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(normalized, tag) {
			continue
		}
		if n := utf8.RuneCountInString(tag); n > maxTagLength {
			return errs.NewValueIsOutOfRangeError("tag length", n, 1, maxTagLength)
		}
		normalized = append(normalized, tag)
	}
	if len(normalized) > MaxTags {
		return errs.NewValueIsOutOfRangeError("tags", len(normalized), 0, MaxTags)
	}
	p.tags = normalized
	return nil
}
