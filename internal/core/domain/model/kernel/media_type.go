package kernel

import (
	"fmt"
	"strings"

	"artfactory/internal/pkg/errs"
)

// MediaType is the kind of artifact a factory machine produces.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// MediaTypes lists every supported media type in display order.
func MediaTypes() []MediaType {
	return []MediaType{MediaTypeImage, MediaTypeVideo, MediaTypeAudio}
}

// ParseMediaType accepts the media type names case-insensitively.
func ParseMediaType(s string) (MediaType, error) {
	mt := MediaType(strings.ToLower(strings.TrimSpace(s)))
	if err := mt.Validate(); err != nil {
		return "", err
	}
	return mt, nil
}

func (m MediaType) Validate() error {
	switch m {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("media type", fmt.Errorf("%q is not a supported media type", string(m)))
	}
}

func (m MediaType) String() string {
	return string(m)
}
