package product_test

import (
	"strings"
	"testing"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/product"
	"artfactory/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func origin() product.Origin {
	return product.Origin{
		OrderID:    kernel.NewUUID(),
		ItemID:     kernel.NewUUID(),
		MachineID:  kernel.NewUUID(),
		Provider:   "fal",
		Model:      "fal-ai/flux/schnell",
		Parameters: kernel.NewParameters(map[string]any{"prompt": "fox"}),
	}
}

func media() product.Media {
	seed := int64(42)
	return product.Media{
		Type:        kernel.MediaTypeImage,
		URL:         "https://cdn.example.com/fox.png",
		ContentType: "image/png",
		Width:       1024,
		Height:      768,
		Seed:        &seed,
	}
}

func TestNewProduct(t *testing.T) {
	now := time.Now()

	t.Run("should create product titled after the prompt", func(t *testing.T) {
		p, err := product.NewProduct(kernel.NewUUID(), origin(), media(), "  a   red fox\nin snow ", now)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.Equal(t, "a red fox in snow", p.Title())
		assert.False(t, p.IsFavorite())
		assert.Empty(t, p.Tags())
		assert.Equal(t, int64(42), *p.Media().Seed)
	})

	t.Run("should shorten long prompts", func(t *testing.T) {
		p, err := product.NewProduct(kernel.NewUUID(), origin(), media(), strings.Repeat("ж", 100), now)

		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("ж", 80), p.Title())
	})

	t.Run("should reject relative or missing urls", func(t *testing.T) {
		m := media()
		m.URL = "/tmp/fox.png"
		_, err := product.NewProduct(kernel.NewUUID(), origin(), m, "fox", now)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		m.URL = ""
		_, err = product.NewProduct(kernel.NewUUID(), origin(), m, "fox", now)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should require origin identifiers", func(t *testing.T) {
		o := origin()
		o.ItemID = kernel.UUID{}

		_, err := product.NewProduct(kernel.NewUUID(), o, media(), "fox", now)

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "Untitled", product.DefaultTitle(" \n "))
	assert.Equal(t, strings.Repeat("a", 80), product.DefaultTitle(strings.Repeat("a", 81)))
	assert.Equal(t, strings.Repeat("b", 79), product.DefaultTitle(strings.Repeat("b", 79)+" tail"))
}

func TestProduct_Curation(t *testing.T) {
	p, err := product.NewProduct(kernel.NewUUID(), origin(), media(), "fox", time.Now())
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, p.Rename("Winter fox"))
		assert.Equal(t, "Winter fox", p.Title())
		require.ErrorIs(t, p.Rename(" "), errs.ErrValueIsRequired)
		assert.Equal(t, "Winter fox", p.Title())
	})

	t.Run("tags are normalized", func(t *testing.T) {
		require.NoError(t, p.SetTags([]string{" Fox", "snow", "fox", ""}))
		assert.Equal(t, []string{"fox", "snow"}, p.Tags())
	})

	t.Run("too many tags", func(t *testing.T) {
		tags := make([]string, product.MaxTags+1)
		for i := range tags {
			tags[i] = strings.Repeat("t", i+1)
		}
		require.ErrorIs(t, p.SetTags(tags), errs.ErrValueIsOutOfRange)
		assert.Equal(t, []string{"fox", "snow"}, p.Tags())
	})

	t.Run("favorite toggles", func(t *testing.T) {
		assert.True(t, p.ToggleFavorite())
		assert.False(t, p.ToggleFavorite())
		p.SetFavorite(true)
		assert.True(t, p.IsFavorite())
	})
}

func TestProduct_ZeroValue(t *testing.T) {
	var p product.Product
	require.ErrorIs(t, p.Validate(), product.ErrProductIsNotConstructed)
}
