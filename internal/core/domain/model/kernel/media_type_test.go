package kernel_test

import (
	"testing"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	t.Run("should accept known types case-insensitively", func(t *testing.T) {
		mt, err := kernel.ParseMediaType(" Video ")

		require.NoError(t, err)
		assert.Equal(t, kernel.MediaTypeVideo, mt)
	})

	t.Run("should reject unknown types", func(t *testing.T) {
		_, err := kernel.ParseMediaType("gif")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), `"gif" is not a supported media type`)
	})

	t.Run("should list every type", func(t *testing.T) {
		for _, mt := range kernel.MediaTypes() {
			require.NoError(t, mt.Validate())
		}
	})
}
