package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/zerror"
)

func TestZError(t *testing.T) {
	notFound := zerror.NewNotFound("THING_NOT_FOUND", "thing not found")

	t.Run("Should carry status, code and message", func(t *testing.T) {
		assert.Equal(t, zerror.StatusNotFound, notFound.Status())
		assert.Equal(t, "THING_NOT_FOUND", notFound.Code())
		assert.Equal(t, "thing not found", notFound.Msg())
	})

	t.Run("Should still match after wrapping a parent", func(t *testing.T) {
		parent := errors.New("no rows")
		wrapped := notFound.WrapParent(parent)

		require.ErrorIs(t, wrapped, notFound)
		require.ErrorIs(t, wrapped, parent)
	})

	t.Run("Should still match after replacing the message", func(t *testing.T) {
		changed := notFound.WithMsg("different message")

		require.ErrorIs(t, changed, notFound)
		assert.Equal(t, "different message", changed.Msg())
	})

	t.Run("Should match through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("repository get thing: %w", notFound)

		require.ErrorIs(t, err, notFound)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "THING_NOT_FOUND", zErr.Code())
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		other := zerror.NewNotFound("OTHER_NOT_FOUND", "other not found")

		assert.NotErrorIs(t, notFound, other)
	})
}
