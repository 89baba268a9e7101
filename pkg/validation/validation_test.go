package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "podium/pkg/domain-errors"
)

type sample struct {
	Title string `json:"title" validate:"max=5"`
	Kind  string `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
	Note  string `json:"note" validate:"notblank"`
}

func TestValidate(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		assert.NoError(t, Validate(&sample{Title: "short", Note: "x"}))
	})

	t.Run("max reports json field name", func(t *testing.T) {
		err := Validate(&sample{Title: strings.Repeat("x", 6), Note: "x"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		assert.Equal(t, "title must be at most 5 characters", err.Error())
	})

	t.Run("oneof lists options", func(t *testing.T) {
		err := Validate(&sample{Kind: "c", Note: "x"})
		require.Error(t, err)
		assert.Equal(t, "kind must be one of [a b]", err.Error())
	})

	t.Run("notblank rejects whitespace", func(t *testing.T) {
		err := Validate(&sample{Note: "   "})
		require.Error(t, err)
		assert.Equal(t, "note must not be blank", err.Error())
	})
}
