package catalog

import (
	"testing"

	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	fig, err := Find("figurine")
	require.NoError(t, err)
	assert.Equal(t, "transformations.effects.figurine.title", fig.TitleKey)
	assert.False(t, fig.IsCustom())

	custom, err := Find("customPrompt")
	require.NoError(t, err)
	assert.True(t, custom.IsCustom())
	assert.True(t, custom.IsPrimaryOptional)

	palette, err := Find("colorPalette")
	require.NoError(t, err)
	assert.True(t, palette.IsTwoStep)
	assert.NotEmpty(t, palette.StepTwoPrompt)

	nested, err := Find("pixelArt")
	require.NoError(t, err)
	assert.Equal(t, "Redraw the image in the style of a retro 8-bit pixel art style.", nested.Prompt)

	video, err := Find("videoGeneration")
	require.NoError(t, err)
	assert.True(t, video.IsVideo)

	_, err = Find("category_effects")
	assert.ErrorIs(t, err, pkgerrors.ErrTransformationNotFound)
	_, err = Find("nope")
	assert.ErrorIs(t, err, pkgerrors.ErrTransformationNotFound)
}

func TestTransformations_UniqueKeys(t *testing.T) {
	seen := map[string]bool{}
	var walk func([]models.Transformation)
	walk = func(list []models.Transformation) {
		for _, tr := range list {
			assert.False(t, seen[tr.Key], "duplicate key %s", tr.Key)
			seen[tr.Key] = true
			walk(tr.Items)
		}
	}
	walk(Transformations())
	assert.Greater(t, len(seen), 70)
}

func TestCreditsFor(t *testing.T) {
	assert.Equal(t, int64(1600), CreditsFor(decimal.NewFromInt(20), 80))
	assert.Equal(t, int64(8000), CreditsFor(decimal.RequireFromString("100.00"), 80))
	assert.Equal(t, int64(100), CreditsFor(decimal.RequireFromString("1.25"), 80))
	assert.Equal(t, int64(98), CreditsFor(decimal.RequireFromString("1.23"), 80))
	assert.Len(t, Packages(), 4)
}
