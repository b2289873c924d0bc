package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

func TestIngredientPrefixSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testhelpers.CreateIngredient(t, f.db, "sugar", "g")
	testhelpers.CreateIngredient(t, f.db, "Salt", "g")
	testhelpers.CreateIngredient(t, f.db, "sea salt", "g")
	testhelpers.CreateIngredient(t, f.db, "50% cream", "ml")

	names := func(list []models.Ingredient) []string {
		out := make([]string, len(list))
		for i := range list {
			out[i] = list[i].Name
		}
		return out
	}

	got, err := f.ingredients.List(ctx, "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sugar", "Salt", "sea salt"}, names(got))

	got, err = f.ingredients.List(ctx, "SA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Salt"}, names(got))

	got, err = f.ingredients.List(ctx, "50%")
	require.NoError(t, err)
	assert.Equal(t, []string{"50% cream"}, names(got))

	got, err = f.ingredients.List(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.ingredients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = f.ingredients.Get(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestImportIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := []models.Ingredient{{Name: "flour", MeasurementUnit: "g"}, {Name: "milk", MeasurementUnit: "ml"}}
	n, err := f.ingredients.Import(ctx, batch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	batch = []models.Ingredient{{Name: "flour", MeasurementUnit: "g"}, {Name: "flour", MeasurementUnit: "kg"}}
	n, err = f.ingredients.Import(ctx, batch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := f.ingredients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.tags.Import(ctx, []models.Tag{{Name: "Breakfast", Slug: "breakfast"}})
	require.NoError(t, err)
	_, err = f.tags.Import(ctx, []models.Tag{{Name: "Breakfast", Slug: "breakfast"}, {Name: "Lunch", Slug: "lunch"}})
	require.NoError(t, err)

	tags, err := f.tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)

	tag, err := f.tags.Get(ctx, tags[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", tag.Slug)
}
