package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

// recipeRefs holds what a valid recipe write refers to.
type recipeRefs struct {
	tags  []models.Tag
	image *storage.Image
}

// validateRecipe checks a recipe write. The request may come from anywhere,
// so every bound is checked here even when HTTP binding has done it already.
func validateRecipe(ctx context.Context, db *gorm.DB, req *types.RecipeRequest, requireImage bool) (*recipeRefs, error) {
	v := &ValidationError{}
	refs := &recipeRefs{}

	if strings.TrimSpace(req.Name) == "" {
		v.Add("name", "this field may not be blank")
	} else if len([]rune(req.Name)) > 256 {
		v.Add("name", "ensure this field has no more than 256 characters")
	}
	if strings.TrimSpace(req.Text) == "" {
		v.Add("text", "this field may not be blank")
	}
	if req.CookingTime < models.MinCookingTime || req.CookingTime > models.MaxCookingTime {
		v.Add("cooking_time", fmt.Sprintf("must be between %d and %d", models.MinCookingTime, models.MaxCookingTime))
	}

	switch {
	case req.Image != "":
		img, err := storage.DecodeDataURI(req.Image)
		if err != nil {
			v.Add("image", err.Error())
		}
		refs.image = img
	case requireImage:
		v.Add("image", "this field is required")
	}

	if err := checkIngredients(ctx, db, req.Ingredients, v); err != nil {
		return nil, err
	}
	tags, err := checkTags(ctx, db, req.Tags, v)
	if err != nil {
		return nil, err
	}
	refs.tags = tags

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return refs, nil
}

func checkIngredients(ctx context.Context, db *gorm.DB, items []types.IngredientAmount, v *ValidationError) error {
	if len(items) == 0 {
		v.Add("ingredients", "at least one ingredient is required")
		return nil
	}

	seen := mapset.NewThreadUnsafeSet[uint]()
	for i, item := range items {
		if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
			v.Add(fmt.Sprintf("ingredients[%d].amount", i),
				fmt.Sprintf("must be between %d and %d", models.MinAmount, models.MaxAmount))
		}
		if !seen.Add(item.ID) {
			v.Add("ingredients", fmt.Sprintf("ingredient %d is listed more than once", item.ID))
		}
	}

	var found []uint
	if err := db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", seen.ToSlice()).Pluck("id", &found).Error; err != nil {
		return err
	}
	for _, id := range missing(seen, found) {
		v.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
	}
	return nil
}

func checkTags(ctx context.Context, db *gorm.DB, ids []uint, v *ValidationError) ([]models.Tag, error) {
	if len(ids) == 0 {
		v.Add("tags", "at least one tag is required")
		return nil, nil
	}

	seen := mapset.NewThreadUnsafeSet[uint]()
	for _, id := range ids {
		if !seen.Add(id) {
			v.Add("tags", fmt.Sprintf("tag %d is listed more than once", id))
		}
	}

	var tags []models.Tag
	if err := db.WithContext(ctx).Where("id IN ?", seen.ToSlice()).Find(&tags).Error; err != nil {
		return nil, err
	}
	found := make([]uint, len(tags))
	for i := range tags {
		found[i] = tags[i].ID
	}
	for _, id := range missing(seen, found) {
		v.Add("tags", fmt.Sprintf("tag %d does not exist", id))
	}
	return tags, nil
}

// missing returns the members of want absent from got, sorted.
func missing(want mapset.Set[uint], got []uint) []uint {
	out := want.Difference(mapset.NewThreadUnsafeSet(got...)).ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
