package service

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

// presenter turns models into API representations.
type presenter struct {
	store storage.ImageStore
}

func (p presenter) user(u *models.User, subscribed bool) types.UserResponse {
	resp := types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
	if u.Avatar != "" {
		url := p.store.URL(u.Avatar)
		resp.Avatar = &url
	}
	return resp
}

func (p presenter) recipeShort(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.store.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (p presenter) recipe(r *models.Recipe, subscribed, favorited, inCart bool) types.RecipeResponse {
	ingredients := make([]types.RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ingredients = append(ingredients, types.RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}

	return types.RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           p.user(&r.Author, subscribed),
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            p.store.URL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

// idSet returns the values of column among rows of model owned by userID
// whose filterColumn is in ids. An anonymous viewer (userID 0) gets an
// empty set.
func idSet(ctx context.Context, db *gorm.DB, model interface{}, column, filterColumn string, userID uint, ids []uint) (mapset.Set[uint], error) {
	set := mapset.NewThreadUnsafeSet[uint]()
	if userID == 0 || len(ids) == 0 {
		return set, nil
	}

	var found []uint
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+filterColumn+" IN ?", userID, ids).
		Pluck(column, &found).Error
	if err != nil {
		return nil, err
	}
	set.Append(found...)
	return set, nil
}

func subscribedTo(ctx context.Context, db *gorm.DB, viewerID uint, authorIDs []uint) (mapset.Set[uint], error) {
	return idSet(ctx, db, &models.Subscription{}, "author_id", "author_id", viewerID, authorIDs)
}

func favoritedAmong(ctx context.Context, db *gorm.DB, viewerID uint, recipeIDs []uint) (mapset.Set[uint], error) {
	return idSet(ctx, db, &models.Favorite{}, "recipe_id", "recipe_id", viewerID, recipeIDs)
}

func inCartAmong(ctx context.Context, db *gorm.DB, viewerID uint, recipeIDs []uint) (mapset.Set[uint], error) {
	return idSet(ctx, db, &models.ShoppingCartItem{}, "recipe_id", "recipe_id", viewerID, recipeIDs)
}
