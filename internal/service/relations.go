package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

// recipeList is a per-user set of recipes backed by a (user_id, recipe_id)
// table with a unique constraint: favorites and the shopping cart.
type recipeList struct {
	db    *gorm.DB
	name  string
	model func(userID, recipeID uint) interface{}
	presenter
}

func (l *recipeList) add(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error) {
	var recipe models.Recipe
	if err := l.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := l.db.WithContext(ctx).Create(l.model(userID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("recipe %d in %s: %w", recipeID, l.name, ErrAlreadyExists)
		}
		return nil, err
	}

	short := l.recipeShort(&recipe)
	return &short, nil
}

func (l *recipeList) remove(ctx context.Context, userID, recipeID uint) error {
	var count int64
	if err := l.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	res := l.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(l.model(0, 0))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe %d in %s: %w", recipeID, l.name, ErrNotExists)
	}
	return nil
}

// FavoriteService manages favorite recipes.
type FavoriteService struct {
	list recipeList
}

func NewFavoriteService(db *gorm.DB, store storage.ImageStore) *FavoriteService {
	return &FavoriteService{list: recipeList{
		db:   db,
		name: "favorites",
		model: func(userID, recipeID uint) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		presenter: presenter{store: store},
	}}
}

// Add marks recipeID as a favorite of userID. Adding it twice is a conflict.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error) {
	return s.list.add(ctx, userID, recipeID)
}

// Remove unmarks recipeID. Removing a recipe that is not a favorite is a conflict.
func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID uint) error {
	return s.list.remove(ctx, userID, recipeID)
}

// ShoppingCartService manages the recipes in a user's shopping cart.
type ShoppingCartService struct {
	list recipeList
}

func NewShoppingCartService(db *gorm.DB, store storage.ImageStore) *ShoppingCartService {
	return &ShoppingCartService{list: recipeList{
		db:   db,
		name: "shopping cart",
		model: func(userID, recipeID uint) interface{} {
			return &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
		presenter: presenter{store: store},
	}}
}

// Add puts recipeID in the cart of userID. Adding it twice is a conflict.
func (s *ShoppingCartService) Add(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error) {
	return s.list.add(ctx, userID, recipeID)
}

// Remove takes recipeID out of the cart. Removing a recipe that is not in
// the cart is a conflict.
func (s *ShoppingCartService) Remove(ctx context.Context, userID, recipeID uint) error {
	return s.list.remove(ctx, userID, recipeID)
}
