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

// SubscriptionService manages who follows whom.
type SubscriptionService struct {
	db *gorm.DB
	presenter
}

func NewSubscriptionService(db *gorm.DB, store storage.ImageStore) *SubscriptionService {
	return &SubscriptionService{db: db, presenter: presenter{store: store}}
}

// Subscribe makes userID follow authorID. recipesLimit caps the recipes
// embedded in the response; zero or less means all of them.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.AuthorWithRecipes, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID == authorID {
		return nil, ErrSelfSubscription
	}

	sub := &models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("subscription to %s: %w", author.Username, ErrAlreadyExists)
		}
		return nil, err
	}

	return s.withRecipes(ctx, &author, true, recipesLimit)
}

// Unsubscribe removes the subscription of userID to authorID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", authorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription: %w", ErrNotExists)
	}
	return nil
}

// List returns the authors userID follows, most recent subscription first.
func (s *SubscriptionService) List(ctx context.Context, userID uint, limit, offset, recipesLimit int) ([]types.AuthorWithRecipes, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Subscription{}).Where("user_id = ?", userID)

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}

	results := make([]types.AuthorWithRecipes, 0, len(subs))
	for i := range subs {
		entry, err := s.withRecipes(ctx, &subs[i].Author, true, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *entry)
	}
	return results, count, nil
}

func (s *SubscriptionService) withRecipes(ctx context.Context, author *models.User, subscribed bool, recipesLimit int) (*types.AuthorWithRecipes, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("author_id = ?", author.ID).Order("pub_date DESC, id DESC")
	if recipesLimit > 0 {
		q = q.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}

	short := make([]types.RecipeShort, len(recipes))
	for i := range recipes {
		short[i] = s.recipeShort(&recipes[i])
	}

	return &types.AuthorWithRecipes{
		UserResponse: s.user(author, subscribed),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}
