package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/shortlink"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

const recipeImagePrefix = "recipes/images"

// RecipeService handles recipe CRUD. Every recipe gets its short link in the
// same transaction that inserts it.
type RecipeService struct {
	db        *gorm.DB
	store     storage.ImageStore
	allocator *shortlink.Allocator
	resolver  *shortlink.Resolver
	logger    logrus.FieldLogger
	presenter
}

func NewRecipeService(db *gorm.DB, store storage.ImageStore, allocator *shortlink.Allocator, resolver *shortlink.Resolver, logger logrus.FieldLogger) *RecipeService {
	return &RecipeService{
		db:        db,
		store:     store,
		allocator: allocator,
		resolver:  resolver,
		logger:    logger,
		presenter: presenter{store: store},
	}
}

// Create validates req and stores a new recipe owned by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	refs, err := validateRecipe(ctx, s.db, req, true)
	if err != nil {
		return nil, err
	}

	key, err := s.store.Save(ctx, recipeImagePrefix, refs.image.Data, refs.image.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       key,
		CookingTime: req.CookingTime,
		PubDate:     time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.allocator.Assign(tx, func(tx *gorm.DB, token string) error {
			recipe.ID = 0
			recipe.ShortLink = token
			return tx.Omit(clause.Associations).Create(&recipe).Error
		})
		if err != nil {
			return err
		}
		return writeRelations(tx, recipe.ID, req.Ingredients, refs.tags)
	})
	if err != nil {
		s.removeImage(ctx, key)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"recipe_id":  recipe.ID,
		"author_id":  authorID,
		"short_link": recipe.ShortLink,
	}).Info("recipe created")

	return s.Get(ctx, authorID, recipe.ID)
}

// writeRelations replaces the ingredient amounts and tags of recipeID.
func writeRelations(tx *gorm.DB, recipeID uint, items []types.IngredientAmount, tags []models.Tag) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}

	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return err
	}

	return tx.Model(&models.Recipe{ID: recipeID}).Association("Tags").Replace(tags)
}

func (s *RecipeService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func (s *RecipeService) find(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Get returns recipe id as seen by viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	err := s.preloaded(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out, err := s.present(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns a page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, limit, offset int) ([]types.RecipeResponse, int64, error) {
	if viewerID == 0 && (filter.IsFavorited || filter.IsInShoppingCart) {
		return []types.RecipeResponse{}, 0, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.IsFavorited {
		q = q.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	if filter.IsInShoppingCart {
		q = q.Where("recipes.id IN (?)", s.db.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var ids []uint
	err := q.Order("recipes.pub_date DESC, recipes.id DESC").Limit(limit).Offset(offset).Pluck("recipes.id", &ids).Error
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []types.RecipeResponse{}, count, nil
	}

	var recipes []models.Recipe
	if err := s.preloaded(ctx).Where("id IN ?", ids).Order("pub_date DESC, id DESC").Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	out, err := s.present(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (s *RecipeService) present(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorites, err := favoritedAmong(ctx, s.db, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := inCartAmong(ctx, s.db, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		out[i] = s.recipe(r, subscribed.Contains(r.AuthorID), favorites.Contains(r.ID), cart.Contains(r.ID))
	}
	return out, nil
}

// Update applies req to recipe id. Only the author may update a recipe; the
// short link is left untouched.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	refs, err := validateRecipe(ctx, s.db, req, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         req.Name,
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	var newImage string
	if refs.image != nil {
		newImage, err = s.store.Save(ctx, recipeImagePrefix, refs.image.Data, refs.image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{ID: id}).Updates(updates).Error; err != nil {
			return err
		}
		return writeRelations(tx, id, req.Ingredients, refs.tags)
	})
	if err != nil {
		s.removeImage(ctx, newImage)
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if newImage != "" {
		s.removeImage(ctx, recipe.Image)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes recipe id with everything attached to it. Only the author
// may delete a recipe.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartItem{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.removeImage(ctx, recipe.Image)
	s.resolver.Forget(ctx, recipe.ShortLink)
	return nil
}

// ShortLink returns the token of recipe id.
func (s *RecipeService) ShortLink(ctx context.Context, id uint) (string, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	return recipe.ShortLink, nil
}

func (s *RecipeService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to delete image")
	}
}
