package service_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/shortlink"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/internal/types"
)

var testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})

type fixture struct {
	db            *gorm.DB
	store         *storage.LocalStore
	resolver      *shortlink.Resolver
	auth          *service.AuthService
	users         *service.UserService
	subscriptions *service.SubscriptionService
	recipes       *service.RecipeService
	favorites     *service.FavoriteService
	cart          *service.ShoppingCartService
	shoppingList  *service.ShoppingListService
	tags          *service.TagService
	ingredients   *service.IngredientService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDB(t, testhelpers.SetupSQLiteDB(t))
}

func newFixtureWithDB(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	logger := testhelpers.Logger()
	store, err := storage.NewLocalStore(t.TempDir(), "http://testserver/media")
	require.NoError(t, err)

	allocator := shortlink.NewAllocator(shortlink.NewGenerator(shortlink.DefaultLength), shortlink.DefaultMaxAttempts, logger)
	resolver := shortlink.NewResolver(db, nil, time.Hour, logger)

	return &fixture{
		db:            db,
		store:         store,
		resolver:      resolver,
		auth:          service.NewAuthService(db, nil, "test-secret", time.Hour),
		users:         service.NewUserService(db, store, logger),
		subscriptions: service.NewSubscriptionService(db, store),
		recipes:       service.NewRecipeService(db, store, allocator, resolver, logger),
		favorites:     service.NewFavoriteService(db, store),
		cart:          service.NewShoppingCartService(db, store),
		shoppingList:  service.NewShoppingListService(db),
		tags:          service.NewTagService(db),
		ingredients:   service.NewIngredientService(db),
	}
}

// recipeRequest builds a valid request using the given ingredients with
// amount 1 each and the given tags.
func recipeRequest(name string, tags []uint, ingredients ...types.IngredientAmount) *types.RecipeRequest {
	return &types.RecipeRequest{
		Ingredients: ingredients,
		Tags:        tags,
		Image:       testImage,
		Name:        name,
		Text:        "Mix everything and bake.",
		CookingTime: 30,
	}
}

func amount(ing *models.Ingredient, n int) types.IngredientAmount {
	return types.IngredientAmount{ID: ing.ID, Amount: n}
}

func mustCreateRecipe(t *testing.T, f *fixture, authorID uint, req *types.RecipeRequest) *types.RecipeResponse {
	t.Helper()
	recipe, err := f.recipes.Create(context.Background(), authorID, req)
	require.NoError(t, err)
	return recipe
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
