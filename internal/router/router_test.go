package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/internal/types"
)

const (
	baseURL   = "http://testserver"
	pngBase64 = "data:image/png;base64,iVBORw=="
)

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Env: config.Test}
	cfg.Server.BaseURL = baseURL
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Storage.MediaURL = "/media"
	cfg.ShortLink.Length = 6
	cfg.ShortLink.MaxAttempts = 16
	cfg.ShortLink.CacheTTL = time.Hour
	cfg.Pagination.DefaultLimit = 6
	cfg.Pagination.MaxLimit = 100
	cfg.RateLimit.RecipeCreationPerHour = 30

	db := testhelpers.SetupSQLiteDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), baseURL+"/media")
	require.NoError(t, err)

	engine := router.SetupRouter(router.Dependencies{
		Config: cfg,
		Logger: testhelpers.Logger(),
		DB:     db,
		Store:  store,
	})
	return &testApp{t: t, db: db, engine: engine}
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(user *models.User) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/token/login", "", types.LoginRequest{
		Email:    user.Email,
		Password: testhelpers.TestPassword,
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var resp types.TokenResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AuthToken
}

func (a *testApp) createRecipe(token, name string, tag *models.Tag, items ...types.IngredientAmount) types.RecipeResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/recipes", token, types.RecipeRequest{
		Ingredients: items,
		Tags:        []uint{tag.ID},
		Image:       pngBase64,
		Name:        name,
		Text:        "Stir well.",
		CookingTime: 15,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var recipe types.RecipeResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &recipe))
	return recipe
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/users", "", types.RegisterRequest{
		Email:     "Cook@Example.com",
		Username:  "cook",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "long-enough-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[types.RegisterResponse](t, w)
	assert.Equal(t, "cook@example.com", registered.Email)

	w = app.do(http.MethodPost, "/api/auth/token/login", "", types.LoginRequest{Email: "cook@example.com", Password: "long-enough-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[types.TokenResponse](t, w).AuthToken

	w = app.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[types.UserResponse](t, w)
	assert.Equal(t, registered.ID, me.ID)

	w = app.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/auth/token/login", "", types.LoginRequest{Email: "cook@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/users", "", types.RegisterRequest{
		Email:     "not-an-email",
		Username:  "bad name!",
		FirstName: "A",
		LastName:  "B",
		Password:  "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, w)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "username")
	assert.Contains(t, resp.Fields, "password")
}

func TestShortLinkRoundTrip(t *testing.T) {
	app := newTestApp(t)
	author := testhelpers.CreateUser(t, app.db, "author")
	tag := testhelpers.CreateTag(t, app.db, "breakfast")
	eggs := testhelpers.CreateIngredient(t, app.db, "eggs", "pcs")
	token := app.login(author)

	recipe := app.createRecipe(token, "Omelette", tag, types.IngredientAmount{ID: eggs.ID, Amount: 3})

	// get-link is public
	w := app.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link", recipe.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	link := decode[map[string]string](t, w)["short-link"]
	require.True(t, strings.HasPrefix(link, baseURL+"/s/"), link)

	w = app.do(http.MethodGet, strings.TrimPrefix(link, baseURL), "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("%s/recipes/%d", baseURL, recipe.ID), w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/s/ZZZZZZ", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/recipes/999/get-link", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	app := newTestApp(t)
	user := testhelpers.CreateUser(t, app.db, "shopper")
	tag := testhelpers.CreateTag(t, app.db, "dinner")
	flour := testhelpers.CreateIngredient(t, app.db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, app.db, "milk", "ml")
	token := app.login(user)

	bread := app.createRecipe(token, "Bread", tag, types.IngredientAmount{ID: flour.ID, Amount: 500})
	pancakes := app.createRecipe(token, "Pancakes", tag,
		types.IngredientAmount{ID: flour.ID, Amount: 200},
		types.IngredientAmount{ID: milk.ID, Amount: 300},
	)

	for _, id := range []uint{bread.ID, pancakes.ID} {
		w := app.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), token, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := app.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", bread.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=shopping_cart.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Ingredient,Amount,Unit\nflour,700,g\nmilk,300,ml\n", w.Body.String())

	w = app.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipePermissions(t *testing.T) {
	app := newTestApp(t)
	author := testhelpers.CreateUser(t, app.db, "author")
	other := testhelpers.CreateUser(t, app.db, "other")
	tag := testhelpers.CreateTag(t, app.db, "lunch")
	salt := testhelpers.CreateIngredient(t, app.db, "salt", "g")

	authorToken := app.login(author)
	recipe := app.createRecipe(authorToken, "Soup", tag, types.IngredientAmount{ID: salt.ID, Amount: 5})
	path := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	w := app.do(http.MethodPost, "/api/recipes", "", types.RecipeRequest{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodDelete, path, app.login(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPatch, path, authorToken, types.RecipeRequest{
		Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 10}},
		Tags:        []uint{tag.ID},
		Name:        "Salty soup",
		Text:        "More salt.",
		CookingTime: 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Salty soup", decode[types.RecipeResponse](t, w).Name)

	w = app.do(http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/recipes/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeValidationFields(t *testing.T) {
	app := newTestApp(t)
	user := testhelpers.CreateUser(t, app.db, "cook")
	tag := testhelpers.CreateTag(t, app.db, "snack")
	salt := testhelpers.CreateIngredient(t, app.db, "salt", "g")

	w := app.do(http.MethodPost, "/api/recipes", app.login(user), types.RecipeRequest{
		Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 40000}},
		Tags:        []uint{tag.ID},
		Image:       pngBase64,
		Name:        "Chips",
		Text:        "Fry.",
		CookingTime: 10,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, w)
	assert.Contains(t, resp.Fields, "ingredients[0].amount")
}

func TestRecipeListPagination(t *testing.T) {
	app := newTestApp(t)
	user := testhelpers.CreateUser(t, app.db, "cook")
	tag := testhelpers.CreateTag(t, app.db, "dessert")
	sugar := testhelpers.CreateIngredient(t, app.db, "sugar", "g")
	token := app.login(user)

	for _, name := range []string{"Cake", "Pie", "Tart"} {
		app.createRecipe(token, name, tag, types.IngredientAmount{ID: sugar.ID, Amount: 100})
	}

	w := app.do(http.MethodGet, "/api/recipes?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[types.Page[types.RecipeResponse]](t, w)
	assert.EqualValues(t, 3, page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, baseURL+"/api/recipes?limit=2&offset=2", *page.Next)
	assert.Nil(t, page.Previous)

	w = app.do(http.MethodGet, "/api/recipes?limit=2&offset=2&tags=dessert", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[types.Page[types.RecipeResponse]](t, w)
	assert.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)

	w = app.do(http.MethodGet, "/api/recipes?is_favorited=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[types.Page[types.RecipeResponse]](t, w).Count)
}

func TestSubscriptions(t *testing.T) {
	app := newTestApp(t)
	reader := testhelpers.CreateUser(t, app.db, "reader")
	writer := testhelpers.CreateUser(t, app.db, "writer")
	token := app.login(reader)

	w := app.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", writer.ID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[types.AuthorWithRecipes](t, w).IsSubscribed)

	w = app.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", reader.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/users/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[types.Page[types.AuthorWithRecipes]](t, w).Count)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe", writer.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe", writer.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngredientSearch(t *testing.T) {
	app := newTestApp(t)
	testhelpers.CreateIngredient(t, app.db, "Salt", "g")
	testhelpers.CreateIngredient(t, app.db, "salmon", "g")
	testhelpers.CreateIngredient(t, app.db, "basil", "g")

	w := app.do(http.MethodGet, "/api/ingredients?name=sal", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Ingredient](t, w), 2)
}
