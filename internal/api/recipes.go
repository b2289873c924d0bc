package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// RecipeHandler serves recipes along with their favorite, cart and short
// link endpoints.
type RecipeHandler struct {
	authService     *service.AuthService
	recipeService   *service.RecipeService
	favorites       *service.FavoriteService
	cart            *service.ShoppingCartService
	shoppingList    *service.ShoppingListService
	creationLimiter *middleware.RateLimiter
	paginator       Paginator
}

// NewRecipeHandler creates a RecipeHandler. limiter may be nil.
func NewRecipeHandler(
	auth *service.AuthService,
	recipes *service.RecipeService,
	favorites *service.FavoriteService,
	cart *service.ShoppingCartService,
	shoppingList *service.ShoppingListService,
	limiter *middleware.RateLimiter,
	paginator Paginator,
) *RecipeHandler {
	return &RecipeHandler{
		authService:     auth,
		recipeService:   recipes,
		favorites:       favorites,
		cart:            cart,
		shoppingList:    shoppingList,
		creationLimiter: limiter,
		paginator:       paginator,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuth(h.authService)

	create := []gin.HandlerFunc{required}
	if h.creationLimiter != nil {
		create = append(create, h.creationLimiter.RateLimitMiddleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PATCH("/:id", required, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("/:id/favorite", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
	}
	if author, err := strconv.ParseUint(c.Query("author"), 10, 64); err == nil {
		filter.AuthorID = uint(author)
	}

	limit, offset := h.paginator.params(c)
	recipes, count, err := h.recipeService.List(c.Request.Context(), middleware.UserID(c), filter, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, h.paginator, recipes, count, limit, offset))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink returns the absolute short URL of a recipe. It is public.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	token, err := h.recipeService.ShortLink(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ShortLinkResponse{ShortLink: h.paginator.BaseURL + "/s/" + token})
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addTo(c, h.favorites.Add)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeFrom(c, h.favorites.Remove)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addTo(c, h.cart.Add)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeFrom(c, h.cart.Remove)
}

func (h *RecipeHandler) addTo(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	short, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeFrom(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated ingredients of every recipe in
// the caller's cart as a CSV attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	rows, err := h.shoppingList.Aggregate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, rows); err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.ShoppingListFilename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
