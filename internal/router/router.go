package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/shortlink"
	"github.com/foodgram/backend/internal/storage"
)

// Dependencies are the long-lived resources the HTTP layer is built from.
// Redis is optional.
type Dependencies struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Store  storage.ImageStore
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger

	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	api.RegisterValidators()

	resolver := shortlink.NewResolver(deps.DB, deps.Redis, cfg.ShortLink.CacheTTL, logger)
	allocator := shortlink.NewAllocator(shortlink.NewGenerator(cfg.ShortLink.Length), cfg.ShortLink.MaxAttempts, logger)

	authService := service.NewAuthService(deps.DB, deps.Redis, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := service.NewUserService(deps.DB, deps.Store, logger)
	subscriptionService := service.NewSubscriptionService(deps.DB, deps.Store)
	recipeService := service.NewRecipeService(deps.DB, deps.Store, allocator, resolver, logger)

	paginator := api.Paginator{
		BaseURL:      cfg.Server.BaseURL,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(logger),
		middleware.ErrorHandler(logger),
		middleware.Metrics(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck(deps.DB))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if local, ok := deps.Store.(*storage.LocalStore); ok {
		router.Static(cfg.Storage.MediaURL, local.Dir)
	}
	api.NewShortLinkHandler(resolver, cfg.Server.BaseURL).RegisterRoutes(router)

	v1 := router.Group("/api")
	api.NewAuthHandler(authService).RegisterRoutes(v1)
	api.NewUserHandler(authService, userService, subscriptionService, paginator).RegisterRoutes(v1)
	api.NewCatalogHandler(service.NewTagService(deps.DB), service.NewIngredientService(deps.DB)).RegisterRoutes(v1)
	api.NewRecipeHandler(
		authService,
		recipeService,
		service.NewFavoriteService(deps.DB, deps.Store),
		service.NewShoppingCartService(deps.DB, deps.Store),
		service.NewShoppingListService(deps.DB),
		middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RateLimit.RecipeCreationPerHour, logger),
		paginator,
	).RegisterRoutes(v1)

	return router
}
