package routes

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"flipcart_back_end/internal/cache"
	"flipcart_back_end/internal/handlers"
	"flipcart_back_end/internal/middleware"
	"flipcart_back_end/internal/services"
)

// Deps regroupe ce dont les routes ont besoin. Redis peut être nil.
type Deps struct {
	Logger   *slog.Logger
	Carts    *services.CartService
	Products *services.ProductService
	Redis    *redis.Client
	Search   bool

	JWTSecret     []byte
	CartRateLimit int
	APIRateLimit  int
	CORSOrigins   []string
}

// NewRouter construit le moteur gin avec les middlewares globaux et les routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	var counter *cache.RateCounter
	if d.Redis != nil {
		counter = cache.NewRateCounter(d.Redis)
	}

	carts := handlers.NewCartHandler(d.Carts)
	products := handlers.NewProductHandler(d.Products)
	cartSync := handlers.NewCartSync(d.Redis, d.Carts, d.CORSOrigins)
	health := handlers.NewHealthHandler(d.Redis, d.Search)

	auth := middleware.AuthRequired(d.JWTSecret)
	audit := func(action string) gin.HandlerFunc { return middleware.AuditCriticalActions(d.Logger, action) }

	r.GET("/health", health.Health)

	api := r.Group("/")
	api.Use(middleware.APIRateLimit(counter, d.APIRateLimit))

	// Panier
	api.POST("/cart/add", middleware.CartRateLimit(counter, d.CartRateLimit), carts.AddToCart)
	api.GET("/carts", carts.ListCarts)
	api.GET("/cart/:userId", carts.GetCart)
	api.GET("/cart/:userId/ws", cartSync.CartWebSocket)
	api.PUT("/cart/update", carts.UpdateItem)
	api.DELETE("/cart/item", carts.RemoveItem)
	api.DELETE("/cart/:userId", carts.ClearCart)
	api.DELETE("/carts/:id", auth, middleware.RequireAdmin, audit(middleware.ActionCartDelete), carts.DeleteCart)

	// Produits
	api.GET("/products", products.ListProducts)
	api.GET("/products/search", products.SearchProducts)
	api.GET("/products/:id", products.GetProduct)
	api.POST("/products/:id/review", auth, products.AddReview)

	admin := api.Group("/products", auth, middleware.RequireAdmin)
	admin.POST("", audit(middleware.ActionProductCreate), products.CreateProduct)
	admin.PUT("/:id", audit(middleware.ActionProductUpdate), products.UpdateProduct)
	admin.DELETE("/:id", audit(middleware.ActionProductDelete), products.DeleteProduct)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "the items that you were searching for does not exist"})
	})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
