// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/artic"
	"github.com/javajoker/artmarket-backend/internal/cache"
	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/handlers"
	"github.com/javajoker/artmarket-backend/internal/middleware"
	"github.com/javajoker/artmarket-backend/internal/mq"
	"github.com/javajoker/artmarket-backend/internal/realtime"
	"github.com/javajoker/artmarket-backend/internal/services"
	"github.com/javajoker/artmarket-backend/internal/storage"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

// Dependencies are the infrastructure clients the routes run on.
type Dependencies struct {
	Storage *storage.Storage
	Queue   *mq.MQ
	Hub     *realtime.Hub
	// Cache backs the artwork search proxy; nil disables caching.
	Cache cache.Cache
	// Payments overrides the gateway built from the payment config.
	Payments services.PaymentGateway
	// RateLimits is nil when rate limiting is disabled.
	RateLimits *middleware.RateLimits
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(deps.Queue)
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	listingService := services.NewListingService(db, deps.Storage)
	offerService := services.NewOfferService(db, deps.Storage, notificationService)
	postService := services.NewPostService(db, deps.Storage)

	paymentService := services.NewPaymentService(cfg.Payment)
	if deps.Payments != nil {
		paymentService = services.NewPaymentServiceWithGateway(deps.Payments, cfg.Payment.DefaultCurrency)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	listingHandler := handlers.NewListingHandler(listingService)
	offerHandler := handlers.NewOfferHandler(offerService)
	postHandler := handlers.NewPostHandler(postService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	articHandler := handlers.NewArticHandler(artic.NewClient(cfg.Artic, deps.Cache))
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, authService, offerService, cfg.CORS.AllowedOrigins)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	if deps.RateLimits != nil {
		r.Use(deps.RateLimits.General.Middleware())
	}
	r.Use(middleware.AuditLogMiddleware(auditService))

	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	authLimit := limit(deps.RateLimits, func(l *middleware.RateLimits) *middleware.RateLimiter { return l.Auth })
	uploadLimit := limit(deps.RateLimits, func(l *middleware.RateLimits) *middleware.RateLimiter { return l.Upload })

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Uploaded images, when they live on local disk
	if cfg.Storage.Driver == "local" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	// Authentication routes
	auth := r.Group("/auth")
	auth.Use(authLimit)
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api := r.Group("/api")
	{
		// User routes
		users := api.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/me", userHandler.GetMe)
			users.GET("/me/activity", userHandler.GetActivity)
		}

		// Listing routes
		artworks := api.Group("/artworks")
		{
			artworks.GET("", optionalAuth, listingHandler.GetListings)
			artworks.GET("/categories", listingHandler.GetCategories)
			artworks.GET("/:id", listingHandler.GetListing)
			artworks.POST("", authRequired, uploadLimit, listingHandler.CreateListing)
			artworks.POST("/list", authRequired, uploadLimit, listingHandler.CreateListing)
			artworks.PUT("/:id", authRequired, uploadLimit, listingHandler.UpdateListing)
			artworks.DELETE("/:id", authRequired, listingHandler.DeleteListing)
		}

		// Offer routes
		bids := api.Group("/bids")
		bids.Use(authRequired)
		{
			bids.POST("", offerHandler.SubmitOffer)
			bids.GET("/received", offerHandler.GetReceivedOffers)
			bids.GET("/mine", offerHandler.GetMyOffers)
			bids.GET("/count", offerHandler.CountReceivedOffers)
			bids.PUT("/:id/accept", offerHandler.AcceptOffer)
			bids.PUT("/:id/reject", offerHandler.RejectOffer)
		}

		// Forum routes
		posts := api.Group("/posts")
		posts.Use(authRequired)
		{
			posts.GET("", postHandler.GetPosts)
			posts.GET("/:id", postHandler.GetPost)
			posts.POST("", uploadLimit, postHandler.CreatePost)
			posts.DELETE("/:id", postHandler.DeletePost)
		}

		// Payment routes
		payments := api.Group("/payments")
		payments.Use(authRequired)
		{
			payments.POST("/create-payment-intent", paymentHandler.CreatePaymentIntent)
		}

		// Artwork search proxy
		articGroup := api.Group("/artic")
		{
			articGroup.GET("/search", articHandler.Search)
			articGroup.GET("/artworks/:id", articHandler.GetArtwork)
		}
	}

	// Realtime notifications
	r.GET("/ws/notifications", realtimeHandler.Notifications)

	return r
}

// limit returns the selected limiter's middleware, or a pass-through when
// rate limiting is off.
func limit(limits *middleware.RateLimits, pick func(*middleware.RateLimits) *middleware.RateLimiter) gin.HandlerFunc {
	if limits == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return pick(limits).Middleware()
}
