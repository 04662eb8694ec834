package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/api/handlers"
	"github.com/Amedjranamen/IM/internal/api/middleware"
	"github.com/Amedjranamen/IM/internal/config"
	"github.com/Amedjranamen/IM/internal/services"
	"github.com/Amedjranamen/IM/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
// taskClient may be nil when no background worker is available.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client) *gin.Engine {
	// Initialize services needed by API handlers
	userService := services.NewUserService(db)
	socialService := services.NewSocialService(db)
	listingService := services.NewListingService(db, socialService)
	geocodingService := services.NewGeocodingService(cfg, rdb)

	store, err := storage.NewStore(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize media storage: %v", err)
	}

	r := gin.Default()

	// Apply global middleware first (order matters)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware(cfg.CorsOrigins))
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	listingHandler := handlers.NewListingHandler(listingService, store)
	socialHandler := handlers.NewSocialHandler(socialService)
	mediaHandler := handlers.NewMediaHandler(cfg, listingService, store, taskClient)
	geoHandler := handlers.NewGeoHandler(geocodingService)

	// Uploaded media is served directly when stored locally. S3-backed
	// deployments serve media from the bucket instead.
	if cfg.MediaBackend == "local" {
		r.Static("/uploads", cfg.UploadDir)
	}

	api := r.Group("/api")
	{
		// Public routes
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/listings", listingHandler.Search)
		api.GET("/listings/:id", listingHandler.GetByID)
		api.GET("/listings/:id/comments", socialHandler.ListComments)
		api.GET("/cities", listingHandler.Cities)
		api.GET("/neighborhoods", listingHandler.Neighborhoods)
		api.GET("/geocode", geoHandler.Geocode)
		api.GET("/reverse-geocode", geoHandler.ReverseGeocode)

		// Authenticated routes
		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.JwtSecret, userService))
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.POST("/listings", listingHandler.Create)
			authed.PUT("/listings/:id", listingHandler.Update)
			authed.DELETE("/listings/:id", listingHandler.Delete)
			authed.GET("/my-listings", listingHandler.MyListings)

			authed.POST("/listings/:id/comments", socialHandler.CreateComment)
			authed.DELETE("/comments/:id", socialHandler.DeleteComment)
			authed.POST("/listings/:id/like", socialHandler.ToggleLike)
			authed.GET("/listings/:id/liked", socialHandler.CheckLiked)

			authed.POST("/listings/:id/images", mediaHandler.UploadImages)
			authed.DELETE("/listings/:id/images/:filename", mediaHandler.DeleteImage)

			authed.GET("/favorites", socialHandler.ListFavorites)
			authed.POST("/favorites/:listing_id", socialHandler.AddFavorite)
			authed.DELETE("/favorites/:listing_id", socialHandler.RemoveFavorite)
			authed.GET("/favorites/:listing_id/check", socialHandler.CheckFavorite)
		}
	}

	return r
}
