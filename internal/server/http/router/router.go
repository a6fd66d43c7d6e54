package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/config"
	"github.com/polkiloo/servicemart/internal/server/http/handlers"
	"github.com/polkiloo/servicemart/internal/server/http/middleware"
)

// Params collects router dependencies.
type Params struct {
	fx.In

	Facade handlers.CompanionFacade
	Admin  middleware.AdminKeyVerifier
	Config *config.Config
	Logger *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(p.Logger))
	if len(p.Config.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  p.Config.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Content-Encoding", middleware.AdminKeyHeader, middleware.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	bookingHandler := handlers.NewBookingHandler(p.Facade)
	deliveryHandler := handlers.NewDeliveryHandler(p.Facade)
	cartHandler := handlers.NewCartHandler(p.Facade)
	offerHandler := handlers.NewOfferHandler(p.Facade)

	api := engine.Group("/api")

	bookings := api.Group("/bookings")
	bookings.GET("/:id", bookingHandler.Get)
	bookings.POST("/:id/cancel", bookingHandler.RequestCancel)
	bookings.POST("/:id/cancel/confirm", bookingHandler.ConfirmCancel)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(p.Admin))
	admin.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	admin.POST("/bookings/:id/reject", bookingHandler.Reject)
	admin.POST("/bookings/:id/complete", bookingHandler.Complete)

	deliveries := api.Group("/deliveries")
	deliveries.GET("/:orderId", deliveryHandler.Get)
	deliveries.PUT("/:orderId/tracking", deliveryHandler.Track)
	deliveries.DELETE("/:orderId/tracking", deliveryHandler.Untrack)
	deliveries.POST("/:orderId/refresh", deliveryHandler.Refresh)

	api.GET("/cart", cartHandler.List)
	api.POST("/cart/items", cartHandler.Add)
	api.PUT("/cart/items/:targetId", cartHandler.SetQuantity)

	api.GET("/offers", offerHandler.List)

	return engine
}
