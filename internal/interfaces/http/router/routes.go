package router

import (
	"github.com/gin-gonic/gin"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/interfaces/http/handler"
	"github.com/inkthread/storefront/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers are the HTTP handlers mounted by Mount
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Garment      *handler.GarmentHandler
	Quote        *handler.QuoteHandler
	Artwork      *handler.ArtworkHandler
	SavedArtwork *handler.SavedArtworkHandler
	Order        *handler.OrderHandler
	Campaign     *handler.CampaignHandler
	Customer     *handler.CustomerHandler
	Webhook      *handler.StripeWebhookHandler
}

// Guards holds the auth and per-route rate limit configuration.
// A nil limiter leaves its route on the global limit only.
type Guards struct {
	JWT             middleware.JWTMiddlewareConfig
	LoginLimiter    *middleware.RateLimiter
	QuoteLimiter    *middleware.RateLimiter
	GenerateLimiter *middleware.RateLimiter
	Swagger         config.SwaggerConfig
}

// Mount registers /health, the API docs and every /api route on the engine.
// The docs package must be linked in for /swagger to serve a document.
func Mount(engine *gin.Engine, h Handlers, g Guards) {
	engine.GET("/health", h.Health.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(g.Swagger, middleware.AdminAuth(g.JWT)),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	mountGroups(engine, BasePath,
		authRoutes(h, g),
		catalogRoutes(h, g),
		artworkRoutes(h, g),
		orderRoutes(h),
		campaignRoutes(h, g),
		adminRoutes(h, g),
		webhookRoutes(h),
	)
}

func limited(scope string, limiter *middleware.RateLimiter, next gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{next}
	}
	return []gin.HandlerFunc{middleware.RouteRateLimit(scope, limiter), next}
}

func authRoutes(h Handlers, g Guards) *DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", limited("login", g.LoginLimiter, h.Auth.Login)...)
	auth.POST("/refresh", limited("login", g.LoginLimiter, h.Auth.RefreshToken)...)

	session := auth.Group("session", "")
	session.Use(middleware.AdminAuth(g.JWT))
	session.GET("/me", h.Auth.Me)
	session.POST("/logout", h.Auth.Logout)
	return auth
}

func catalogRoutes(h Handlers, g Guards) *DomainGroup {
	catalog := NewDomainGroup("catalog", "")
	catalog.GET("/garments", h.Garment.ListPublic)
	catalog.GET("/garments/:id", h.Garment.GetPublic)
	catalog.POST("/quotes", limited("quotes", g.QuoteLimiter, h.Quote.Quote)...)
	return catalog
}

func artworkRoutes(h Handlers, g Guards) *DomainGroup {
	art := NewDomainGroup("artwork", "")

	uploads := art.Group("uploads", "/artwork")
	uploads.POST("", h.Artwork.Upload)
	uploads.POST("/presign", h.Artwork.Presign)
	uploads.POST("/generate", limited("generate", g.GenerateLimiter, h.Artwork.Generate)...)
	uploads.POST("/transforms/validate", h.Artwork.ValidateTransforms)
	uploads.GET("/:id", h.Artwork.Get)
	uploads.POST("/:id/confirm", h.Artwork.Confirm)
	uploads.POST("/:id/vectorize", h.Artwork.Vectorize)

	saved := art.Group("saved-artwork", "/saved-artwork")
	saved.GET("", h.SavedArtwork.List)
	saved.POST("", h.SavedArtwork.Save)
	saved.PATCH("/:id", h.SavedArtwork.Update)
	saved.DELETE("/:id", h.SavedArtwork.Delete)
	return art
}

func orderRoutes(h Handlers) *DomainGroup {
	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", h.Order.Checkout)
	orders.GET("/lookup", h.Order.Lookup)
	return orders
}

func campaignRoutes(h Handlers, g Guards) *DomainGroup {
	campaigns := NewDomainGroup("campaigns", "/campaigns")
	optional := middleware.OptionalAuth(g.JWT)
	admin := middleware.AdminAuth(g.JWT)

	campaigns.POST("", optional, h.Campaign.Create)
	campaigns.GET("", admin, h.Campaign.List)
	campaigns.GET("/:slug", optional, h.Campaign.Get)
	campaigns.POST("/:slug/orders", h.Campaign.PlaceOrder)

	managed := campaigns.Group("organizer", "/:slug")
	managed.Use(middleware.BearerAuth(g.JWT), middleware.RequireCampaignManager())
	managed.PUT("", h.Campaign.Update)
	managed.GET("/orders", h.Campaign.ListOrders)
	managed.POST("/pay", middleware.RequireOrganizer(), h.Campaign.Pay)
	managed.GET("/stats", h.Campaign.Stats)
	managed.POST("/end", h.Campaign.End)

	operations := campaigns.Group("operations", "/:slug")
	operations.Use(admin)
	operations.POST("/cancel", h.Campaign.Cancel)
	operations.GET("/order-sheet", h.Campaign.OrderSheet)
	return campaigns
}

func adminRoutes(h Handlers, g Guards) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")
	admin.Use(middleware.AdminAuth(g.JWT))

	garments := admin.Group("garments", "/garments")
	garments.GET("", h.Garment.List)
	garments.POST("", h.Garment.Create)
	garments.GET("/:id", h.Garment.GetByID)
	garments.PUT("/:id", h.Garment.Update)
	garments.DELETE("/:id", h.Garment.Delete)

	orders := admin.Group("orders", "/orders")
	orders.GET("", h.Order.List)
	orders.GET("/:id", h.Order.GetByID)
	orders.PUT("/:id/status", h.Order.UpdateStatus)
	orders.POST("/:id/refund", h.Order.Refund)
	orders.GET("/:id/packing-slip", h.Order.PackingSlip)

	customers := admin.Group("customers", "/customers")
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.GetByID)
	return admin
}

func webhookRoutes(h Handlers) *DomainGroup {
	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/stripe", h.Webhook.HandleStripeWebhook)
	return webhooks
}
