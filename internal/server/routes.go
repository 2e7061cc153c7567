package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/middleware"
)

const APIPrefix = "/api/v1"

func RegisterRoutes(router *gin.Engine, h *middleware.Handler) {
	api := router.Group(APIPrefix)

	api.GET("/health", h.Health)

	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.POST("/logout", h.AuthMiddleware(), h.Logout)

	api.GET("/currency", h.GetCurrency)
	api.GET("/currencies/supported", h.SupportedCurrencies)

	protected := api.Group("/")
	protected.Use(h.AuthMiddleware())
	{
		protected.POST("/deals", h.CreateDeal)
		protected.GET("/deals", h.ListDeals)
		protected.GET("/deals/:id", h.GetDeal)
		protected.DELETE("/deals/:id", h.DeleteDeal)

		protected.GET("/holdings", h.Holdings)
		protected.GET("/portfolio", h.Portfolio)
		protected.GET("/portfolio/history", h.PortfolioHistory)
	}

	// Svix signs the raw body, so the webhook reads it unparsed.
	api.POST("/webhooks/clerk", h.ClerkWebhook)

	clerk := api.Group("/clerk")
	clerk.Use(h.ClerkAuthMiddleware())
	{
		clerk.GET("/portfolio", h.Portfolio)
		clerk.GET("/holdings", h.Holdings)
	}

	admin := api.Group("/admin")
	admin.Use(h.AdminAuth())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/jobs/:name", h.RunJob)
	}
}
