package routes

import (
	"go-travel-webapp/internal/handlers"
	"go-travel-webapp/internal/logger"
	"go-travel-webapp/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything Setup wires into the router.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Bruteforce *handlers.BruteforceHandler
	Bookings   *handlers.BookingHandler
	Profile    *handlers.ProfileHandler
	Contact    *handlers.ContactHandler
	Dashboard  *handlers.DashboardHandler
	Search     *handlers.SearchHandler
	Pages      *handlers.PagesHandler
}

// Setup registers all routes on the engine.
func Setup(router *gin.Engine, h *Handlers, log *logger.StructuredLogger) {
	router.Use(middleware.RequestLogger(log))
	router.Use(handlers.RecoveryHandler())
	router.NoRoute(handlers.NotFoundHandler())

	// Server-rendered pages
	router.GET("/", h.Pages.Home)
	router.GET("/login", h.Pages.LoginPage)
	router.GET("/admin/login", h.Pages.AdminLoginPage)
	router.GET("/privacy", h.Pages.Privacy)
	router.GET("/terms", h.Pages.Terms)

	// Public API
	api := router.Group("/api")
	{
		api.POST("/login", h.Auth.Login)
		api.POST("/admin/login", h.Auth.AdminLogin)
		api.POST("/login/2fa", h.Auth.Verify2FA)
		api.POST("/logout", h.Auth.Logout)
		api.POST("/contact", h.Contact.Submit)

		api.GET("/airports", h.Search.Airports)
		api.GET("/activities", h.Search.Activities)
		api.POST("/translate", h.Search.Translate)
	}

	// Authenticated API
	authed := api.Group("")
	authed.Use(h.Auth.AuthMiddleware())
	{
		authed.GET("/login", h.Auth.Probe)

		authed.GET("/profile", h.Profile.GetProfile)
		authed.PUT("/profile", h.Profile.UpdateProfile)
		authed.GET("/profile/payment-methods", h.Profile.ListPaymentMethods)
		authed.POST("/profile/payment-methods", h.Profile.AddPaymentMethod)
		authed.DELETE("/profile/payment-methods/:id", h.Profile.DeletePaymentMethod)

		authed.GET("/bookings", h.Bookings.List)
		authed.POST("/bookings", h.Bookings.Create)
		authed.GET("/bookings/:id", h.Bookings.Get)
		authed.POST("/bookings/:id/cancel", h.Bookings.Cancel)
		authed.GET("/bookings/:id/itinerary", h.Bookings.DownloadItinerary)
		authed.GET("/bookings/:id/qrcode", h.Bookings.QRCode)
	}

	// Admin back-office API
	admin := router.Group("/admin")
	admin.Use(h.Auth.AuthMiddleware(), h.Auth.RequireAdmin())
	{
		admin.GET("/bruteforce", h.Bruteforce.List)
		admin.POST("/bruteforce/:id/unblock", h.Bruteforce.Unblock)
		admin.DELETE("/bruteforce/:id", h.Bruteforce.Delete)

		admin.GET("/dashboard/stats", h.Dashboard.Stats)
		admin.GET("/contact", h.Contact.AdminList)
		admin.POST("/contact/:id/read", h.Contact.AdminMarkRead)
	}
}
