// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ridebook/internal/http/handlers"
	"ridebook/internal/http/middleware"
)

// BookingAPI is everything the booking service exposes over HTTP.
type BookingAPI interface {
	handlers.BookingService
	handlers.LifecycleService
	handlers.DetailLister
}

type RouterDeps struct {
	Booking  BookingAPI
	Wallet   handlers.WalletService
	Awaiting handlers.AwaitingLister
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	api := r.Group("/api")

	bookingHandler := handlers.NewBookingHandler(deps.Booking)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/dispatch", bookingHandler.Redispatch)

	detailHandler := handlers.NewDetailHandler(deps.Booking)
	api.POST("/details/:id/claim", detailHandler.Claim)
	api.POST("/details/:id/advance", detailHandler.Advance)
	api.POST("/details/:id/complete", detailHandler.Complete)
	api.POST("/details/:id/cancel", detailHandler.Cancel)

	walletHandler := handlers.NewWalletHandler(deps.Wallet)
	api.GET("/drivers/:id/wallet", walletHandler.List)

	adminHandler := handlers.NewAdminHandler(deps.Booking, deps.Awaiting)
	admin := api.Group("/admin")
	admin.GET("/details", adminHandler.ListDetails)
	admin.GET("/bookings/awaiting", adminHandler.ListAwaiting)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
