package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"drivemate/internal/handler"
	"drivemate/internal/logger"
	"drivemate/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	TripHandler    *handler.TripHandler
	PaymentHandler *handler.PaymentHandler
	RedisClient    *redis.Client // optional
	NewRelicApp    *newrelic.Application
	Logger         logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(log))
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(middleware.Identity())
	v1.Use(middleware.NewRelicAttributes())
	v1.Use(middleware.Idempotency(deps.RedisClient, log))

	v1.GET("/purposes", deps.RideHandler.ListPurposes)

	rides := v1.Group("/rides")
	{
		rides.POST("", deps.RideHandler.CreateRide)
		rides.GET("", deps.RideHandler.ListRides)
		rides.GET("/:id", deps.RideHandler.GetRide)
		rides.GET("/:id/candidates", deps.RideHandler.ListCandidates)
		rides.POST("/:id/requests", deps.RideHandler.RequestDriver)
		rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
		rides.POST("/:id/reopen", deps.RideHandler.ReopenRide)
		rides.POST("/:id/rating", deps.RideHandler.RateRide)
		rides.GET("/:id/payment", deps.PaymentHandler.Summary)
	}

	v1.POST("/requests/:id/close", deps.RideHandler.CloseRequest)

	v1.GET("/drivers/:id", deps.DriverHandler.Details)
	v1.GET("/drivers/:id/ratings", deps.DriverHandler.Ratings)

	driver := v1.Group("/driver")
	{
		driver.GET("/profile", deps.DriverHandler.Profile)
		driver.POST("/availability", deps.DriverHandler.SetAvailability)
		driver.POST("/location", deps.DriverHandler.UpdateLocation)
		driver.GET("/payments", deps.DriverHandler.ListPayments)

		driver.GET("/requests", deps.DriverHandler.ListRequests)
		driver.GET("/requests/:id", deps.DriverHandler.GetRequest)
		driver.POST("/requests/:id/accept", deps.DriverHandler.Accept)
		driver.POST("/requests/:id/reject", deps.DriverHandler.Reject)
		driver.GET("/requests/:id/distance", deps.TripHandler.PreviewRoute)
		driver.POST("/requests/:id/start", deps.TripHandler.StartRide)
		driver.POST("/requests/:id/end", deps.TripHandler.EndRide)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("", deps.PaymentHandler.CreatePayment)
		payments.GET("", deps.PaymentHandler.ListPayments)
		payments.GET("/:id", deps.PaymentHandler.GetPayment)
		payments.POST("/:id/finalize", deps.PaymentHandler.FinalizePayment)
		payments.GET("/:id/receipt", deps.PaymentHandler.GetReceipt)
	}

	return router
}
