package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services are the operations the REST API exposes.
type Services struct {
	Accounts  *service.AccountService
	Locations *service.LocationService
	Profiles  *service.ProfileService
	Tours     *service.TourService
	Bookings  *service.BookingService
	Reviews   *service.ReviewService
	Messaging *service.MessagingService
	Store     Pinger
}

type handler struct {
	svc    Services
	logger *zerolog.Logger
}

// NewRouter builds the /v1 REST API.
func NewRouter(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.HTTP, cfg.Auth.HeaderAPIKey)))
	router.Use(newRateLimiter(cfg.RateLimit, cfg.Auth.HeaderAPIKey).Middleware())
	router.Use(NewAuth(cfg.Auth, svc.Accounts).Middleware())

	h := &handler{svc: svc, logger: logger}
	auth := requireAuth()

	v1 := router.Group("/v1")
	v1.GET("/health", h.health)
	v1.GET("/stats", h.stats)

	accounts := v1.Group("/auth")
	accounts.POST("/register", h.register)
	accounts.GET("/me", auth, h.me)
	accounts.PATCH("/me", auth, h.updateMe)

	wilayas := v1.Group("/wilayas")
	wilayas.GET("", h.listWilayas)
	wilayas.GET("/:id", h.getWilaya)
	wilayas.GET("/:id/guides", h.wilayaGuides)
	wilayas.GET("/:id/tours", h.wilayaTours)

	guides := v1.Group("/profiles/guides")
	guides.GET("", h.listGuides)
	guides.GET("/me", auth, h.myGuideProfile)
	guides.PUT("/me", auth, h.upsertGuideProfile)
	guides.PUT("/me/availability", auth, h.setAvailability)
	guides.GET("/:id", h.getGuide)
	guides.GET("/:id/pricing", h.guidePricing)
	guides.GET("/:id/availability", h.guideAvailability)
	guides.PATCH("/:id/verification", auth, h.setVerification)

	tourists := v1.Group("/profiles/tourists")
	tourists.GET("/me", auth, h.myTouristProfile)
	tourists.PATCH("/me", auth, h.updateTouristProfile)

	tours := v1.Group("/tours")
	tours.GET("", h.listTours)
	tours.POST("", auth, h.createTour)
	tours.GET("/me", auth, h.myTours)
	tours.GET("/dashboard", auth, h.dashboard)
	tours.GET("/:id", h.getTour)
	tours.PATCH("/:id", auth, h.updateTour)
	tours.DELETE("/:id", auth, h.deleteTour)
	tours.GET("/:id/calculate-price", h.calculatePrice)
	tours.GET("/:id/weather", h.tourWeather)

	bookings := v1.Group("/bookings", auth)
	bookings.GET("", h.listBookings)
	bookings.POST("", h.createBooking)
	bookings.GET("/guide/pending", h.guidePending)
	bookings.GET("/tourist/upcoming", h.touristUpcoming)
	bookings.GET("/export", h.exportBookings)
	bookings.GET("/:id", h.getBooking)
	bookings.GET("/:id/invoice", h.bookingInvoice)
	bookings.PATCH("/:id/status", h.updateBookingStatus)
	bookings.PATCH("/:id/cancel", h.cancelBooking)

	reviews := v1.Group("/reviews")
	reviews.POST("/bookings/:booking_id/review", auth, h.createReview)
	reviews.GET("/tours/:tour_id/reviews", h.tourReviews)
	reviews.GET("/guides/:guide_id/reviews", h.guideReviews)
	reviews.GET("/:id", h.getReview)
	reviews.PATCH("/:id", auth, h.updateReview)
	reviews.POST("/:id/response", auth, h.respondReview)
	reviews.PATCH("/:id/moderation", auth, h.moderateReview)

	messaging := v1.Group("/messaging", auth)
	messaging.GET("/conversations", h.listConversations)
	messaging.POST("/conversations", h.startConversation)
	messaging.GET("/conversations/:id", h.getConversation)
	messaging.GET("/conversations/:id/messages", h.conversationMessages)
	messaging.POST("/conversations/:id/send_message", h.sendMessage)
	messaging.POST("/conversations/:id/mark_read", h.markRead)
	messaging.GET("/custom-requests", h.listCustomRequests)
	messaging.POST("/custom-requests", h.createCustomRequest)
	messaging.GET("/custom-requests/:id", h.getCustomRequest)
	messaging.POST("/custom-requests/:id/respond", h.respondCustomRequest)

	router.NoRoute(func(c *gin.Context) {
		writeStatus(c, http.StatusNotFound, "route not found")
	})

	return router
}

func corsConfig(cfg config.APIHTTPConfig, apiKeyHeader string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	c.AllowHeaders = append(c.AllowHeaders, apiKeyHeader)
	if len(cfg.CORSOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSOrigins
	}
	return c
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	server *http.Server
	log    *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           NewRouter(cfg, svc, logger),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		log: logger,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (h *handler) health(c *gin.Context) {
	if h.svc.Store != nil {
		if err := h.svc.Store.Ping(c.Request.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (h *handler) stats(c *gin.Context) {
	stats, err := h.svc.Tours.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
