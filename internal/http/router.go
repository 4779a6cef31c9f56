package api

import (
	"log"
	stdhttp "net/http"
	"time"

	"rentals/internal/cache"
	intconfig "rentals/internal/config"
	"rentals/internal/gateway"
	h "rentals/internal/http/handlers"
	"rentals/internal/http/middleware"
	"rentals/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, counters *cache.Counters) *gin.Engine {
	h.Configure(env, counters, gateway.NewClient(env.PaystackSecretKey),
		services.NewLocalDocumentStore("uploads/agreements", "/uploads/agreements"))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     env.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.Static("/uploads", "./uploads")

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)

		// Payments. The webhook stays outside the auth group: it is
		// authenticated by its HMAC signature, not a bearer token.
		payments := api.Group("/payments")
		payments.POST("/webhook", h.PaystackWebhook)

		authed := api.Group("")
		authed.Use(middleware.Auth(env.JWTSecret))
		{
			p := authed.Group("/payments")
			p.POST("/initiate", h.InitiatePayment)
			p.GET("/verify/:reference", h.VerifyPayment)
			p.GET("", h.GetMyPayments)
			p.GET("/:id", h.GetPaymentByID)
			p.POST("/:reference/refund", middleware.RequireRoles("admin"), h.RefundPayment)

			po := authed.Group("/payouts")
			po.POST("/enroll", middleware.RequireRoles("property_owner", "agent"), h.EnrollPayoutAccount)
			po.GET("/banks", middleware.RequireRoles("property_owner", "agent"), h.ListPayoutBanks)

			b := authed.Group("/bookings")
			b.POST("", h.CreateBooking)
			b.GET("", h.GetMyBookings)
			b.GET("/owner", h.GetManagedBookings)
			b.GET("/:id", h.GetBookingByID)
			b.PATCH("/:id/respond", h.RespondBooking)
			b.PATCH("/:id/inspection-date", h.AssignInspectionDate)
			b.PATCH("/:id/complete", h.CompleteBooking)
			b.PATCH("/:id/cancel", h.CancelBooking)

			a := authed.Group("/agreements")
			a.POST("", middleware.RequireRoles("property_owner"), h.CreateAgreement)
			a.GET("", h.GetMyAgreements)
			a.GET("/:id", h.GetAgreementByID)
			a.PATCH("/:id/sign-tenant", h.SignAgreementAsTenant)
			a.PATCH("/:id/sign-owner", h.SignAgreementAsOwner)
			a.PATCH("/:id/terminate", h.TerminateAgreement)
			a.POST("/:id/document", h.RegenerateAgreementDocument)
		}
	}

	return r
}
