package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"github.com/Domenick1991/activitybooking/internal/service/admin"
	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/Domenick1991/activitybooking/internal/service/sessions"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const swaggerSpecURL = "/swagger/engine.swagger.json"

// HealthCheck is a named dependency probe used by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Services struct {
	Sessions  sessions.SessionUseCase
	Bookings  booking.BookingUseCase
	Canceller Canceller
	Admin     admin.AdminUseCase
	Health    []HealthCheck
}

func NewRouter(httpCfg config.HTTPConfig, authCfg config.AuthConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestid.New(), accessLog())

	if len(httpCfg.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = httpCfg.AllowedOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthz(svc.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if httpCfg.SwaggerDir != "" {
		router.Static("/swagger", httpCfg.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerSpecURL))))
	}

	v1 := router.Group("/api/v1")
	NewSessionHandler(svc.Sessions).Register(v1.Group("/sessions"))

	user := v1.Group("", RequireUser(authCfg.JWTSigningKey))
	NewBookingHandler(svc.Bookings, svc.Canceller).Register(user)

	NewPaymentHandler(svc.Bookings).Register(v1.Group("/payments", RequireGatewaySecret(authCfg.CallbackSecret)))

	NewAdminHandler(svc.Admin).Register(v1.Group("/admin", RequireUser(authCfg.JWTSigningKey), RequireAdmin()))

	return router
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, route, status, elapsed)

		fields := []zap.Field{
			zap.String("request_id", requestid.Get(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		}
		switch {
		case status >= http.StatusInternalServerError:
			zap.L().Error("http request", fields...)
		case route == "/healthz" || route == "/metrics":
		default:
			zap.L().Info("http request", fields...)
		}
	}
}

func healthz(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				failed[hc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
