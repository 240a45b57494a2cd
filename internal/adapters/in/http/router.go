// Package http is the echo transport: the REST API under /api/v1, the
// WebSocket stream, health, metrics and the API documentation.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"fulfillment/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	Server   *Server
	Realtime *RealtimeEndpoint
	Metrics  *metrics.Metrics
	Limiter  RateLimiter
	Health   map[string]HealthCheck
	Logger   *slog.Logger
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(Observability(d.Metrics.HTTPRequestsTotal, d.Metrics.HTTPRequestDuration))
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.GET("/health", health(d.Health))
	e.GET("/openapi.json", openapiDocument)
	registerSwagger()
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.Realtime != nil {
		e.GET("/ws", d.Realtime.Handle)
	}

	var rejected prometheus.Counter
	if d.Metrics != nil {
		rejected = d.Metrics.RateLimitExceeded
	}
	api := e.Group("/api/v1")
	api.POST("/deliveries", d.Server.CreateDelivery)
	api.GET("/deliveries/active", d.Server.GetActiveDeliveries)
	api.GET("/deliveries/:id", d.Server.GetDelivery)
	api.PUT("/deliveries/:id/status", d.Server.UpdateDeliveryStatus)
	api.POST("/deliveries/:id/courier", d.Server.AssignCourier)
	api.POST("/deliveries/:id/locations", d.Server.RecordLocation, RateLimit(d.Limiter, rejected, d.Logger))
	api.POST("/deliveries/:id/notes", d.Server.AppendDeliveryNote)
	api.GET("/vendors/:id/store-match", d.Server.SelectStore)

	return e
}

func openapiDocument(c echo.Context) error {
	if _, err := GetSwagger(); err != nil {
		return c.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "API description is unavailable",
		})
	}
	return c.JSONBlob(http.StatusOK, swaggerJSON)
}

func health(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, check := range checks {
			if err := check(c.Request().Context()); err != nil {
				report[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		if code == http.StatusOK {
			report["status"] = "Healthy"
		} else {
			report["status"] = "Unhealthy"
		}
		return c.JSON(code, report)
	}
}
