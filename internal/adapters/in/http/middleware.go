package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// TrackerHeader names the GPS tracker posting a location sample.
const TrackerHeader = "X-Tracker-Id"

// RequestLogger writes one slog line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remoteIp", v.RemoteIP),
				slog.String("requestId", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "http request", attrs...)
			return nil
		},
	})
}

// Observability counts requests and their latency by route pattern.
func Observability(total *prometheus.CounterVec, duration *prometheus.HistogramVec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)

			total.WithLabelValues(c.Request().Method, path, status).Inc()
			duration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RateLimit rejects requests over the limit with 429 and a Retry-After of one
// limiter window in whole seconds. The key is the tracker header, or the
// delivery id when the header is absent. When the limiter itself fails the
// request is let through.
func RateLimit(limiter RateLimiter, rejected prometheus.Counter, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}

			key := c.Request().Header.Get(TrackerHeader)
			if key == "" {
				key = "delivery:" + c.Param("id")
			}

			allowed, count, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.WarnContext(c.Request().Context(), "rate limiter unavailable", "key", key, "error", err)
				return next(c)
			}
			if !allowed {
				if rejected != nil {
					rejected.Inc()
				}
				logger.WarnContext(c.Request().Context(), "rate limit exceeded",
					"key", key,
					"count", count,
					"path", c.Path())
				c.Response().Header().Set("Retry-After", retryAfter(limiter.Window()))
				return c.JSON(http.StatusTooManyRequests, Error{
					Code:    http.StatusTooManyRequests,
					Message: "too many requests",
				})
			}
			return next(c)
		}
	}
}

// retryAfter renders d as delta-seconds, rounded up and never below one.
func retryAfter(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
