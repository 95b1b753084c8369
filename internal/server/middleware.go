package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
	"taskdesk/internal/services"
)

const identityCtxKey = "identity"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// routePath labels metrics by route pattern so ids do not explode cardinality.
func routePath(ctx *gin.Context) string {
	if p := ctx.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		path := routePath(ctx)
		requestDuration.WithLabelValues(ctx.Request.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(ctx.Request.Method, path, status).Inc()
	}
}

func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		event.
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("handled request")
	}
}

func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("path", ctx.Request.URL.Path).
			Msg("recovered from panic")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
	})
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin",
			"Accept-Encoding",
			"Content-Encoding",
			"Content-Type",
			"Authorization",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Encoding", "Vary"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Gzip compresses responses for clients that accept it and inflates
// gzip-encoded request bodies.
func Gzip() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics"}),
		gzip.WithDecompressFn(gzip.DefaultDecompressHandle),
	)
}

func bearerToken(header string) string {
	const bearerPrefix = "Bearer"
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate resolves the bearer token into an Identity stored on the
// request context.
func (api *TaskAPI) Authenticate(ctx *gin.Context) {
	identity, err := api.auth.Authenticate(ctx.Request.Context(), bearerToken(ctx.GetHeader("Authorization")))
	if err != nil {
		api.logger.Debug().
			Err(err).
			Str("path", ctx.Request.URL.Path).
			Msg("rejected request token")
		api.respondError(ctx, err)
		return
	}
	ctx.Set(identityCtxKey, identity)
	ctx.Next()
}

func (api *TaskAPI) RequireAdmin(ctx *gin.Context) {
	if err := services.RequireAdmin(caller(ctx)); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.Next()
}

// caller returns the authenticated identity, the zero Identity when the
// route is public.
func caller(ctx *gin.Context) models.Identity {
	v, ok := ctx.Get(identityCtxKey)
	if !ok {
		return models.Identity{}
	}
	identity, _ := v.(models.Identity)
	return identity
}
