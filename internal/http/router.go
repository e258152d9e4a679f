// Package httpapi wires the gin engine to the batch and ledger services. It
// owns middleware ordering, CORS and security posture, the health, metrics
// and docs endpoints, and the versioned public API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/docs" // registers swagger docs
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/batch"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/config"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/http/handlers"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/http/middleware"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
)

// RegisterRoutes installs middleware and routes on r and returns the batch
// service it built, so the caller can report on live sessions.
//
// Global middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (also attaches the request-scoped logger)
//  4. Recovery
//  5. body size limit
//  6. Metrics
//  7. CORS, security headers
//
// Submit and retry additionally run the idempotency validator and then the
// rate limiter, so a replay skips the limiter and never reaches the pass API.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, transport batch.Transport, cfg config.Config) *services.BatchService {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	batchSvc := services.NewBatchService(db, transport, batch.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
		MaxRecords: cfg.Batch.MaxRecords,
	}, cfg.Batch.SessionTTL, cfg.IdempotencyTTL)
	passSvc := services.NewPassService(db, nil)
	h := handlers.New(batchSvc, passSvc)

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, batchSvc.HasReplay)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/batches", h.CreateBatch)
		api.GET("/batches/:id", h.GetBatch)
		api.DELETE("/batches/:id", h.DiscardBatch)
		api.PUT("/batches/:id/event", h.SetEventID)

		api.POST("/batches/:id/records", h.AddRecord)
		api.DELETE("/batches/:id/records/:recordId", h.RemoveRecord)
		api.PUT("/batches/:id/records/:index/fields/:field", h.SetField)
		api.POST("/batches/:id/records/:index/fields/:field/blur", h.BlurField)

		api.POST("/batches/:id/submit", idem, rl.Handler(), h.SubmitBatch)
		api.POST("/batches/:id/retry", idem, rl.Handler(), h.RetryBatch)
		api.GET("/batches/:id/runs", h.ListRuns)

		api.GET("/events/:eventId/passes", h.ListPasses)

		api.GET("/validation/rules", h.ValidationRules)
		api.POST("/validation/field", h.ValidateField)
	}
	return batchSvc
}

// corsMiddleware allows every origin when none are configured and otherwise
// echoes allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Set even without an Origin header so simple probes see it too.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    corsMethods,
				AllowHeaders:    corsHeaders,
				ExposeHeaders:   corsExpose,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  corsMethods,
			AllowHeaders:  corsHeaders,
			ExposeHeaders: corsExpose,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
