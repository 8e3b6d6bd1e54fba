package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/service/records"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/transport/http/web"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds the HTTP server with all routes.
func NewServer(svc *records.Service, pinger Pinger, cfg *config.Config, logger *zerolog.Logger) (*stdhttp.Server, error) {
	router, err := NewRouter(svc, pinger, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}, nil
}

// NewRouter builds the gin engine.
func NewRouter(svc *records.Service, pinger Pinger, cfg *config.Config, logger *zerolog.Logger) (*gin.Engine, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	if cfg.MetricsEnabled {
		router.Use(MetricsMiddleware())
	}
	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, HeaderRequestID)
		corsCfg.ExposeHeaders = []string{HeaderRequestID}
		router.Use(cors.New(corsCfg))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(stdhttp.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})

	router.GET("/", Dashboard)
	router.StaticFS("/static", web.Static())
	router.GET("/health", healthHandler(pinger, logger))
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := NewRecordHandlers(svc, logger, cfg.MaxBodyBytes)

	api := router.Group("/api")
	api.Use(WriteRateLimitMiddleware(cfg.WriteRateLimit, logger))
	{
		api.GET("/email/", h.ListEmails)
		api.POST("/email/", h.CreateEmail)
		api.GET("/email/export/", h.Export(store.KindEmail))

		for _, kind := range []store.Kind{store.KindSMS, store.KindWhatsApp} {
			path := "/" + string(kind) + "/"
			api.GET(path, h.ListMessages(kind))
			api.POST(path, h.CreateMessage(kind))
			api.GET(path+"export/", h.Export(kind))
		}

		api.GET("/stats/", h.Stats)
		api.POST("/delete/", h.Delete)
	}

	return router, nil
}

func healthHandler(pinger Pinger, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("health check failed")
			c.String(stdhttp.StatusServiceUnavailable, "unavailable")
			return
		}
		c.String(stdhttp.StatusOK, "ok")
	}
}
