package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/config"
	"github.com/operaton-labs/enginebridge/internal/host"
	"github.com/operaton-labs/enginebridge/internal/logging"
)

// Server is the bridge host daemon: the channel endpoint plus health
// and metrics.
type Server struct {
	router  *gin.Engine
	store   *host.Store
	hub     *host.Hub
	metrics *host.Metrics
	log     *logging.Logger
}

// New assembles the daemon from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewDefault()
	}
	log = log.Component("server")

	store, err := host.OpenStore(cfg.Host.StorePath)
	if err != nil {
		return nil, err
	}

	manifest, err := host.LoadManifest(cfg.Host.ManifestPath)
	if err != nil {
		return nil, err
	}
	if len(manifest.Env) > 0 {
		if err := store.SeedEnv(manifest.Env); err != nil {
			return nil, err
		}
		log.Info("environment snapshot seeded", zap.Int("variables", len(manifest.Env)))
	}

	registry := host.NewRegistry(manifest, log)
	responder := host.NewResponder(store, registry, cfg.Host.CompressThreshold, log)
	metrics := host.NewMetrics()
	hub := host.NewHub(responder, metrics, cfg.Host.RateLimitRPS, cfg.Host.RateLimitBurst, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "bundles": len(manifest.Bundles)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	router.GET("/channel/:name", hub.HandleChannel)

	return &Server{
		router:  router,
		store:   store,
		hub:     hub,
		metrics: metrics,
		log:     log,
	}, nil
}

// Run blocks serving the configured address.
func (s *Server) Run(cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%s", cfg.Host.Host, cfg.Host.Port)
	s.log.Info("bridge host listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the daemon's resources.
func (s *Server) Close() error {
	s.log.Info("bridge host shutting down")
	return nil
}
