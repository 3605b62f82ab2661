package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/lunarhle/lunar/kernel/internal/api/http"
	"github.com/lunarhle/lunar/kernel/internal/api/middleware"
	"github.com/lunarhle/lunar/kernel/internal/infrastructure/config"
	"github.com/lunarhle/lunar/kernel/internal/infrastructure/logging"
	"github.com/lunarhle/lunar/kernel/internal/infrastructure/monitoring"
	"github.com/lunarhle/lunar/kernel/internal/kernel"
)

// Server wraps the inspection HTTP server and the kernel it exposes.
type Server struct {
	router  *gin.Engine
	kernel  *kernel.System
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer boots a kernel memory system from the configuration and
// builds the inspection API around it.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing kernel memory service",
		zap.String("port", cfg.Server.Port),
		zap.Uint32("fcram_size", cfg.Memory.FcramSize),
	)

	metrics := monitoring.NewMetrics()

	k, err := kernel.NewSystem(cfg.Memory.Layout(), logger, metrics)
	if err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := api.NewHandlers(k, logger)

	router.GET("/health", handlers.Health)
	router.GET("/memory/regions", handlers.Regions)
	router.GET("/memory/shared", handlers.SharedMemories)
	router.GET("/memory/snapshot", handlers.Snapshot)
	router.GET("/processes/:pid/mappings", handlers.ProcessMappings)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("inspection API initialized")

	return &Server{
		router:  router,
		kernel:  k,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Kernel returns the kernel memory system the server exposes.
func (s *Server) Kernel() *kernel.System { return s.kernel }

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting inspection server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close flushes the logger. The kernel itself holds no host resources
// beyond its heap buffer.
func (s *Server) Close() error {
	s.logger.Info("shutting down")
	s.logger.Sync()
	return nil
}
