// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"postboard_backend/internal/auth"
	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/jobs"
	"postboard_backend/internal/middleware"
	"postboard_backend/internal/platform/elasticsearch"
	"postboard_backend/internal/post"
	"postboard_backend/internal/shared"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config

	AppLogger *zap.Logger
	ESClient  *elasticsearch.ESClientWrapper

	// Handlers
	authHandler *auth.Handler
	postHandler *post.Handler

	// Jobs
	uploadSweepJob *jobs.UploadSweepJob

	// Middleware instances
	authMW      gin.HandlerFunc
	adminRoleMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	postHandler *post.Handler,
	uploadSweepJob *jobs.UploadSweepJob,
	db *gorm.DB,
	tokenService shared.TokenService,
	blocklist shared.TokenBlocklistService,
	esClient *elasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, blocklist, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Postboard API is healthy!"})
	})

	// Uploaded images are served straight off disk under the public base
	// path used when building image URLs.
	router.Static("/uploads", cfg.ImageStoragePath)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	postHandler.RegisterRoutes(v1, authMW, adminRoleMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		router:         router,
		cfg:            cfg,
		AppLogger:      logger,
		ESClient:       esClient,
		authHandler:    authHandler,
		postHandler:    postHandler,
		uploadSweepJob: uploadSweepJob,
		authMW:         authMW,
		adminRoleMW:    adminRoleMW,
	}, nil
}

// Router exposes the HTTP handler, used by tests that drive the server
// in-process instead of over a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the background jobs and the HTTP server. Blocks until the
// server stops.
func (s *Server) Start() error {
	if s.uploadSweepJob != nil {
		if err := s.uploadSweepJob.SetupAndStart(); err != nil {
			s.AppLogger.Error("Failed to setup and start upload sweep job", zap.Error(err))
		}
	} else {
		s.AppLogger.Info("Upload sweep job is not configured, skipping start.")
	}

	s.AppLogger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.AppLogger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.AppLogger.Info("HTTP Server stopped")
	return nil
}

// Shutdown gracefully stops the jobs and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.AppLogger.Info("Attempting graceful server shutdown...")
	if s.uploadSweepJob != nil {
		s.uploadSweepJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
