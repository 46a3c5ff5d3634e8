// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/VA7DBI/scholarAPI/auth"
	"github.com/VA7DBI/scholarAPI/chat"
	"github.com/VA7DBI/scholarAPI/config"
	"github.com/VA7DBI/scholarAPI/docs"
	"github.com/VA7DBI/scholarAPI/middleware"
	"github.com/VA7DBI/scholarAPI/storage"
	"github.com/VA7DBI/scholarAPI/store"
	"github.com/VA7DBI/scholarAPI/vector"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
)

// @title           Scholar API Service
// @version         1.0
// @description     A research-paper upload and chat backend: PDFs in, semantic search and grounded answers out.
// @host           localhost:8080
// @BasePath       /
func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	registry, err := newRevocationRegistry(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize revocation registry: %v", err)
	}

	authority, err := auth.NewAuthority(cfg, registry)
	if err != nil {
		logrus.Fatalf("Failed to initialize token authority: %v", err)
	}

	pg, err := store.NewPostgresStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()
	if err := pg.Migrate(context.Background()); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	blobs, err := storage.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	vectors, err := vector.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize vector store: %v", err)
	}

	openaiClient := chat.NewOpenAIClient(cfg)
	chatService := chat.NewService(openaiClient, vectors, openaiClient)

	accounts := NewAccountService(cfg, pg, authority)
	papers := NewPaperService(cfg, pg, blobs, vectors, openaiClient, chatService)
	authMiddleware := middleware.NewAuthMiddleware(authority, pg)

	if cfg.API.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.API.SwaggerHost
	}

	r := gin.Default()
	registerRoutes(r, cfg, accounts, papers, authMiddleware)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logrus.WithField("addr", addr).Info("starting server")
	if err := r.Run(addr); err != nil {
		logrus.Fatalf("Server exited: %v", err)
	}
}

// newRevocationRegistry picks the registry backend: an in-process set
// for single-instance deployments, Redis when revocations must be
// visible across processes.
func newRevocationRegistry(cfg *config.Config) (auth.RevocationRegistry, error) {
	switch cfg.Auth.Registry.Backend {
	case "memory":
		return auth.NewMemoryRegistry(), nil
	case "redis":
		return auth.NewRedisRegistry(cfg)
	default:
		return nil, fmt.Errorf("unknown registry backend: %s", cfg.Auth.Registry.Backend)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, accounts *AccountService,
	papers *PaperService, authMiddleware *middleware.AuthMiddleware) {

	r.POST("/auth/signup", accounts.SignupHandler)
	r.POST("/auth/login", accounts.LoginHandler)
	r.POST("/auth/refresh", accounts.RefreshHandler)
	r.POST("/auth/logout", accounts.LogoutHandler)
	r.GET("/auth/me", authMiddleware.Handler(), accounts.MeHandler)

	protected := r.Group("/", authMiddleware.Handler())
	protected.POST("/papers/upload", papers.UploadHandler)
	protected.GET("/papers", papers.ListHandler)
	protected.GET("/papers/search/:term", papers.KeywordSearchHandler)
	protected.GET("/papers/:id", papers.GetHandler)
	protected.PUT("/papers/:id", papers.UpdateHandler)
	protected.DELETE("/papers/:id", papers.DeleteHandler)
	protected.POST("/chat/search", papers.SearchHandler)
	protected.POST("/chat/message", papers.MessageHandler)

	// These endpoints remain public
	r.GET("/health", healthCheck)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// @Summary     Health check endpoint
// @Description Get API health status
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Router      /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(200, HealthResponse{Status: "ok"})
}
