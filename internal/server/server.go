package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"temporal-warehouse/internal/config"
	"temporal-warehouse/internal/database"
	custommiddleware "temporal-warehouse/internal/middleware"
	"temporal-warehouse/internal/repository"
	"temporal-warehouse/internal/service"
	"temporal-warehouse/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService *database.Service) *Server {
	db := dbService.DB()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"database": dbService.Health(),
		})
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// Initialize services
	productService := service.NewProductService(db, productRepo, ledgerRepo)
	stockService := service.NewStockService(db, productRepo, ledgerRepo)
	historyService := service.NewHistoryService(productRepo, ledgerRepo)
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(userService, logger)
	productHandler := transport.NewProductHandler(productService, historyService, logger)
	stockHandler := transport.NewStockHandler(stockService, logger)
	historicalHandler := transport.NewHistoricalHandler(historyService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Rate limiting sits in front of auth and stock adjustments, where
	// conflict-driven retries concentrate the traffic
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	authRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)
	stockRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:stock",
	}, logger)

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware, authRateLimit)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	stockHandler.RegisterRoutes(router, authMiddleware, stockRateLimit)
	historicalHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
