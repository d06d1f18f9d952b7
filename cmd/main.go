package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-catalog-service/internal/api"
	"storefront-catalog-service/internal/auth"
	"storefront-catalog-service/internal/blob"
	"storefront-catalog-service/internal/config"
	"storefront-catalog-service/internal/service"
	"storefront-catalog-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultAppName = "StorefrontCatalogService" // App name for logger
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s", cfg.AppEnv)

	// --- Database Connection ---
	db, err := openDB(cfg.Postgres)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database connection: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Printf("WARN: Error closing database on deferred cleanup: %v", err)
		}
	}()
	logger.Println("INFO: Database connection established and configured successfully.")

	if cfg.Postgres.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := store.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			logger.Fatalf("FATAL: Failed to apply migrations: %v", err)
		}
		logger.Println("INFO: Database migrations are up to date.")
	}
	dbStore := store.NewPostgresStore(db)

	// --- Supporting Infrastructure ---
	blobStore, err := setupBlobStore(cfg.Media)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize media storage: %v", err)
	}

	tokenStore, redisClient := setupTokenStore(logger, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Services ---
	productService := service.NewProductService(dbStore)
	reviewService := service.NewReviewService(dbStore)
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authService := auth.NewService(dbStore, jwtManager, tokenStore)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(productService, reviewService, authService, blobStore, cfg.Media.MaxUploadBytes)
	grpcAPIHandler := api.NewGRPCHandler(productService)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger, cfg.HttpServer.CORSAllowedOrigins)
	httpAPIHandler.RegisterRoutes(httpRouter) // Applies its own middleware, so it goes before any route below
	registerHealthCheck(httpRouter, logger, db)
	httpRouter.Handle("/metrics", promhttp.Handler())
	if cfg.Media.Backend == config.MediaBackendLocal {
		registerMediaRoutes(httpRouter, logger, cfg.Media)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(logger, grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen for gRPC on port %s: %v", cfg.GrpcServer.Port, err)
	}

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, dbStore, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

func openDB(pc config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", pc.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pc.MaxOpenConns)
	db.SetMaxIdleConns(pc.MaxIdleConns)
	db.SetConnMaxLifetime(pc.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func setupBlobStore(mc config.MediaConfig) (blob.Store, error) {
	if mc.Backend == config.MediaBackendMinio {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		minioStore, err := blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  mc.MinioEndpoint,
			AccessKey: mc.MinioAccessKey,
			SecretKey: mc.MinioSecretKey,
			Bucket:    mc.MinioBucket,
			Region:    mc.MinioRegion,
			UseSSL:    mc.MinioUseSSL,
			PublicURL: mc.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return minioStore, nil
	}
	if err := os.MkdirAll(mc.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return blob.NewLocalStore(mc.Root, mc.PublicBaseURL, mc.URLPrefix), nil
}

// setupTokenStore connects to Redis when configured. Without it, refresh
// tokens stay valid until they expire.
func setupTokenStore(logger *log.Logger, rc config.RedisConfig) (auth.TokenStore, *redis.Client) {
	if !rc.Enabled() {
		logger.Println("WARN: REDIS_ADDR not set, refresh-token revocation is disabled.")
		return auth.NopTokenStore{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatalf("FATAL: Failed to connect to Redis at %s: %v", rc.Addr, err)
	}
	logger.Printf("INFO: Connected to Redis at %s", rc.Addr)
	return auth.NewRedisTokenStore(client), client
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger, allowedOrigins []string) {
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(api.Metrics)
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, db *sql.DB) {
	healthPath := "/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.Printf("WARN: Health check DB ping failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func registerMediaRoutes(router *chi.Mux, logger *log.Logger, mc config.MediaConfig) {
	prefix := "/" + strings.Trim(mc.URLPrefix, "/") + "/"
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(mc.Root)))
	router.Handle(prefix+"*", fileServer)
	logger.Printf("INFO: Serving uploaded media from %s at %s", mc.Root, prefix)
}

func setupGRPCServer(logger *log.Logger, grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer()

	api.RegisterCatalogServiceServer(s, grpcAPIHandler)
	logger.Printf("INFO: %s gRPC service registered.", api.CatalogServiceName)

	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	logger.Println("INFO: gRPC health check service registered.")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	dbStore *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		logger.Println("INFO: Forcing gRPC server stop...")
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	if dbStore != nil {
		if err := dbStore.Close(); err != nil {
			logger.Printf("WARN: Error closing database connection: %v", err)
		}
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
