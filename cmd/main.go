package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	"github.com/segmentio/kafka-go"

	_ "github.com/sbilibin2017/gw-recipe-book/docs"
	"github.com/sbilibin2017/gw-recipe-book/internal/blobstore"
	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/handlers"
	"github.com/sbilibin2017/gw-recipe-book/internal/jwt"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/middlewares"
	"github.com/sbilibin2017/gw-recipe-book/internal/migrations"
	"github.com/sbilibin2017/gw-recipe-book/internal/password"
	"github.com/sbilibin2017/gw-recipe-book/internal/repositories"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything read from the environment.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	// Empty RedisHost disables the body cache.
	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisBodyTTL      time.Duration

	// Empty KafkaBrokers disables recipe events.
	KafkaBrokers string
	KafkaTopic   string

	JWTSecretKey string
	JWTExp       time.Duration

	BlobBackend string
	BlobDir     string
	S3Bucket    string
	S3          blobstore.S3Config

	SearchDefaultLimit int
	SearchMaxLimit     int

	// Empty ReconcileSchedule disables the reconciler.
	ReconcileSchedule string
	ReconcileGrace    time.Duration
}

// @title gw-recipe-book API
// @version 1.0.0
// @description Recipe book service: user accounts and recipes with ownership-checked edits
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application, database, Redis, Kafka, blob store, JWT and search settings.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string, dst *int) {
		if err != nil {
			return
		}
		if *dst, err = strconv.Atoi(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
	}
	getSeconds := func(key, defaultValue string, dst *time.Duration) {
		var n int
		getInt(key, defaultValue, &n)
		*dst = time.Duration(n) * time.Second
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	getInt("POSTGRES_PORT", "5432", &cfg.PGPort)
	getInt("POSTGRES_MAX_OPEN_CONNS", "16", &cfg.PGMaxOpenConns)
	getInt("POSTGRES_MAX_IDLE_CONNS", "8", &cfg.PGMaxIdleConns)

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	getInt("REDIS_PORT", "6379", &cfg.RedisPort)
	getInt("REDIS_DB", "0", &cfg.RedisDB)
	getInt("REDIS_POOL_SIZE", "10", &cfg.RedisPoolSize)
	getInt("REDIS_MIN_IDLE_CONNS", "2", &cfg.RedisMinIdleConns)
	getSeconds("REDIS_BODY_TTL_SECOND", "300", &cfg.RedisBodyTTL)

	// Kafka config
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", "")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "recipe-events")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	getSeconds("JWT_EXP_SECOND", "3600", &cfg.JWTExp)

	// Blob store config
	cfg.BlobBackend = getEnv("BLOB_BACKEND", "fs")
	cfg.BlobDir = getEnv("BLOB_DIR", "data/blobs")
	cfg.S3Bucket = getEnv("S3_BUCKET", "recipes")
	cfg.S3 = blobstore.S3Config{
		Region:    getEnv("S3_REGION", "us-east-1"),
		Endpoint:  getEnv("S3_ENDPOINT", ""),
		AccessKey: getEnv("S3_ACCESS_KEY", ""),
		SecretKey: getEnv("S3_SECRET_KEY", ""),
	}

	// Search config
	getInt("SEARCH_DEFAULT_LIMIT", strconv.Itoa(services.DefaultSearchLimit), &cfg.SearchDefaultLimit)
	getInt("SEARCH_MAX_LIMIT", strconv.Itoa(services.MaxSearchLimit), &cfg.SearchMaxLimit)

	// Reconciler config
	cfg.ReconcileSchedule = getEnv("RECONCILE_SCHEDULE", "@every 10m")
	getSeconds("RECONCILE_GRACE_SECOND", "600", &cfg.ReconcileGrace)

	return cfg, err
}

// newBlobStore selects the blob backend named by cfg.BlobBackend.
func newBlobStore(ctx context.Context, cfg config) (services.BlobStore, error) {
	switch cfg.BlobBackend {
	case "fs":
		store, err := blobstore.NewFileStore(cfg.BlobDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		client, err := blobstore.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return blobstore.NewS3Store(client, cfg.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

type accountService interface {
	handlers.Registerer
	handlers.Loginer
	handlers.AccountManager
}

type recipeService interface {
	handlers.RecipeCreator
	handlers.RecipeGetter
	handlers.RecipeSearcher
	handlers.RecipeUpdater
	handlers.RecipeDeleter
}

// newRouter mounts the API under /api/v1 and the swagger UI under /swagger.
func newRouter(cfg config, authorizer middlewares.Authorizer, accounts accountService, recipes recipeService) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Named("http")))
	r.Use(middlewares.CORSMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", handlers.NewRegisterHandler(accounts))
		r.Post("/login", handlers.NewLoginHandler(accounts))
		r.Get("/recipes", handlers.NewSearchRecipesHandler(recipes))
		r.Get("/recipes/{id}", handlers.NewGetRecipeHandler(recipes))
		r.Get("/recipes/{id}/image", handlers.NewGetRecipeImageHandler(recipes))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(authorizer))
			r.Get("/login", handlers.NewVerifyTokenHandler())
			r.Get("/users/me", handlers.NewProfileHandler(accounts))
			r.Put("/users/me", handlers.NewUpdateAccountHandler(accounts))
			r.Delete("/users/me", handlers.NewDeleteAccountHandler(accounts))
			r.Post("/recipes", handlers.NewCreateRecipeHandler(recipes))
			r.Put("/recipes/{id}", handlers.NewUpdateRecipeHandler(recipes))
			r.Delete("/recipes/{id}", handlers.NewDeleteRecipeHandler(recipes))
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))
	return r
}

// run initializes the logger, database, blob store, optional Redis cache and
// Kafka writer, the reconciler schedule and the HTTP server. It blocks until
// ctx is cancelled or a shutdown signal arrives.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, "service", "gw-recipe-book", "version", buildVersion); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infof("Connecting to PostgreSQL at %s:%d/%s", cfg.PGHost, cfg.PGPort, cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := migrations.Up(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Blob store
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	logger.Log.Infof("Blob store backend %s", cfg.BlobBackend)

	// Initialize JWT codec and authorization gate
	codec := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.JWTExp))
	authGate := gate.New(codec)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	recipeReadRepo := repositories.NewRecipeReadRepository(db)
	recipeWriteRepo := repositories.NewRecipeWriteRepository(db)

	recipeOpts := []services.RecipeOption{
		services.WithSearchLimits(cfg.SearchDefaultLimit, cfg.SearchMaxLimit),
	}

	// Connect to Redis
	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis connection error: %w", err)
		}
		defer rdb.Close()
		recipeOpts = append(recipeOpts, services.WithBodyCache(
			repositories.NewRecipeBodyCacheRepository(rdb, cfg.RedisBodyTTL),
		))
	}

	// Kafka writer
	if cfg.KafkaBrokers != "" {
		kw := &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
		defer kw.Close()
		recipeOpts = append(recipeOpts, services.WithKafkaWriter(kw))
	}

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, password.New(0), codec)
	recipeService := services.NewRecipeService(authGate, userReadRepo, recipeReadRepo, recipeWriteRepo, blobs, recipeOpts...)

	// Schedule reconciliation of rows left without a body
	if cfg.ReconcileSchedule != "" {
		reconciler := services.NewReconciler(recipeReadRepo, recipeWriteRepo, blobs, cfg.ReconcileGrace)
		c := cron.New()
		err := c.AddFunc(cfg.ReconcileSchedule, func() {
			n, err := reconciler.Run(ctx)
			if err != nil {
				logger.Log.Errorw("reconcile failed", "marked", n, "error", err)
				return
			}
			logger.Log.Infow("reconcile finished", "marked", n)
		})
		if err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           newRouter(cfg, authGate, authService, recipeService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
