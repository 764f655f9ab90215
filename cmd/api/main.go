package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	"github.com/Ramsey-B/clover/pkg/coordinator"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/documents"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/recommendation"
	cloverredis "github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

const version = "1.0.0"

// application holds the store handles opened during startup
type application struct {
	cfg      *config.Config
	logger   ectologger.Logger
	db       *sqlx.DB
	mongo    *documents.Client
	graph    *graph.Client
	redis    *cloverredis.Client
	producer *kafka.Producer
}

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx := context.Background()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	defer shutdownTracing()

	app := &application{cfg: cfg, logger: logger}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&postgresDependency{app})
	boot.AddDependency(&mongoDependency{app})
	boot.AddDependency(&graphDependency{app})
	boot.AddDependency(&redisDependency{app})
	if cfg.KafkaEnabled {
		boot.AddDependency(&kafkaDependency{app})
	}

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start backing stores")
		os.Exit(1)
	}

	dbInstance := database.NewDatabaseInstance(app.db, logger)
	customers := repositories.NewCustomerRepository(dbInstance, logger)
	social := graph.NewSocialService(app.graph, logger)
	products := documents.NewProductService(app.mongo, logger)
	purchases := documents.NewPurchaseService(app.mongo, logger)
	cache := cloverredis.NewRecommendationStore(app.redis, cfg.RecommendationTTL, logger)

	var emitter events.Emitter = events.NoopEmitter{}
	if app.producer != nil {
		emitter = events.NewKafkaEmitter(app.producer, logger)
	}

	coord := coordinator.NewService(customers, social, products, purchases, cache, emitter, logger)
	recommendations := recommendation.NewService(social, products, purchases, cache, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(version,
		health.Check{Name: "postgres", Ping: func(ctx context.Context) error { return app.db.PingContext(ctx) }},
		health.Check{Name: "mongo", Ping: app.mongo.Ping},
		health.Check{Name: "graph", Ping: app.graph.VerifyConnectivity},
		health.Check{Name: "redis", Ping: app.redis.Ping},
	)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	handlers.NewCustomerHandler(coord, customers).RegisterRoutes(api)
	handlers.NewProductHandler(coord, products).RegisterRoutes(api)
	handlers.NewFriendshipHandler(coord).RegisterRoutes(api)
	handlers.NewPurchaseHandler(coord, purchases).RegisterRoutes(api)
	handlers.NewRecommendationHandler(recommendations).RegisterRoutes(api)

	checker.SetReady(true)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut the server down cleanly")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to stop backing stores cleanly")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapConfig := zap.NewProductionConfig()
		if level, parseErr := zap.ParseAtomicLevel(cfg.LogLevel); parseErr == nil {
			zapConfig.Level = level
		}
		zapLogger, err = zapConfig.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// initTracing wires the OTLP exporter when enabled; otherwise spans come
// from the default no-op provider.
func initTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if !cfg.OTLPEnabled {
		tracing.SetTracer(otel.Tracer(cfg.AppName))
		return func() {}, nil
	}

	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.OTLPEndpoint,
		Protocol: cfg.OTLPProtocol,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}

// postgresDependency opens the registry database and applies migrations
type postgresDependency struct {
	app *application
}

func (d *postgresDependency) Name() string { return "postgres" }

func (d *postgresDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)

	db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(d.app.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return err
	}

	d.app.db = db
	return nil
}

func (d *postgresDependency) Stop(ctx context.Context) error {
	if d.app.db == nil {
		return nil
	}
	return d.app.db.Close()
}

// mongoDependency opens the catalog and ledger database
type mongoDependency struct {
	app *application
}

func (d *mongoDependency) Name() string { return "mongo" }

func (d *mongoDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()

	client, err := documents.NewClient(connectCtx, cfg.MongoURI, cfg.MongoDatabase, d.app.logger)
	if err != nil {
		return err
	}

	d.app.mongo = client
	return nil
}

func (d *mongoDependency) Stop(ctx context.Context) error {
	if d.app.mongo == nil {
		return nil
	}
	return d.app.mongo.Close(ctx)
}

// graphDependency opens the social graph connection
type graphDependency struct {
	app *application
}

func (d *graphDependency) Name() string { return "graph" }

func (d *graphDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	client, err := graph.NewClient(graph.Config{
		Host:     cfg.GraphDBHost,
		Port:     cfg.GraphDBPort,
		Username: cfg.GraphDBUser,
		Password: cfg.GraphDBPassword,
	}, d.app.logger)
	if err != nil {
		return err
	}

	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return err
	}

	d.app.graph = client
	return nil
}

func (d *graphDependency) Stop(ctx context.Context) error {
	if d.app.graph == nil {
		return nil
	}
	return d.app.graph.Close(ctx)
}

// redisDependency opens the recommendation cache connection
type redisDependency struct {
	app *application
}

func (d *redisDependency) Name() string { return "redis" }

func (d *redisDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	client, err := cloverredis.NewClient(cloverredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, d.app.logger)
	if err != nil {
		return err
	}

	d.app.redis = client
	return nil
}

func (d *redisDependency) Stop(ctx context.Context) error {
	if d.app.redis == nil {
		return nil
	}
	return d.app.redis.Close()
}

// kafkaDependency opens the event producer
type kafkaDependency struct {
	app *application
}

func (d *kafkaDependency) Name() string { return "kafka" }

func (d *kafkaDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		WriteTimeout: 10 * time.Second,
		Compression:  cfg.KafkaCompression,
	}, d.app.logger)
	if err != nil {
		return err
	}

	d.app.producer = producer
	return nil
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.app.producer == nil {
		return nil
	}
	return d.app.producer.Close()
}
