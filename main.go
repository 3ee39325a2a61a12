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
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/sequoia/config"
	approvalrepo "github.com/Ramsey-B/sequoia/internal/repositories/approval"
	familyrepo "github.com/Ramsey-B/sequoia/internal/repositories/family"
	pendingchangerepo "github.com/Ramsey-B/sequoia/internal/repositories/pendingchange"
	personrepo "github.com/Ramsey-B/sequoia/internal/repositories/person"
	relationshiprepo "github.com/Ramsey-B/sequoia/internal/repositories/relationship"
	"github.com/Ramsey-B/sequoia/pkg/approval"
	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/events"
	"github.com/Ramsey-B/sequoia/pkg/family"
	"github.com/Ramsey-B/sequoia/pkg/graph"
	"github.com/Ramsey-B/sequoia/pkg/kafka"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/middleware"
	"github.com/Ramsey-B/sequoia/pkg/policy"
	changeroute "github.com/Ramsey-B/sequoia/pkg/routes/change"
	familyroute "github.com/Ramsey-B/sequoia/pkg/routes/family"
	"github.com/Ramsey-B/sequoia/pkg/routes/health"
	personroute "github.com/Ramsey-B/sequoia/pkg/routes/person"
	treeroute "github.com/Ramsey-B/sequoia/pkg/routes/tree"
	"github.com/Ramsey-B/sequoia/pkg/startup"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/Ramsey-B/sequoia/pkg/tracing/exporters"
	"github.com/Ramsey-B/sequoia/pkg/tree"
)

// version is set at build time via -ldflags
var version = "dev"

// dependency is a named startup unit managed by the startup orchestrator
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string          { return d.name }
func (d *dependency) DependsOn() []string      { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func main() {
	// .env is optional; real deployments inject env directly
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.TracingEnabled {
		shutdownTracing, err := initTracing(ctx, cfg)
		if err != nil {
			logger.WithError(err).Error("failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.WithError(err).Warn("failed to shut down tracing")
			}
		}()
	}

	var (
		sqlxDB      *sqlx.DB
		producer    *kafka.Producer
		graphClient *graph.Client
	)

	manager := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	manager.AddDependency(&dependency{
		name: "postgres",
		start: func(ctx context.Context) error {
			dsn := fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
				cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
			)
			db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			sqlxDB = db
			return nil
		},
		stop: func(ctx context.Context) error {
			if sqlxDB == nil {
				return nil
			}
			return sqlxDB.Close()
		},
	})

	manager.AddDependency(&dependency{
		name:      "migrations",
		dependsOn: []string{"postgres"},
		start: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return fmt.Errorf("failed to create migration driver: %w", err)
			}
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return migrations.Migrate(cfg.DatabaseName, driver)
		},
	})

	manager.AddDependency(&dependency{
		name: "kafka",
		start: func(ctx context.Context) error {
			producer = kafka.NewProducer(kafka.ProducerConfig{
				Brokers:            cfg.KafkaBrokers,
				EventsTopic:        cfg.KafkaEventsTopic,
				NotificationsTopic: cfg.KafkaNotificationsTopic,
				BatchSize:          cfg.KafkaBatchSize,
				BatchTimeout:       time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
				RequiredAcks:       cfg.KafkaRequiredAcks,
				Compression:        cfg.KafkaCompression,
			}, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if producer == nil {
				return nil
			}
			return producer.Close()
		},
	})

	if cfg.GraphDBEnabled {
		manager.AddDependency(&dependency{
			name: "graph",
			start: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, logger)
				if err != nil {
					return fmt.Errorf("failed to create graph client: %w", err)
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					return fmt.Errorf("failed to reach graph database: %w", err)
				}
				graphClient = client
				return nil
			},
			stop: func(ctx context.Context) error {
				if graphClient == nil {
					return nil
				}
				return graphClient.Close(ctx)
			},
		})
	}

	if err := manager.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	persons := personrepo.NewRepository(db, logger)
	relationships := relationshiprepo.NewRepository(db, logger)
	families := familyrepo.NewRepository(db, logger)
	changes := pendingchangerepo.NewRepository(db, logger)
	approvals := approvalrepo.NewRepository(db, logger)

	var projector *graph.Projector
	if graphClient != nil {
		projector = graph.NewProjector(graphClient, logger)
	}

	evaluator := policy.NewEvaluator()
	emitter := events.NewEmitter(producer, logger)
	coordinator := approval.NewCoordinator(changes, approvals, persons, relationships, families, evaluator, emitter, projector, logger)

	relatives := kinship.NewService(persons, relationships, logger, cfg.RelativeMaxDistance, cfg.SuggestionLimit)
	trees := tree.NewService(persons, relationships, ancestryCounter(projector), logger, cfg.TreeMaxDepth)
	resolver := family.NewResolver(persons, relationships, families, logger)
	aggregator := family.NewAggregator(persons, relationships, logger, cfg.TreeMaxDepth)
	familyService := family.NewService(persons, relationships, families, logger, cfg.TreeMaxDepth)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)

	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(sqlxDB, graphPinger(graphClient), version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	personroute.NewHandler(persons, coordinator, relatives, resolver, logger).Register(api.Group("/persons"))
	treeroute.NewHandler(trees, logger).Register(api.Group("/tree"))
	familyroute.NewHandler(familyService, aggregator, evaluator, logger).Register(api.Group("/families"))
	changeroute.NewHandler(coordinator, logger).Register(api.Group("/changes"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	go func() {
		checker.SetReady(true)
		logger.WithFields(map[string]any{"port": cfg.Port, "version": version}).Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	checker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down http server")
	}
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to stop dependencies")
	}
	logger.Info("Shutdown complete")
}

// graphPinger avoids handing the health checker a non-nil interface wrapping
// a nil client when projection is disabled.
func graphPinger(client *graph.Client) health.GraphPinger {
	if client == nil {
		return nil
	}
	return client
}

// ancestryCounter keeps the tree service's counter interface nil when graph
// projection is disabled, so it falls back to snapshot walks.
func ancestryCounter(projector *graph.Projector) tree.AncestryCounter {
	if projector == nil {
		return nil
	}
	return projector
}

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func initTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	exporterCfg := exporters.DefaultOTLPConfig()
	if cfg.TracingEndpoint != "" {
		exporterCfg.Endpoint = cfg.TracingEndpoint
	}
	if cfg.TracingProtocol != "" {
		exporterCfg.Protocol = cfg.TracingProtocol
	}
	exporterCfg.Insecure = cfg.TracingInsecure

	exporter, err := exporters.NewOTLPExporter(ctx, exporterCfg)
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}
