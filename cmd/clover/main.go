package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/container"
	"github.com/Ramsey-B/clover/internal/services/reconciliation"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/pipedrive"
	"github.com/Ramsey-B/clover/pkg/provision"
	"github.com/Ramsey-B/clover/pkg/redis"
	pipedriveroutes "github.com/Ramsey-B/clover/pkg/routes/pipedrive"
	submitroutes "github.com/Ramsey-B/clover/pkg/routes/submit"
	typeformroutes "github.com/Ramsey-B/clover/pkg/routes/typeform"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/submission"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
	"github.com/Ramsey-B/clover/pkg/typeform"
)

const (
	shutdownTimeout = 15 * time.Second
	containerID     = "clover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("clover exited with an error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL '%s': %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger.With(zap.String("service", cfg.AppName)), nil), nil
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	deps := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	deps.AddDependency(tracing.NewProvider(tracing.ProviderConfig{
		ServiceName: cfg.AppName,
		OTLPEnabled: cfg.OTLPEnabled,
		OTLP:        exporters.NewOTLPConfig(cfg.OTLPEndpoint, cfg.OTLPProtocol, cfg.OTLPInsecure),
	}, logger))

	var locker provision.Locker
	var lockPinger health.Pinger
	serverDeps := []string{"tracing"}
	if cfg.ProvisionLockEnabled {
		redisClient := redis.NewClient(cfg, logger)
		locker = redis.NewLocker(redisClient, "", cfg.ProvisionLockTTL)
		lockPinger = redisClient
		serverDeps = append(serverDeps, "redis")
		deps.AddDependency(startup.Func{
			Name:    "redis",
			OnStart: redisClient.Connect,
			OnStop:  func(context.Context) error { return redisClient.Close() },
		})
	}

	typeformClient := typeform.NewClient(cfg, newDoer("typeform", cfg, logger), logger)
	pipedriveClient := pipedrive.NewClient(cfg, newDoer("pipedrive", cfg, logger), logger)

	service := reconciliation.NewService(cfg, typeformClient, pipedriveClient, logger)
	provisioner := provision.NewProvisioner(pipedriveClient, locker, logger)
	router := submission.NewRouter(cfg, pipedriveClient, logger)
	checker := health.NewChecker(cfg, lockPinger)

	di, err := container.New(containerID, logger)
	if err != nil {
		return fmt.Errorf("failed to create dependency container: %w", err)
	}
	if err := registerServices(di, service, provisioner, pipedriveClient, router); err != nil {
		return err
	}

	e := newEcho(cfg, logger)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1", middleware.Container(containerID))
	pipedriveroutes.NewHandler(cfg).Register(api)
	typeformroutes.NewHandler(cfg).Register(api)
	submitroutes.Register(api)

	serverErr := make(chan error, 1)
	deps.AddDependency(startup.Func{
		Name:     "http-server",
		Requires: serverDeps,
		OnStart: func(context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				logger.Infof("Starting %s %s on %s", cfg.AppName, cfg.Version, addr)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()
			return nil
		},
		OnStop: e.Shutdown,
	})

	if err := deps.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-serverErr:
		logger.WithError(runErr).Error("HTTP server failed")
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := deps.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// registerServices binds the services behind the route interfaces.
func registerServices(di ectocontainer.DIContainer, service *reconciliation.Service, provisioner *provision.Provisioner, crm *pipedrive.Client, router *submission.Router) error {
	if err := ectoinject.RegisterInstance[pipedriveroutes.Comparer](di, service); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[pipedriveroutes.FieldProvisioner](di, provisioner); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[pipedriveroutes.CrmReader](di, crm); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[typeformroutes.FormReader](di, service); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[submitroutes.Router](di, router)
}

func newDoer(service string, cfg *config.Config, logger ectologger.Logger) httpclient.Doer {
	clientCfg := httpclient.DefaultConfig(service)
	clientCfg.Timeout = cfg.UpstreamTimeout
	return httpclient.NewClient(clientCfg, logger)
}

func newEcho(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
