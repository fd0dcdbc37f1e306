package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	httptransport "github.com/spec-kit/snowsync/internal/api/http"
	"github.com/spec-kit/snowsync/internal/api/http/handlers"
	"github.com/spec-kit/snowsync/internal/app"
	"github.com/spec-kit/snowsync/internal/auth"
	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	base, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	logger := observability.FunctionLogger(base, cfg.App.Name, cfg.App.Stage)
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge, err := app.Build(ctx, cfg, logger, app.NeedAll)
	if err != nil {
		logger.Fatal("failed to build bridge", zap.Error(err))
	}

	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	} else {
		logger.Warn("AUTH_JWT_SECRET not provided; inbound authentication disabled")
	}

	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(server, logger, bridge.Metrics, cfg.App.RequestTimeout())

	gw := bridge.Gateway
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, bridge.Postgres, bridge.Redis),
		Jira:           handlers.NewGatewayHandler(gw, gateway.JiraProcessor(bridge.JiraInbound)),
		Snow:           handlers.NewGatewayHandler(gw, gateway.SnowProcessor(bridge.SnowInbound)),
		JSDAttachments: handlers.NewGatewayHandler(gw, gateway.JSDToS3(bridge.Attachments)),
		Presign:        handlers.NewGatewayHandler(gw, gateway.S3Presign(bridge.Presign)),
		Events: handlers.NewEventsHandler(map[string]handlers.Relay{
			"jsd":  bridge.Attachments.RelayToJSD,
			"snow": bridge.Attachments.RelayToSnow,
		}),
		Journal:        handlers.NewJournalHandler(bridge.Journal),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = server.ShutdownWithTimeout(10 * time.Second)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := bridge.Close(closeCtx); err != nil {
		logger.Warn("closing bridge", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
