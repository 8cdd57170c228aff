package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/auxroom/syncd/internal/api"
	"github.com/auxroom/syncd/internal/config"
	"github.com/auxroom/syncd/internal/room"
	"github.com/auxroom/syncd/internal/system"
	"github.com/auxroom/syncd/internal/utils"
	"github.com/auxroom/syncd/internal/ws"
)

func main() {
	cfg, warnings, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Development:      cfg.Environment == "development",
		Level:            config.GetLogLevel(cfg.Logging.Level),
		OutputPaths:      cfg.Logging.OutputPaths,
		ErrorOutputPaths: cfg.Logging.ErrorOutputPaths,
	})
	defer logger.Sync()

	for _, warning := range warnings {
		logger.Warn(warning)
	}
	logger.Info("Starting syncd", "environment", cfg.Environment, "port", cfg.Server.Port)

	clock := room.SystemClock{}
	registry := room.NewRegistry(clock, logger)
	metrics := system.NewMetrics(registry.Count)
	wsServer := ws.NewServer(cfg, registry, clock, metrics, logger)
	router := api.NewRouter(wsServer, registry, metrics, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Failed to bind listener", err, "address", addr)
		logger.Sync()
		os.Exit(1)
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Listening", "address", addr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("WebSocket server shutdown error", err)
	}

	logger.Info("Server shutdown complete")
}
