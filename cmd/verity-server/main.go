package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"blockverity/pkg/app"
	"blockverity/pkg/config"
	"blockverity/pkg/logging"
	"blockverity/pkg/server"

	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Config
	cfgFile := flag.String("config", "", "config file (default is ./.verity/config.yaml or $HOME/.verity/config.yaml)")
	addr := flag.String("addr", "", "listen address (default is server.addr from config)")
	flag.Parse()

	if _, err := config.Load(*cfgFile); err != nil {
		return err
	}
	cfg, err := config.FromViper()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Init Core Application
	application, err := app.NewApp(ctx, cfg, afero.NewOsFs(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warningf("close: %v", err)
		}
	}()

	// 3. Setup Network
	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}

	// 4. Setup gRPC Server
	grpcServer := server.New(application)

	// 5. Start Server (Async)
	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
		serveErr <- grpcServer.Serve(lis)
	}()

	// 6. Graceful Shutdown
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")
	grpcServer.GracefulStop()
	return nil
}
