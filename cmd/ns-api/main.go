package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlowSpectra/internal/api"
	"FlowSpectra/internal/config"
	"FlowSpectra/internal/engine/extractor"
	"FlowSpectra/internal/logging"
	"FlowSpectra/internal/metrics"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	m := metrics.New()
	ex, err := extractor.New(cfg.Extractor, m)
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}

	// Start HTTP server
	server := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           api.NewHandler(ex, m, cfg.API.MaxUploadBytes).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Start gRPC server
	grpcServer := api.NewGRPCServer(ex, int(cfg.API.MaxUploadBytes))
	lis, err := net.Listen("tcp", cfg.API.GRPCAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCAddr, err)
	}
	go func() {
		log.Printf("gRPC server starting on %s", cfg.API.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}
