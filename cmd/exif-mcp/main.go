package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yerffejytnac/exif-mcp/internal/config"
	"github.com/yerffejytnac/exif-mcp/internal/server"
	"github.com/yerffejytnac/exif-mcp/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("exif-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// stdout carries the MCP protocol, so all logging goes to stderr.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.LogLevel)

	resolver := source.NewResolver(source.Options{
		HTTPClient:   &http.Client{Timeout: cfg.FetchTimeout},
		MaxBase64Len: cfg.MaxBase64Bytes,
	})
	srv := server.New(resolver)

	if cfg.HTTPAddr != "" {
		runHTTP(srv, cfg.HTTPAddr)
		return
	}

	log.Infof("Starting exif-mcp %s on stdio", Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runHTTP serves the JSON-RPC surface over HTTP until interrupted.
func runHTTP(srv *server.Server, addr string) {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting exif-mcp %s HTTP transport on %s", Version, addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Info("Server gracefully stopped")
}

// setupLogging configures the logger.
func setupLogging(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", logLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func printHelp() {
	fmt.Println("exif-mcp - MCP server for image metadata extraction")
	fmt.Println()
	fmt.Println("Usage: exif-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  EXIF_MCP_LOG_LEVEL=debug             Set the log level (debug, info, warn, error)")
	fmt.Println("  EXIF_MCP_HTTP_ADDR=:8080             Serve JSON-RPC over HTTP instead of stdio")
	fmt.Println("  EXIF_MCP_FETCH_TIMEOUT_SECONDS=30    Timeout for url image sources")
	fmt.Println("  EXIF_MCP_MAX_BASE64_BYTES=40000000   Ceiling for inline base64 sources")
	fmt.Println()
	fmt.Println("By default the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
