// Package main provides the rainfall seasonal-profile API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.ngs.io/rainfall-api/internal/adapter/source"
	"go.ngs.io/rainfall-api/internal/adapter/source/chirps"
	"go.ngs.io/rainfall-api/internal/adapter/source/gridfile"
	"go.ngs.io/rainfall-api/internal/config"
	httpHandler "go.ngs.io/rainfall-api/internal/http"
	"go.ngs.io/rainfall-api/internal/observability"
	"go.ngs.io/rainfall-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("rainfall-api version %s\n", version)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	// Select the precipitation source: a local NetCDF cube takes precedence,
	// otherwise the remote CHIRPS-style service is used.
	var src source.Source
	if cfg.NetCDFPath != "" {
		logger.Info("using local NetCDF source", "path", cfg.NetCDFPath, "epoch", cfg.NetCDFEpoch)
		src = gridfile.NewStore(cfg.NetCDFPath, cfg.NetCDFEpoch)
	} else {
		logger.Info("using remote precipitation service", "base_url", cfg.BaseURL, "dataset", cfg.Dataset)
		src = chirps.NewClient(cfg.BaseURL, cfg.Dataset, cfg.HTTPTimeout, logger)
	}

	manager := usecase.NewManager(src, logger, metrics, cfg.Smoothing)
	router := httpHandler.SetupRouter(manager, cfg.CORSAllowedOrigins)

	addr := ":" + cfg.Port
	logger.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Rainfall API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  rainfall-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated allowed origins (default: all origins)")
	fmt.Println("  RAINFALL_BASE_URL       Remote precipitation service base URL")
	fmt.Println("  RAINFALL_DATASET        Dataset name to query (default: chirps)")
	fmt.Println("  RAINFALL_HTTP_TIMEOUT   Remote request timeout (default: 30s)")
	fmt.Println("  RAINFALL_NETCDF_PATH    Path to a local NetCDF precipitation cube (optional)")
	fmt.Println("  RAINFALL_NETCDF_EPOCH   Time-axis origin date for the cube (default: 1980-01-01)")
	fmt.Println("  RAINFALL_SMOOTHING      Smoothness-penalty constant (default: 1.0)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                                     Health check")
	fmt.Println("  POST /v1/sessions                                Create a session")
	fmt.Println("  PUT  /v1/sessions/:id/location                   Select a coordinate")
	fmt.Println("  PUT  /v1/sessions/:id/range                      Set the date range")
	fmt.Println("  PUT  /v1/sessions/:id/parameters                 Set fit parameters")
	fmt.Println("  POST /v1/sessions/:id/fetch                      Fetch trigger")
	fmt.Println("  POST /v1/sessions/:id/profile                    Generate trigger")
	fmt.Println("  GET  /v1/sessions/:id/observations               Cached observations")
	fmt.Println("  GET  /v1/sessions/:id/profile                    Cached profile")
	fmt.Println("  GET  /v1/sessions/:id/export/observations.csv   CSV export")
	fmt.Println("  GET  /v1/sessions/:id/export/profile.csv        CSV export")
	fmt.Println()
}
