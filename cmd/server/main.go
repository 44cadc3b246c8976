// Package main provides the operational study HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.ngs.io/opstudy/internal/adapter/store/csv"
	"go.ngs.io/opstudy/internal/adapter/store/objects"
	"go.ngs.io/opstudy/internal/adapter/weather"
	"go.ngs.io/opstudy/internal/config"
	httpHandler "go.ngs.io/opstudy/internal/http"
	"go.ngs.io/opstudy/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	issueToken := flag.String("issue-token", "", "Print a bearer token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "Validity of tokens printed by -issue-token")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("opstudy version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg := config.Load()

	if *issueToken != "" {
		if cfg.JWTSecret == "" {
			log.Fatalf("STUDY_JWT_SECRET must be set to issue tokens")
		}
		token, err := httpHandler.IssueToken(cfg.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	log.Printf("Starting operational study server...")
	log.Printf("Port: %s", cfg.Port)
	if cfg.GCSBucket != "" {
		log.Printf("Object source: gs://%s/%s", cfg.GCSBucket, cfg.ObjectPrefix)
	} else {
		log.Printf("Data directory: %s", cfg.DataDir)
	}

	ctx := context.Background()

	// Initialize stores.
	src, err := objects.New(ctx, cfg.DataDir, cfg.GCSBucket, cfg.ObjectPrefix)
	if err != nil {
		log.Fatalf("Failed to open object source: %v", err)
	}
	defer func() { _ = src.Close() }()
	csvStore := csv.NewStore(src)

	var sessionOpts []usecase.SessionOption
	if cfg.SnapshotPath != "" {
		log.Printf("Session snapshot: %s (max age %s)", cfg.SnapshotPath, cfg.SnapshotMaxAge)
		sessionOpts = append(sessionOpts, usecase.WithSnapshot(cfg.SnapshotPath, cfg.SnapshotMaxAge))
	}
	session := usecase.NewSession(csvStore, csvStore, sessionOpts...)

	// Reference tables and arrivals are loaded once for the lifetime of the process.
	if err := session.Load(ctx); err != nil {
		log.Fatalf("Failed to load session data: %v", err)
	}

	weatherClient := weather.NewClient(weather.WithBaseURL(cfg.IEMBaseURL))

	// Initialize use case.
	studyUC := usecase.NewStudyUseCase(session, weatherClient, csvStore)

	// Setup router.
	results := httpHandler.NewResultStore(cfg.ResultTTL)
	router := httpHandler.SetupRouter(studyUC, results, httpHandler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
	})

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET  /v1/airports")
	log.Printf("  - GET  /v1/airports/:icao/runways")
	log.Printf("  - POST /v1/studies")
	log.Printf("  - GET  /v1/studies/:id/download")
	if cfg.JWTSecret != "" {
		log.Printf("Bearer authentication enabled on /v1")
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Operational Study Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  opstudy-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help                 Show this help message")
	fmt.Println("  -version              Show version information")
	fmt.Println("  -issue-token SUBJECT  Print a bearer token signed with STUDY_JWT_SECRET")
	fmt.Println("  -token-ttl DURATION   Token validity (default: 720h)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                Local data root (default: ./data)")
	fmt.Println("  GCS_BUCKET              Read tables from this bucket instead of DATA_DIR")
	fmt.Println("  OBJECT_PREFIX           Object prefix inside the bucket or data root")
	fmt.Println("  SNAPSHOT_PATH           Session snapshot file (optional)")
	fmt.Println("  SNAPSHOT_MAX_AGE        Reload tables when the snapshot is older (default: 24h)")
	fmt.Println("  IEM_BASE_URL            ASOS archive endpoint")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  STUDY_JWT_SECRET        Enable HS256 bearer auth on /v1 (optional)")
	fmt.Println("  RESULT_TTL              How long bundles stay downloadable (default: 1h)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  opstudy-server")
	fmt.Println()
	fmt.Println("  # Read tables from a bucket")
	fmt.Println("  GCS_BUCKET=internal-projects OBJECT_PREFIX=operational_studies opstudy-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                     Health check")
	fmt.Println("  GET  /v1/airports                Airports with lighting data")
	fmt.Println("  GET  /v1/airports/:icao/runways  Runways of an airport")
	fmt.Println("  POST /v1/studies                 Run a study")
	fmt.Println("  GET  /v1/studies/:id/download    Download the study bundle")
	fmt.Println()
}
