package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/site-vigilance/backend/internal/api"
	"github.com/site-vigilance/backend/internal/config"
	"github.com/site-vigilance/backend/internal/images"
	"github.com/site-vigilance/backend/internal/pipeline"
	"github.com/site-vigilance/backend/internal/report"
	"github.com/site-vigilance/backend/internal/session"
	"github.com/site-vigilance/backend/internal/sheets"
	"github.com/site-vigilance/backend/internal/storage"
	"github.com/site-vigilance/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "VigilanceReports.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Initialize report storage
	reportStore, err := storage.NewLocalStore(cfg.GetReportDir())
	if err != nil {
		fmt.Printf("Failed to initialize report storage: %v\n", err)
		os.Exit(1)
	}

	// Assemble the report pipeline
	fetcher, err := sheets.NewFetcher(time.Duration(cfg.Sheets.FetchTimeoutSeconds) * time.Second)
	if err != nil {
		fmt.Printf("Failed to initialize sheet fetcher: %v\n", err)
		os.Exit(1)
	}

	resolver := images.NewResolver(
		images.WithTimeout(time.Duration(cfg.Images.FetchTimeoutSeconds)*time.Second),
		images.WithMaxWidth(cfg.Images.MaxWidth),
		images.WithJPEGQuality(cfg.Images.JPEGQuality),
		images.WithWorkers(cfg.Images.Workers),
	)

	renderer, err := report.NewRenderer()
	if err != nil {
		fmt.Printf("Failed to initialize report renderer: %v\n", err)
		os.Exit(1)
	}

	pipe := pipeline.New(fetcher, resolver, renderer, cfg.Sheets.SheetID, cfg.Sheets.GID)

	// Initialize session manager
	sessionMgr := session.NewManager(fetcher, pipe, reportStore,
		cfg.Sheets.SheetID, cfg.Sheets.GID,
		cfg.Reports.RetentionCount,
		time.Duration(cfg.Reports.GenerationTimeoutMins)*time.Minute)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Reports.CleanupIntervalMins) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOld(time.Duration(cfg.Reports.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	// Initialize API handler
	h := api.NewHandler(sessionMgr, reportStore, Version)

	e := echo.New()
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") ||
				strings.HasSuffix(path, "/progress") ||
				path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/progress") ||
				strings.Contains(path, "/download") ||
				strings.Contains(path, "/datasets") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout - operation took too long",
	}))

	// Compression middleware
	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Advanced.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().Header.Get("Accept") == "text/event-stream" ||
					strings.Contains(c.Request().URL.Path, "/download")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		if embeddedMode {
			origins := strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		} else {
			// Development mode - only allow localhost
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}

	// API Routes
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", h.Health.HandleHealth)

	// Dataset management
	apiGroup.POST("/datasets", h.Data.HandleLoadDataset)
	apiGroup.GET("/datasets/:datasetId", h.Data.HandleGetDataset)
	apiGroup.GET("/datasets/:datasetId/records", h.Data.HandleGetRecords)
	apiGroup.GET("/datasets/:datasetId/records/msgpack", h.Data.HandleGetRecordsMsgpack)
	apiGroup.GET("/datasets/:datasetId/sites", h.Data.HandleGetSites)
	apiGroup.GET("/datasets/:datasetId/shifts", h.Data.HandleGetShifts)

	// Report generation
	apiGroup.POST("/reports", h.Report.HandleStartReport)
	apiGroup.GET("/reports/recent", h.Report.HandleRecentReports)
	apiGroup.GET("/reports/:jobId/status", h.Report.HandleReportStatus)
	apiGroup.GET("/reports/:jobId/progress", h.Report.HandleReportProgressStream)
	apiGroup.GET("/reports/:jobId/download", h.Report.HandleDownloadReport)

	// Conditional delete based on config
	if cfg.Reports.AllowDeletion {
		apiGroup.DELETE("/reports/:reportId", h.Report.HandleDeleteReport)
	}

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "Development"
	if embeddedMode {
		mode = "Single-Binary (Embedded UI)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Site Vigilance Report Server                   ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Sheet:     %-46s║\n", cfg.Sheets.SheetID)
	fmt.Printf("║  Reports:   %-46s║\n", cfg.GetReportDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}
