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

	"github.com/valuation-console/backend/internal/api"
	"github.com/valuation-console/backend/internal/auth"
	"github.com/valuation-console/backend/internal/config"
	"github.com/valuation-console/backend/internal/processing"
	"github.com/valuation-console/backend/internal/reports"
	"github.com/valuation-console/backend/internal/storage"
	"github.com/valuation-console/backend/internal/stream"
	"github.com/valuation-console/backend/internal/users"
	"github.com/valuation-console/backend/internal/wizard"
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

	// Load configuration
	configPath := filepath.Join(exeDir, "valuation-console.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		fmt.Println("Warning: auth.jwt_secret is empty; set JWT_SECRET before exposing this server")
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Processing backend client and progress stream consumer
	procClient := processing.NewClient(cfg.Processing.BaseURL,
		time.Duration(cfg.Processing.RequestTimeout)*time.Second)
	consumer := stream.NewConsumer(cfg.Processing.BaseURL)

	// Wizard session manager
	wizardMgr := wizard.NewManager(fileStore, procClient,
		wizard.ConsumerOpener{Consumer: consumer}, cfg.Wizard.MaxFilesPerSession)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Wizard.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			wizardMgr.CleanupOldSessions(cfg.SessionTimeout())
		}
	}()

	// Report and user stores
	reportStore := reports.NewStore()
	userStore := users.NewStore()

	// Seed the admin account
	if admin, err := userStore.SeedAdmin(cfg.Auth.AdminEmail, cfg.Auth.AdminName, cfg.Auth.AdminPassword); err != nil {
		fmt.Printf("Failed to seed admin account: %v\n", err)
		os.Exit(1)
	} else if admin != nil {
		fmt.Printf("Seeded admin account %s\n", admin.Email)
	}

	// Token service
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.TokenTTL())

	// API handlers
	handlers := api.NewHandlers(&api.Dependencies{
		Store:      fileStore,
		WizardMgr:  wizardMgr,
		Reports:    reportStore,
		Users:      userStore,
		Auth:       authSvc,
		Processing: procClient,
		Version:    Version,
	})

	e := echo.New()
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/progress") ||
				strings.HasSuffix(path, "/status") ||
				path == "/health"
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
				strings.Contains(path, "/files") ||
				strings.Contains(path, "/process") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout - query took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Accept") == "text/event-stream"
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	// Routes
	api.RegisterRoutes(e, handlers, authSvc)

	// Configure server
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Valuation Console Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:     %-45s║\n", configPath)
	fmt.Printf("║  Listen:     http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Processing: %-45s║\n", cfg.Processing.BaseURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
