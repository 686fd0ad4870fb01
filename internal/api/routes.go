// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/valuation-console/backend/internal/auth"
	"github.com/valuation-console/backend/internal/processing"
	"github.com/valuation-console/backend/internal/reports"
	"github.com/valuation-console/backend/internal/storage"
	"github.com/valuation-console/backend/internal/users"
	"github.com/valuation-console/backend/internal/wizard"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.Store
	WizardMgr  *wizard.Manager
	Reports    *reports.Store
	Users      *users.Store
	Auth       *auth.Service
	Processing *processing.Client
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Users     *UsersHandler
	Reports   *ReportsHandler
	Wizard    *WizardHandler
	Documents *DocumentsHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Auth:      NewAuthHandler(deps.Users, deps.Auth),
		Users:     NewUsersHandler(deps.Users),
		Reports:   NewReportsHandler(deps.Reports),
		Wizard:    NewWizardHandler(deps.WizardMgr, deps.Reports),
		Documents: NewDocumentsHandler(deps.Processing, deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance.
// Everything under /api/v1 except the auth endpoints requires a bearer
// token.
func RegisterRoutes(e *echo.Echo, handlers *Handlers, authSvc *auth.Service) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	v1 := e.Group("/api/v1")
	v1.Use(auth.Middleware(authSvc, func(c echo.Context) bool {
		switch c.Path() {
		case "/api/v1/auth/login", "/api/v1/auth/register":
			return true
		}
		return false
	}))

	// Auth
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", handlers.Auth.HandleLogin)
	authGroup.POST("/register", handlers.Auth.HandleRegister)
	authGroup.POST("/logout", handlers.Auth.HandleLogout)
	authGroup.POST("/refresh", handlers.Auth.HandleRefresh)
	authGroup.GET("/me", handlers.Auth.HandleMe)

	// Users
	usersGroup := v1.Group("/users")
	usersGroup.GET("", handlers.Users.HandleListUsers)
	usersGroup.POST("", handlers.Users.HandleCreateUser)
	usersGroup.GET("/roles", handlers.Users.HandleListRoles)
	usersGroup.GET("/:id", handlers.Users.HandleGetUser)
	usersGroup.PATCH("/:id", handlers.Users.HandleUpdateUser)
	usersGroup.DELETE("/:id", handlers.Users.HandleDeleteUser)

	// Reports
	reportsGroup := v1.Group("/reports")
	reportsGroup.GET("", handlers.Reports.HandleListReports)
	reportsGroup.POST("", handlers.Reports.HandleCreateReport)
	reportsGroup.GET("/msgpack", handlers.Reports.HandleListReportsMsgpack)
	reportsGroup.GET("/tree", handlers.Reports.HandleFileTree)
	reportsGroup.GET("/stats", handlers.Reports.HandleDashboardStats)
	reportsGroup.GET("/:id", handlers.Reports.HandleGetReport)
	reportsGroup.PATCH("/:id", handlers.Reports.HandleUpdateReport)
	reportsGroup.PATCH("/:id/status", handlers.Reports.HandleUpdateStatus)
	reportsGroup.DELETE("/:id", handlers.Reports.HandleDeleteReport)
	reportsGroup.POST("/:id/comments", handlers.Reports.HandleAddComment)
	reportsGroup.GET("/:id/export/:format", handlers.Reports.HandleExport)

	// Wizard sessions
	wizardGroup := v1.Group("/wizard")
	wizardGroup.POST("", handlers.Wizard.HandleCreateSession)
	wizardGroup.GET("/:id", handlers.Wizard.HandleGetSession)
	wizardGroup.POST("/:id/name", handlers.Wizard.HandleSetProjectName)
	wizardGroup.POST("/:id/files", handlers.Wizard.HandleUploadFiles)
	wizardGroup.DELETE("/:id/files/:fileId", handlers.Wizard.HandleRemoveFile)
	wizardGroup.POST("/:id/selection", handlers.Wizard.HandleSetSelection)
	wizardGroup.POST("/:id/next", handlers.Wizard.HandleNext)
	wizardGroup.POST("/:id/back", handlers.Wizard.HandleBack)
	wizardGroup.POST("/:id/process", handlers.Wizard.HandleStartProcessing)
	wizardGroup.POST("/:id/save", handlers.Wizard.HandleSaveProject)
	wizardGroup.POST("/:id/restart", handlers.Wizard.HandleRestart)
	wizardGroup.GET("/:id/progress", handlers.Wizard.HandleProgressStream)

	// Document processing passthrough
	docsGroup := v1.Group("/documents")
	docsGroup.GET("/stored", handlers.Documents.HandleStoredDocuments)
	docsGroup.POST("/combine", handlers.Documents.HandleCombineDocuments)
	docsGroup.GET("/download-pdf/:combinationId", handlers.Documents.HandleDownloadPDF)
	docsGroup.GET("/status/:documentId", handlers.Documents.HandleDocumentStatus)
	docsGroup.GET("/health", handlers.Documents.HandleProcessingHealth)

	// Stored file downloads
	v1.GET("/files/:id", handlers.Documents.HandleGetFile)
}
