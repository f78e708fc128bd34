package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/lumenstudio/backoffice/docs"
	"github.com/lumenstudio/backoffice/internal/api/handler"
	"github.com/lumenstudio/backoffice/internal/api/middleware"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
	"github.com/lumenstudio/backoffice/internal/infrastructure/http/handlers"
)

const maxUploadSize = "64M"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log        zerolog.Logger
	Cookie     handler.CookieConfig
	Resolver   ports.SessionResolver
	Guard      ports.Guard
	Auth       ports.AuthService
	Tenants    ports.TenantService
	Lifecycle  ports.LifecycleService
	Reconciler ports.Reconciler
	Media      ports.MediaService
	Readiness  *handlers.HealthDependenciesHandler
}

var (
	anyActor    = domain.Kinds(domain.KindEndUser, domain.KindStudio, domain.KindMasterAdmin)
	tenantActor = domain.Kinds(domain.KindStudio, domain.KindMasterAdmin)
	masterAdmin = domain.Kinds(domain.KindMasterAdmin)
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem: "backoffice",
		Skipper:   skipOps,
	}))

	// --- Ops (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if d.Readiness != nil {
		e.GET("/health/ready", d.Readiness.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Media transfer (signed token or public key) ---
	mediaHandler := handler.NewMediaHandler(d.Media)
	e.PUT("/uploads/:studio_id/:name", mediaHandler.Upload, echomiddleware.BodyLimit(maxUploadSize))
	e.GET("/media/:studio_id/:name", mediaHandler.Download)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Authenticate(d.Resolver, d.Cookie.Name, d.Log))

	me := v1.Group("/me", middleware.Require(d.Guard, anyActor, "", d.Log))
	me.GET("", authHandler.Me)
	me.PUT("/password", authHandler.ChangePassword)

	adminHandler := handler.NewAdminHandler(d.Tenants, d.Auth, d.Lifecycle, d.Reconciler)
	admin := v1.Group("/admin", middleware.Require(d.Guard, masterAdmin, "", d.Log))
	admin.POST("/studios", adminHandler.CreateStudio)
	admin.PUT("/studios/:studio_id/active", adminHandler.SetStudioActive)
	admin.DELETE("/studios/:studio_id", adminHandler.DeleteStudio)
	admin.POST("/cleanup/reconcile", adminHandler.Reconcile)

	tenantHandler := handler.NewTenantHandler(d.Tenants, d.Lifecycle)
	studio := v1.Group("/studios/:studio_id", middleware.Require(d.Guard, tenantActor, "studio_id", d.Log))
	studio.GET("", tenantHandler.GetStudio)
	studio.PUT("", tenantHandler.UpdateStudio)
	studio.GET("/clients", tenantHandler.ListClients)
	studio.POST("/clients", tenantHandler.CreateClient)
	studio.GET("/clients/:client_id", tenantHandler.GetClient)
	studio.DELETE("/clients/:client_id", tenantHandler.DeleteClient)
	studio.GET("/clients/:client_id/projects", tenantHandler.ListProjects)
	studio.POST("/clients/:client_id/projects", tenantHandler.CreateProject)
	studio.GET("/projects/:project_id", tenantHandler.GetProject)
	studio.DELETE("/projects/:project_id", tenantHandler.DeleteProject)
	studio.GET("/projects/:project_id/sections", tenantHandler.ListSections)
	studio.POST("/projects/:project_id/sections", tenantHandler.CreateSection)
	studio.POST("/media/uploads", mediaHandler.RequestUpload)

	return e
}

func skipOps(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      skipOps,
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
