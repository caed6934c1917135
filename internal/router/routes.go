package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/orgscout/internal/auth"
	"github.com/octobees/orgscout/internal/config"
	"github.com/octobees/orgscout/internal/handler"
	middlewarepkg "github.com/octobees/orgscout/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Organizations *handler.OrganizationsHandler
	Runs          *handler.RunHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/login", handlers.Auth.Login)
	e.GET("/organizations", handlers.Organizations.List)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.POST("/runs", handlers.Runs.Start, middlewarepkg.RunRateLimiter(cfg.RateLimitRuns))
	secured.GET("/runs/:job_id", handlers.Runs.Status)
	secured.POST("/runs/:job_id/stop", handlers.Runs.Stop)

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.GET("/organizations/export", handlers.Organizations.ExportCSV)
}
