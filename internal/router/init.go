package router

import (
	"time"

	"github.com/oksasatya/taskhive/internal/container"
	handlers "github.com/oksasatya/taskhive/internal/interface/http"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
	"github.com/oksasatya/taskhive/internal/router/modules"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

// InitModules builds the HTTP handlers from c and registers their modules.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	// per-user budget shared by every protected route
	userLimiter := middleware.RateLimit(c.Redis, 600, time.Minute, middleware.KeyByUserID(), nil)

	authHandler := handlers.NewAuthHandler(c.Credentials, c.Sessions, c.Audit, c.Logger, cookies)
	tabHandler := handlers.NewTabHandler(c.Profiles, c.Orchestrator, c.Logger)
	taskHandler := handlers.NewTaskHandler(c.Tasks, c.Logger)
	searchHandler := handlers.NewSearchHandler(c.Search, c.Logger)

	r.Add(modules.NewAuthModule(authHandler, c.Sessions, c.Redis, cfg.AuthRateLimit, cfg.AuthRateWindow))
	r.Add(modules.NewTabModule(tabHandler, c.Sessions, userLimiter))
	r.Add(modules.NewTaskModule(taskHandler, c.Sessions, userLimiter))
	r.Add(modules.NewSearchModule(searchHandler, c.Sessions, userLimiter))
	if cfg.MetricsEnabled {
		r.AddRoot(modules.NewMetricsModule(c.Redis))
	}
}
