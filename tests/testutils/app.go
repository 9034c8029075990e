package testutils

import (
	"net/http"

	"taskmanager/db"
	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/logging"
	"taskmanager/internal/task"
	"taskmanager/internal/web"
	"taskmanager/middleware"

	"golang.org/x/time/rate"
)

// NewTestHandler wires the full HTTP stack over factory the same way the
// server binary does, with logging discarded.
func NewTestHandler(cfg *config.Config, factory *db.RepositoryFactory) http.Handler {
	log := logging.Discard()

	tokens := auth.NewTokenIssuer(cfg.JwtKey, cfg.TokenTTL, cfg.TokenIssuer)
	authService := auth.NewAuthService(factory.NewUserRepository(), tokens, cfg.BcryptCost, log)
	taskService := task.NewTaskService(factory.NewTaskRepository(), log)
	sessions := auth.NewSessionStore([]byte(cfg.SessionSecret), int(cfg.TokenTTL.Seconds()), cfg.SessionSecure)

	routes := &web.Routes{
		Web:        web.NewWebHandler(factory, log),
		Auth:       auth.NewAuthHandlers(authService, sessions, log),
		Tasks:      task.NewTaskHandlers(taskService),
		Middleware: middleware.NewMiddleware(authService, sessions),
		Metrics:    middleware.NewMetrics(),
		Limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		Log:        log,
		CORSOrigin: cfg.CORSAllowedOrigin,
	}
	return routes.SetupRoutes()
}
