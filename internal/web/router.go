package web

import (
	"net/http"

	"taskmanager/internal/auth"
	"taskmanager/internal/task"
	"taskmanager/middleware"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Routes collects everything the HTTP surface is built from
type Routes struct {
	Web        *WebHandler
	Auth       *auth.AuthHandlers
	Tasks      *task.TaskHandlers
	Middleware *middleware.Middleware
	Metrics    *middleware.Metrics
	Limiter    *rate.Limiter
	Log        logrus.FieldLogger
	CORSOrigin string
}

func (rt *Routes) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(rt.Metrics.Middleware)

	r.HandleFunc("/health", rt.Web.Health).Methods(http.MethodGet)
	r.Handle("/metrics", rt.Metrics.Handler()).Methods(http.MethodGet)

	// Public auth endpoints
	r.HandleFunc("/auth/register", rt.Auth.RegisterHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", rt.Auth.LoginHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", rt.Auth.LogoutHandler).Methods(http.MethodPost)

	// Authenticated endpoints
	protected := r.NewRoute().Subrouter()
	protected.Use(rt.Middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", rt.Auth.MeHandler).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", rt.Tasks.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", rt.Tasks.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", rt.Tasks.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", rt.Tasks.UpdateTask).Methods(http.MethodPut, http.MethodPatch)
	protected.HandleFunc("/tasks/{id}", rt.Tasks.DeleteTask).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(rt.Web.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(rt.Web.MethodNotAllowed)

	var handler http.Handler = r
	handler = middleware.RateLimiter(rt.Limiter)(handler)
	handler = middleware.SetupCORS(rt.CORSOrigin)(handler)
	handler = middleware.Recovery(rt.Log)(handler)
	handler = middleware.LoggingMiddleware(rt.Log)(handler)
	return handler
}
