package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"taskmanager/db"
	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/logging"
	"taskmanager/internal/task"
	"taskmanager/internal/web"
	"taskmanager/middleware"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	logrus.SetOutput(log.Out)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)

	log.WithFields(logrus.Fields{
		"pid":     os.Getpid(),
		"runtime": runtime.GOOS + "/" + runtime.GOARCH,
		"go":      runtime.Version(),
	}).Info("Starting task manager backend")

	repoFactory, err := openStore(cfg, log)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DatabaseType, err)
	}

	// Create repositories
	userRepo := repoFactory.NewUserRepository()
	taskRepo := repoFactory.NewTaskRepository()

	// Initialize services with repositories
	tokens := auth.NewTokenIssuer(cfg.JwtKey, cfg.TokenTTL, cfg.TokenIssuer)
	authService := auth.NewAuthService(userRepo, tokens, cfg.BcryptCost, log.WithField("component", "auth"))
	taskService := task.NewTaskService(taskRepo, log.WithField("component", "tasks"))

	sessions := auth.NewSessionStore([]byte(cfg.SessionSecret), int(cfg.TokenTTL.Seconds()), cfg.SessionSecure)

	routes := &web.Routes{
		Web:        web.NewWebHandler(repoFactory, log),
		Auth:       auth.NewAuthHandlers(authService, sessions, log.WithField("component", "auth")),
		Tasks:      task.NewTaskHandlers(taskService),
		Middleware: middleware.NewMiddleware(authService, sessions),
		Metrics:    middleware.NewMetrics(),
		Limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		Log:        log,
		CORSOrigin: cfg.CORSAllowedOrigin,
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRoutes(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server is starting on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	waitForShutdown(server, serverErr, cfg, log)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := repoFactory.Close(closeCtx); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	log.Info("[SUCCESS] Services stopped")
}

// openStore connects to the configured database and prepares its schema
func openStore(cfg *config.Config, log logrus.FieldLogger) (*db.RepositoryFactory, error) {
	var sqliteDB *sql.DB
	var mongoClient *mongo.Client

	switch cfg.DatabaseType {
	case config.MySQL:
		log.Info("Using MySQL database")
		conn, err := db.ConnectToMySQL(context.Background(), cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeMySQLSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return db.NewMySQLRepositoryFactory(conn, cfg.DatabaseName), nil
	case config.MongoDB:
		log.Info("Using MongoDB database")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		client, err := db.ConnectToMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureMongoIndexes(ctx, client, cfg.DatabaseName); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		mongoClient = client
	default:
		log.Info("Using SQLite database")
		conn, err := db.ConnectToSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		sqliteDB = conn
	}

	return db.NewRepositoryFactory(sqliteDB, mongoClient, cfg.DatabaseName), nil
}

func waitForShutdown(server *http.Server, serverErr <-chan error, cfg *config.Config, log logrus.FieldLogger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Infof("Received shutdown signal: %v", sig)
	case err, ok := <-serverErr:
		if ok {
			log.WithError(err).Error("Server ListenAndServe error")
			return
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.Info("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server Shutdown error")
	}
}
