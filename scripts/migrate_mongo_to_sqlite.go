package main

import (
	"context"
	"errors"
	"time"

	"taskmanager/db"
	"taskmanager/internal/config"
	"taskmanager/internal/logging"
	"taskmanager/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cursor is the subset of *mongo.Cursor the copy loops read from
type cursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.MongoURI == "" {
		log.Fatal("MONGODB_URI is not set. Migration cannot continue.")
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "data/" + cfg.DatabaseName + ".db"
	}

	log.Info("Connecting to MongoDB...")
	mongoClient, err := db.ConnectToMongo(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	log.Info("Connecting to SQLite...")
	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer sqliteDB.Close()

	if err := db.InitializeSchema(sqliteDB); err != nil {
		log.Fatalf("Failed to initialize SQLite schema: %v", err)
	}

	database := mongoClient.Database(cfg.DatabaseName)
	sort := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	// Users first so every task finds its owner row
	log.Info("Migrating users...")
	if err := withCursor(database.Collection(db.UsersCollection), sort, func(ctx context.Context, c cursor) {
		migrateUsers(ctx, c, db.NewSQLiteUserRepository(sqliteDB), log)
	}); err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	log.Info("Migrating tasks...")
	if err := withCursor(database.Collection(db.TasksCollection), sort, func(ctx context.Context, c cursor) {
		migrateTasks(ctx, c, db.NewSQLiteTaskRepository(sqliteDB), log)
	}); err != nil {
		log.Fatalf("Failed to fetch tasks: %v", err)
	}

	log.Info("Migration completed successfully!")
	log.Infof("SQLite database is available at: %s", cfg.SQLitePath)
	log.Info("To use SQLite, set DATABASE_TYPE=sqlite in your .env file")
}

func withCursor(collection *mongo.Collection, opts *options.FindOptions, fn func(context.Context, cursor)) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	fn(ctx, c)
	return nil
}

// migrateUsers copies every user. Usernames already present are skipped so
// the migration can be re-run.
func migrateUsers(ctx context.Context, c cursor, repo db.UserRepository, log logrus.FieldLogger) (migrated, skipped int) {
	for c.Next(ctx) {
		var user models.User
		if err := c.Decode(&user); err != nil {
			log.WithError(err).Warn("Failed to decode user")
			continue
		}

		if err := repo.Create(ctx, &user); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				skipped++
				continue
			}
			log.WithError(err).WithField("username", user.Username).Warn("Failed to create user in SQLite")
			continue
		}
		migrated++
	}
	if err := c.Err(); err != nil {
		log.WithError(err).Error("User cursor failed")
	}
	log.WithFields(logrus.Fields{"migrated": migrated, "skipped": skipped}).Info("Migrated users")
	return migrated, skipped
}

// migrateTasks copies every task. Task IDs already present are skipped.
func migrateTasks(ctx context.Context, c cursor, repo db.TaskRepository, log logrus.FieldLogger) (migrated, skipped int) {
	for c.Next(ctx) {
		var task models.Task
		if err := c.Decode(&task); err != nil {
			log.WithError(err).Warn("Failed to decode task")
			continue
		}
		task.DueDate = models.NormalizeDueDate(task.DueDate)

		if err := repo.Create(ctx, &task); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				skipped++
				continue
			}
			log.WithError(err).WithField("task_id", task.ID).Warn("Failed to create task in SQLite")
			continue
		}
		migrated++
	}
	if err := c.Err(); err != nil {
		log.WithError(err).Error("Task cursor failed")
	}
	log.WithFields(logrus.Fields{"migrated": migrated, "skipped": skipped}).Info("Migrated tasks")
	return migrated, skipped
}
