package db

import (
	"context"
	"fmt"
	"taskmanager/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements the UserRepository interface for MongoDB
type MongoUserRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(client *mongo.Client, database, collection string) *MongoUserRepository {
	return &MongoUserRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

func (r *MongoUserRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Close closes the MongoDB connection
func (r *MongoUserRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// Create inserts a new user. Relies on the unique username index.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = GenerateID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.coll().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// FindByUsername finds a user by username
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByID finds a user by ID
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.coll().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

// MongoTaskRepository implements the TaskRepository interface for MongoDB
type MongoTaskRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoTaskRepository creates a new MongoTaskRepository
func NewMongoTaskRepository(client *mongo.Client, database, collection string) *MongoTaskRepository {
	return &MongoTaskRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

func (r *MongoTaskRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Close closes the MongoDB connection
func (r *MongoTaskRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// Create inserts a new task
func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = GenerateID()
	}

	if _, err := r.coll().InsertOne(ctx, task); err != nil {
		return fmt.Errorf("error inserting task: %w", err)
	}
	return nil
}

// FindAll returns the owner's tasks matching every predicate in filter
func (r *MongoTaskRepository) FindAll(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error) {
	query := bson.M{"user_id": ownerID}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}
	if filter.DueDate != nil {
		query["due_date"] = *filter.DueDate
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*models.Task{}
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, fmt.Errorf("error decoding task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// FindByIDAndOwner finds a task by ID among the owner's tasks
func (r *MongoTaskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Task, error) {
	var task models.Task
	err := r.coll().FindOne(ctx, bson.M{"_id": id, "user_id": ownerID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding task: %w", err)
	}
	return &task, nil
}

// Update replaces the stored document so that cleared fields are removed
func (r *MongoTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result, err := r.coll().ReplaceOne(ctx, bson.M{"_id": task.ID, "user_id": task.UserID}, task)
	if err != nil {
		return fmt.Errorf("error updating task: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDAndOwner deletes an owned task
func (r *MongoTaskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	result, err := r.coll().DeleteOne(ctx, bson.M{"_id": id, "user_id": ownerID})
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
