package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskmanager/db"
	"taskmanager/internal/apperrors"
	"taskmanager/models"

	"github.com/sirupsen/logrus"
)

var errTaskNotFound = apperrors.New(apperrors.CodeNotFound, "Task not found")

// TaskService scopes every task operation to the requesting user.
// A task that exists but belongs to someone else is reported exactly like a
// task that does not exist.
type TaskService struct {
	Repository db.TaskRepository
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewTaskService(repo db.TaskRepository, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		Repository: repo,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func requireUser(user *models.User) error {
	if user == nil || user.ID == "" {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (s *TaskService) mapStoreError(op string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return errTaskNotFound
	}
	s.log.WithError(err).Errorf("TaskService.%s: store failure", op)
	return apperrors.Storage("failed to "+strings.ToLower(op)+" task", err)
}

// Create stores a new task owned by user
func (s *TaskService) Create(ctx context.Context, user *models.User, input models.TaskInput) (*models.Task, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "title is required")
	}

	now := s.now()
	task := &models.Task{
		ID:          db.GenerateID(),
		Title:       input.Title,
		Description: input.Description,
		DueDate:     models.NormalizeDueDate(input.DueDate),
		Priority:    input.Priority,
		Category:    input.Category,
		UserID:      user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Repository.Create(ctx, task); err != nil {
		return nil, s.mapStoreError("Create", err)
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": user.ID}).Debug("Task created")
	return task, nil
}

// List returns the user's tasks matching every predicate present in filter
func (s *TaskService) List(ctx context.Context, user *models.User, filter models.TaskFilter) ([]*models.Task, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	filter.DueDate = models.NormalizeDueDate(filter.DueDate)

	tasks, err := s.Repository.FindAll(ctx, user.ID, filter)
	if err != nil {
		return nil, s.mapStoreError("List", err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// Get returns one of the user's tasks
func (s *TaskService) Get(ctx context.Context, user *models.User, id string) (*models.Task, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	task, err := s.Repository.FindByIDAndOwner(ctx, id, user.ID)
	if err != nil {
		return nil, s.mapStoreError("Get", err)
	}
	return task, nil
}

// Update applies the present fields of patch to one of the user's tasks and
// returns the task as stored afterwards.
func (s *TaskService) Update(ctx context.Context, user *models.User, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if patch.Title.Set && (patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "") {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "title is required")
	}

	task, err := s.Repository.FindByIDAndOwner(ctx, id, user.ID)
	if err != nil {
		return nil, s.mapStoreError("Update", err)
	}
	if patch.IsEmpty() {
		return task, nil
	}

	patch.Apply(task)
	task.UpdatedAt = s.now()

	if err := s.Repository.Update(ctx, task); err != nil {
		return nil, s.mapStoreError("Update", err)
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": user.ID}).Debug("Task updated")
	return task, nil
}

// Delete removes one of the user's tasks
func (s *TaskService) Delete(ctx context.Context, user *models.User, id string) error {
	if err := requireUser(user); err != nil {
		return err
	}

	if err := s.Repository.DeleteByIDAndOwner(ctx, id, user.ID); err != nil {
		return s.mapStoreError("Delete", err)
	}

	s.log.WithFields(logrus.Fields{"task_id": id, "user_id": user.ID}).Debug("Task deleted")
	return nil
}
