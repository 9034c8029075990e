package task

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/auth"
	"taskmanager/internal/response"
	"taskmanager/internal/validation"
	"taskmanager/models"

	"github.com/gorilla/mux"
)

type TaskHandlers struct {
	Service *TaskService
}

func NewTaskHandlers(service *TaskService) *TaskHandlers {
	return &TaskHandlers{Service: service}
}

func (h *TaskHandlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var input models.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request format", err))
		return
	}
	if err := validation.Struct(input); err != nil {
		response.Error(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *TaskHandlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		response.Error(w, err)
		return
	}

	tasks, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandlers) GetTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	found, err := h.Service.Get(r.Context(), user, mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, found)
}

func (h *TaskHandlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request format", err))
		return
	}

	updated, err := h.Service.Update(r.Context(), user, mux.Vars(r)["id"], patch)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *TaskHandlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.Service.Delete(r.Context(), user, mux.Vars(r)["id"]); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Message{Message: "Task deleted"})
}

// ParseFilter reads category, priority and due_date from the query string.
// Empty parameters are treated as absent.
func ParseFilter(query url.Values) (models.TaskFilter, error) {
	var filter models.TaskFilter

	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}

	if raw := strings.TrimSpace(query.Get("priority")); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperrors.New(apperrors.CodeInvalidArgument, "priority must be an integer")
		}
		filter.Priority = &priority
	}

	if raw := strings.TrimSpace(query.Get("due_date")); raw != "" {
		due, err := models.ParseDueDate(raw)
		if err != nil {
			return filter, apperrors.New(apperrors.CodeInvalidArgument, "due_date must be an RFC 3339 timestamp")
		}
		filter.DueDate = &due
	}

	return filter, nil
}
