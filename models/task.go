package models

import (
	"encoding/json"
	"time"
)

// DueDateLayouts are the accepted due date formats. Values without a zone are UTC.
var DueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// Task represents a to-do item owned by exactly one user
type Task struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description *string    `json:"description" bson:"description,omitempty"`
	DueDate     *time.Time `json:"due_date" bson:"due_date,omitempty"`
	Priority    *int       `json:"priority" bson:"priority,omitempty"`
	Category    *string    `json:"category" bson:"category,omitempty"`
	UserID      string     `json:"user_id" bson:"user_id"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// TaskInput carries the fields accepted when creating a task.
// The owner is never part of the input.
type TaskInput struct {
	Title       string     `json:"title" validate:"notblank"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *int       `json:"priority"`
	Category    *string    `json:"category"`
}

// TaskPatch carries a partial update. Only fields that are Set are applied.
type TaskPatch struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	DueDate     Optional[time.Time] `json:"due_date"`
	Priority    Optional[int]       `json:"priority"`
	Category    Optional[string]    `json:"category"`
}

// IsEmpty reports whether the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.DueDate.Set && !p.Priority.Set && !p.Category.Set
}

// Apply copies every present field of the patch onto the task.
// Callers validate the title beforehand.
func (p TaskPatch) Apply(task *Task) {
	if p.Title.Set && p.Title.Value != nil {
		task.Title = *p.Title.Value
	}
	if p.Description.Set {
		task.Description = p.Description.Value
	}
	if p.DueDate.Set {
		task.DueDate = NormalizeDueDate(p.DueDate.Value)
	}
	if p.Priority.Set {
		task.Priority = p.Priority.Value
	}
	if p.Category.Set {
		task.Category = p.Category.Value
	}
}

// TaskFilter holds the equality predicates for listing tasks.
// A nil field imposes no constraint.
type TaskFilter struct {
	Category *string
	Priority *int
	DueDate  *time.Time
}

// NormalizeDueDate converts a due date to UTC with millisecond precision so that
// every store can compare it by exact equality.
func NormalizeDueDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Truncate(time.Millisecond)
	return &n
}

// ParseDueDate parses raw in the first of DueDateLayouts that fits
func ParseDueDate(raw string) (time.Time, error) {
	var err error
	for _, layout := range DueDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// dueDateText is a JSON string holding a due date in any of DueDateLayouts
type dueDateText time.Time

func (d *dueDateText) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseDueDate(raw)
	if err != nil {
		return err
	}
	*d = dueDateText(t)
	return nil
}

func (in *TaskInput) UnmarshalJSON(data []byte) error {
	type fields TaskInput
	aux := struct {
		*fields
		DueDate *dueDateText `json:"due_date"`
	}{fields: (*fields)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.DueDate = nil
	if aux.DueDate != nil {
		due := time.Time(*aux.DueDate)
		in.DueDate = &due
	}
	return nil
}

func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type fields TaskPatch
	aux := struct {
		*fields
		DueDate Optional[dueDateText] `json:"due_date"`
	}{fields: (*fields)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.DueDate = Optional[time.Time]{Set: aux.DueDate.Set}
	if aux.DueDate.Value != nil {
		due := time.Time(*aux.DueDate.Value)
		p.DueDate.Value = &due
	}
	return nil
}
