package dto

import (
	"time"

	"github.com/ninetyone/TodoApp/internal/model"
)

// CreateTodoRequest is the body of POST /todo.
type CreateTodoRequest struct {
	Text string `json:"text"`
}

// UpdateTodoRequest is the body of PATCH /todo/{id}. Omitted fields are left
// unchanged; unknown fields are ignored.
type UpdateTodoRequest struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Patch converts the request into a model patch.
func (r UpdateTodoRequest) Patch() model.TodoPatch {
	return model.TodoPatch{
		Text:      r.Text,
		Completed: r.Completed,
	}
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatorID   string     `json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TodoEnvelope wraps a single todo.
type TodoEnvelope struct {
	Todo *TodoResponse `json:"todo"`
}

// TodoListEnvelope wraps the caller's todos.
type TodoListEnvelope struct {
	Todos []*TodoResponse `json:"todos"`
}

// ToTodoResponse converts a Todo model to TodoResponse DTO.
func ToTodoResponse(t *model.Todo) *TodoResponse {
	return &TodoResponse{
		ID:          t.ID,
		Text:        t.Text,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatorID:   t.CreatorID,
		CreatedAt:   t.CreatedAt,
	}
}

// ToTodoListEnvelope converts todos to a list response. An empty slice encodes
// as [] rather than null.
func ToTodoListEnvelope(todos []*model.Todo) *TodoListEnvelope {
	out := make([]*TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, ToTodoResponse(t))
	}
	return &TodoListEnvelope{Todos: out}
}
