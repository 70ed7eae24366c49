package todo

import "time"

type Todo struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Title string `json:"title"`
}

// UpdateRequest is a sparse patch: a nil field is left untouched, a non-nil
// field is applied even when it holds the zero value.
type UpdateRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
