package models

import "time"

type Student struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branch_id"`
	ClassID   *string   `json:"class_id,omitempty"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
