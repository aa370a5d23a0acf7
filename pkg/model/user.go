package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Email       string    `json:"email" bson:"email" validate:"required,email,max=254"`
	DisplayName string    `json:"display_name" bson:"display_name" validate:"required,min=2,max=100"`
	Phone       string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Role        string    `json:"role" bson:"role" validate:"required,oneof=admin user"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type UserUpdate struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}
