package model

import "time"

type Location struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  string    `json:"category_id" bson:"category_id" validate:"required,mongodb"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=200"`
	City        string    `json:"city" bson:"city" validate:"required,min=2,max=60"`
	Latitude    float64   `json:"latitude" bson:"latitude" validate:"min=-90,max=90"`
	Longitude   float64   `json:"longitude" bson:"longitude" validate:"min=-180,max=180"`
	ImageURLs   []string  `json:"image_urls,omitempty" bson:"image_urls,omitempty" validate:"omitempty,max=10,dive,http_url"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type LocationUpdate struct {
	Name        string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  string    `json:"category_id,omitempty" validate:"omitempty,mongodb"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=200"`
	City        string    `json:"city,omitempty" validate:"omitempty,min=2,max=60"`
	Latitude    *float64  `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64  `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	ImageURLs   *[]string `json:"image_urls,omitempty" validate:"omitempty,max=10,dive,http_url"`
}

// LocationFilter narrows location searches. Empty fields match everything; City is
// compared case-insensitively.
type LocationFilter struct {
	City       string
	CategoryID string
}
