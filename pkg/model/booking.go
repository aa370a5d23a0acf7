package model

import (
	"slices"
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// ActiveBookingStatuses are the statuses that block a second booking for the same
// user and activity.
var ActiveBookingStatuses = []string{BookingStatusConfirmed, BookingStatusPending}

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID     string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	ActivityID string    `json:"activity_id" bson:"activity_id" validate:"required,mongodb"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

func (b *Booking) IsActive() bool {
	return slices.Contains(ActiveBookingStatuses, b.Status)
}

// BookingRequest is the admission input. An empty Status means pending.
type BookingRequest struct {
	UserID     string `json:"user_id" validate:"required,mongodb"`
	ActivityID string `json:"activity_id" validate:"required,mongodb"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
}

type BookingStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

type BookingFilter struct {
	UserID     string
	ActivityID string
	Status     string
}
