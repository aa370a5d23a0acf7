package model

import "time"

// Activity is a bookable event at a location. A ParticipantLimit of 0 means unlimited.
// CurrentParticipants counts bookings held against the activity; only booking admission
// and booking deletion change it.
type Activity struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LocationID          string    `json:"location_id" bson:"location_id" validate:"required,mongodb"`
	Title               string    `json:"title" bson:"title" validate:"required,min=2,max=120"`
	Description         string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Price               float64   `json:"price" bson:"price" validate:"min=0"`
	StartDate           time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate             time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	ParticipantLimit    int       `json:"participant_limit" bson:"participant_limit" validate:"min=0,max=100000"`
	CurrentParticipants int       `json:"current_participants" bson:"current_participants" validate:"min=0"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// HasCapacity reports whether one more participant can be admitted.
func (a *Activity) HasCapacity() bool {
	return a.ParticipantLimit == 0 || a.CurrentParticipants < a.ParticipantLimit
}

type ActivityUpdate struct {
	LocationID       string     `json:"location_id,omitempty" validate:"omitempty,mongodb"`
	Title            string     `json:"title,omitempty" validate:"omitempty,min=2,max=120"`
	Description      *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price            *float64   `json:"price,omitempty" validate:"omitempty,min=0"`
	StartDate        *time.Time `json:"start_date,omitempty" validate:"omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty" validate:"omitempty"`
	ParticipantLimit *int       `json:"participant_limit,omitempty" validate:"omitempty,min=0,max=100000"`
}

type ActivityFilter struct {
	LocationID string
}
