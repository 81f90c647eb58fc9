package model

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	EventType   string    `json:"event_type"`
	CreatedAt   time.Time `json:"created_at"`
}
