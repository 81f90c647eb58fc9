package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
)

type ListCalendarEventsParams struct {
	UserID uuid.UUID
	Start  *time.Time
	End    *time.Time
}

type UpdateCalendarEventParams struct {
	Title       *string
	Description *string
	Date        *time.Time
	EventType   *string
}

type CalendarEventRepository interface {
	WithDB(db db.DB) CalendarEventRepository
	CreateEvent(ctx context.Context, event model.CalendarEvent) error
	ListEvents(ctx context.Context, params ListCalendarEventsParams) ([]model.CalendarEvent, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, params UpdateCalendarEventParams) (model.CalendarEvent, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type calendarEventRepository struct {
	db db.DB
}

func NewCalendarEventRepository(db db.DB) CalendarEventRepository {
	return &calendarEventRepository{db: db}
}

func (r calendarEventRepository) WithDB(db db.DB) CalendarEventRepository {
	return &calendarEventRepository{db: db}
}

const eventColumns = `id, user_id, title, description, date, event_type, created_at`

func (r calendarEventRepository) CreateEvent(ctx context.Context, event model.CalendarEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.UserID, event.Title, event.Description,
		event.Date, event.EventType, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}

	return nil
}

func (r calendarEventRepository) ListEvents(ctx context.Context, params ListCalendarEventsParams) ([]model.CalendarEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = $1
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		ORDER BY date ASC`,
		params.UserID, params.Start, params.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		var e model.CalendarEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Date, &e.EventType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}

	return events, nil
}

func (r calendarEventRepository) UpdateEvent(ctx context.Context, id uuid.UUID, params UpdateCalendarEventParams) (model.CalendarEvent, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE calendar_events SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			date        = COALESCE($4, date),
			event_type  = COALESCE($5, event_type)
		WHERE id = $1
		RETURNING `+eventColumns,
		id, params.Title, params.Description, params.Date, params.EventType,
	)

	var e model.CalendarEvent
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Date, &e.EventType, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CalendarEvent{}, apperr.EventNotFoundErr
		}
		return model.CalendarEvent{}, fmt.Errorf("update calendar event: %w", err)
	}

	return e, nil
}

func (r calendarEventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.EventNotFoundErr
	}
	return nil
}
