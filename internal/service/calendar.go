package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

type CreateCalendarEventParams struct {
	UserID      uuid.UUID `validate:"required"`
	Title       string    `validate:"required"`
	Description string
	Date        time.Time `validate:"required"`
	EventType   string    `validate:"omitempty,oneof=note reminder delivery payment"`
}

type UpdateCalendarEventParams struct {
	Title       *string `validate:"omitempty,min=1"`
	Description *string
	Date        *time.Time
	EventType   *string `validate:"omitempty,oneof=note reminder delivery payment"`
}

type ListCalendarEventsParams struct {
	UserID uuid.UUID
	Start  *time.Time
	End    *time.Time
}

type CalendarService interface {
	CreateEvent(ctx context.Context, params CreateCalendarEventParams) (model.CalendarEvent, error)
	ListEvents(ctx context.Context, params ListCalendarEventsParams) ([]model.CalendarEvent, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, params UpdateCalendarEventParams) (model.CalendarEvent, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type calendarService struct {
	eventRepo repository.CalendarEventRepository
	validator validator.Validator
}

func NewCalendarService(eventRepo repository.CalendarEventRepository, v validator.Validator) CalendarService {
	return &calendarService{
		eventRepo: eventRepo,
		validator: v,
	}
}

func (s *calendarService) CreateEvent(ctx context.Context, params CreateCalendarEventParams) (model.CalendarEvent, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.CalendarEvent{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	eventType := params.EventType
	if eventType == "" {
		eventType = "note"
	}

	event := model.CalendarEvent{
		ID:          id,
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Date:        params.Date,
		EventType:   eventType,
		CreatedAt:   time.Now(),
	}

	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("calendar event repository create event: %w", err)
	}

	return event, nil
}

func (s *calendarService) ListEvents(ctx context.Context, params ListCalendarEventsParams) ([]model.CalendarEvent, error) {
	events, err := s.eventRepo.ListEvents(ctx, repository.ListCalendarEventsParams{
		UserID: params.UserID,
		Start:  params.Start,
		End:    params.End,
	})
	if err != nil {
		return nil, fmt.Errorf("calendar event repository list events: %w", err)
	}
	return events, nil
}

func (s *calendarService) UpdateEvent(ctx context.Context, id uuid.UUID, params UpdateCalendarEventParams) (model.CalendarEvent, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.CalendarEvent{}, err
	}

	event, err := s.eventRepo.UpdateEvent(ctx, id, repository.UpdateCalendarEventParams{
		Title:       params.Title,
		Description: params.Description,
		Date:        params.Date,
		EventType:   params.EventType,
	})
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("calendar event repository update event: %w", err)
	}

	return event, nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.eventRepo.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("calendar event repository delete event: %w", err)
	}
	return nil
}
