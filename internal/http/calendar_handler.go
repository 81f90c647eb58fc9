package http

import (
	"net/http"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http/middleware"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type calendarHandler struct {
	respond     *responder
	calendarSvc service.CalendarService
}

func newCalendarHandler(respond *responder, calendarSvc service.CalendarService) *calendarHandler {
	return &calendarHandler{
		respond:     respond,
		calendarSvc: calendarSvc,
	}
}

type createCalendarEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	EventType   string    `json:"event_type"`
}

type updateCalendarEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	EventType   *string    `json:"event_type"`
}

func (h *calendarHandler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.respond.writeError(w, r, apperr.InvalidCredentials)
		return
	}

	var req createCalendarEventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	event, err := h.calendarSvc.CreateEvent(r.Context(), service.CreateCalendarEventParams{
		UserID:      claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		EventType:   req.EventType,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusCreated, event)
}

func (h *calendarHandler) list(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.respond.writeError(w, r, apperr.InvalidCredentials)
		return
	}

	start, err := timeQuery(r, "start")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}
	end, err := timeQuery(r, "end")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	events, err := h.calendarSvc.ListEvents(r.Context(), service.ListCalendarEventsParams{
		UserID: claims.UserID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, events)
}

func (h *calendarHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	var req updateCalendarEventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	event, err := h.calendarSvc.UpdateEvent(r.Context(), id, service.UpdateCalendarEventParams{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		EventType:   req.EventType,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, event)
}

func (h *calendarHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	if err := h.calendarSvc.DeleteEvent(r.Context(), id); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusNoContent, nil)
}
