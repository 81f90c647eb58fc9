package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http/apierr"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) *responder {
	return &responder{logger: logger}
}

func (rs *responder) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
	}
}

func (rs *responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	rs.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	rs.writeJSON(w, r, res.StatusCode, res)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.ValidationErr.WrapParent(err).WithMsg("invalid request body")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.ValidationErr.WrapParent(err).WithMsg(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// timeQuery parses an optional RFC 3339 timestamp query parameter.
func timeQuery(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.ValidationErr.WrapParent(err).WithMsg(fmt.Sprintf("invalid %s, expected RFC 3339", name))
	}
	return &t, nil
}
