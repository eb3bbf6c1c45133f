package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/touka-aoi/inbox-kingdoms/application/calculator"
	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/request"
	"github.com/touka-aoi/inbox-kingdoms/application/service"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

// maxBodyBytes はリクエストボディの上限。
const maxBodyBytes = 1 << 20

// ResolutionService は service.ResolutionService が満たす。
type ResolutionService interface {
	ResolveRound(ctx context.Context, req request.ResolveRound) (domain.RoundResolution, error)
	History(ctx context.Context, room string) ([]domain.RoundResolution, error)
	Finalize(ctx context.Context, req request.Finalize) (domain.FinalScoreOutput, error)
}

// RoundsHandler はルーム単位のラウンド解決APIを提供します。
type RoundsHandler struct {
	service ResolutionService
	logger  *slog.Logger
	now     func() time.Time
}

func NewRoundsHandler(svc ResolutionService, logger *slog.Logger) *RoundsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundsHandler{service: svc, logger: logger, now: time.Now}
}

func (h *RoundsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	var snap domain.RoundSnapshot
	if !decodeBody(w, r, &snap) {
		return
	}
	if snap.RoomCode == "" {
		snap.RoomCode = room
	}
	if snap.RoomCode != room {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "room code does not match path")
		return
	}

	res, err := h.service.ResolveRound(r.Context(), request.ResolveRound{
		Meta:     h.meta(r),
		Snapshot: snap,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *RoundsHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if history == nil {
		history = []domain.RoundResolution{}
	}
	writeJSON(w, http.StatusOK, history)
}

type finalizeBody struct {
	Teams          []domain.FinalTeamSnapshot `json:"teams"`
	Investigations int                        `json:"investigations"`
}

func (h *RoundsHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var body finalizeBody
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := h.service.Finalize(r.Context(), request.Finalize{
		Meta:           h.meta(r),
		RoomCode:       chi.URLParam(r, "room"),
		Teams:          body.Teams,
		Investigations: body.Investigations,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeBody は失敗時にエラーレスポンスを書いて false を返す。
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
	return false
}

func (h *RoundsHandler) meta(r *http.Request) request.Meta {
	return request.Meta{
		RequestID:  requestIDFromContext(r.Context()),
		Subject:    subjectFromContext(r.Context()),
		OccurredAt: h.now().UTC(),
	}
}

func (h *RoundsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, code, msg)
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidSnapshot):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, state.ErrRoundOutOfOrder):
		return http.StatusConflict, "ROUND_OUT_OF_ORDER", err.Error()
	case errors.Is(err, catalog.ErrUnknownClientType),
		errors.Is(err, catalog.ErrUnknownTech),
		errors.Is(err, catalog.ErrUnknownTool),
		errors.Is(err, catalog.ErrUnknownPolicy),
		errors.Is(err, catalog.ErrUnknownKingdom),
		errors.Is(err, catalog.ErrUnknownRiskTier),
		errors.Is(err, calculator.ErrUnknownModifierKind):
		return http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
