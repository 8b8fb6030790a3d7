package sessionhandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/http-server/handlers"
	authmiddleware "github.com/zanzhit/capture_studio/internal/http-server/middleware/auth"
	"github.com/zanzhit/capture_studio/internal/lib/api/response"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
)

type SessionHandler struct {
	log      *slog.Logger
	sessions Sessions
}

type Sessions interface {
	CameraSessions(cameraID string, limit, userID int) ([]models.Session, error)
	Move(sessionID string) error
}

func New(log *slog.Logger, sessions Sessions) *SessionHandler {
	return &SessionHandler{
		log:      log,
		sessions: sessions,
	}
}

type ListRequest struct {
	CameraID string `json:"camera_id" validate:"required"`
}

type MoveRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sessions.List"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req ListRequest
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			handlers.Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return
		}

		log.Error("failed to decode request body", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to decode request", middleware.GetReqID(r.Context())))

		return
	}

	log.Info("request body decoded", slog.Any("request", req))

	if err := validator.New().Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	user, ok := r.Context().Value(authmiddleware.UserContextKey).(models.User)
	if !ok {
		log.Error("user not found in context")

		handlers.Error(w, r, http.StatusUnauthorized, response.Error("user not found", ""))

		return
	}

	limit := 5

	sessions, err := h.sessions.CameraSessions(req.CameraID, limit, user.Id)
	if err != nil {
		log.Error("failed to get sessions", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to get sessions", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, sessions)
}

func (h *SessionHandler) Move(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sessions.Move"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req MoveRequest
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			handlers.Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return
		}

		log.Error("failed to decode request body", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to decode request", middleware.GetReqID(r.Context())))

		return
	}

	log.Info("request body decoded", slog.Any("request", req))

	if err := validator.New().Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	if err := h.sessions.Move(req.SessionID); err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("session not found", ""))

			return
		}

		log.Error("failed to move session", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to move session", middleware.GetReqID(r.Context())))

		return
	}

	w.WriteHeader(http.StatusOK)
}
