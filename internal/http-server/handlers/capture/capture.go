package capturehandler

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
	captureservice "github.com/zanzhit/capture_studio/internal/services/capture"
)

type CaptureHandler struct {
	log            *slog.Logger
	recorder       Recorder
	sourceProvider SourceProvider
}

type Recorder interface {
	Start(source captureservice.FrameSource, cameraID string, userID int, cfg models.RecordingConfig) (string, error)
	Stop() (string, error)
	Pause() bool
	Resume() bool
	Status() models.RecordingStatus
}

type SourceProvider interface {
	Source(cameraID string) (models.Camera, captureservice.FrameSource, error)
}

func New(log *slog.Logger, recorder Recorder, sourceProvider SourceProvider) *CaptureHandler {
	return &CaptureHandler{
		log:            log,
		recorder:       recorder,
		sourceProvider: sourceProvider,
	}
}

type StartRequest struct {
	CameraID string                 `json:"camera_id" validate:"required"`
	Config   models.RecordingConfig `json:"config" validate:"required"`
}

type StartResponse struct {
	SessionID string `json:"session_id,omitempty"`
	response.Response
}

type StopResponse struct {
	OutputPath string `json:"output_path,omitempty"`
	response.Response
}

func (h *CaptureHandler) Start(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.capture.Start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req StartRequest
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

	if err := validator.New().StructPartial(req, "CameraID"); err != nil {
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

	_, source, err := h.sourceProvider.Source(req.CameraID)
	if err != nil {
		if errors.Is(err, errs.ErrCameraNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("camera not found", ""))

			return
		}
		if errors.Is(err, errs.ErrCameraIsNotAvailable) {
			handlers.Error(w, r, http.StatusServiceUnavailable, response.Error("camera is not available", ""))

			return
		}

		log.Error("failed to open frame source", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to open frame source", middleware.GetReqID(r.Context())))

		return
	}

	if req.Config.Width == 0 || req.Config.Height == 0 {
		req.Config.Width, req.Config.Height = source.Resolution()
	}

	sessionID, err := h.recorder.Start(source, req.CameraID, user.Id, req.Config)
	if err != nil {
		// The grabber process behind the source is already running; a
		// rejected start must not leak it.
		if closer, ok := source.(io.Closer); ok {
			closer.Close()
		}

		if errors.Is(err, errs.ErrAlreadyRecording) {
			handlers.Error(w, r, http.StatusConflict, response.Error("recording already in progress", ""))

			return
		}
		if errors.Is(err, errs.ErrInvalidConfig) {
			handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid recording config", ""))

			return
		}
		if errors.Is(err, errs.ErrDirectoryUnavailable) {
			handlers.Error(w, r, http.StatusInternalServerError, response.Error("output directory unavailable", ""))

			return
		}

		log.Error("failed to start recording", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to start recording", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, StartResponse{SessionID: sessionID})
}

func (h *CaptureHandler) Stop(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.capture.Stop"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	outputPath, err := h.recorder.Stop()
	if err != nil {
		if errors.Is(err, errs.ErrNotRecording) {
			handlers.Error(w, r, http.StatusConflict, response.Error("no recording in progress", ""))

			return
		}
		if errors.Is(err, errs.ErrEncoderFailed) {
			log.Error("encoding failed", sl.Err(err))

			handlers.Error(w, r, http.StatusInternalServerError, response.Error("video encoding failed", middleware.GetReqID(r.Context())))

			return
		}

		log.Error("failed to stop recording", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to stop recording", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, StopResponse{OutputPath: outputPath})
}

func (h *CaptureHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if !h.recorder.Pause() {
		handlers.Error(w, r, http.StatusConflict, response.Error("no active recording to pause", ""))

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *CaptureHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if !h.recorder.Resume() {
		handlers.Error(w, r, http.StatusConflict, response.Error("no paused recording to resume", ""))

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *CaptureHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.recorder.Status())
}
