package camerahandler

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
	"github.com/zanzhit/capture_studio/internal/lib/api/response"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
)

type CameraHandler struct {
	log     *slog.Logger
	cameras Cameras
}

type Cameras interface {
	SaveCamera(cameraIP, location string, width, height int, hasAudio bool) (models.Camera, error)
	Cameras() ([]models.Camera, error)
}

func New(log *slog.Logger, cameras Cameras) *CameraHandler {
	return &CameraHandler{
		log:     log,
		cameras: cameras,
	}
}

type SaveRequest struct {
	CameraIP string `json:"camera_ip" validate:"required"`
	Location string `json:"location"`
	Width    int    `json:"width" validate:"required,min=16,max=7680"`
	Height   int    `json:"height" validate:"required,min=16,max=4320"`
	HasAudio bool   `json:"has_audio"`
}

func (h *CameraHandler) Save(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.Save"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req SaveRequest
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

	cam, err := h.cameras.SaveCamera(req.CameraIP, req.Location, req.Width, req.Height, req.HasAudio)
	if err != nil {
		if errors.Is(err, errs.ErrCameraAlreadyExists) {
			handlers.Error(w, r, http.StatusConflict, response.Error("camera with this address already exists", ""))

			return
		}

		log.Error("failed to save camera", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to save camera", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, cam)
}

func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cameras.List"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cams, err := h.cameras.Cameras()
	if err != nil {
		log.Error("failed to list cameras", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to list cameras", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, cams)
}
