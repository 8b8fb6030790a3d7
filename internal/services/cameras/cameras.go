package cameraservice

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aler9/gortsplib"
	"github.com/aler9/gortsplib/pkg/url"
	"github.com/lithammer/shortuuid/v3"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
	captureservice "github.com/zanzhit/capture_studio/internal/services/capture"
	"github.com/zanzhit/capture_studio/internal/services/cameras/mjpeg"
)

type CameraService struct {
	log            *slog.Logger
	videosPath     string
	cameraSaver    CameraSaver
	cameraProvider CameraProvider
}

type CameraSaver interface {
	SaveCamera(cam models.Camera) (models.Camera, error)
}

type CameraProvider interface {
	Camera(cameraID string) (models.Camera, error)
	Cameras() ([]models.Camera, error)
}

func New(log *slog.Logger, videosPath string, cameraSaver CameraSaver, cameraProvider CameraProvider) *CameraService {
	return &CameraService{
		log:            log,
		videosPath:     videosPath,
		cameraSaver:    cameraSaver,
		cameraProvider: cameraProvider,
	}
}

func (s *CameraService) SaveCamera(cameraIP, location string, width, height int, hasAudio bool) (models.Camera, error) {
	const op = "service.cameras.SaveCamera"

	log := s.log.With(
		slog.String("op", op),
		slog.String("camera_ip", cameraIP),
	)

	log.Info("save camera")

	cam := models.Camera{
		CameraID: shortuuid.New(),
		CameraIP: cameraIP,
		Location: location,
		Width:    width,
		Height:   height,
		HasAudio: hasAudio,
	}

	cam, err := s.cameraSaver.SaveCamera(cam)
	if err != nil {
		log.Error("failed to save camera", sl.Err(err))

		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	dirPath := filepath.Join(s.videosPath, cam.CameraID)
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		log.Error("failed to create directory", sl.Err(err))

		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (s *CameraService) Cameras() ([]models.Camera, error) {
	const op = "service.cameras.Cameras"

	cams, err := s.cameraProvider.Cameras()
	if err != nil {
		s.log.Error("failed to list cameras", slog.String("op", op), sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}

// Source looks up a registered camera, verifies it is reachable and returns a
// frame source reading from it. The availability probe runs before any
// session state is touched, so an offline camera fails Start cleanly.
func (s *CameraService) Source(cameraID string) (models.Camera, captureservice.FrameSource, error) {
	const op = "service.cameras.Source"

	log := s.log.With(
		slog.String("op", op),
		slog.String("camera_id", cameraID),
	)

	cam, err := s.cameraProvider.Camera(cameraID)
	if err != nil {
		log.Error("failed to get camera", sl.Err(err))

		return models.Camera{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	available, err := isCameraAvailable(cam.CameraIP)
	if err != nil {
		log.Error("failed to check camera availability", sl.Err(err))

		return models.Camera{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !available {
		log.Error("camera is not available", slog.String("camera_ip", cam.CameraIP))

		return models.Camera{}, nil, fmt.Errorf("%s: %w", op, errs.ErrCameraIsNotAvailable)
	}

	source, err := mjpeg.NewSource(cam.CameraIP, cam.Width, cam.Height)
	if err != nil {
		log.Error("failed to open frame source", sl.Err(err))

		return models.Camera{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	return cam, source, nil
}

func isCameraAvailable(cameraURL string) (bool, error) {
	if !strings.HasPrefix(cameraURL, "rtsp://") {
		return isReachable(cameraURL)
	}

	u, err := url.Parse(cameraURL)
	if err != nil {
		return false, err
	}

	conn := gortsplib.Client{}

	err = conn.Start(u.Scheme, u.Host)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	_, err = conn.Options(u)
	if err != nil {
		return false, err
	}

	return true, nil
}

func isReachable(addr string) (bool, error) {
	// Local device paths (v4l2) just need to exist.
	if strings.HasPrefix(addr, "/") {
		if _, err := os.Stat(addr); err != nil {
			return false, err
		}

		return true, nil
	}

	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return false, err
	}
	conn.Close()

	return true, nil
}
