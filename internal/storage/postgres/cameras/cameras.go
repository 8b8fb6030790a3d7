package camerastorage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/storage/postgres"
)

type CameraStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *CameraStorage {
	return &CameraStorage{
		db: db,
	}
}

func (s *CameraStorage) SaveCamera(cam models.Camera) (models.Camera, error) {
	const op = "storage.postgres.cameras.SaveCamera"

	query := fmt.Sprintf(`INSERT INTO %s (camera_id, camera_ip, location, width, height, has_audio)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING *`, postgres.CamerasTable)

	err := s.db.QueryRowx(query, cam.CameraID, cam.CameraIP, cam.Location, cam.Width, cam.Height, cam.HasAudio).StructScan(&cam)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return cam, fmt.Errorf("%s: %w", op, errs.ErrCameraAlreadyExists)
		}
		return cam, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (s *CameraStorage) Camera(cameraID string) (models.Camera, error) {
	const op = "storage.postgres.cameras.Camera"

	var cam models.Camera
	query := fmt.Sprintf(`SELECT camera_id, camera_ip, location, width, height, has_audio
		FROM %s WHERE camera_id = $1`, postgres.CamerasTable)

	if err := s.db.Get(&cam, query, cameraID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Camera{}, fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
		}
		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

func (s *CameraStorage) Cameras() ([]models.Camera, error) {
	const op = "storage.postgres.cameras.Cameras"

	var cams []models.Camera
	query := fmt.Sprintf(`SELECT camera_id, camera_ip, location, width, height, has_audio FROM %s`, postgres.CamerasTable)

	if err := s.db.Select(&cams, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}
