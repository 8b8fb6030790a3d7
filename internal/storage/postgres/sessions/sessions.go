package sessionstorage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/storage/postgres"
)

type SessionStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *SessionStorage {
	return &SessionStorage{
		db: db,
	}
}

func (s *SessionStorage) Create(sess models.Session) error {
	const op = "storage.postgres.sessions.Create"

	query := fmt.Sprintf(`INSERT INTO %s (session_id, camera_id, user_id, file_path, start_time, has_audio, completed, is_moved)
		VALUES ($1, $2, $3, $4, $5, $6, false, false)`, postgres.SessionsTable)

	_, err := s.db.Exec(query, sess.SessionID, sess.CameraID, sess.UserID, sess.FilePath, sess.StartTime, sess.HasAudio)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SessionStorage) Finish(sess models.Session) error {
	const op = "storage.postgres.sessions.Finish"

	query := fmt.Sprintf(`UPDATE %s
		SET stop_time = $1, frame_count = $2, actual_rate = $3, file_path = $4, has_audio = $5, completed = $6
		WHERE session_id = $7`, postgres.SessionsTable)

	result, err := s.db.Exec(query, sess.StopTime, sess.FrameCount, sess.ActualRate, sess.FilePath, sess.HasAudio, sess.Completed, sess.SessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrSessionNotFound)
	}

	return nil
}

func (s *SessionStorage) Move(sessionID string) error {
	const op = "storage.postgres.sessions.Move"

	query := fmt.Sprintf(`UPDATE %s SET is_moved = true WHERE session_id = $1`, postgres.SessionsTable)

	result, err := s.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrSessionNotFound)
	}

	return nil
}

func (s *SessionStorage) Session(sessionID string) (models.Session, error) {
	const op = "storage.postgres.sessions.Session"

	var sess models.Session
	var stopTime sql.NullTime

	query := fmt.Sprintf(`
		SELECT session_id, camera_id, user_id, file_path, start_time, stop_time, frame_count, actual_rate, has_audio, completed, is_moved
		FROM %s WHERE session_id = $1`, postgres.SessionsTable)

	row := s.db.QueryRow(query, sessionID)
	if err := row.Scan(&sess.SessionID, &sess.CameraID, &sess.UserID, &sess.FilePath, &sess.StartTime,
		&stopTime, &sess.FrameCount, &sess.ActualRate, &sess.HasAudio, &sess.Completed, &sess.IsMoved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%s: %w", op, errs.ErrSessionNotFound)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if stopTime.Valid {
		sess.StopTime = stopTime.Time
	}

	return sess, nil
}

func (s *SessionStorage) CameraSessions(cameraID string, limit, userID int) ([]models.Session, error) {
	const op = "storage.postgres.sessions.CameraSessions"

	query := fmt.Sprintf(`
		SELECT session_id, camera_id, user_id, file_path, start_time, stop_time, frame_count, actual_rate, has_audio, completed, is_moved
		FROM %s
		WHERE camera_id = $1 AND user_id = $2
		ORDER BY start_time DESC
		LIMIT $3`, postgres.SessionsTable)

	rows, err := s.db.Query(query, cameraID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []models.Session

	for rows.Next() {
		var sess models.Session
		var stopTime sql.NullTime

		if err := rows.Scan(&sess.SessionID, &sess.CameraID, &sess.UserID, &sess.FilePath, &sess.StartTime,
			&stopTime, &sess.FrameCount, &sess.ActualRate, &sess.HasAudio, &sess.Completed, &sess.IsMoved); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if stopTime.Valid {
			sess.StopTime = stopTime.Time
		}

		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}
