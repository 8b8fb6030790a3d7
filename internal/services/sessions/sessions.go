package sessionservice

import (
	"fmt"
	"log/slog"

	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
)

type SessionService struct {
	log             *slog.Logger
	sessionProvider SessionProvider
	archive         Archive
}

type SessionProvider interface {
	Session(sessionID string) (models.Session, error)
	CameraSessions(cameraID string, limit, userID int) ([]models.Session, error)
	Move(sessionID string) error
}

// Archive receives finished session files (an Opencast-style video portal).
type Archive interface {
	Move(models.Session) error
}

func New(log *slog.Logger, sessionProvider SessionProvider, archive Archive) *SessionService {
	return &SessionService{
		log:             log,
		sessionProvider: sessionProvider,
		archive:         archive,
	}
}

func (s *SessionService) CameraSessions(cameraID string, limit, userID int) ([]models.Session, error) {
	const op = "service.sessions.CameraSessions"

	log := s.log.With(
		slog.String("op", op),
		slog.String("camera_id", cameraID),
		slog.Int("user_id", userID),
	)

	log.Info("get camera sessions")

	sessions, err := s.sessionProvider.CameraSessions(cameraID, limit, userID)
	if err != nil {
		log.Error("failed to get sessions", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (s *SessionService) Move(sessionID string) error {
	const op = "service.sessions.Move"

	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID),
	)

	log.Info("move session to archive")

	if s.archive == nil {
		return fmt.Errorf("%s: archive is not configured", op)
	}

	sess, err := s.sessionProvider.Session(sessionID)
	if err != nil {
		log.Error("failed to get session", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.archive.Move(sess); err != nil {
		log.Error("failed to move session", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sessionProvider.Move(sessionID); err != nil {
		log.Error("failed to write move data", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
