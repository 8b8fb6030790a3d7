package errs

import "errors"

var (
	ErrUserType           = errors.New("wrong user type")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrCameraAlreadyExists  = errors.New("camera already exists")
	ErrCameraIsNotAvailable = errors.New("camera is not available")
	ErrCameraNotFound       = errors.New("camera not found")

	ErrAlreadyRecording     = errors.New("recording already in progress")
	ErrNotRecording         = errors.New("no recording in progress")
	ErrInvalidConfig        = errors.New("invalid recording config")
	ErrDirectoryUnavailable = errors.New("output directory unavailable")
	ErrEncoderFailed        = errors.New("video encoding failed")

	ErrSessionNotFound = errors.New("session not found")

	ErrWriteToDB = errors.New("failed to write to database")
)
