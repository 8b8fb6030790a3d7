package models

// Camera is a registered frame source. CameraIP is the full stream URL
// (rtsp://..., or a local device path for v4l2 sources).
type Camera struct {
	CameraID string `json:"camera_id" db:"camera_id"`
	CameraIP string `json:"camera_ip" db:"camera_ip"`
	Location string `json:"location" db:"location"`
	Width    int    `json:"width" db:"width"`
	Height   int    `json:"height" db:"height"`
	HasAudio bool   `json:"has_audio" db:"has_audio"`
}
