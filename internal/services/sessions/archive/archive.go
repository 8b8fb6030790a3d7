package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/zanzhit/capture_studio/internal/domain/models"
)

// Archive pushes finished session files to an Opencast-compatible events API.
type Archive struct {
	ACL        []byte `yaml:"-"`
	Processing []byte `yaml:"-"`
	Address    string `yaml:"address" env-required:"true"`
	Login      string `yaml:"login" env-required:"true"`
	Password   string `yaml:"-" env:"ARCHIVE_PASSWORD"`
}

type Metadata struct {
	Flavor string  `json:"flavor"`
	Fields []Field `json:"fields"`
}

type Field struct {
	ID    string      `json:"id"`
	Value interface{} `json:"value"`
}

func MustLoad(configPath string) *Archive {
	if configPath == "" {
		panic("archive config path is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("archive config file does not exist: " + configPath)
	}

	var a Archive

	if err := cleanenv.ReadConfig(configPath, &a); err != nil {
		panic("failed to read archive config: " + err.Error())
	}

	return &a
}

func (a *Archive) Move(sess models.Session) error {
	const op = "archive.Move"

	videoFile, err := os.ReadFile(sess.FilePath)
	if err != nil {
		return fmt.Errorf("%s: failed to read video file: %w", op, err)
	}

	duration := sess.StopTime.Sub(sess.StartTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60
	formattedDuration := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)

	md := []Metadata{
		{
			Flavor: "dublincore/episode",
			Fields: []Field{
				{
					ID:    "title",
					Value: filepath.Base(sess.FilePath),
				},
				{
					ID:    "startDate",
					Value: sess.StartTime.Format(time.DateOnly),
				},
				{
					ID:    "startTime",
					Value: sess.StartTime.Format(time.TimeOnly),
				},
				{
					ID:    "duration",
					Value: formattedDuration,
				},
				{
					ID:    "location",
					Value: sess.CameraID,
				},
				{
					ID:    "description",
					Value: fmt.Sprintf("%d frames at %.2f fps", sess.FrameCount, sess.ActualRate),
				},
			},
		},
	}

	metadata, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal metadata: %w", op, err)
	}

	data := map[string][]byte{
		"presenter":  videoFile,
		"metadata":   metadata,
		"acl":        a.ACL,
		"processing": a.Processing,
	}

	body := &bytes.Buffer{}
	contentType, err := createForm(data, body, sess)
	if err != nil {
		return fmt.Errorf("%s: failed to create form: %w", op, err)
	}

	archiveEvents := fmt.Sprintf("%s/api/events", a.Address)
	req, err := http.NewRequest(http.MethodPost, archiveEvents, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(a.Login, a.Password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to send request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: failed to move video: %s", op, resp.Status)
	}

	return nil
}

func createForm(data map[string][]byte, body *bytes.Buffer, sess models.Session) (string, error) {
	writer := multipart.NewWriter(body)
	defer writer.Close()

	for fieldName, fieldData := range data {
		if fieldName == "presenter" {
			part, err := writer.CreateFormFile(fieldName, fieldName+filepath.Ext(sess.FilePath))
			if err != nil {
				return "", err
			}

			if _, err := io.Copy(part, bytes.NewReader(fieldData)); err != nil {
				return "", err
			}

			continue
		}

		part, err := writer.CreateFormField(fieldName)
		if err != nil {
			return "", err
		}
		part.Write(fieldData)
	}

	return writer.FormDataContentType(), nil
}
