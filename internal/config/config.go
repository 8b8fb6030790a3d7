package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env-default:"local"`
	VideosPath    string        `yaml:"videos_path" env-required:"true"`
	WorkPath      string        `yaml:"work_path" env-default:"/tmp/capture_studio"`
	ArchiveConfig string        `yaml:"archive_config"`
	Secret        string        `yaml:"secret" env:"SECRET"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"1h"`
	DB            DB            `yaml:"db"`
	HTTPServer    HTTPServer    `yaml:"http_server"`
	Capture       Capture       `yaml:"capture"`
}

type DB struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	Username string `yaml:"username" env-default:"postgres"`
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env-default:"capture_studio"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// Stop blocks for the whole encode/mux, so writes need far more headroom
	// than reads.
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10m"`
}

type Capture struct {
	PollInterval      time.Duration `yaml:"poll_interval" env-default:"50ms"`
	StatusInterval    time.Duration `yaml:"status_interval" env-default:"500ms"`
	MinRate           float64       `yaml:"min_rate" env-default:"1"`
	SampleRate        int           `yaml:"sample_rate" env-default:"44100"`
	Channels          int           `yaml:"channels" env-default:"2"`
	MaxBufferedFrames int           `yaml:"max_buffered_frames" env-default:"0"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("CONFIG_PATH is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
