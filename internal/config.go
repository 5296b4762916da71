package internal

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the struct used to contain the various settings the
// pipeline needs, supplied via the process environment. The four
// credential values have no defaults and abort startup when absent.
type Config struct {
	PexelsAPIKey        string `env:"PEXELS_API_KEY" env-required:"true"`
	YoutubeClientID     string `env:"YOUTUBE_CLIENT_ID" env-required:"true"`
	YoutubeClientSecret string `env:"YOUTUBE_CLIENT_SECRET" env-required:"true"`
	YoutubeRefreshToken string `env:"YOUTUBE_REFRESH_TOKEN" env-required:"true"`

	ContentDirPath string `env:"CONTENT_DIR" env-default:"content"`
	TempDirPath    string `env:"TEMP_DIR" env-default:"temp"`
	LogDirPath     string `env:"LOG_DIR" env-default:"logs"`
	FontPath       string `env:"FONT_PATH" env-default:"assets/Roboto-Bold.ttf"`

	// TargetDuration is the length (in seconds) of stock footage the
	// downloader searches for; candidates within +/- 2s are accepted.
	TargetDuration int `env:"TARGET_DURATION" env-default:"15"`
}

// ConfigError indicates the environment is missing (or holds an
// unusable value for) a required setting. It is fatal at startup and
// is never retried.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration invalid: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadConfig reads the pipeline configuration from the process
// environment.
func LoadConfig() (Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return Config{}, &ConfigError{Err: err}
	}

	return config, nil
}
