package main

import (
	"github.com/dmitrymomot/intake/pkg/httpserver"
	"github.com/dmitrymomot/intake/pkg/redis"
	"github.com/dmitrymomot/intake/pkg/upload"
)

// Config is the full service configuration, read from the environment.
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"intake"`
	LogLevel    string `env:"LOG_LEVEL"` // Overrides the environment preset.

	HTTP   httpserver.Config
	Upload UploadConfig
	S3     upload.S3Config
	Redis  redis.Config
}

// UploadConfig controls the intake pipeline.
type UploadConfig struct {
	Backend        string   `env:"UPLOAD_BACKEND" envDefault:"local"` // "local" or "s3"
	Dir            string   `env:"UPLOAD_DIR" envDefault:"./uploads"`
	BaseURL        string   `env:"UPLOAD_BASE_URL" envDefault:"/files/"`
	ServeFiles     bool     `env:"UPLOAD_SERVE_FILES" envDefault:"true"` // Local backend only.
	TempDir        string   `env:"UPLOAD_TEMP_DIR"`
	MaxFileSize    string   `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10M"`
	MinFileSize    string   `env:"UPLOAD_MIN_FILE_SIZE"`
	MaxRequestSize string   `env:"UPLOAD_MAX_REQUEST_SIZE" envDefault:"32M"`
	AllowedMIME    []string `env:"UPLOAD_ALLOWED_MIME" envSeparator:","`
	AllowedExt     []string `env:"UPLOAD_ALLOWED_EXT" envSeparator:","`
	MaxImageWidth  int      `env:"UPLOAD_MAX_IMAGE_WIDTH"`
	MaxImageHeight int      `env:"UPLOAD_MAX_IMAGE_HEIGHT"`
	RandomNames    bool     `env:"UPLOAD_RANDOM_NAMES"`
	Overwrite      bool     `env:"UPLOAD_OVERWRITE" envDefault:"true"`
	Dedupe         bool     `env:"UPLOAD_DEDUPE"` // Needs REDIS_URL.
}

// validators builds a fresh validator chain. Validators keep their last
// failure message, so every file gets its own instances.
func (c UploadConfig) validators(index upload.ChecksumIndex) []upload.Validator {
	vs := []upload.Validator{upload.NewSize(c.MaxFileSize, c.MinFileSize)}

	if len(c.AllowedExt) > 0 {
		vs = append(vs, upload.NewExtension(c.AllowedExt...))
	}
	if len(c.AllowedMIME) > 0 {
		vs = append(vs, upload.NewMIMEType(c.AllowedMIME...))
	}
	if c.MaxImageWidth > 0 || c.MaxImageHeight > 0 {
		vs = append(vs, &upload.ImageDimensions{MaxWidth: c.MaxImageWidth, MaxHeight: c.MaxImageHeight})
	}
	if index != nil {
		vs = append(vs, upload.NewUnique(index))
	}

	return vs
}

func (c UploadConfig) namer() upload.Namer {
	if c.RandomNames {
		return upload.UUIDNamer
	}
	return upload.DefaultNamer
}
