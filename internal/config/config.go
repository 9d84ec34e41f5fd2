package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Batch     BatchConfig     `yaml:"batch"`
	MinIO     MinIOConfig     `yaml:"minio"`
}

type InputConfig struct {
	Dir string `yaml:"dir" env:"INPUT_DIR" validate:"required"`
}

type OutputConfig struct {
	ImagesDir    string `yaml:"images_dir" env:"OUTPUT_IMAGES_DIR" validate:"required"`
	ThumbsDir    string `yaml:"thumbs_dir" env:"OUTPUT_THUMBS_DIR" validate:"required,nefield=ImagesDir"`
	ManifestPath string `yaml:"manifest_path" env:"OUTPUT_MANIFEST_PATH"`
}

// WatermarkConfig takes either an image path or a text. Alpha and fractions
// are passed through unchecked.
type WatermarkConfig struct {
	Path              string  `yaml:"path" env:"WATERMARK_PATH" validate:"required_without=Text"`
	Text              string  `yaml:"text" env:"WATERMARK_TEXT"`
	FontSize          float64 `yaml:"font_size" env:"WATERMARK_FONT_SIZE" env-default:"48"`
	Color             string  `yaml:"color" env:"WATERMARK_COLOR" env-default:"255,255,255"`
	Quality           int     `yaml:"quality" env:"WATERMARK_QUALITY" env-default:"97" validate:"min=1,max=100"`
	Alpha             int     `yaml:"alpha" env:"WATERMARK_ALPHA" env-default:"150"`
	LandscapeFraction float64 `yaml:"landscape_fraction" env:"WATERMARK_LANDSCAPE_FRACTION" env-default:"0.1"`
	PortraitFraction  float64 `yaml:"portrait_fraction" env:"WATERMARK_PORTRAIT_FRACTION" env-default:"0.025"`
	BorderFraction    float64 `yaml:"border_fraction" env:"WATERMARK_BORDER_FRACTION" env-default:"0.02"`
}

// ThumbnailConfig clamps one axis; the width/height rule itself is enforced
// when thumbnails are resolved. Leaving both unset means the default width.
type ThumbnailConfig struct {
	Quality int `yaml:"quality" env:"THUMBNAIL_QUALITY" env-default:"97" validate:"min=1,max=100"`
	Width   int `yaml:"width" env:"THUMBNAIL_WIDTH"`
	Height  int `yaml:"height" env:"THUMBNAIL_HEIGHT"`
}

type BatchConfig struct {
	StopOnError bool `yaml:"stop_on_error" env:"BATCH_STOP_ON_ERROR"`
}

type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled" env:"MINIO_ENABLED"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" validate:"required_if=Enabled true"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" validate:"required_if=Enabled true"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" validate:"required_if=Enabled true"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" validate:"required_if=Enabled true"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	Prefix    string `yaml:"prefix" env:"MINIO_PREFIX"`
}

// Load reads path (YAML) with environment overrides, or only the environment
// when path is empty, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return errors.Join(errs...)
		}
		return err
	}
	return nil
}
