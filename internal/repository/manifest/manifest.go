// Package manifest writes the gallery manifest describing one batch run.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gallery-watermark/internal/domain"

	"gopkg.in/yaml.v3"
)

type Manifest struct {
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Photos      []Entry   `yaml:"photos"`
}

type Entry struct {
	Name            string `yaml:"name"`
	Image           string `yaml:"image"`
	Thumbnail       string `yaml:"thumbnail"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	ThumbnailWidth  int    `yaml:"thumbnail_width"`
	ThumbnailHeight int    `yaml:"thumbnail_height"`
}

// FromResults keeps only completed results, in the order given.
func FromResults(runID string, generatedAt time.Time, results []*domain.ProcessingResult) *Manifest {
	m := &Manifest{
		RunID:       runID,
		GeneratedAt: generatedAt.UTC(),
		Photos:      make([]Entry, 0, len(results)),
	}
	for _, r := range results {
		if r == nil || r.Status != domain.StatusCompleted {
			continue
		}
		m.Photos = append(m.Photos, Entry{
			Name:            r.Name,
			Image:           r.WatermarkedPath,
			Thumbnail:       r.ThumbnailPath,
			Width:           r.ImageSize.Width,
			Height:          r.ImageSize.Height,
			ThumbnailWidth:  r.ThumbnailSize.Width,
			ThumbnailHeight: r.ThumbnailSize.Height,
		})
	}
	return m
}

func Write(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
