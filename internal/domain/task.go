package domain

import "time"

// WatermarkConfig is built once per file by the batch driver. Alpha and the
// fractions are stored verbatim.
type WatermarkConfig struct {
	WatermarkPath     string
	Text              string
	FontSize          float64
	Color             string
	InputPath         string
	OutputPath        string
	Quality           int
	Alpha             int
	LandscapeFraction float64
	PortraitFraction  float64
	BorderFraction    float64
}

// ThumbnailConfig carries exactly one caller-supplied clamp dimension; zero
// means unset. Resolved caches the derived pair once the caller decides to
// keep it.
type ThumbnailConfig struct {
	InputPath   string
	OutputPath  string
	Quality     int
	ClampWidth  int
	ClampHeight int
	Resolved    *Dimensions
}

type ProcessingTask struct {
	ID        string
	Name      string
	Watermark WatermarkConfig
	Thumbnail ThumbnailConfig
}

type ProcessingStatus string

const (
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
)

type ProcessingResult struct {
	ID                string
	Name              string
	Status            ProcessingStatus
	WatermarkedPath   string
	ThumbnailPath     string
	ImageSize         Dimensions
	ThumbnailSize     Dimensions
	SourceOrientation Orientation
	Error             string
	Duration          time.Duration
}
