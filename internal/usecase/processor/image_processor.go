package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gallery-watermark/internal/domain"
	"gallery-watermark/internal/exifmeta"
	"gallery-watermark/internal/usecase/processor/operations"

	"github.com/dustin/go-humanize"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"
)

type ImageProcessor struct {
	thumbnailer *operations.Thumbnailer
	watermarker *operations.Watermarker
	source      sourceRepository
	outputs     []OutputRepository
	marks       map[string]image.Image
	logger      *zlog.Zerolog
}

func NewImageProcessor(source sourceRepository, outputs []OutputRepository, logger *zlog.Zerolog) *ImageProcessor {
	return &ImageProcessor{
		thumbnailer: operations.NewThumbnailer(),
		watermarker: operations.NewWatermarker(),
		source:      source,
		outputs:     outputs,
		marks:       make(map[string]image.Image),
		logger:      logger,
	}
}

// Process runs the full pipeline for one file: decode, orientation
// normalization, thumbnail and watermarked output. It stops at the first
// failure.
func (p *ImageProcessor) Process(ctx context.Context, task *domain.ProcessingTask) (*domain.ProcessingResult, error) {
	start := time.Now()
	result := &domain.ProcessingResult{
		ID:     task.ID,
		Name:   task.Name,
		Status: domain.StatusFailed,
	}

	fail := func(err error, msg string) (*domain.ProcessingResult, error) {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		p.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("name", task.Name).
			Msg(msg)
		return result, err
	}

	photo, err := p.loadPhoto(ctx, task.Watermark.InputPath)
	if err != nil {
		return fail(err, "Failed to load photo")
	}
	photo.Name = task.Name
	result.SourceOrientation = photo.Orientation
	if !photo.Orientation.Valid() {
		p.logger.Warn().
			Str("name", task.Name).
			Int("orientation", int(photo.Orientation)).
			Msg("Unknown orientation tag, keeping stored pixel order")
	}

	photo = operations.NormalizeOrientation(photo)
	result.ImageSize = photo.Dimensions()

	p.logger.Info().
		Str("task_id", task.ID).
		Str("name", task.Name).
		Str("format", photo.Format).
		Int("orientation", int(result.SourceOrientation)).
		Int("width", result.ImageSize.Width).
		Int("height", result.ImageSize.Height).
		Msg("Starting image processing")

	thumbData, thumbSize, err := p.thumbnailer.Process(ctx, photo, task.Thumbnail)
	if err != nil {
		return fail(fmt.Errorf("thumbnail: %w", err), "Thumbnail failed")
	}
	task.Thumbnail.Resolved = &thumbSize
	result.ThumbnailSize = thumbSize

	if err := p.save(ctx, task.Thumbnail.OutputPath, thumbData); err != nil {
		return fail(fmt.Errorf("thumbnail: %w", err), "Failed to save thumbnail")
	}
	result.ThumbnailPath = task.Thumbnail.OutputPath

	mark, err := p.watermarkImage(ctx, task.Watermark)
	if err != nil {
		return fail(fmt.Errorf("watermark: %w", err), "Failed to load watermark")
	}

	if placement := operations.WatermarkPlacement(result.ImageSize, dimensionsOf(mark), task.Watermark); placement.Empty() {
		p.logger.Debug().Str("name", task.Name).Msg("Watermark collapses to zero size, output left unmarked")
	} else {
		p.logger.Debug().
			Str("name", task.Name).
			Str("placement", placement.String()).
			Msg("Watermark geometry resolved")
	}

	markedData, err := p.watermarker.Process(ctx, photo, mark, task.Watermark)
	if err != nil {
		return fail(fmt.Errorf("watermark: %w", err), "Watermark failed")
	}

	if err := p.save(ctx, task.Watermark.OutputPath, markedData); err != nil {
		return fail(fmt.Errorf("watermark: %w", err), "Failed to save watermarked image")
	}
	result.WatermarkedPath = task.Watermark.OutputPath

	result.Status = domain.StatusCompleted
	result.Duration = time.Since(start)

	p.logger.Info().
		Str("task_id", task.ID).
		Str("name", task.Name).
		Int("thumb_width", thumbSize.Width).
		Int("thumb_height", thumbSize.Height).
		Dur("duration", result.Duration).
		Msg("Image processing completed")

	return result, nil
}

func (p *ImageProcessor) loadPhoto(ctx context.Context, path string) (*domain.Photo, error) {
	data, err := p.read(ctx, path)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", operations.ErrDecode, path, err)
	}

	return &domain.Photo{
		Image:       img,
		Format:      format,
		Orientation: exifmeta.ReadOrientation(data),
		Exif:        exifmeta.ExtractSegment(data),
	}, nil
}

// watermarkImage decodes the configured watermark file once per path, or
// renders the configured text when no file is set.
func (p *ImageProcessor) watermarkImage(ctx context.Context, cfg domain.WatermarkConfig) (image.Image, error) {
	if cfg.WatermarkPath == "" {
		key := fmt.Sprintf("text:%s:%g:%s", cfg.Text, cfg.FontSize, cfg.Color)
		if mark, ok := p.marks[key]; ok {
			return mark, nil
		}
		mark, err := p.watermarker.RenderText(cfg.Text, cfg.FontSize, cfg.Color)
		if err != nil {
			return nil, err
		}
		p.marks[key] = mark
		return mark, nil
	}

	if mark, ok := p.marks[cfg.WatermarkPath]; ok {
		return mark, nil
	}

	data, err := p.read(ctx, cfg.WatermarkPath)
	if err != nil {
		return nil, err
	}

	mark, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", operations.ErrDecode, cfg.WatermarkPath, err)
	}

	p.logger.Debug().
		Str("path", cfg.WatermarkPath).
		Str("format", format).
		Str("size", mark.Bounds().Size().String()).
		Msg("Watermark loaded")

	p.marks[cfg.WatermarkPath] = mark
	return mark, nil
}

func (p *ImageProcessor) read(ctx context.Context, path string) ([]byte, error) {
	reader, err := p.source.GetObject(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (p *ImageProcessor) save(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read processed data: %w", err)
	}

	for _, out := range p.outputs {
		if err := out.SaveProcessed(ctx, path, bytes.NewReader(data), int64(len(data)), getContentType(path)); err != nil {
			return fmt.Errorf("failed to save processed image: %w", err)
		}
	}

	p.logger.Debug().
		Str("path", path).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int("outputs", len(p.outputs)).
		Msg("Output saved")

	return nil
}

func dimensionsOf(img image.Image) domain.Dimensions {
	b := img.Bounds()
	return domain.Dimensions{Width: b.Dx(), Height: b.Dy()}
}

func getContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
