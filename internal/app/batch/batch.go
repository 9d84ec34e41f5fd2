package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gallery-watermark/internal/config"
	"gallery-watermark/internal/domain"
	minio_repo "gallery-watermark/internal/repository/image/cloud/minio"
	"gallery-watermark/internal/repository/image/local"
	"gallery-watermark/internal/repository/manifest"
	"gallery-watermark/internal/usecase/processor"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

var ErrBatchIncomplete = errors.New("batch incomplete")

type imageProcessor interface {
	Process(ctx context.Context, task *domain.ProcessingTask) (*domain.ProcessingResult, error)
}

type imageLister interface {
	ListImages(ctx context.Context, dir string) ([]string, error)
}

type Batch struct {
	cfg       *config.Config
	logger    *zlog.Zerolog
	lister    imageLister
	processor imageProcessor
	runID     string
	now       func() time.Time
}

func NewBatch(cfg *config.Config, logger *zlog.Zerolog) (*Batch, error) {
	runID := uuid.New().String()
	runLogger := logger.With().Str("run_id", runID).Logger()

	fileRepo := local.NewFileRepository(&runLogger)
	outputs := []processor.OutputRepository{fileRepo}

	if cfg.MinIO.Enabled {
		publisher, err := minio_repo.NewMinIORepository(context.Background(), cfg, &runLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio repository: %w", err)
		}
		outputs = append(outputs, publisher)
	}

	runLogger.Info().
		Str("input", cfg.Input.Dir).
		Str("images", cfg.Output.ImagesDir).
		Str("thumbs", cfg.Output.ThumbsDir).
		Bool("minio", cfg.MinIO.Enabled).
		Bool("stop_on_error", cfg.Batch.StopOnError).
		Msg("Batch configuration")

	return &Batch{
		cfg:       cfg,
		logger:    &runLogger,
		lister:    fileRepo,
		processor: processor.NewImageProcessor(fileRepo, outputs, &runLogger),
		runID:     runID,
		now:       time.Now,
	}, nil
}

// Run processes the input directory until done or until SIGINT/SIGTERM,
// which stops the loop between files.
func (b *Batch) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.handleSignals(ctx, cancel)

	_, err := b.Process(ctx)
	return err
}

func (b *Batch) Process(ctx context.Context) ([]*domain.ProcessingResult, error) {
	start := b.now()

	names, err := b.lister.ListImages(ctx, b.cfg.Input.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input images: %w", err)
	}

	b.logger.Info().Int("files", len(names)).Msg("Starting batch")

	results := make([]*domain.ProcessingResult, 0, len(names))
	failed := 0
	var runErr error

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			b.logger.Warn().Int("remaining", len(names)-len(results)).Msg("Batch interrupted")
			runErr = fmt.Errorf("%w: %v", ErrBatchIncomplete, err)
			break
		}

		task := b.newTask(name)
		result, err := b.processor.Process(ctx, task)
		results = append(results, result)
		if err != nil {
			failed++
			if b.cfg.Batch.StopOnError {
				runErr = fmt.Errorf("%w: %s: %v", ErrBatchIncomplete, name, err)
				break
			}
		}
	}

	if err := b.writeManifest(results); err != nil {
		return results, errors.Join(runErr, err)
	}

	b.logger.Info().
		Int("processed", len(results)-failed).
		Int("failed", failed).
		Dur("duration", b.now().Sub(start)).
		Msg("Batch completed")

	if runErr != nil {
		return results, runErr
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d files failed", ErrBatchIncomplete, failed, len(names))
	}
	return results, nil
}

// writeManifest records the photos completed so far, including on runs that
// stopped early.
func (b *Batch) writeManifest(results []*domain.ProcessingResult) error {
	if b.cfg.Output.ManifestPath == "" {
		return nil
	}

	m := manifest.FromResults(b.runID, b.now(), results)
	if err := manifest.Write(b.cfg.Output.ManifestPath, m); err != nil {
		return err
	}

	b.logger.Info().Str("path", b.cfg.Output.ManifestPath).Int("photos", len(m.Photos)).Msg("Manifest written")
	return nil
}

// newTask resolves output paths for name and builds its per-file configs.
// A thumbnail section without either clamp falls back to the default width.
func (b *Batch) newTask(name string) *domain.ProcessingTask {
	inputPath := filepath.Join(b.cfg.Input.Dir, name)
	wm := b.cfg.Watermark
	th := b.cfg.Thumbnail
	if th.Width == 0 && th.Height == 0 {
		th.Width = domain.DefaultThumbnailWidth
	}

	return &domain.ProcessingTask{
		ID:   uuid.New().String(),
		Name: name,
		Watermark: domain.WatermarkConfig{
			WatermarkPath:     wm.Path,
			Text:              wm.Text,
			FontSize:          wm.FontSize,
			Color:             wm.Color,
			InputPath:         inputPath,
			OutputPath:        filepath.Join(b.cfg.Output.ImagesDir, name),
			Quality:           wm.Quality,
			Alpha:             wm.Alpha,
			LandscapeFraction: wm.LandscapeFraction,
			PortraitFraction:  wm.PortraitFraction,
			BorderFraction:    wm.BorderFraction,
		},
		Thumbnail: domain.ThumbnailConfig{
			InputPath:   inputPath,
			OutputPath:  filepath.Join(b.cfg.Output.ThumbsDir, name),
			Quality:     th.Quality,
			ClampWidth:  th.Width,
			ClampHeight: th.Height,
		},
	}
}

func (b *Batch) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		b.logger.Info().Str("signal", sig.String()).Msg("Received signal, finishing current file")
		cancel()
	case <-ctx.Done():
	}
}
