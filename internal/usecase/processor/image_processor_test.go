package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"gallery-watermark/internal/domain"
	"gallery-watermark/internal/exifmeta"
	repoImage "gallery-watermark/internal/repository/image"
	"gallery-watermark/internal/usecase/processor/operations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type memoryRepo struct {
	files map[string][]byte
	reads map[string]int
	fail  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{files: make(map[string][]byte), reads: make(map[string]int)}
}

func (m *memoryRepo) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, repoImage.ErrFileNotFound
	}
	m.reads[path]++
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryRepo) SaveProcessed(ctx context.Context, path string, data io.Reader, size int64, contentType string) error {
	if m.fail != nil {
		return m.fail
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[path] = b
	return nil
}

func photoJPEG(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}))
	if orientation == 0 {
		return buf.Bytes()
	}

	seg := new(bytes.Buffer)
	seg.WriteString("Exif\x00\x00MM")
	for _, v := range []any{uint16(42), uint32(8), uint16(1), uint16(0x0112), uint16(3), uint32(1), orientation, uint16(0), uint32(0)} {
		require.NoError(t, binary.Write(seg, binary.BigEndian, v))
	}
	data, err := exifmeta.Embed(buf.Bytes(), seg.Bytes())
	require.NoError(t, err)
	return data
}

func watermarkPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 50))
	for y := 0; y < 50; y++ {
		for x := 100; x < 200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) domain.Dimensions {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return domain.Dimensions{Width: cfg.Width, Height: cfg.Height}
}

func newTask(name string) *domain.ProcessingTask {
	return &domain.ProcessingTask{
		ID:   "task-" + name,
		Name: name,
		Watermark: domain.WatermarkConfig{
			WatermarkPath:     "/wm/logo.png",
			InputPath:         "/in/" + name,
			OutputPath:        "/out/images/" + name,
			Quality:           90,
			Alpha:             150,
			LandscapeFraction: 0.1,
			PortraitFraction:  0.025,
			BorderFraction:    0.02,
		},
		Thumbnail: domain.ThumbnailConfig{
			InputPath:  "/in/" + name,
			OutputPath: "/out/thumbs/" + name,
			Quality:    90,
			ClampWidth: 50,
		},
	}
}

func TestImageProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("landscape", func(t *testing.T) {
		src := newMemoryRepo()
		src.files["/in/a.jpg"] = photoJPEG(t, 200, 100, 0)
		src.files["/wm/logo.png"] = watermarkPNG(t)
		out := newMemoryRepo()

		p := NewImageProcessor(src, []OutputRepository{out}, &zlog.Logger)
		task := newTask("a.jpg")

		result, err := p.Process(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, result.Status)
		assert.Equal(t, domain.Dimensions{Width: 200, Height: 100}, result.ImageSize)
		assert.Equal(t, domain.Dimensions{Width: 50, Height: 25}, result.ThumbnailSize)
		require.NotNil(t, task.Thumbnail.Resolved)
		assert.Equal(t, result.ThumbnailSize, *task.Thumbnail.Resolved)

		assert.Equal(t, domain.Dimensions{Width: 200, Height: 100}, decodeSize(t, out.files["/out/images/a.jpg"]))
		assert.Equal(t, domain.Dimensions{Width: 50, Height: 25}, decodeSize(t, out.files["/out/thumbs/a.jpg"]))
	})

	t.Run("rotated source is normalized and tag reset", func(t *testing.T) {
		src := newMemoryRepo()
		src.files["/in/r.jpg"] = photoJPEG(t, 200, 100, 6)
		src.files["/wm/logo.png"] = watermarkPNG(t)
		out := newMemoryRepo()

		p := NewImageProcessor(src, []OutputRepository{out}, &zlog.Logger)
		result, err := p.Process(ctx, newTask("r.jpg"))
		require.NoError(t, err)
		assert.Equal(t, domain.OrientationRotate90CW, result.SourceOrientation)
		assert.Equal(t, domain.Dimensions{Width: 100, Height: 200}, result.ImageSize)
		assert.Equal(t, domain.Dimensions{Width: 50, Height: 100}, result.ThumbnailSize)

		for _, path := range []string{"/out/images/r.jpg", "/out/thumbs/r.jpg"} {
			data := out.files[path]
			require.NotEmpty(t, data, path)
			assert.NotNil(t, exifmeta.ExtractSegment(data), "metadata carried to %s", path)
			assert.Equal(t, domain.OrientationNormal, exifmeta.ReadOrientation(data), path)
		}
		assert.Equal(t, domain.Dimensions{Width: 100, Height: 200}, decodeSize(t, out.files["/out/images/r.jpg"]))
	})

	t.Run("watermark decoded once", func(t *testing.T) {
		src := newMemoryRepo()
		src.files["/in/a.jpg"] = photoJPEG(t, 80, 60, 0)
		src.files["/in/b.jpg"] = photoJPEG(t, 60, 80, 0)
		src.files["/wm/logo.png"] = watermarkPNG(t)
		out := newMemoryRepo()

		p := NewImageProcessor(src, []OutputRepository{out}, &zlog.Logger)
		for _, name := range []string{"a.jpg", "b.jpg"} {
			_, err := p.Process(ctx, newTask(name))
			require.NoError(t, err)
		}
		assert.Equal(t, 1, src.reads["/wm/logo.png"])
	})

	t.Run("text watermark", func(t *testing.T) {
		src := newMemoryRepo()
		src.files["/in/a.jpg"] = photoJPEG(t, 400, 300, 0)
		out := newMemoryRepo()

		task := newTask("a.jpg")
		task.Watermark.WatermarkPath = ""
		task.Watermark.Text = "© Gallery"
		task.Watermark.FontSize = 24

		p := NewImageProcessor(src, []OutputRepository{out}, &zlog.Logger)
		result, err := p.Process(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, result.Status)
		assert.Contains(t, out.files, "/out/images/a.jpg")
	})

	t.Run("every output receives both files", func(t *testing.T) {
		src := newMemoryRepo()
		src.files["/in/a.jpg"] = photoJPEG(t, 80, 60, 0)
		src.files["/wm/logo.png"] = watermarkPNG(t)
		first, second := newMemoryRepo(), newMemoryRepo()

		p := NewImageProcessor(src, []OutputRepository{first, second}, &zlog.Logger)
		_, err := p.Process(ctx, newTask("a.jpg"))
		require.NoError(t, err)
		assert.Len(t, first.files, 2)
		assert.Equal(t, first.files, second.files)
	})
}

func TestImageProcessor_ProcessErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(src, out *memoryRepo, task *domain.ProcessingTask)
		wantErr error
	}{
		{
			name: "corrupt source",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				src.files["/in/a.jpg"] = []byte("\xff\xd8\xff\xe0 not really a jpeg")
			},
			wantErr: operations.ErrDecode,
		},
		{
			name: "missing source",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				delete(src.files, "/in/a.jpg")
			},
			wantErr: repoImage.ErrFileNotFound,
		},
		{
			name: "corrupt watermark",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				src.files["/wm/logo.png"] = []byte("not a png")
			},
			wantErr: operations.ErrDecode,
		},
		{
			name: "overconstrained thumbnail",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				task.Thumbnail.ClampHeight = 10
			},
			wantErr: operations.ErrOverconstrained,
		},
		{
			name: "unconstrained thumbnail",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				task.Thumbnail.ClampWidth = 0
			},
			wantErr: operations.ErrNoDimensionConstraint,
		},
		{
			name: "save failure",
			setup: func(src, out *memoryRepo, task *domain.ProcessingTask) {
				out.fail = errors.New("disk full")
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMemoryRepo()
			src.files["/in/a.jpg"] = photoJPEG(t, 80, 60, 0)
			src.files["/wm/logo.png"] = watermarkPNG(t)
			out := newMemoryRepo()
			task := newTask("a.jpg")
			tt.setup(src, out, task)

			p := NewImageProcessor(src, []OutputRepository{out}, &zlog.Logger)
			result, err := p.Process(ctx, task)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, domain.StatusFailed, result.Status)
			assert.NotEmpty(t, result.Error)
		})
	}
}
