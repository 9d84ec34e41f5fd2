package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	repoImage "gallery-watermark/internal/repository/image"

	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/zlog"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileRepository reads sources from and writes outputs to the local
// filesystem.
type FileRepository struct {
	accept []string
	logger *zlog.Zerolog
}

// NewFileRepository accepts source files whose sniffed MIME type matches one
// of accept; with none given only JPEG is accepted.
func NewFileRepository(logger *zlog.Zerolog, accept ...string) *FileRepository {
	if len(accept) == 0 {
		accept = []string{"image/jpeg"}
	}
	return &FileRepository{
		accept: accept,
		logger: logger,
	}
}

// ListImages returns the names of accepted regular files directly inside
// dir, sorted.
func (r *FileRepository) ListImages(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", repoImage.ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("%w: failed to list %s: %v", repoImage.ErrStorageError, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("Failed to detect file type, skipping")
			continue
		}
		if !mimetype.EqualsAny(mtype.String(), r.accept...) {
			r.logger.Warn().
				Str("path", path).
				Str("mime_type", mtype.String()).
				Msg("Not an accepted image type, skipping")
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

func (r *FileRepository) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", repoImage.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", repoImage.ErrStorageError, err)
	}
	return f, nil
}

// SaveProcessed writes data to path, creating parent directories. The file is
// written under a temporary name and renamed so a failed write never leaves a
// truncated output behind.
func (r *FileRepository) SaveProcessed(ctx context.Context, path string, data io.Reader, size int64, contentType string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", repoImage.ErrStorageError, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", repoImage.ErrStorageError, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", repoImage.ErrStorageError, path, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("%w: wrote %d of %d bytes to %s", repoImage.ErrStorageValidation, written, size, path)
	}

	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("%w: %v", repoImage.ErrStorageError, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to move output into place: %v", repoImage.ErrStorageError, err)
	}

	r.logger.Debug().Str("path", path).Str("content_type", contentType).Int64("size", written).Msg("File saved")
	return nil
}
