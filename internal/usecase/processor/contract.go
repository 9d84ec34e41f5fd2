package processor

import (
	"context"
	"io"
)

type sourceRepository interface {
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
}

// OutputRepository receives every encoded output.
type OutputRepository interface {
	SaveProcessed(ctx context.Context, path string, data io.Reader, size int64, contentType string) error
}
