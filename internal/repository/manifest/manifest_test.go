package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gallery-watermark/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResultsAndWrite(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	results := []*domain.ProcessingResult{
		{
			Name:            "a.jpg",
			Status:          domain.StatusCompleted,
			WatermarkedPath: "/site/images/a.jpg",
			ThumbnailPath:   "/site/thumbs/a.jpg",
			ImageSize:       domain.Dimensions{Width: 1000, Height: 500},
			ThumbnailSize:   domain.Dimensions{Width: 250, Height: 125},
		},
		{Name: "broken.jpg", Status: domain.StatusFailed},
		nil,
	}

	m := FromResults("run-1", at, results)
	require.Len(t, m.Photos, 1)
	assert.Equal(t, "a.jpg", m.Photos[0].Name)

	path := filepath.Join(t.TempDir(), "nested", "gallery.yaml")
	require.NoError(t, Write(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "thumbnail_width: 250"))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}
