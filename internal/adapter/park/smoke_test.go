//go:build smoke

package park

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

// These tests hit the live park website.
// Run with: go test -tags=smoke ./internal/adapter/park/ -v -count=1

func TestSmoke_BaronPage(t *testing.T) {
	c := NewClient(30*time.Second, 300*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	text, err := c.PageText(context.Background(), "https://www.efteling.com/en/park/attractions/baron-1898")
	require.NoError(t, err)
	require.NotEmpty(t, text)

	attrs := domain.Extract(text)
	if assert.NotNil(t, attrs.MinHeightCM, "page layout may have changed") {
		assert.Equal(t, 132, *attrs.MinHeightCM)
	}
}
