package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

// AttractionTransformer implements Transformer by extracting attributes from
// the attraction page and filling the gaps from the catalog.
type AttractionTransformer struct {
	pages     PageFetcher
	fallbacks domain.FallbackTable
	logger    *slog.Logger
}

// NewTransformer creates an AttractionTransformer.
func NewTransformer(pages PageFetcher, fallbacks domain.FallbackTable, logger *slog.Logger) *AttractionTransformer {
	return &AttractionTransformer{
		pages:     pages,
		fallbacks: fallbacks,
		logger:    logger,
	}
}

// Transform never fails: an unavailable page yields a record carrying only
// catalog values (status fallback) or no values at all (status error).
func (t *AttractionTransformer) Transform(ctx context.Context, base domain.AttractionRecord) domain.AttractionRecord {
	text, err := t.pages.PageText(ctx, base.URL)
	if err != nil {
		t.logger.Warn("attraction page unavailable",
			"attraction", base.Name,
			"url", base.URL,
			"error", err,
		)
		return domain.Overlay(domain.FailedRecord(base), t.fallbacks)
	}

	attrs := domain.Extract(text)
	if attrs.MinHeightCM == nil && attrs.SupervisionHeightCM == nil {
		t.logger.Debug("no height found on page", "attraction", base.Name)
	}
	return domain.Overlay(domain.ScrapedRecord(base, attrs), t.fallbacks)
}
