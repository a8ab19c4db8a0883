// Package resolve composes the page fetcher and field extractor into a
// single non-throwing resolution operation, falling back to deterministic
// synthetic records when the pipeline fails.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/extract"
	"github.com/fleetops/vesselwatch/internal/metrics"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

// Service implements vessel.Resolver. It is stateless per call; caching
// belongs to the tracking orchestrator.
type Service struct {
	fetcher   vessel.Fetcher
	extractor vessel.Extractor
	clock     vessel.Clock
	geo       extract.Geofence
	logger    *zap.Logger
}

// New builds a resolution service. geo supplies the regional placeholder
// position for synthetic records.
func New(fetcher vessel.Fetcher, extractor vessel.Extractor, clk vessel.Clock, geo extract.Geofence, logger *zap.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clk,
		geo:       geo,
		logger:    logger,
	}
}

// Resolve produces a best-effort record for the reference. It never
// returns an error: a failed fetch or an unusable extraction yields a
// synthetic record that is stable across calls for the same reference.
func (s *Service) Resolve(ctx context.Context, ref string) vessel.Record {
	page, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		s.logger.Warn("page fetch failed, substituting synthetic record",
			zap.String("ref", ref), zap.Error(err))
		metrics.Resolutions.WithLabelValues("synthetic").Inc()
		return s.Synthetic(ref)
	}

	rec := s.extractor.Extract(page)
	if !rec.Usable() {
		s.logger.Warn("extraction yielded no usable fields, substituting synthetic record",
			zap.String("ref", ref))
		metrics.Resolutions.WithLabelValues("synthetic").Inc()
		return s.Synthetic(ref)
	}

	rec.ResolvedAt = s.clock.Now()
	metrics.Resolutions.WithLabelValues("success").Inc()
	return rec
}
