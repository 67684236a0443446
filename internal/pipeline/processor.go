package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datainsights/internal/ingest"
	"datainsights/pkg/contracts/domain"
)

// Processor runs the full ingestion pipeline: parse, align and compute
// statistics. It is stateless; session identity is attached by the
// store afterwards.
type Processor struct {
	aligner *Aligner
	logger  *slog.Logger
}

// NewProcessor creates a processor with the given conversion factor.
func NewProcessor(monthsToDaysFactor float64, logger *slog.Logger) *Processor {
	return &Processor{
		aligner: NewAligner(monthsToDaysFactor),
		logger:  logger.With(slog.String("component", "processor")),
	}
}

// Process turns raw CSV bytes into a fully computed ProcessedData
// record. Statistics are fixed here and never recomputed for later
// visibility or color changes.
func (p *Processor) Process(ctx context.Context, data []byte, originalFilename string) (*domain.ProcessedData, error) {
	start := time.Now()

	raw, err := ingest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	series, timeline := p.aligner.AlignAll(raw)
	stats := ComputeStatistics(series, timeline)

	processed := &domain.ProcessedData{
		Series:           series,
		Statistics:       stats,
		OriginalFilename: originalFilename,
		CreatedAt:        time.Now().UTC(),
	}

	p.logger.InfoContext(ctx, "file processed",
		slog.String("filename", originalFilename),
		slog.Int("series_count", len(series)),
		slog.Int("timeline_points", len(timeline)),
		slog.Duration("duration", time.Since(start)),
	)

	return processed, nil
}
