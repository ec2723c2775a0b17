package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tagpilot/attribution-insights/internal/config"
	"github.com/tagpilot/attribution-insights/internal/metrics"
	"github.com/tagpilot/attribution-insights/internal/models"
	"github.com/tagpilot/attribution-insights/internal/storage"
)

// Service builds attribution reports. Stateless: every report is
// recomputed fresh from storage, nothing is cached across requests.
type Service struct {
	reader  storage.OrderReader
	cfg     config.ReportConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService constructs a report service over the given order reader.
func NewService(reader storage.OrderReader, cfg config.ReportConfig, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		reader:  reader,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Request is a validated report request. Start and End are calendar
// dates; the reader widens them to the inclusive timestamp range.
type Request struct {
	Start     time.Time
	End       time.Time
	Breakdown Breakdown
	Status    storage.StatusFilter
}

// DateRange echoes the effective range back to the caller.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Report is the canonical response payload. Both HTTP transports serve
// this one shape.
type Report struct {
	Summary       Summary                    `json:"summary"`
	RevenueTrends []TrendPoint               `json:"revenue_trends"`
	SourceSummary []SourceSummaryRow         `json:"source_summary"`
	TopProducts   []models.ProductSummaryRow `json:"top_products"`
	DailyTotals   []DailyTotal               `json:"daily_totals"`
	DateRange     DateRange                  `json:"date_range"`
	Truncated     bool                       `json:"truncated"`
	NoData        bool                       `json:"no_data"`
}

// BuildReport reads the range, aggregates it and ranks top products.
// Storage failures come back as ErrDataUnavailable; an empty range is a
// valid report with NoData set, never an error.
func (s *Service) BuildReport(ctx context.Context, req Request) (*Report, error) {
	started := time.Now()

	records, err := s.reader.FetchOrders(ctx, req.Start, req.End, req.Status)
	if err != nil {
		s.logger.Error("order fetch failed",
			zap.Error(err),
			zap.Time("start", req.Start),
			zap.Time("end", req.End),
		)
		s.metrics.RecordStorageError("fetch_orders")
		s.metrics.RecordReport(string(req.Breakdown), "error", 0, time.Since(started))
		return nil, ErrDataUnavailable
	}

	result := Aggregate(records, req.Breakdown, s.cfg.TopSources)

	products, err := s.reader.TopProducts(ctx, req.Start, req.End, req.Status, s.cfg.TopProducts)
	if err != nil {
		s.logger.Error("top products query failed", zap.Error(err))
		s.metrics.RecordStorageError("top_products")
		s.metrics.RecordReport(string(req.Breakdown), "error", len(records), time.Since(started))
		return nil, ErrDataUnavailable
	}
	if products == nil {
		products = []models.ProductSummaryRow{}
	}

	rep := &Report{
		Summary:       result.Summary,
		RevenueTrends: result.RevenueTrends,
		SourceSummary: result.SourceSummary,
		TopProducts:   products,
		DailyTotals:   result.DailyTotals,
		DateRange: DateRange{
			Start: req.Start.Format("2006-01-02"),
			End:   req.End.Format("2006-01-02"),
		},
		Truncated: result.Truncated,
		NoData:    len(records) == 0,
	}

	outcome := "ok"
	if rep.NoData {
		outcome = "empty"
	}
	s.metrics.RecordReport(string(req.Breakdown), outcome, len(records), time.Since(started))

	return rep, nil
}

// DefaultRange returns the range used when the caller omits dates:
// the trailing N configured days ending today.
func (s *Service) DefaultRange(now time.Time) (time.Time, time.Time) {
	end := now
	start := now.AddDate(0, 0, -s.cfg.DefaultRangeDays)
	return start, end
}
