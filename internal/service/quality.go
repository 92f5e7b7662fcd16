package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	apperrors "github.com/quantumgrade/entropyval/internal/errors"
	"github.com/quantumgrade/entropyval/internal/observability/metrics"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
	"github.com/quantumgrade/entropyval/internal/quality"
)

// QualityServiceOptions groups dependencies for QualityService.
type QualityServiceOptions struct {
	Events  core.EventRepository  // Required: entropy event repository
	Reports core.ReportRepository // Required: quality report repository
	Cache   core.CacheRepository  // Optional: latest-report cache
	Config  config.QualityConfig  // Required: quality monitor configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// QualityService scores stream health for a window of entropy events and
// persists the resulting reports. Reports are immutable snapshots; the latest
// one per channel is additionally cached for cheap polling.
type QualityService struct {
	events  core.EventRepository
	reports core.ReportRepository
	cache   core.CacheRepository
	config  config.QualityConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewQualityService constructs a new QualityService.
func NewQualityService(opts QualityServiceOptions) (*QualityService, error) {
	if opts.Events == nil {
		return nil, errors.New("EventRepository is required")
	}
	if opts.Reports == nil {
		return nil, errors.New("ReportRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "quality_service")
	}

	return &QualityService{
		events:  opts.Events,
		reports: opts.Reports,
		cache:   opts.Cache,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

func (s *QualityService) thresholds() quality.Thresholds {
	return quality.Thresholds{
		Excellent: s.config.ExcellentThreshold,
		Good:      s.config.GoodThreshold,
		Warning:   s.config.WarningThreshold,
	}
}

// ScoreWindow analyzes one channel over the given window, persists the
// resulting report, and refreshes the latest-report cache.
func (s *QualityService) ScoreWindow(ctx context.Context, channel string, window model.Window) (*model.QualityReport, error) {
	if err := window.Validate(); err != nil {
		return nil, apperrors.Validationf("invalid window: %v", err)
	}

	events, err := s.events.QueryWindow(ctx, core.QueryWindowParams{
		Window:  window,
		Channel: channel,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "query events for quality window")
	}

	report := s.buildReport(channel, window, events)

	stored, err := s.reports.Insert(ctx, report)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "persist quality report")
	}

	s.cacheLatest(ctx, stored)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "quality report stored",
			"channel", channel,
			"total_events", stored.TotalEvents,
			"score", stored.OverallQualityScore,
			"status", stored.Status,
		)
	}
	metrics.EmitQualityScore(s.metrics, channel, stored.OverallQualityScore, stored.Status)

	return stored, nil
}

// buildReport runs the individual quality analyses and folds them into a
// report. Sub-metrics stay nil when the underlying signal could not be
// measured, so readers can tell "measured clean" from "unknown".
func (s *QualityService) buildReport(channel string, window model.Window, events []*model.EntropyEvent) *model.QualityReport {
	report := &model.QualityReport{
		Channel:     channel,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		TotalEvents: len(events),
	}

	sequences := make([]int64, len(events))
	hwTimestamps := make([]int64, len(events))
	driftSamples := make([]quality.DriftSample, len(events))
	var delaySum float64
	var delayCount int
	for i, ev := range events {
		sequences[i] = ev.Sequence
		hwTimestamps[i] = ev.HwTimestampNs
		driftSamples[i] = quality.DriftSample{
			HardwareNs: ev.HwTimestampNs,
			ReceivedAt: ev.ServerReceivedAt,
		}
		if ev.NetworkDelayMs != nil {
			delaySum += *ev.NetworkDelayMs
			delayCount++
		}
	}

	gaps := quality.DetectGaps(sequences)
	report.MissingSequenceCount = int(gaps.MissingCount)

	report.ClockDriftUsPerHour = quality.EstimateDriftUsPerHour(driftSamples, s.config.MinDriftSamples)

	decay := quality.AnalyzeDecay(hwTimestamps, quality.DefaultDecayBounds())
	report.AverageDecayIntervalMs = decay.AverageIntervalMs
	report.DecayRateRealistic = decay.Realistic

	if delayCount > 0 {
		avgDelay := delaySum / float64(delayCount)
		report.AverageNetworkDelayMs = &avgDelay
	}

	missing := gaps.MissingCount
	out := quality.Score(quality.Input{
		TotalEvents:           len(events),
		MissingSequenceCount:  &missing,
		DriftUsPerHour:        report.ClockDriftUsPerHour,
		DecayRateRealistic:    report.DecayRateRealistic,
		AverageNetworkDelayMs: report.AverageNetworkDelayMs,
	}, s.thresholds())

	report.OverallQualityScore = out.Score
	report.Status = out.Status
	report.Recommendations = out.Recommendations

	return report
}

// GetLatestReport returns the most recent report for a channel, serving from
// cache when possible.
func (s *QualityService) GetLatestReport(ctx context.Context, channel string) (*model.QualityReport, error) {
	if cached := s.cachedLatest(ctx, channel); cached != nil {
		return cached, nil
	}

	report, err := s.reports.GetLatest(ctx, channel)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			return nil, apperrors.NotFoundf("no quality report for channel %s", channel)
		}
		return nil, apperrors.MapDBError(err)
	}

	s.cacheLatest(ctx, report)
	return report, nil
}

// RunSweep scores every configured channel over the trailing window.
func (s *QualityService) RunSweep(ctx context.Context, now time.Time) error {
	window := model.Window{Start: now.Add(-s.config.WindowSize), End: now}

	var errs []error
	for _, channel := range s.config.Channels {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.ScoreWindow(ctx, channel, window); err != nil {
			if s.logger != nil && !isContextCancellation(err) {
				s.logger.ErrorContext(ctx, "quality sweep channel failed",
					"channel", channel,
					"error", err,
				)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run starts the quality monitor loop and runs until the context is
// cancelled. Returns nil on graceful shutdown (context.Canceled).
func (s *QualityService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting quality monitor",
			"interval", s.config.Interval,
			"window_size", s.config.WindowSize,
			"channels", s.config.Channels,
		)
	}

	waitWithJitter(ctx, s.config.Interval, s.logger)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunSweep(ctx, time.Now()); err != nil && s.logger != nil && !isContextCancellation(err) {
		s.logger.Error("initial quality sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "quality monitor stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunSweep(ctx, time.Now()); err != nil && s.logger != nil && !isContextCancellation(err) {
				s.logger.Error("quality sweep failed", "error", err)
			}
		}
	}
}

func latestReportKey(channel string) string {
	return "quality:latest:" + channel
}

func (s *QualityService) cacheLatest(ctx context.Context, report *model.QualityReport) {
	if s.cache == nil || report == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	ttl := s.config.Interval
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if err := s.cache.Set(ctx, latestReportKey(report.Channel), payload, ttl); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "cache latest report failed",
			"channel", report.Channel,
			"error", err,
		)
	}
}

func (s *QualityService) cachedLatest(ctx context.Context, channel string) *model.QualityReport {
	if s.cache == nil {
		return nil
	}

	payload, err := s.cache.Get(ctx, latestReportKey(channel))
	if err != nil || len(payload) == 0 {
		return nil
	}

	var report model.QualityReport
	if err := json.Unmarshal(payload, &report); err != nil {
		// Stale or corrupt entry; drop it and fall back to the database.
		_, _ = s.cache.Delete(ctx, latestReportKey(channel))
		return nil
	}
	return &report
}
