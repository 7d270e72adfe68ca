package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

const tracerName = "github.com/fincast/balance-forecast/internal/domains/forecast/adapters/observability/service"

// Service decorates a forecast application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateRule persists a new recurring rule with instrumentation.
func (s *Service) CreateRule(ctx context.Context, input foretypes.CreateRuleInput) (*foretypes.StoredRule, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateRule")
	defer span.End()

	s.logInfo(ctx, "creating rule")
	result, err := s.inner.CreateRule(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create rule")
	}
	if result != nil && result.Rule != nil {
		s.metrics.recordRuleCreated(ctx, string(result.Rule.Frequency))
		span.SetAttributes(attribute.Int64("rule.id", result.Rule.ID))
		s.logInfo(ctx, "rule created",
			slog.Int64("rule.id", result.Rule.ID),
			slog.String("rule.frequency", string(result.Rule.Frequency)),
		)
	}
	return result, nil
}

// UpdateRule applies a partial mutation to an existing rule.
func (s *Service) UpdateRule(ctx context.Context, input foretypes.UpdateRuleInput) (*foretypes.StoredRule, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateRule", attribute.Int64("rule.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "updating rule", slog.Int64("rule.id", input.ID))
	result, err := s.inner.UpdateRule(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update rule", slog.Int64("rule.id", input.ID))
	}
	if result != nil && result.Rule != nil {
		s.metrics.recordRuleUpdated(ctx, string(result.Rule.Frequency))
		s.logInfo(ctx, "rule updated",
			slog.Int64("rule.id", result.Rule.ID),
			slog.String("rule.frequency", string(result.Rule.Frequency)),
		)
	}
	return result, nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, input foretypes.RuleIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteRule", attribute.Int64("rule.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "deleting rule", slog.Int64("rule.id", input.ID))
	if err := s.inner.DeleteRule(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete rule", slog.Int64("rule.id", input.ID))
	}
	s.metrics.recordRuleDeleted(ctx)
	s.logInfo(ctx, "rule deleted", slog.Int64("rule.id", input.ID))
	return nil
}

// GetRule loads a single rule aggregate.
func (s *Service) GetRule(ctx context.Context, input foretypes.RuleIdentifier) (*foretypes.StoredRule, error) {
	ctx, span := s.startSpan(ctx, "Service.GetRule", attribute.Int64("rule.id", input.ID))
	defer span.End()

	result, err := s.inner.GetRule(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load rule", slog.Int64("rule.id", input.ID))
	}
	return result, nil
}

// ListRules exposes every configured rule.
func (s *Service) ListRules(ctx context.Context) ([]*foretypes.StoredRule, error) {
	ctx, span := s.startSpan(ctx, "Service.ListRules")
	defer span.End()

	result, err := s.inner.ListRules(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list rules")
	}
	span.SetAttributes(attribute.Int("rule.result.count", len(result)))
	return result, nil
}

// GetSettings loads the projection settings.
func (s *Service) GetSettings(ctx context.Context) (ports.Settings, error) {
	ctx, span := s.startSpan(ctx, "Service.GetSettings")
	defer span.End()

	settings, err := s.inner.GetSettings(ctx)
	if err != nil {
		return ports.Settings{}, s.handleError(ctx, span, err, "failed to load settings")
	}
	return settings, nil
}

// UpdateSettings replaces the projection settings.
func (s *Service) UpdateSettings(ctx context.Context, settings ports.Settings) (ports.Settings, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateSettings", attribute.Int("settings.horizon_days", settings.HorizonDays))
	defer span.End()

	s.logInfo(ctx, "updating settings", slog.Int("horizon_days", settings.HorizonDays))
	updated, err := s.inner.UpdateSettings(ctx, settings)
	if err != nil {
		return ports.Settings{}, s.handleError(ctx, span, err, "failed to update settings")
	}
	s.logInfo(ctx, "settings updated", slog.Int("horizon_days", updated.HorizonDays))
	return updated, nil
}

// RunProjection recomputes and stores the balance series.
func (s *Service) RunProjection(ctx context.Context, input foretypes.RunProjectionInput) (*foretypes.RunResult, error) {
	ctx, span := s.startSpan(ctx, "Service.RunProjection", attribute.Int("projection.horizon_days.requested", input.HorizonDays))
	defer span.End()

	s.logInfo(ctx, "running projection")
	result, err := s.inner.RunProjection(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to run projection")
	}
	if result != nil {
		s.metrics.recordRun(ctx, result.Summary)
		span.SetAttributes(
			attribute.String("projection.run_id", result.Projection.RunID),
			attribute.Int("projection.days", len(result.Projection.Days)),
			attribute.Int("projection.skipped_rules", result.Summary.SkippedRules),
			attribute.Int("projection.adjusted_occurrences", result.Summary.AdjustedOccurrences),
			attribute.Bool("projection.holiday_fallback", result.Summary.HolidayFallback),
		)
		s.logInfo(ctx, "projection stored",
			slog.String("run_id", result.Projection.RunID),
			slog.Int("days", len(result.Projection.Days)),
			slog.Int("skipped_rules", result.Summary.SkippedRules),
			slog.Int("adjusted_occurrences", result.Summary.AdjustedOccurrences),
			slog.Int("dropped_occurrences", result.Summary.DroppedOccurrences),
			slog.Bool("holiday_fallback", result.Summary.HolidayFallback),
		)
	}
	return result, nil
}

// LatestProjection loads the most recently stored series.
func (s *Service) LatestProjection(ctx context.Context) (*foretypes.StoredProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.LatestProjection")
	defer span.End()

	result, err := s.inner.LatestProjection(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load projection")
	}
	if result != nil {
		span.SetAttributes(
			attribute.String("projection.run_id", result.RunID),
			attribute.Int("projection.days", len(result.Days)),
		)
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	rulesCreated        metric.Int64Counter
	rulesUpdated        metric.Int64Counter
	rulesDeleted        metric.Int64Counter
	projectionRuns      metric.Int64Counter
	skippedRules        metric.Int64Counter
	adjustedOccurrences metric.Int64Counter
	droppedOccurrences  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	rulesCreated, _ := m.Int64Counter("forecast.rules.created", metric.WithDescription("Number of recurring rules created"))
	rulesUpdated, _ := m.Int64Counter("forecast.rules.updated", metric.WithDescription("Number of recurring rules updated"))
	rulesDeleted, _ := m.Int64Counter("forecast.rules.deleted", metric.WithDescription("Number of recurring rules deleted"))
	projectionRuns, _ := m.Int64Counter("forecast.projection.runs", metric.WithDescription("Number of projection runs completed"))
	skippedRules, _ := m.Int64Counter("forecast.projection.skipped_rules", metric.WithDescription("Rules skipped for failing validation during a run"))
	adjustedOccurrences, _ := m.Int64Counter("forecast.projection.adjusted_occurrences", metric.WithDescription("Occurrences moved off weekends or holidays"))
	droppedOccurrences, _ := m.Int64Counter("forecast.projection.dropped_occurrences", metric.WithDescription("Occurrences adjusted outside the horizon and dropped"))
	return serviceMetrics{
		rulesCreated:        rulesCreated,
		rulesUpdated:        rulesUpdated,
		rulesDeleted:        rulesDeleted,
		projectionRuns:      projectionRuns,
		skippedRules:        skippedRules,
		adjustedOccurrences: adjustedOccurrences,
		droppedOccurrences:  droppedOccurrences,
	}
}

func (m serviceMetrics) recordRuleCreated(ctx context.Context, frequency string) {
	addCounter(ctx, m.rulesCreated, 1, attribute.String("rule.frequency", frequency))
}

func (m serviceMetrics) recordRuleUpdated(ctx context.Context, frequency string) {
	addCounter(ctx, m.rulesUpdated, 1, attribute.String("rule.frequency", frequency))
}

func (m serviceMetrics) recordRuleDeleted(ctx context.Context) {
	addCounter(ctx, m.rulesDeleted, 1)
}

func (m serviceMetrics) recordRun(ctx context.Context, summary domain.RunSummary) {
	addCounter(ctx, m.projectionRuns, 1, attribute.Bool("holiday_fallback", summary.HolidayFallback))
	addCounter(ctx, m.skippedRules, int64(summary.SkippedRules))
	addCounter(ctx, m.adjustedOccurrences, int64(summary.AdjustedOccurrences))
	addCounter(ctx, m.droppedOccurrences, int64(summary.DroppedOccurrences))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
