// Package testdoubles provides spy implementations of the observability
// ports for asserting instrumentation behavior in tests.
package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// LogRecord represents one recorded log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy captures logging calls. It is safe for concurrent use.
type LoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewLoggerSpy creates a new LoggerSpy instance.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record("debug", msg, args) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record("info", msg, args) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record("warn", msg, args) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record("error", msg, args) }

func (s *LoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args})
}

// Records returns a copy of all recorded log calls.
func (s *LoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// RecordsWithLevel returns a copy of the recorded calls of one level.
func (s *LoggerSpy) RecordsWithLevel(level string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]LogRecord, 0)
	for _, record := range s.records {
		if record.Level == level {
			matching = append(matching, record)
		}
	}

	return matching
}

// MetricRecord represents one recorded metric call.
type MetricRecord struct {
	Kind     string
	Metric   string
	Value    float64
	Duration time.Duration
	Labels   map[string]string
}

// MetricsCollectorSpy captures metric calls. It is safe for concurrent use.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricRecord
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy instance.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: "counter", Metric: metric, Value: 1, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) record(r MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

// RecordsForMetric returns a copy of the recorded calls for one metric name.
func (s *MetricsCollectorSpy) RecordsForMetric(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]MetricRecord, 0)
	for _, record := range s.records {
		if record.Metric == metric {
			matching = append(matching, record)
		}
	}

	return matching
}

// SpanRecord represents one finished tracing span.
type SpanRecord struct {
	Name       string
	Status     string
	Attributes map[string]string
}

// spanContextSpy collects attributes set on an open span.
type spanContextSpy struct {
	name       string
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

func (sc *spanContextSpy) SetStatus(status string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.status = status
}

func (sc *spanContextSpy) AddAttribute(key, value string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.attributes[key] = value
}

// TracingCollectorSpy captures started and finished spans. It is safe for
// concurrent use.
type TracingCollectorSpy struct {
	mu       sync.Mutex
	finished []SpanRecord
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy instance.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (
	context.Context,
	recordstore.SpanContext,
) {

	span := &spanContextSpy{name: name, attributes: make(map[string]string)}
	for key, value := range attrs {
		span.attributes[key] = value
	}

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx recordstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*spanContextSpy)
	if !ok {
		return
	}

	span.mu.Lock()
	for key, value := range attrs {
		span.attributes[key] = value
	}
	attributes := make(map[string]string, len(span.attributes))
	for key, value := range span.attributes {
		attributes[key] = value
	}
	name := span.name
	span.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.finished = append(s.finished, SpanRecord{Name: name, Status: status, Attributes: attributes})
}

// FinishedSpans returns a copy of all finished spans.
func (s *TracingCollectorSpy) FinishedSpans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpanRecord(nil), s.finished...)
}

// ContextualLogRecord represents one recorded context-aware log call.
type ContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// ContextualLoggerSpy captures context-aware logging calls. It is safe for
// concurrent use.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []ContextualLogRecord
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy instance.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, ContextualLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Records returns a copy of all recorded log calls.
func (s *ContextualLoggerSpy) Records() []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ContextualLogRecord(nil), s.records...)
}

// RecordsWithLevel returns a copy of the recorded calls of one level.
func (s *ContextualLoggerSpy) RecordsWithLevel(level string) []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]ContextualLogRecord, 0)
	for _, record := range s.records {
		if record.Level == level {
			matching = append(matching, record)
		}
	}

	return matching
}
