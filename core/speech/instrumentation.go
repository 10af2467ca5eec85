package speech

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ttschat/core/speech"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	spokenSegments, _ = meter.Int64Counter(
		"speech.segments.spoken",
		metric.WithDescription("Segments synthesized and played to completion."),
	)
	stageFailures, _ = meter.Int64Counter(
		"speech.failures",
		metric.WithDescription("Synthesis and playback failures."),
	)
	synthesisLatency, _ = meter.Float64Histogram(
		"speech.synthesis.duration",
		metric.WithDescription("Time from dequeuing a segment to its first audio buffer."),
		metric.WithUnit("s"),
	)
)
