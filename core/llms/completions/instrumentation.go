package completions

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ttschat/core/llms/completions"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var streamDeltas, _ = meter.Int64Counter(
	"completions.stream.deltas",
	metric.WithDescription("Text deltas received from completion streams."),
)
