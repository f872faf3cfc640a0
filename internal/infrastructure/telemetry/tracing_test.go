package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)
	caseID := uuid.New()

	ctx, span := StartServiceSpan(context.Background(), "casework", "transition",
		SpanAttrCaseID, caseID,
		SpanAttrCaseStatus, "in_progress",
		"attempt", 2,
		42, "ignored",
	)
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(span, "urgent", true)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "casework.transition", ended[0].Name())

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, caseID.String(), attrs[SpanAttrCaseID].AsString())
	assert.Equal(t, "in_progress", attrs[SpanAttrCaseStatus].AsString())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.True(t, attrs["urgent"].AsBool())
	_, hasIgnored := attrs["42"]
	assert.False(t, hasIgnored)
}

func TestRecordError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartServiceSpan(context.Background(), "intake", "submit")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
