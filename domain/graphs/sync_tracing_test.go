package graphs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func spanNames(rec *tracetest.SpanRecorder) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range rec.Ended() {
		out[s.Name()] = s
	}
	return out
}

func TestSynchronize_Spans(t *testing.T) {
	rec := recordSpans(t)
	store := newMemStore()
	g := store.addGraph(Graph{ProjectID: 1, Title: "Traced", Direction: "TD"})

	_, err := newTestSynchronizer(store).Synchronize(context.Background(), g.ID, "graph TD\nA-->B")
	require.NoError(t, err)

	spans := spanNames(rec)
	require.Len(t, spans, 4)
	root := spans["graphs.sync"]
	require.NotNil(t, root)
	assert.Equal(t, codes.Ok, root.Status().Code)
	assert.Contains(t, root.Attributes(), attribute.Int64("narrative.graph.id", g.ID))
	assert.Contains(t, root.Attributes(), attribute.String("narrative.sync.outcome", outcomeOK))

	for _, phase := range []string{"graphs.sync.parse", "graphs.sync.diff", "graphs.sync.commit"} {
		s := spans[phase]
		require.NotNil(t, s, phase)
		assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID(), phase)
	}
}

func TestSynchronize_ParseErrorSpan(t *testing.T) {
	rec := recordSpans(t)
	store := newMemStore()
	g := store.addGraph(Graph{ProjectID: 1, Title: "Traced", Direction: "TD"})

	_, err := newTestSynchronizer(store).Synchronize(context.Background(), g.ID, "A-->B")
	require.Error(t, err)

	spans := spanNames(rec)
	assert.Len(t, spans, 2, "no transaction is opened after a parse failure")
	assert.Equal(t, codes.Error, spans["graphs.sync.parse"].Status().Code)
	assert.Equal(t, codes.Error, spans["graphs.sync"].Status().Code)
	assert.Contains(t, spans["graphs.sync"].Attributes(), attribute.String("narrative.sync.outcome", outcomeParseError))
}
