package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "catalog.review.created", Topic("review", "created"))
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("review.created", "review", "r-1", "catalog", map[string]int{"rating": 4})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "review.created", ev.Type)
	assert.Equal(t, "r-1", ev.AggregateID)
	assert.False(t, ev.OccurredAt.IsZero())

	var payload map[string]int
	require.NoError(t, ev.DecodePayload(&payload))
	assert.Equal(t, 4, payload["rating"])
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("x", "y", "z", "catalog", make(chan int))
	require.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, discardLogger())

	ev, err := NewEvent("product.rating_changed", "product", "p-1", "catalog", map[string]string{"rating": "4.5"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	topic := Topic("product", "rating_changed")
	before := testutil.ToFloat64(publishedTotal.WithLabelValues(topic))

	require.NoError(t, p.Publish(context.Background(), topic, ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, "p-1", string(msg.Key))
	assert.Equal(t, "product.rating_changed", headerValue(msg, "event_type"))
	assert.Equal(t, "corr-1", headerValue(msg, "correlation_id"))
	assert.Equal(t, before+1, testutil.ToFloat64(publishedTotal.WithLabelValues(topic)))
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, discardLogger())
	ev, err := NewEvent("review.deleted", "review", "r-9", "catalog", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("review", "deleted"), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headerValue(w.msgs[0], "traceparent"))
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, discardLogger())

	topic := Topic("review", "failing")
	ev, err := NewEvent("review.created", "review", "r-2", "catalog", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), topic, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, float64(1), testutil.ToFloat64(publishErrorsTotal.WithLabelValues(topic)))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, discardLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoneConfigured(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "1", c.Get("a"))
	assert.Empty(t, c.Get("missing"))

	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, headers, 2)
}
