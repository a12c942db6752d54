package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	pkgkafka "github.com/Marcholio/product-review-catalog-sub000/pkg/kafka"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/logger"
)

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, ev *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	r.events = append(r.events, ev)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBreaker(name string) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Name = name
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestProducer_ReviewCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testBreaker(t.Name()), testLogger())

	ctx := logger.WithCorrelationID(context.Background(), "corr-7")
	review := &domain.Review{ID: "r-1", ProductID: "p-1", Rating: 5, Status: domain.ReviewStatusApproved}

	require.NoError(t, p.ReviewCreated(ctx, review))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "catalog.review.created", pub.topics[0])

	ev := pub.events[0]
	assert.Equal(t, "review.created", ev.Type)
	assert.Equal(t, "r-1", ev.AggregateID)
	assert.Equal(t, "corr-7", ev.CorrelationID)

	var payload ReviewPayload
	require.NoError(t, ev.DecodePayload(&payload))
	assert.Equal(t, "p-1", payload.ProductID)
	assert.Equal(t, domain.ReviewStatusApproved, payload.Status)
}

func TestProducer_RatingRecomputed(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testBreaker(t.Name()), testLogger())

	require.NoError(t, p.RatingRecomputed(context.Background(), "p-1", decimal.RequireFromString("3.50")))
	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicRatingRecomputed, pub.topics[0])

	var payload RatingPayload
	require.NoError(t, pub.events[0].DecodePayload(&payload))
	assert.True(t, payload.Rating.Equal(decimal.RequireFromString("3.5")))
}

func TestProducer_BreakerOpensAfterFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	p := NewProducer(pub, testBreaker(t.Name()), testLogger())
	ctx := context.Background()

	assert.Error(t, p.ProductDeleted(ctx, "p-1"))
	assert.Error(t, p.ProductDeleted(ctx, "p-2"))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	pub.err = nil
	err := p.ProductDeleted(ctx, "p-3")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Empty(t, pub.events)
}

func TestNoop(t *testing.T) {
	var n Noop
	ctx := context.Background()
	assert.NoError(t, n.ProductCreated(ctx, &domain.Product{}))
	assert.NoError(t, n.UserDeleted(ctx, "u-1"))
}
