package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	pkgkafka "github.com/Marcholio/product-review-catalog-sub000/pkg/kafka"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/logger"
)

// Topics for catalog domain events.
var (
	TopicProductCreated   = pkgkafka.Topic("product", "created")
	TopicProductUpdated   = pkgkafka.Topic("product", "updated")
	TopicProductDeleted   = pkgkafka.Topic("product", "deleted")
	TopicRatingRecomputed = pkgkafka.Topic("product", "rating_recomputed")
	TopicReviewCreated    = pkgkafka.Topic("review", "created")
	TopicReviewModerated  = pkgkafka.Topic("review", "moderated")
	TopicReviewDeleted    = pkgkafka.Topic("review", "deleted")
	TopicUserRegistered   = pkgkafka.Topic("user", "registered")
	TopicUserDeleted      = pkgkafka.Topic("user", "deleted")
)

const source = "product-catalog"

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Publisher is the transport the producer writes through.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ProductPayload is the body of product.created and product.updated.
type ProductPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// ReviewPayload is the body of review events.
type ReviewPayload struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	Rating    int                 `json:"rating"`
	Status    domain.ReviewStatus `json:"status"`
}

// RatingPayload is the body of product.rating_recomputed.
type RatingPayload struct {
	ProductID string          `json:"productId"`
	Rating    decimal.Decimal `json:"rating"`
}

// UserPayload is the body of user events.
type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Producer publishes catalog domain events through a circuit breaker so a
// broker outage fails fast instead of stalling requests.
type Producer struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, cfg BreakerConfig, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		breaker:   newBreaker(cfg, logger),
		logger:    logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateType, aggregateID string, payload any) error {
	ev, err := pkgkafka.NewEvent(eventType, aggregateType, aggregateID, source, payload)
	if err != nil {
		return err
	}
	ev.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(ctx, topic, ev)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("publish %s: %w", eventType, ErrCircuitOpen)
		}
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// State reports the breaker state.
func (p *Producer) State() gobreaker.State {
	return p.breaker.State()
}

func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, "product.created", "product", product.ID, productPayload(product))
}

func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, "product.updated", "product", product.ID, productPayload(product))
}

func (p *Producer) ProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductDeleted, "product.deleted", "product", productID, map[string]string{"id": productID})
}

func (p *Producer) RatingRecomputed(ctx context.Context, productID string, rating decimal.Decimal) error {
	return p.publish(ctx, TopicRatingRecomputed, "product.rating_recomputed", "product", productID,
		RatingPayload{ProductID: productID, Rating: rating})
}

func (p *Producer) ReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, "review.created", "review", review.ID, reviewPayload(review))
}

func (p *Producer) ReviewModerated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewModerated, "review.moderated", "review", review.ID, reviewPayload(review))
}

func (p *Producer) ReviewDeleted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, "review.deleted", "review", review.ID, reviewPayload(review))
}

func (p *Producer) UserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, "user.registered", "user", user.ID, UserPayload{ID: user.ID, Email: user.Email})
}

func (p *Producer) UserDeleted(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserDeleted, "user.deleted", "user", userID, UserPayload{ID: userID})
}

func productPayload(p *domain.Product) ProductPayload {
	return ProductPayload{ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category}
}

func reviewPayload(r *domain.Review) ReviewPayload {
	return ReviewPayload{ID: r.ID, ProductID: r.ProductID, Rating: r.Rating, Status: r.Status}
}
