package event

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
)

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) ProductCreated(context.Context, *domain.Product) error           { return nil }
func (Noop) ProductUpdated(context.Context, *domain.Product) error           { return nil }
func (Noop) ProductDeleted(context.Context, string) error                    { return nil }
func (Noop) RatingRecomputed(context.Context, string, decimal.Decimal) error { return nil }
func (Noop) ReviewCreated(context.Context, *domain.Review) error             { return nil }
func (Noop) ReviewModerated(context.Context, *domain.Review) error           { return nil }
func (Noop) ReviewDeleted(context.Context, *domain.Review) error             { return nil }
func (Noop) UserRegistered(context.Context, *domain.User) error              { return nil }
func (Noop) UserDeleted(context.Context, string) error                       { return nil }
