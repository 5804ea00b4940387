package order

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheInvalidator drops read-side caches after a reconciliation
// commits. Purely informational; failures are logged, never surfaced.
type CacheInvalidator interface {
	InvalidateEventPage(ctx context.Context, eventID string)
	InvalidateCustomerTickets(ctx context.Context, customerID int64)
}

type redisCacheInvalidator struct {
	logger *logrus.Logger
	client *goredis.Client
}

func NewRedisCacheInvalidator(logger *logrus.Logger, client *goredis.Client) CacheInvalidator {
	return &redisCacheInvalidator{
		logger: logger,
		client: client,
	}
}

// InvalidateEventPage implements CacheInvalidator.
func (c *redisCacheInvalidator) InvalidateEventPage(ctx context.Context, eventID string) {
	key := fmt.Sprintf("cache:event-page:%s", eventID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("cache invalidation failed")
	}
}

// InvalidateCustomerTickets implements CacheInvalidator.
func (c *redisCacheInvalidator) InvalidateCustomerTickets(ctx context.Context, customerID int64) {
	key := fmt.Sprintf("cache:customer-tickets:%d", customerID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("cache invalidation failed")
	}
}
