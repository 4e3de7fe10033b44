package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ticketfairy/internal/models"
)

// AvailabilityCache keeps short-lived availability snapshots in Redis for
// display paths. The TTL bounds staleness; the purchase transaction never
// consults it. Cache failures degrade to a database read.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(eventID int64) string {
	return fmt.Sprintf("availability:%d", eventID)
}

func (c *AvailabilityCache) Get(ctx context.Context, eventID int64) (*models.Availability, bool) {
	data, err := c.client.Get(ctx, availabilityKey(eventID)).Bytes()
	if err != nil {
		// redis.Nil and transport errors alike are cache misses.
		return nil, false
	}
	var av models.Availability
	if err := json.Unmarshal(data, &av); err != nil {
		return nil, false
	}
	return &av, true
}

func (c *AvailabilityCache) Set(ctx context.Context, av *models.Availability) {
	data, err := json.Marshal(av)
	if err != nil {
		return
	}
	c.client.Set(ctx, availabilityKey(av.EventID), data, c.ttl)
}
