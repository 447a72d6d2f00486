package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// presenceTTL is how long a visitor counts as online after their last
// request. Widget polls arrive every few seconds, so 60s gives comfortable
// slack without keeping ghosts around.
const presenceTTL = 60 * time.Second

type PresenceService struct {
	redis *redis.Client
}

func NewPresenceService(redisClient *redis.Client) *PresenceService {
	return &PresenceService{redis: redisClient}
}

// Touch refreshes a visitor's online flag. Called on every widget request.
func (s *PresenceService) Touch(ctx context.Context, visitorID uuid.UUID) {
	s.redis.Set(ctx, "presence:"+visitorID.String(), "1", presenceTTL)
}

// Online reports which of the given visitors are currently online.
func (s *PresenceService) Online(ctx context.Context, visitorIDs []uuid.UUID) map[uuid.UUID]bool {
	online := make(map[uuid.UUID]bool, len(visitorIDs))
	if len(visitorIDs) == 0 {
		return online
	}

	keys := make([]string, len(visitorIDs))
	for i, id := range visitorIDs {
		keys[i] = "presence:" + id.String()
	}

	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return online
	}
	for i, v := range vals {
		online[visitorIDs[i]] = v != nil
	}
	return online
}
