package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-event-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

// stateTTL bounds how long a half-finished flow (say, an unanswered timezone
// prompt) lingers before the bot forgets about it.
const stateTTL = 15 * time.Minute

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps per-user conversation state in Redis, keyed by Telegram id.
// State is transient by design: losing it degrades to the bot re-asking, so
// no durability beyond the TTL is needed.
type StateRepo struct {
	client *Client
	ttl    time.Duration
}

func NewStateRepo(client *Client) repository.StateRepository {
	return &StateRepo{client: client, ttl: stateTTL}
}

func stateKey(tgID int64) string { return fmt.Sprintf("conv_state:%d", tgID) }

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(tgID), data, s.ttl)
}

// GetState returns (nil, nil) when the user has no pending conversation, so
// callers can treat "no state" as the ordinary case without error checks.
func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	data, err := s.client.Get(ctx, stateKey(tgID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, stateKey(tgID))
}
