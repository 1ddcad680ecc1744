package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/questa/internal/identity"
	playerCommands "github.com/felixgeelhaar/questa/internal/player/application/commands"
	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
)

// PushRoutingKey is the routing key server push payloads arrive under.
const PushRoutingKey = "sync.push"

// SyncTrigger kicks off a worker run in the background.
type SyncTrigger interface {
	TriggerProfileSync(ctx context.Context)
	TriggerQuestSync(ctx context.Context, trigger domain.Trigger)
	TriggerStatsSync(ctx context.Context)
}

// PushSubscriber consumes server push payloads from the event bus.
// Each recognized key triggers exactly its own action; unknown keys are
// ignored. Deliveries are at-least-once, so the payload's idempotency
// key is registered before any crediting happens.
type PushSubscriber struct {
	sessions identity.Provider
	dedupe   domain.IdempotencyRegistry
	tokens   domain.TokenCache
	gifts    *playerCommands.ApplyGiftHandler
	syncs    SyncTrigger
	logger   *slog.Logger
}

// NewPushSubscriber creates a new PushSubscriber.
func NewPushSubscriber(
	sessions identity.Provider,
	dedupe domain.IdempotencyRegistry,
	tokens domain.TokenCache,
	gifts *playerCommands.ApplyGiftHandler,
	syncs SyncTrigger,
	logger *slog.Logger,
) *PushSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSubscriber{
		sessions: sessions,
		dedupe:   dedupe,
		tokens:   tokens,
		gifts:    gifts,
		syncs:    syncs,
		logger:   logger,
	}
}

// EventTypes returns the routing keys this consumer handles.
func (s *PushSubscriber) EventTypes() []string {
	return []string{PushRoutingKey}
}

// Handle processes one push payload delivery.
func (s *PushSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload domain.PushPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode push payload: %w", err)
	}

	first, err := s.dedupe.FirstDelivery(ctx, payload.IdempotencyKey())
	if err != nil {
		// Registry down: at-least-once beats dropping the push.
		s.logger.Warn("idempotency registry unavailable, processing anyway", "error", err)
	} else if !first {
		s.logger.Debug("duplicate push delivery dropped", "key", payload.IdempotencyKey())
		return nil
	}

	if id, ok := payload.RefreshQuestID(); ok {
		s.syncs.TriggerQuestSync(ctx, domain.Trigger{PullForQuest: id})
		s.syncs.TriggerStatsSync(ctx)
	}

	if tokenID, ok := payload.TokenID(); ok {
		if err := s.tokens.Invalidate(ctx, tokenID); err != nil {
			s.logger.Warn("failed to invalidate integration token",
				"token_id", tokenID, "error", err)
		}
	}

	if payload.RefreshProfile() {
		s.syncs.TriggerProfileSync(ctx)
	}

	return s.applyGifts(ctx, payload)
}

func (s *PushSubscriber) applyGifts(ctx context.Context, payload domain.PushPayload) error {
	gifts, hasGifts := payload.Gifts()
	coins, hasCoins := payload.GiftCoins()
	if !hasGifts && !hasCoins {
		return nil
	}

	session, err := s.sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}
	if session == nil {
		s.logger.Debug("gift push without a session, dropping")
		return nil
	}

	items := make(map[playerDomain.ItemKind]int, len(gifts))
	for kind, count := range gifts {
		items[playerDomain.ItemKind(kind)] = count
	}

	return s.gifts.Handle(ctx, playerCommands.ApplyGiftCommand{
		UserID: session.UserID,
		Items:  items,
		Coins:  coins,
	})
}
