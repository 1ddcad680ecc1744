package commands

import (
	"context"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// stageEvents writes the aggregate's pending domain events to the outbox
// inside the current transaction and clears them.
func stageEvents(ctx context.Context, outboxRepo outbox.Repository, state *domain.PlayerState, userID uuid.UUID) error {
	events := state.DomainEvents()
	if len(events) == 0 {
		return nil
	}

	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(userID))

	msgs, err := outbox.FromEvents(events)
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}

	state.ClearDomainEvents()
	return nil
}
