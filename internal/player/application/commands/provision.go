package commands

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/google/uuid"
)

// loadOrProvision returns the user's player state, creating default
// state on first touch. Account provisioning is lazy: the first local
// mutation creates the row, and the profile sync worker later
// reconciles it with the remote pull-or-create.
func loadOrProvision(ctx context.Context, repo domain.Repository, userID uuid.UUID) (*domain.PlayerState, error) {
	state, err := repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return domain.NewPlayerState(userID), nil
		}
		return nil, err
	}
	return state, nil
}
