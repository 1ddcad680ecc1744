package queries

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/google/uuid"
)

// PlayerDTO is a data transfer object for the player profile.
type PlayerDTO struct {
	UserID        uuid.UUID
	Coins         int
	XP            int
	CurrentStreak int
	LongestStreak int
	LastCompleted *time.Time
	Inventory     map[string]int
	ActiveBoosts  map[string]time.Time
	Synced        bool
}

// GetPlayerQuery contains the parameters for loading the player profile.
type GetPlayerQuery struct {
	UserID uuid.UUID
}

// GetPlayerHandler handles the GetPlayerQuery.
type GetPlayerHandler struct {
	playerRepo domain.Repository
}

// NewGetPlayerHandler creates a new GetPlayerHandler.
func NewGetPlayerHandler(playerRepo domain.Repository) *GetPlayerHandler {
	return &GetPlayerHandler{playerRepo: playerRepo}
}

// Handle executes the GetPlayerQuery. A user without a stored profile
// gets the zero profile rather than an error.
func (h *GetPlayerHandler) Handle(ctx context.Context, query GetPlayerQuery) (*PlayerDTO, error) {
	state, err := h.playerRepo.Find(ctx, query.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return &PlayerDTO{
				UserID:       query.UserID,
				Inventory:    map[string]int{},
				ActiveBoosts: map[string]time.Time{},
				Synced:       true,
			}, nil
		}
		return nil, err
	}

	return toPlayerDTO(state), nil
}

func toPlayerDTO(state *domain.PlayerState) *PlayerDTO {
	now := time.Now()

	inventory := make(map[string]int, len(state.Inventory()))
	for kind, count := range state.Inventory() {
		inventory[string(kind)] = count
	}

	boosts := make(map[string]time.Time)
	for kind, until := range state.Boosts() {
		if until.After(now) {
			boosts[string(kind)] = until
		}
	}

	streak := state.Streak()
	var lastCompleted *time.Time
	if !streak.LastCompleted.IsZero() {
		day := streak.LastCompleted
		lastCompleted = &day
	}

	return &PlayerDTO{
		UserID:        state.UserID(),
		Coins:         state.Coins(),
		XP:            state.XP(),
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		LastCompleted: lastCompleted,
		Inventory:     inventory,
		ActiveBoosts:  boosts,
		Synced:        state.IsSynced(),
	}
}
