package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/google/uuid"
)

// QuestDTO is a data transfer object for quests.
type QuestDTO struct {
	ID           uuid.UUID
	Title        string
	Instructions string
	Integration  string
	Recurrence   []time.Weekday
	AllDay       bool
	WindowStart  int
	WindowEnd    int
	AutoDestruct *time.Time
	RewardCoins  int
	RewardXP     int
	RewardItems  map[string]int
	ActiveToday  bool
	Synced       bool
	CreatedAt    time.Time
}

// ListQuestsQuery contains the parameters for listing quests.
type ListQuestsQuery struct {
	UserID     uuid.UUID
	OnlyActive bool // only quests scheduled for today
	OnlyDirty  bool // only quests pending a sync push
}

// ListQuestsHandler handles the ListQuestsQuery.
type ListQuestsHandler struct {
	questRepo domain.Repository
}

// NewListQuestsHandler creates a new ListQuestsHandler.
func NewListQuestsHandler(questRepo domain.Repository) *ListQuestsHandler {
	return &ListQuestsHandler{questRepo: questRepo}
}

// Handle executes the ListQuestsQuery.
func (h *ListQuestsHandler) Handle(ctx context.Context, query ListQuestsQuery) ([]QuestDTO, error) {
	var quests []*domain.Quest
	var err error

	switch {
	case query.OnlyActive:
		quests, err = h.questRepo.ActiveOn(ctx, query.UserID, time.Now())
	case query.OnlyDirty:
		quests, err = h.questRepo.AllUnsynced(ctx, query.UserID)
	default:
		quests, err = h.questRepo.FindByUserID(ctx, query.UserID)
	}
	if err != nil {
		return nil, err
	}

	return toQuestDTOs(quests), nil
}

func toQuestDTOs(quests []*domain.Quest) []QuestDTO {
	today := time.Now()
	dtos := make([]QuestDTO, len(quests))

	for i, q := range quests {
		window := q.Window()
		dtos[i] = QuestDTO{
			ID:           q.ID(),
			Title:        q.Title(),
			Instructions: q.Instructions(),
			Integration:  string(q.Integration()),
			Recurrence:   q.Recurrence(),
			AllDay:       window.IsAllDay(),
			WindowStart:  window.StartMinute,
			WindowEnd:    window.EndMinute,
			AutoDestruct: q.AutoDestruct(),
			RewardCoins:  q.Reward().Coins,
			RewardXP:     q.Reward().XP,
			RewardItems:  q.Reward().Items,
			ActiveToday:  q.IsActiveOn(today),
			Synced:       q.IsSynced(),
			CreatedAt:    q.CreatedAt(),
		}
	}

	return dtos
}
