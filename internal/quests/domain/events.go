package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/questa/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Quest"

// QuestCreated is emitted when a quest is created locally.
type QuestCreated struct {
	sharedDomain.BaseEvent
	QuestID     uuid.UUID `json:"quest_id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Integration string    `json:"integration"`
}

// NewQuestCreated creates a QuestCreated event.
func NewQuestCreated(q *Quest) *QuestCreated {
	return &QuestCreated{
		BaseEvent:   sharedDomain.NewBaseEvent(q.ID(), aggregateType, "quests.quest.created"),
		QuestID:     q.ID(),
		UserID:      q.UserID(),
		Title:       q.Title(),
		Integration: string(q.Integration()),
	}
}

// QuestUpdated is emitted when quest configuration changes.
type QuestUpdated struct {
	sharedDomain.BaseEvent
	QuestID uuid.UUID `json:"quest_id"`
	UserID  uuid.UUID `json:"user_id"`
	Title   string    `json:"title"`
}

// NewQuestUpdated creates a QuestUpdated event.
func NewQuestUpdated(q *Quest) *QuestUpdated {
	return &QuestUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(q.ID(), aggregateType, "quests.quest.updated"),
		QuestID:   q.ID(),
		UserID:    q.UserID(),
		Title:     q.Title(),
	}
}

// QuestCompleted is emitted when the user completes a quest for a date.
type QuestCompleted struct {
	sharedDomain.BaseEvent
	QuestID     uuid.UUID `json:"quest_id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	RewardCoins int       `json:"reward_coins"`
	RewardXP    int       `json:"reward_xp"`
}

// NewQuestCompleted creates a QuestCompleted event.
func NewQuestCompleted(q *Quest, date time.Time) *QuestCompleted {
	return &QuestCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(q.ID(), aggregateType, "quests.quest.completed"),
		QuestID:     q.ID(),
		UserID:      q.UserID(),
		Title:       q.Title(),
		Date:        date,
		RewardCoins: q.Reward().Coins,
		RewardXP:    q.Reward().XP,
	}
}
