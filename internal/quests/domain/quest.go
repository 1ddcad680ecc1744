package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/questa/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrQuestEmptyTitle    = errors.New("quest title cannot be empty")
	ErrQuestNoRecurrence  = errors.New("quest needs at least one recurrence day")
	ErrQuestInvalidWindow = errors.New("quest window start must precede end")
	ErrQuestExpired       = errors.New("quest has passed its auto-destruct date")
	ErrQuestNotOwned      = errors.New("quest belongs to a different user")
)

// IntegrationKind tags a quest with the external integration it is backed by.
type IntegrationKind string

const (
	IntegrationNone     IntegrationKind = "none"
	IntegrationHealth   IntegrationKind = "health"
	IntegrationCalendar IntegrationKind = "calendar"
	IntegrationTimer    IntegrationKind = "timer"
)

// IsValid checks if the integration kind is valid.
func (k IntegrationKind) IsValid() bool {
	switch k {
	case IntegrationNone, IntegrationHealth, IntegrationCalendar, IntegrationTimer:
		return true
	default:
		return false
	}
}

// Weekdays is the set of days of week a quest recurs on.
type Weekdays []time.Weekday

// Contains reports whether the set includes the given weekday.
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// EveryDay is the recurrence covering all seven weekdays.
func EveryDay() Weekdays {
	return Weekdays{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

// Window is the time-of-day range a quest is meant to be done in,
// expressed as minutes since midnight. The zero value means all day.
type Window struct {
	StartMinute int
	EndMinute   int
}

// IsAllDay reports whether the window is unbounded.
func (w Window) IsAllDay() bool { return w.StartMinute == 0 && w.EndMinute == 0 }

// IsValid checks the window bounds.
func (w Window) IsValid() bool {
	if w.IsAllDay() {
		return true
	}
	return w.StartMinute >= 0 && w.StartMinute < w.EndMinute && w.EndMinute <= 24*60
}

// Reward is the configured payout for completing a quest.
type Reward struct {
	Coins int
	XP    int
	Items map[string]int
}

// Quest represents a recurring task the user committed to.
type Quest struct {
	sharedDomain.BaseAggregateRoot
	userID       uuid.UUID
	title        string
	instructions string
	integration  IntegrationKind
	recurrence   Weekdays
	window       Window
	autoDestruct *time.Time
	reward       Reward
	synced       bool
}

// NewQuest creates a new quest. It starts dirty so the next sync run pushes it.
func NewQuest(userID uuid.UUID, title string, recurrence Weekdays, window Window, reward Reward) (*Quest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrQuestEmptyTitle
	}
	if len(recurrence) == 0 {
		return nil, ErrQuestNoRecurrence
	}
	if !window.IsValid() {
		return nil, ErrQuestInvalidWindow
	}

	quest := &Quest{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		userID:            userID,
		title:             title,
		integration:       IntegrationNone,
		recurrence:        recurrence,
		window:            window,
		reward:            reward,
		synced:            false,
	}

	quest.AddDomainEvent(NewQuestCreated(quest))

	return quest, nil
}

// Getters
func (q *Quest) UserID() uuid.UUID            { return q.userID }
func (q *Quest) Title() string                { return q.title }
func (q *Quest) Instructions() string         { return q.instructions }
func (q *Quest) Integration() IntegrationKind { return q.integration }
func (q *Quest) Recurrence() Weekdays         { return q.recurrence }
func (q *Quest) Window() Window               { return q.window }
func (q *Quest) AutoDestruct() *time.Time     { return q.autoDestruct }
func (q *Quest) Reward() Reward               { return q.reward }
func (q *Quest) IsSynced() bool               { return q.synced }

// SetTitle updates the quest title.
func (q *Quest) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrQuestEmptyTitle
	}
	q.title = title
	q.markDirty()
	return nil
}

// SetInstructions updates the instructions text.
func (q *Quest) SetInstructions(text string) {
	q.instructions = strings.TrimSpace(text)
	q.markDirty()
}

// SetIntegration tags the quest with an integration kind.
func (q *Quest) SetIntegration(kind IntegrationKind) {
	if !kind.IsValid() {
		kind = IntegrationNone
	}
	q.integration = kind
	q.markDirty()
}

// SetRecurrence replaces the recurrence set.
func (q *Quest) SetRecurrence(days Weekdays) error {
	if len(days) == 0 {
		return ErrQuestNoRecurrence
	}
	q.recurrence = days
	q.markDirty()
	return nil
}

// SetWindow replaces the time-of-day window.
func (q *Quest) SetWindow(w Window) error {
	if !w.IsValid() {
		return ErrQuestInvalidWindow
	}
	q.window = w
	q.markDirty()
	return nil
}

// SetAutoDestruct sets the date after which the quest drops out of scheduling.
func (q *Quest) SetAutoDestruct(date *time.Time) {
	q.autoDestruct = date
	q.markDirty()
}

// SetReward replaces the reward configuration.
func (q *Quest) SetReward(r Reward) {
	q.reward = r
	q.markDirty()
}

// IsActiveOn checks if the quest is scheduled for a given date.
// Past the auto-destruct date the quest is excluded from scheduling
// but its rows remain for stats history.
func (q *Quest) IsActiveOn(date time.Time) bool {
	if q.autoDestruct != nil && date.After(*q.autoDestruct) {
		return false
	}
	return q.recurrence.Contains(date.Weekday())
}

// Complete records a completion for the given date.
func (q *Quest) Complete(date time.Time) error {
	if q.autoDestruct != nil && date.After(*q.autoDestruct) {
		return ErrQuestExpired
	}
	q.Touch()
	q.AddDomainEvent(NewQuestCompleted(q, date))
	return nil
}

// MarkSynced flips the sync flag after the remote store confirmed the row.
func (q *Quest) MarkSynced() {
	q.synced = true
}

func (q *Quest) markDirty() {
	q.synced = false
	q.Touch()
}

// NoteUpdated records a single QuestUpdated event after an edit batch.
func (q *Quest) NoteUpdated() {
	q.AddDomainEvent(NewQuestUpdated(q))
}

// RehydrateQuest recreates a quest from persisted state without generating events.
func RehydrateQuest(
	id uuid.UUID,
	userID uuid.UUID,
	title string,
	instructions string,
	integration IntegrationKind,
	recurrence Weekdays,
	window Window,
	autoDestruct *time.Time,
	reward Reward,
	synced bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Quest {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)

	return &Quest{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(baseEntity),
		userID:            userID,
		title:             title,
		instructions:      instructions,
		integration:       integration,
		recurrence:        recurrence,
		window:            window,
		autoDestruct:      autoDestruct,
		reward:            reward,
		synced:            synced,
	}
}
