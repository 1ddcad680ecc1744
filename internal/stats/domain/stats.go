package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidOutcome = errors.New("invalid stats outcome")

// Outcome records what happened with a quest instance on a given date.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
)

// IsValid checks if the outcome is valid.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeCompleted, OutcomeSkipped:
		return true
	default:
		return false
	}
}

// StatsInfo is one quest-day outcome row. Its identity is the composite
// (UserID, QuestID, Date); upserts are keyed on it, never appended.
// Once synced the row is immutable apart from the flag itself, which
// transitions false to true exactly once.
type StatsInfo struct {
	UserID    uuid.UUID
	QuestID   uuid.UUID
	Date      time.Time
	Outcome   Outcome
	Synced    bool
	CreatedAt time.Time
}

// NewStatsInfo creates a dirty stats row for the given quest-day.
func NewStatsInfo(userID, questID uuid.UUID, date time.Time, outcome Outcome) (*StatsInfo, error) {
	if !outcome.IsValid() {
		return nil, ErrInvalidOutcome
	}
	return &StatsInfo{
		UserID:    userID,
		QuestID:   questID,
		Date:      DateOf(date),
		Outcome:   outcome,
		Synced:    false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DateOf normalizes a timestamp to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
