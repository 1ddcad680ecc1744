package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/questa/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Player"

// CoinsAdded is emitted when coins are credited.
type CoinsAdded struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Delta  int       `json:"delta"`
	Coins  int       `json:"coins"`
}

// NewCoinsAdded creates a CoinsAdded event.
func NewCoinsAdded(p *PlayerState, delta int) *CoinsAdded {
	return &CoinsAdded{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.coins_added"),
		UserID:    p.UserID(),
		Delta:     delta,
		Coins:     p.Coins(),
	}
}

// XPAdded is emitted when experience is credited.
type XPAdded struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Delta  int       `json:"delta"`
	XP     int       `json:"xp"`
}

// NewXPAdded creates an XPAdded event.
func NewXPAdded(p *PlayerState, delta int) *XPAdded {
	return &XPAdded{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.xp_added"),
		UserID:    p.UserID(),
		Delta:     delta,
		XP:        p.XP(),
	}
}

// ItemsAdded is emitted when inventory items are credited.
type ItemsAdded struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID        `json:"user_id"`
	Items  map[ItemKind]int `json:"items"`
}

// NewItemsAdded creates an ItemsAdded event.
func NewItemsAdded(p *PlayerState, items map[ItemKind]int) *ItemsAdded {
	return &ItemsAdded{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.items_added"),
		UserID:    p.UserID(),
		Items:     items,
	}
}

// ItemConsumed is emitted when inventory items are spent.
type ItemConsumed struct {
	sharedDomain.BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	Item      ItemKind  `json:"item"`
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
}

// NewItemConsumed creates an ItemConsumed event.
func NewItemConsumed(p *PlayerState, kind ItemKind, count int) *ItemConsumed {
	return &ItemConsumed{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.item_consumed"),
		UserID:    p.UserID(),
		Item:      kind,
		Count:     count,
		Remaining: p.ItemCount(kind),
	}
}

// BoostActivated is emitted when a timed boost starts or is extended.
type BoostActivated struct {
	sharedDomain.BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	Item      ItemKind  `json:"item"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewBoostActivated creates a BoostActivated event.
func NewBoostActivated(p *PlayerState, kind ItemKind, expiresAt time.Time) *BoostActivated {
	return &BoostActivated{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.boost_activated"),
		UserID:    p.UserID(),
		Item:      kind,
		ExpiresAt: expiresAt,
	}
}

// FreezersUsed is emitted when streak freezers covered missed days.
type FreezersUsed struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Count  int       `json:"count"`
	Streak int       `json:"streak"`
}

// NewFreezersUsed creates a FreezersUsed event.
func NewFreezersUsed(p *PlayerState, count int) *FreezersUsed {
	return &FreezersUsed{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.freezers_used"),
		UserID:    p.UserID(),
		Count:     count,
		Streak:    p.Streak().Current,
	}
}

// StreakFailed is emitted when the streak is lost to missed days.
type StreakFailed struct {
	sharedDomain.BaseEvent
	UserID   uuid.UUID `json:"user_id"`
	DaysLost int       `json:"days_lost"`
	Longest  int       `json:"longest"`
}

// NewStreakFailed creates a StreakFailed event.
func NewStreakFailed(p *PlayerState, daysLost int) *StreakFailed {
	return &StreakFailed{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.streak_failed"),
		UserID:    p.UserID(),
		DaysLost:  daysLost,
		Longest:   p.Streak().Longest,
	}
}

// GiftReceived is emitted when a remote gift push has been credited.
type GiftReceived struct {
	sharedDomain.BaseEvent
	UserID uuid.UUID        `json:"user_id"`
	Items  map[ItemKind]int `json:"items,omitempty"`
	Coins  int              `json:"coins,omitempty"`
}

// NewGiftReceived creates a GiftReceived event.
func NewGiftReceived(p *PlayerState, items map[ItemKind]int, coins int) *GiftReceived {
	return &GiftReceived{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, "player.gift_received"),
		UserID:    p.UserID(),
		Items:     items,
		Coins:     coins,
	}
}
