package domain

import (
	"errors"
	"time"
)

var ErrUnknownItem = errors.New("unknown inventory item")

// ItemKind identifies a consumable inventory item.
type ItemKind string

const (
	// ItemStreakFreezer retroactively covers one missed completion day.
	// It has no immediate effect when used; the day-change resolver
	// consumes it.
	ItemStreakFreezer ItemKind = "streak_freezer"
	ItemXPBoost       ItemKind = "xp_boost"
	ItemCoinBoost     ItemKind = "coin_boost"
)

// IsValid checks if the item kind is valid.
func (k ItemKind) IsValid() bool {
	_, ok := itemEffects[k]
	return ok
}

// StackPolicy defines what happens when a boost is activated while
// another boost of the same kind is still running.
type StackPolicy string

const (
	StackExtend  StackPolicy = "extend"  // push the expiry out by the duration
	StackReplace StackPolicy = "replace" // restart the boost from now
	StackReject  StackPolicy = "reject"  // fail with ErrBoostAlreadyActive
)

// ItemEffect applies an item's effect to the player when it is used.
type ItemEffect func(p *PlayerState, now time.Time) error

// itemEffects is the effect table keyed by item kind. Kinds without an
// active effect map to nil; they are still valid inventory entries.
var itemEffects = map[ItemKind]ItemEffect{
	ItemStreakFreezer: nil,
	ItemXPBoost:       boostEffect(ItemXPBoost, 24*time.Hour),
	ItemCoinBoost:     boostEffect(ItemCoinBoost, 24*time.Hour),
}

func boostEffect(kind ItemKind, duration time.Duration) ItemEffect {
	return func(p *PlayerState, now time.Time) error {
		return p.activateBoostAt(kind, duration, StackExtend, now)
	}
}
