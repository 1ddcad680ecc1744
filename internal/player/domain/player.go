package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/questa/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrNegativeDelta         = errors.New("delta must be non-negative")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrBoostAlreadyActive    = errors.New("boost already active")
	ErrInvalidBoostDuration  = errors.New("boost duration must be positive")
)

// Streak is the daily completion streak state.
type Streak struct {
	Current       int
	Longest       int
	LastCompleted time.Time // calendar date, zero if never completed
}

// DayChangeResult reports what the day-change resolver did.
type DayChangeResult struct {
	StreakKept   bool
	FreezersUsed int
	DaysLost     int
}

// PlayerState is the singleton per-user aggregate holding currency,
// experience, inventory, active boosts and the streak. Its aggregate ID
// is the user ID. Concurrent mutators must serialize their
// read-modify-write against it.
type PlayerState struct {
	sharedDomain.BaseAggregateRoot
	coins     int
	xp        int
	inventory map[ItemKind]int
	boosts    map[ItemKind]time.Time
	streak    Streak
	synced    bool
}

// NewPlayerState provisions default state for a user.
func NewPlayerState(userID uuid.UUID) *PlayerState {
	return &PlayerState{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRootWithID(userID),
		inventory:         make(map[ItemKind]int),
		boosts:            make(map[ItemKind]time.Time),
		synced:            false,
	}
}

// Getters
func (p *PlayerState) UserID() uuid.UUID { return p.ID() }
func (p *PlayerState) Coins() int        { return p.coins }
func (p *PlayerState) XP() int           { return p.xp }
func (p *PlayerState) Streak() Streak    { return p.streak }
func (p *PlayerState) IsSynced() bool    { return p.synced }

// ItemCount returns the held count for an item kind.
func (p *PlayerState) ItemCount(kind ItemKind) int { return p.inventory[kind] }

// Inventory returns a copy of the inventory mapping.
func (p *PlayerState) Inventory() map[ItemKind]int {
	out := make(map[ItemKind]int, len(p.inventory))
	for k, v := range p.inventory {
		out[k] = v
	}
	return out
}

// Boosts returns a copy of the boost expiry mapping, expired entries included.
func (p *PlayerState) Boosts() map[ItemKind]time.Time {
	out := make(map[ItemKind]time.Time, len(p.boosts))
	for k, v := range p.boosts {
		out[k] = v
	}
	return out
}

// IsBoostActive reports whether a boost of this kind is running at the
// given instant.
func (p *PlayerState) IsBoostActive(kind ItemKind, now time.Time) bool {
	expiry, ok := p.boosts[kind]
	return ok && expiry.After(now)
}

// AddCoins credits coins. Negative deltas are rejected, never clamped.
func (p *PlayerState) AddCoins(delta int) error {
	if delta < 0 {
		return ErrNegativeDelta
	}
	if delta == 0 {
		return nil
	}
	p.coins += delta
	p.markDirty()
	p.AddDomainEvent(NewCoinsAdded(p, delta))
	return nil
}

// AddXP credits experience points.
func (p *PlayerState) AddXP(delta int) error {
	if delta < 0 {
		return ErrNegativeDelta
	}
	if delta == 0 {
		return nil
	}
	p.xp += delta
	p.markDirty()
	p.AddDomainEvent(NewXPAdded(p, delta))
	return nil
}

// AddItems credits inventory counts. All counts must be non-negative;
// the whole batch is rejected if any entry is negative.
func (p *PlayerState) AddItems(items map[ItemKind]int) error {
	for _, count := range items {
		if count < 0 {
			return ErrNegativeDelta
		}
	}

	added := make(map[ItemKind]int, len(items))
	for kind, count := range items {
		if count == 0 {
			continue
		}
		p.inventory[kind] += count
		added[kind] = count
	}
	if len(added) == 0 {
		return nil
	}

	p.markDirty()
	p.AddDomainEvent(NewItemsAdded(p, added))
	return nil
}

// ConsumeItem removes count items from inventory. It fails with
// ErrInsufficientInventory when count exceeds the current holding;
// the freezer path in ResolveDayChange is the only self-limiting consumer.
func (p *PlayerState) ConsumeItem(kind ItemKind, count int) error {
	if count < 0 {
		return ErrNegativeDelta
	}
	if p.inventory[kind] < count {
		return ErrInsufficientInventory
	}
	if count == 0 {
		return nil
	}

	p.inventory[kind] -= count
	p.markDirty()
	p.AddDomainEvent(NewItemConsumed(p, kind, count))
	return nil
}

// UseItem consumes one item and applies its effect from the effect table.
func (p *PlayerState) UseItem(kind ItemKind, now time.Time) error {
	effect, ok := itemEffects[kind]
	if !ok {
		return ErrUnknownItem
	}
	if err := p.ConsumeItem(kind, 1); err != nil {
		return err
	}
	if effect == nil {
		return nil
	}
	return effect(p, now)
}

// ActivateBoost starts or restarts a timed boost.
func (p *PlayerState) ActivateBoost(kind ItemKind, duration time.Duration, policy StackPolicy) error {
	return p.activateBoostAt(kind, duration, policy, time.Now().UTC())
}

func (p *PlayerState) activateBoostAt(kind ItemKind, duration time.Duration, policy StackPolicy, now time.Time) error {
	if duration <= 0 {
		return ErrInvalidBoostDuration
	}

	expiry, active := p.boosts[kind]
	if active && expiry.After(now) {
		switch policy {
		case StackReject:
			return ErrBoostAlreadyActive
		case StackReplace:
			expiry = now.Add(duration)
		default: // StackExtend
			expiry = expiry.Add(duration)
		}
	} else {
		expiry = now.Add(duration)
	}

	p.boosts[kind] = expiry
	p.markDirty()
	p.AddDomainEvent(NewBoostActivated(p, kind, expiry))
	return nil
}

// ApplyGift credits a remote gift push through the same invariants as
// local mutations.
func (p *PlayerState) ApplyGift(items map[ItemKind]int, coins int) error {
	if coins > 0 {
		if err := p.AddCoins(coins); err != nil {
			return err
		}
	}
	if len(items) > 0 {
		if err := p.AddItems(items); err != nil {
			return err
		}
	}
	p.AddDomainEvent(NewGiftReceived(p, items, coins))
	return nil
}

// RecordCompletion advances the streak for a completion on the given date.
// Completing twice on the same day leaves the streak unchanged.
func (p *PlayerState) RecordCompletion(date time.Time) {
	day := dateOf(date)

	switch {
	case p.streak.LastCompleted.IsZero():
		p.streak.Current = 1
	case sameDay(day, p.streak.LastCompleted):
		return
	case wholeDaysBetween(p.streak.LastCompleted, day) == 1:
		p.streak.Current++
	default:
		p.streak.Current = 1
	}

	if p.streak.Current > p.streak.Longest {
		p.streak.Longest = p.streak.Current
	}
	p.streak.LastCompleted = day
	p.markDirty()
}

// ResolveDayChange reconciles the streak against elapsed calendar days,
// consuming streak freezers to cover missed days. Freezer consumption
// self-limits to the available count instead of failing.
func (p *PlayerState) ResolveDayChange(today time.Time) DayChangeResult {
	if p.streak.Current == 0 {
		return DayChangeResult{}
	}

	day := dateOf(today)
	elapsed := wholeDaysBetween(p.streak.LastCompleted, day)
	if elapsed <= 1 {
		return DayChangeResult{StreakKept: true}
	}

	missed := elapsed - 1
	available := p.inventory[ItemStreakFreezer]

	if available >= missed {
		p.inventory[ItemStreakFreezer] -= missed
		p.streak.LastCompleted = day.AddDate(0, 0, -1)
		p.markDirty()
		p.AddDomainEvent(NewFreezersUsed(p, missed))
		return DayChangeResult{StreakKept: true, FreezersUsed: missed}
	}

	if available > 0 {
		p.inventory[ItemStreakFreezer] = 0
	}
	lost := p.streak.Current
	p.streak.Current = 0
	p.markDirty()
	p.AddDomainEvent(NewStreakFailed(p, lost))
	return DayChangeResult{FreezersUsed: available, DaysLost: lost}
}

// MarkSynced flips the sync flag after the remote store confirmed the row.
func (p *PlayerState) MarkSynced() {
	p.synced = true
}

func (p *PlayerState) markDirty() {
	p.synced = false
	p.Touch()
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// wholeDaysBetween counts calendar days from one date to another.
func wholeDaysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}

// RehydratePlayerState recreates player state from persisted rows
// without generating events.
func RehydratePlayerState(
	userID uuid.UUID,
	coins int,
	xp int,
	inventory map[ItemKind]int,
	boosts map[ItemKind]time.Time,
	streak Streak,
	synced bool,
	createdAt time.Time,
	updatedAt time.Time,
) *PlayerState {
	if inventory == nil {
		inventory = make(map[ItemKind]int)
	}
	if boosts == nil {
		boosts = make(map[ItemKind]time.Time)
	}

	baseEntity := sharedDomain.RehydrateBaseEntity(userID, createdAt, updatedAt)

	return &PlayerState{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(baseEntity),
		coins:             coins,
		xp:                xp,
		inventory:         inventory,
		boosts:            boosts,
		streak:            streak,
		synced:            synced,
	}
}
