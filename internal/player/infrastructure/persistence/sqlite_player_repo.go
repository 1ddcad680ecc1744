package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedPersistence "github.com/felixgeelhaar/questa/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// SQLitePlayerRepository implements domain.Repository using SQLite.
type SQLitePlayerRepository struct {
	db *sql.DB
}

// NewSQLitePlayerRepository creates a new SQLite player repository.
func NewSQLitePlayerRepository(db *sql.DB) *SQLitePlayerRepository {
	return &SQLitePlayerRepository{db: db}
}

// Find returns the singleton state for a user.
func (r *SQLitePlayerRepository) Find(ctx context.Context, userID uuid.UUID) (*domain.PlayerState, error) {
	query := selectPlayerColumns + ` WHERE user_id = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, userID.String())

	state, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return state, nil
}

// Save upserts the full row keyed on user ID.
func (r *SQLitePlayerRepository) Save(ctx context.Context, state *domain.PlayerState, markSynced bool) error {
	query := `
		INSERT INTO player_state (
			user_id, coins, xp, inventory, boosts,
			current_streak, longest_streak, last_completed,
			synced, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			coins = excluded.coins,
			xp = excluded.xp,
			inventory = excluded.inventory,
			boosts = excluded.boosts,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_completed = excluded.last_completed,
			synced = excluded.synced,
			updated_at = excluded.updated_at
	`

	inventory, err := json.Marshal(state.Inventory())
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	boosts := make(map[domain.ItemKind]string)
	for kind, expiry := range state.Boosts() {
		boosts[kind] = expiry.UTC().Format(time.RFC3339)
	}
	boostsJSON, err := json.Marshal(boosts)
	if err != nil {
		return fmt.Errorf("failed to marshal boosts: %w", err)
	}

	var lastCompleted *string
	if streak := state.Streak(); !streak.LastCompleted.IsZero() {
		s := streak.LastCompleted.Format(dateLayout)
		lastCompleted = &s
	}

	synced := 0
	if markSynced {
		synced = 1
	}

	exec := sharedPersistence.Executor(ctx, r.db)
	_, err = exec.ExecContext(ctx, query,
		state.UserID().String(),
		state.Coins(),
		state.XP(),
		string(inventory),
		string(boostsJSON),
		state.Streak().Current,
		state.Streak().Longest,
		lastCompleted,
		synced,
		state.CreatedAt().UTC().Format(time.RFC3339),
		state.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// MarkSynced flips the sync flag. The update stamp guard keeps a row
// that was mutated after the caller's read dirty; missing rows are a
// no-op.
func (r *SQLitePlayerRepository) MarkSynced(ctx context.Context, userID uuid.UUID, seen time.Time) error {
	query := `UPDATE player_state SET synced = 1 WHERE user_id = ? AND updated_at = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query, userID.String(), seen.UTC().Format(time.RFC3339Nano))
	return err
}

// FindUnsynced returns the state only when its row is dirty.
func (r *SQLitePlayerRepository) FindUnsynced(ctx context.Context, userID uuid.UUID) (*domain.PlayerState, error) {
	query := selectPlayerColumns + ` WHERE user_id = ? AND synced = 0`
	exec := sharedPersistence.Executor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, userID.String())

	state, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

const selectPlayerColumns = `
	SELECT user_id, coins, xp, inventory, boosts,
		   current_streak, longest_streak, last_completed,
		   synced, created_at, updated_at
	FROM player_state`

func scanPlayer(row *sql.Row) (*domain.PlayerState, error) {
	var (
		userIDStr     string
		coins         int
		xp            int
		inventoryJSON string
		boostsJSON    string
		currentStreak int
		longestStreak int
		lastCompleted sql.NullString
		synced        int
		createdAtStr  string
		updatedAtStr  string
	)

	err := row.Scan(
		&userIDStr, &coins, &xp, &inventoryJSON, &boostsJSON,
		&currentStreak, &longestStreak, &lastCompleted,
		&synced, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, err
	}

	var inventory map[domain.ItemKind]int
	if err := json.Unmarshal([]byte(inventoryJSON), &inventory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
	}

	var rawBoosts map[domain.ItemKind]string
	if err := json.Unmarshal([]byte(boostsJSON), &rawBoosts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boosts: %w", err)
	}
	boosts := make(map[domain.ItemKind]time.Time, len(rawBoosts))
	for kind, expiryStr := range rawBoosts {
		expiry, err := time.Parse(time.RFC3339, expiryStr)
		if err != nil {
			return nil, fmt.Errorf("invalid boost expiry for %s: %w", kind, err)
		}
		boosts[kind] = expiry
	}

	streak := domain.Streak{Current: currentStreak, Longest: longestStreak}
	if lastCompleted.Valid && lastCompleted.String != "" {
		streak.LastCompleted, err = time.Parse(dateLayout, lastCompleted.String)
		if err != nil {
			return nil, err
		}
	}

	return domain.RehydratePlayerState(
		userID, coins, xp, inventory, boosts, streak,
		synced == 1, createdAt, updatedAt,
	), nil
}
