package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the authoritative store for self-hosted deployments,
// implementing the same table semantics as the hosted REST API: keyed
// upserts, equality/range selects.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed remote store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// PullQuests fetches all quests for a user.
func (s *PostgresStore) PullQuests(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error) {
	query := `
		SELECT id, user_id, title, instructions, integration, recurrence,
			   window_start, window_end, auto_destruct,
			   reward_coins, reward_xp, reward_items,
			   created_at, updated_at
		FROM quests
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []*questsDomain.Quest
	for rows.Next() {
		quest, err := scanRemoteQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, quest)
	}
	return quests, rows.Err()
}

// PullQuest fetches one quest's canonical state.
func (s *PostgresStore) PullQuest(ctx context.Context, userID, questID uuid.UUID) (*questsDomain.Quest, error) {
	query := `
		SELECT id, user_id, title, instructions, integration, recurrence,
			   window_start, window_end, auto_destruct,
			   reward_coins, reward_xp, reward_items,
			   created_at, updated_at
		FROM quests
		WHERE id = $1 AND user_id = $2
	`

	rows, err := s.pool.Query(ctx, query, questID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrRemoteNotFound
	}
	return scanRemoteQuest(rows)
}

// PushQuest upserts a quest row.
func (s *PostgresStore) PushQuest(ctx context.Context, quest *questsDomain.Quest) error {
	query := `
		INSERT INTO quests (
			id, user_id, title, instructions, integration, recurrence,
			window_start, window_end, auto_destruct,
			reward_coins, reward_xp, reward_items,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			instructions = EXCLUDED.instructions,
			integration = EXCLUDED.integration,
			recurrence = EXCLUDED.recurrence,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			auto_destruct = EXCLUDED.auto_destruct,
			reward_coins = EXCLUDED.reward_coins,
			reward_xp = EXCLUDED.reward_xp,
			reward_items = EXCLUDED.reward_items,
			updated_at = EXCLUDED.updated_at
	`

	recurrence := make([]int32, 0, len(quest.Recurrence()))
	for _, d := range quest.Recurrence() {
		recurrence = append(recurrence, int32(d))
	}

	var rewardItems []byte
	if items := quest.Reward().Items; len(items) > 0 {
		var err error
		rewardItems, err = json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal reward items: %w", err)
		}
	}

	var autoDestruct *time.Time
	if d := quest.AutoDestruct(); d != nil {
		autoDestruct = d
	}

	_, err := s.pool.Exec(ctx, query,
		quest.ID(), quest.UserID(), quest.Title(), quest.Instructions(),
		string(quest.Integration()), recurrence,
		quest.Window().StartMinute, quest.Window().EndMinute, autoDestruct,
		quest.Reward().Coins, quest.Reward().XP, rewardItems,
		quest.CreatedAt().UTC(), quest.UpdatedAt().UTC(),
	)
	return err
}

// PullStats fetches stats rows in a closed date range.
func (s *PostgresStore) PullStats(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*statsDomain.StatsInfo, error) {
	query := `
		SELECT user_id, quest_id, date, outcome, created_at
		FROM quest_stats
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, quest_id
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*statsDomain.StatsInfo
	for rows.Next() {
		var (
			rowUserID uuid.UUID
			questID   uuid.UUID
			date      time.Time
			outcome   string
			createdAt time.Time
		)
		if err := rows.Scan(&rowUserID, &questID, &date, &outcome, &createdAt); err != nil {
			return nil, err
		}
		infos = append(infos, &statsDomain.StatsInfo{
			UserID:    rowUserID,
			QuestID:   questID,
			Date:      statsDomain.DateOf(date),
			Outcome:   statsDomain.Outcome(outcome),
			Synced:    true,
			CreatedAt: createdAt,
		})
	}
	return infos, rows.Err()
}

// PushStats upserts one stats row keyed on (user, quest, date).
func (s *PostgresStore) PushStats(ctx context.Context, info *statsDomain.StatsInfo) error {
	query := `
		INSERT INTO quest_stats (user_id, quest_id, date, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, quest_id, date) DO UPDATE SET
			outcome = EXCLUDED.outcome
	`

	_, err := s.pool.Exec(ctx, query,
		info.UserID, info.QuestID, statsDomain.DateOf(info.Date),
		string(info.Outcome), info.CreatedAt.UTC(),
	)
	return err
}

// PullProfile fetches the player profile row.
func (s *PostgresStore) PullProfile(ctx context.Context, userID uuid.UUID) (*playerDomain.PlayerState, error) {
	query := `
		SELECT user_id, coins, xp, inventory, boosts,
			   current_streak, longest_streak, last_completed,
			   created_at, updated_at
		FROM player_profile
		WHERE user_id = $1
	`

	var (
		rowUserID     uuid.UUID
		coins         int
		xp            int
		inventoryJSON []byte
		boostsJSON    []byte
		currentStreak int
		longestStreak int
		lastCompleted *time.Time
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&rowUserID, &coins, &xp, &inventoryJSON, &boostsJSON,
		&currentStreak, &longestStreak, &lastCompleted,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRemoteNotFound
		}
		return nil, err
	}

	var inventory map[playerDomain.ItemKind]int
	if len(inventoryJSON) > 0 {
		if err := json.Unmarshal(inventoryJSON, &inventory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
		}
	}

	boosts := make(map[playerDomain.ItemKind]time.Time)
	if len(boostsJSON) > 0 {
		var raw map[playerDomain.ItemKind]string
		if err := json.Unmarshal(boostsJSON, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal boosts: %w", err)
		}
		for kind, expiryStr := range raw {
			expiry, err := time.Parse(time.RFC3339, expiryStr)
			if err != nil {
				return nil, err
			}
			boosts[kind] = expiry
		}
	}

	streak := playerDomain.Streak{Current: currentStreak, Longest: longestStreak}
	if lastCompleted != nil {
		streak.LastCompleted = statsDomain.DateOf(*lastCompleted)
	}

	return playerDomain.RehydratePlayerState(
		rowUserID, coins, xp, inventory, boosts, streak,
		true, createdAt, updatedAt,
	), nil
}

// PushProfile upserts the player profile row.
func (s *PostgresStore) PushProfile(ctx context.Context, state *playerDomain.PlayerState) error {
	query := `
		INSERT INTO player_profile (
			user_id, coins, xp, inventory, boosts,
			current_streak, longest_streak, last_completed,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			coins = EXCLUDED.coins,
			xp = EXCLUDED.xp,
			inventory = EXCLUDED.inventory,
			boosts = EXCLUDED.boosts,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_completed = EXCLUDED.last_completed,
			updated_at = EXCLUDED.updated_at
	`

	inventory, err := json.Marshal(state.Inventory())
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	rawBoosts := make(map[playerDomain.ItemKind]string)
	for kind, expiry := range state.Boosts() {
		rawBoosts[kind] = expiry.UTC().Format(time.RFC3339)
	}
	boosts, err := json.Marshal(rawBoosts)
	if err != nil {
		return fmt.Errorf("failed to marshal boosts: %w", err)
	}

	var lastCompleted *time.Time
	if streak := state.Streak(); !streak.LastCompleted.IsZero() {
		lastCompleted = &streak.LastCompleted
	}

	_, err = s.pool.Exec(ctx, query,
		state.UserID(), state.Coins(), state.XP(), inventory, boosts,
		state.Streak().Current, state.Streak().Longest, lastCompleted,
		state.CreatedAt().UTC(), state.UpdatedAt().UTC(),
	)
	return err
}

func scanRemoteQuest(rows pgx.Rows) (*questsDomain.Quest, error) {
	var (
		id           uuid.UUID
		userID       uuid.UUID
		title        string
		instructions *string
		integration  string
		recurrence   []int32
		windowStart  int
		windowEnd    int
		autoDestruct *time.Time
		rewardCoins  int
		rewardXP     int
		rewardItems  []byte
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := rows.Scan(
		&id, &userID, &title, &instructions, &integration, &recurrence,
		&windowStart, &windowEnd, &autoDestruct,
		&rewardCoins, &rewardXP, &rewardItems,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	days := make(questsDomain.Weekdays, 0, len(recurrence))
	for _, n := range recurrence {
		days = append(days, time.Weekday(n))
	}

	reward := questsDomain.Reward{Coins: rewardCoins, XP: rewardXP}
	if len(rewardItems) > 0 {
		if err := json.Unmarshal(rewardItems, &reward.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward items: %w", err)
		}
	}

	var instructionsStr string
	if instructions != nil {
		instructionsStr = *instructions
	}

	return questsDomain.RehydrateQuest(
		id, userID, title, instructionsStr,
		questsDomain.IntegrationKind(integration),
		days,
		questsDomain.Window{StartMinute: windowStart, EndMinute: windowEnd},
		autoDestruct,
		reward,
		true,
		createdAt, updatedAt,
	), nil
}
