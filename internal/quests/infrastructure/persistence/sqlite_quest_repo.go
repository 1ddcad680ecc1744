package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	sharedPersistence "github.com/felixgeelhaar/questa/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// SQLiteQuestRepository implements domain.Repository using SQLite.
type SQLiteQuestRepository struct {
	db *sql.DB
}

// NewSQLiteQuestRepository creates a new SQLite quest repository.
func NewSQLiteQuestRepository(db *sql.DB) *SQLiteQuestRepository {
	return &SQLiteQuestRepository{db: db}
}

// Upsert inserts or replaces the quest keyed on its ID.
func (r *SQLiteQuestRepository) Upsert(ctx context.Context, quest *domain.Quest, markSynced bool) error {
	query := `
		INSERT INTO quests (
			id, user_id, title, instructions, integration, recurrence,
			window_start, window_end, auto_destruct,
			reward_coins, reward_xp, reward_items,
			synced, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			instructions = excluded.instructions,
			integration = excluded.integration,
			recurrence = excluded.recurrence,
			window_start = excluded.window_start,
			window_end = excluded.window_end,
			auto_destruct = excluded.auto_destruct,
			reward_coins = excluded.reward_coins,
			reward_xp = excluded.reward_xp,
			reward_items = excluded.reward_items,
			synced = excluded.synced,
			updated_at = excluded.updated_at
	`

	var autoDestruct *string
	if d := quest.AutoDestruct(); d != nil {
		s := d.Format(dateLayout)
		autoDestruct = &s
	}

	var rewardItems *string
	if items := quest.Reward().Items; len(items) > 0 {
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal reward items: %w", err)
		}
		s := string(data)
		rewardItems = &s
	}

	synced := 0
	if markSynced {
		synced = 1
	}

	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		quest.ID().String(),
		quest.UserID().String(),
		quest.Title(),
		quest.Instructions(),
		string(quest.Integration()),
		encodeWeekdays(quest.Recurrence()),
		quest.Window().StartMinute,
		quest.Window().EndMinute,
		autoDestruct,
		quest.Reward().Coins,
		quest.Reward().XP,
		rewardItems,
		synced,
		quest.CreatedAt().UTC().Format(time.RFC3339),
		quest.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// MarkSynced flips the sync flag. The update stamp guard keeps a row
// that was mutated after the caller's read dirty. A missing row is a
// no-op since the quest may have been deleted concurrently.
func (r *SQLiteQuestRepository) MarkSynced(ctx context.Context, id uuid.UUID, seen time.Time) error {
	query := `UPDATE quests SET synced = 1 WHERE id = ? AND updated_at = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query, id.String(), seen.UTC().Format(time.RFC3339Nano))
	return err
}

// AllUnsynced returns the dirty quest rows for a user.
func (r *SQLiteQuestRepository) AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*domain.Quest, error) {
	query := selectQuestColumns + ` WHERE user_id = ? AND synced = 0 ORDER BY created_at`
	return r.queryQuests(ctx, query, userID.String())
}

// FindByID finds a quest by its ID.
func (r *SQLiteQuestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Quest, error) {
	query := selectQuestColumns + ` WHERE id = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, id.String())

	quest, err := scanQuest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrQuestNotFound
		}
		return nil, err
	}
	return quest, nil
}

// FindByUserID finds all quests for a user.
func (r *SQLiteQuestRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Quest, error) {
	query := selectQuestColumns + ` WHERE user_id = ? ORDER BY created_at`
	return r.queryQuests(ctx, query, userID.String())
}

// ActiveOn returns quests scheduled for the given date. Auto-destruct and
// recurrence are evaluated in memory since the recurrence set is encoded.
func (r *SQLiteQuestRepository) ActiveOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]*domain.Quest, error) {
	quests, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*domain.Quest, 0, len(quests))
	for _, q := range quests {
		if q.IsActiveOn(date) {
			active = append(active, q)
		}
	}
	return active, nil
}

// ExistsByTitle reports whether the user already has a quest with this title.
func (r *SQLiteQuestRepository) ExistsByTitle(ctx context.Context, userID uuid.UUID, title string) (bool, error) {
	query := `SELECT COUNT(1) FROM quests WHERE user_id = ? AND title = ?`
	exec := sharedPersistence.Executor(ctx, r.db)

	var count int
	if err := exec.QueryRowContext(ctx, query, userID.String(), strings.TrimSpace(title)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a quest row.
func (r *SQLiteQuestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM quests WHERE id = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query, id.String())
	return err
}

const selectQuestColumns = `
	SELECT id, user_id, title, instructions, integration, recurrence,
		   window_start, window_end, auto_destruct,
		   reward_coins, reward_xp, reward_items,
		   synced, created_at, updated_at
	FROM quests`

func (r *SQLiteQuestRepository) queryQuests(ctx context.Context, query string, args ...any) ([]*domain.Quest, error) {
	exec := sharedPersistence.Executor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []*domain.Quest
	for rows.Next() {
		quest, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, quest)
	}
	return quests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuest(row rowScanner) (*domain.Quest, error) {
	var (
		idStr        string
		userIDStr    string
		title        string
		instructions sql.NullString
		integration  string
		recurrence   string
		windowStart  int
		windowEnd    int
		autoDestruct sql.NullString
		rewardCoins  int
		rewardXP     int
		rewardItems  sql.NullString
		synced       int
		createdAtStr string
		updatedAtStr string
	)

	err := row.Scan(
		&idStr, &userIDStr, &title, &instructions, &integration, &recurrence,
		&windowStart, &windowEnd, &autoDestruct,
		&rewardCoins, &rewardXP, &rewardItems,
		&synced, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
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

	var destruct *time.Time
	if autoDestruct.Valid && autoDestruct.String != "" {
		d, err := time.Parse(dateLayout, autoDestruct.String)
		if err != nil {
			return nil, err
		}
		destruct = &d
	}

	days, err := decodeWeekdays(recurrence)
	if err != nil {
		return nil, err
	}

	reward := domain.Reward{Coins: rewardCoins, XP: rewardXP}
	if rewardItems.Valid && rewardItems.String != "" {
		if err := json.Unmarshal([]byte(rewardItems.String), &reward.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward items: %w", err)
		}
	}

	return domain.RehydrateQuest(
		id, userID, title, instructions.String,
		domain.IntegrationKind(integration),
		days,
		domain.Window{StartMinute: windowStart, EndMinute: windowEnd},
		destruct,
		reward,
		synced == 1,
		createdAt, updatedAt,
	), nil
}

// encodeWeekdays stores the recurrence set as a comma-separated list of
// weekday numbers (0 = Sunday), matching time.Weekday.
func encodeWeekdays(days domain.Weekdays) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(encoded string) (domain.Weekdays, error) {
	if encoded == "" {
		return nil, nil
	}

	parts := strings.Split(encoded, ",")
	days := make(domain.Weekdays, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid recurrence entry %q: %w", p, err)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}
