package persistence

import (
	"context"
	"database/sql"
	"time"

	sharedPersistence "github.com/felixgeelhaar/questa/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// SQLiteStatsRepository implements domain.Repository using SQLite.
type SQLiteStatsRepository struct {
	db *sql.DB
}

// NewSQLiteStatsRepository creates a new SQLite stats repository.
func NewSQLiteStatsRepository(db *sql.DB) *SQLiteStatsRepository {
	return &SQLiteStatsRepository{db: db}
}

// Upsert inserts or replaces the row keyed on (user, quest, date).
func (r *SQLiteStatsRepository) Upsert(ctx context.Context, info *domain.StatsInfo, markSynced bool) error {
	query := `
		INSERT INTO quest_stats (user_id, quest_id, date, outcome, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, quest_id, date) DO UPDATE SET
			outcome = excluded.outcome,
			synced = excluded.synced
	`

	synced := 0
	if markSynced {
		synced = 1
	}

	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		info.UserID.String(),
		info.QuestID.String(),
		domain.DateOf(info.Date).Format(dateLayout),
		string(info.Outcome),
		synced,
		info.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// MarkSynced flips the sync flag. The outcome guard keeps a row whose
// outcome changed after the caller's read dirty. A missing row is a
// no-op since the quest and its stats may have been deleted
// concurrently.
func (r *SQLiteStatsRepository) MarkSynced(ctx context.Context, userID, questID uuid.UUID, date time.Time, seenOutcome domain.Outcome) error {
	query := `UPDATE quest_stats SET synced = 1 WHERE user_id = ? AND quest_id = ? AND date = ? AND outcome = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, query,
		userID.String(), questID.String(), domain.DateOf(date).Format(dateLayout), string(seenOutcome))
	return err
}

// AllUnsynced returns the dirty stats rows for a user.
func (r *SQLiteStatsRepository) AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*domain.StatsInfo, error) {
	query := selectStatsColumns + ` WHERE user_id = ? AND synced = 0 ORDER BY date, quest_id`
	return r.queryStats(ctx, query, userID.String())
}

// Find returns the row for one composite key, or nil when absent.
func (r *SQLiteStatsRepository) Find(ctx context.Context, userID, questID uuid.UUID, date time.Time) (*domain.StatsInfo, error) {
	query := selectStatsColumns + ` WHERE user_id = ? AND quest_id = ? AND date = ?`
	exec := sharedPersistence.Executor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query,
		userID.String(), questID.String(), domain.DateOf(date).Format(dateLayout))

	info, err := scanStats(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// FindRange returns rows with from <= date <= to for a user.
func (r *SQLiteStatsRepository) FindRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.StatsInfo, error) {
	query := selectStatsColumns + ` WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, quest_id`
	return r.queryStats(ctx, query,
		userID.String(),
		domain.DateOf(from).Format(dateLayout),
		domain.DateOf(to).Format(dateLayout),
	)
}

const selectStatsColumns = `
	SELECT user_id, quest_id, date, outcome, synced, created_at
	FROM quest_stats`

func (r *SQLiteStatsRepository) queryStats(ctx context.Context, query string, args ...any) ([]*domain.StatsInfo, error) {
	exec := sharedPersistence.Executor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*domain.StatsInfo
	for rows.Next() {
		info, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStats(row rowScanner) (*domain.StatsInfo, error) {
	var (
		userIDStr    string
		questIDStr   string
		dateStr      string
		outcome      string
		synced       int
		createdAtStr string
	)

	if err := row.Scan(&userIDStr, &questIDStr, &dateStr, &outcome, &synced, &createdAtStr); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	questID, err := uuid.Parse(questIDStr)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, err
	}

	return &domain.StatsInfo{
		UserID:    userID,
		QuestID:   questID,
		Date:      date,
		Outcome:   domain.Outcome(outcome),
		Synced:    synced == 1,
		CreatedAt: createdAt,
	}, nil
}
