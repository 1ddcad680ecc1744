package remote

import (
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// questDTO is the wire shape of a quest row in the remote table API.
type questDTO struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Title        string         `json:"title"`
	Instructions string         `json:"instructions,omitempty"`
	Integration  string         `json:"integration"`
	Recurrence   []int          `json:"recurrence"`
	WindowStart  int            `json:"window_start"`
	WindowEnd    int            `json:"window_end"`
	AutoDestruct string         `json:"auto_destruct,omitempty"`
	RewardCoins  int            `json:"reward_coins"`
	RewardXP     int            `json:"reward_xp"`
	RewardItems  map[string]int `json:"reward_items,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func questToDTO(q *questsDomain.Quest) questDTO {
	recurrence := make([]int, 0, len(q.Recurrence()))
	for _, d := range q.Recurrence() {
		recurrence = append(recurrence, int(d))
	}

	dto := questDTO{
		ID:           q.ID().String(),
		UserID:       q.UserID().String(),
		Title:        q.Title(),
		Instructions: q.Instructions(),
		Integration:  string(q.Integration()),
		Recurrence:   recurrence,
		WindowStart:  q.Window().StartMinute,
		WindowEnd:    q.Window().EndMinute,
		RewardCoins:  q.Reward().Coins,
		RewardXP:     q.Reward().XP,
		RewardItems:  q.Reward().Items,
		CreatedAt:    q.CreatedAt().UTC(),
		UpdatedAt:    q.UpdatedAt().UTC(),
	}
	if d := q.AutoDestruct(); d != nil {
		dto.AutoDestruct = d.Format(dateLayout)
	}
	return dto
}

func (d questDTO) toDomain() (*questsDomain.Quest, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}

	recurrence := make(questsDomain.Weekdays, 0, len(d.Recurrence))
	for _, n := range d.Recurrence {
		recurrence = append(recurrence, time.Weekday(n))
	}

	var autoDestruct *time.Time
	if d.AutoDestruct != "" {
		t, err := time.Parse(dateLayout, d.AutoDestruct)
		if err != nil {
			return nil, err
		}
		autoDestruct = &t
	}

	return questsDomain.RehydrateQuest(
		id, userID, d.Title, d.Instructions,
		questsDomain.IntegrationKind(d.Integration),
		recurrence,
		questsDomain.Window{StartMinute: d.WindowStart, EndMinute: d.WindowEnd},
		autoDestruct,
		questsDomain.Reward{Coins: d.RewardCoins, XP: d.RewardXP, Items: d.RewardItems},
		true, // rows from the remote store are synced by definition
		d.CreatedAt, d.UpdatedAt,
	), nil
}

// statsDTO is the wire shape of a quest-stats row.
type statsDTO struct {
	UserID    string    `json:"user_id"`
	QuestID   string    `json:"quest_id"`
	Date      string    `json:"date"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

func statsToDTO(info *statsDomain.StatsInfo) statsDTO {
	return statsDTO{
		UserID:    info.UserID.String(),
		QuestID:   info.QuestID.String(),
		Date:      info.Date.Format(dateLayout),
		Outcome:   string(info.Outcome),
		CreatedAt: info.CreatedAt.UTC(),
	}
}

func (d statsDTO) toDomain() (*statsDomain.StatsInfo, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	questID, err := uuid.Parse(d.QuestID)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return nil, err
	}

	return &statsDomain.StatsInfo{
		UserID:    userID,
		QuestID:   questID,
		Date:      date,
		Outcome:   statsDomain.Outcome(d.Outcome),
		Synced:    true,
		CreatedAt: d.CreatedAt,
	}, nil
}

// profileDTO is the wire shape of the player profile row.
type profileDTO struct {
	UserID        string            `json:"user_id"`
	Coins         int               `json:"coins"`
	XP            int               `json:"xp"`
	Inventory     map[string]int    `json:"inventory"`
	Boosts        map[string]string `json:"boosts,omitempty"`
	CurrentStreak int               `json:"current_streak"`
	LongestStreak int               `json:"longest_streak"`
	LastCompleted string            `json:"last_completed,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func profileToDTO(state *playerDomain.PlayerState) profileDTO {
	inventory := make(map[string]int)
	for kind, count := range state.Inventory() {
		inventory[string(kind)] = count
	}
	boosts := make(map[string]string)
	for kind, expiry := range state.Boosts() {
		boosts[string(kind)] = expiry.UTC().Format(time.RFC3339)
	}

	streak := state.Streak()
	dto := profileDTO{
		UserID:        state.UserID().String(),
		Coins:         state.Coins(),
		XP:            state.XP(),
		Inventory:     inventory,
		Boosts:        boosts,
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		CreatedAt:     state.CreatedAt().UTC(),
		UpdatedAt:     state.UpdatedAt().UTC(),
	}
	if !streak.LastCompleted.IsZero() {
		dto.LastCompleted = streak.LastCompleted.Format(dateLayout)
	}
	return dto
}

func (d profileDTO) toDomain() (*playerDomain.PlayerState, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}

	inventory := make(map[playerDomain.ItemKind]int, len(d.Inventory))
	for kind, count := range d.Inventory {
		inventory[playerDomain.ItemKind(kind)] = count
	}
	boosts := make(map[playerDomain.ItemKind]time.Time, len(d.Boosts))
	for kind, raw := range d.Boosts {
		expiry, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		boosts[playerDomain.ItemKind(kind)] = expiry
	}

	streak := playerDomain.Streak{Current: d.CurrentStreak, Longest: d.LongestStreak}
	if d.LastCompleted != "" {
		streak.LastCompleted, err = time.Parse(dateLayout, d.LastCompleted)
		if err != nil {
			return nil, err
		}
	}

	return playerDomain.RehydratePlayerState(
		userID, d.Coins, d.XP, inventory, boosts, streak,
		true, d.CreatedAt, d.UpdatedAt,
	), nil
}
