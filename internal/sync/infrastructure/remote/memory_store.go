package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory RemoteStore for tests. Push failures can
// be scripted per row to exercise partial-failure isolation, and push
// counters let tests assert the zero-push first-sync contract.
type MemoryStore struct {
	mu       sync.Mutex
	quests   map[uuid.UUID]*questsDomain.Quest
	stats    map[string]*statsDomain.StatsInfo
	profiles map[uuid.UUID]*playerDomain.PlayerState

	// Scriptable failure hooks; nil means always accept.
	PushQuestErr   func(quest *questsDomain.Quest) error
	PushStatsErr   func(info *statsDomain.StatsInfo) error
	PushProfileErr func(state *playerDomain.PlayerState) error

	questPushes   int
	statsPushes   int
	profilePushes int
}

// NewMemoryStore creates an empty in-memory remote store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quests:   make(map[uuid.UUID]*questsDomain.Quest),
		stats:    make(map[string]*statsDomain.StatsInfo),
		profiles: make(map[uuid.UUID]*playerDomain.PlayerState),
	}
}

// SeedQuest pre-populates a quest row.
func (s *MemoryStore) SeedQuest(quest *questsDomain.Quest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[quest.ID()] = quest
}

// SeedStats pre-populates a stats row.
func (s *MemoryStore) SeedStats(info *statsDomain.StatsInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[statsKey(info.UserID, info.QuestID, info.Date)] = info
}

// SeedProfile pre-populates the profile row.
func (s *MemoryStore) SeedProfile(state *playerDomain.PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[state.UserID()] = state
}

// PushCounts returns how many pushes of each kind were accepted or
// attempted.
func (s *MemoryStore) PushCounts() (quests, stats, profiles int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questPushes, s.statsPushes, s.profilePushes
}

// PullQuests returns all quests for a user.
func (s *MemoryStore) PullQuests(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*questsDomain.Quest
	for _, q := range s.quests {
		if q.UserID() == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

// PullQuest returns one quest or ErrRemoteNotFound.
func (s *MemoryStore) PullQuest(ctx context.Context, userID, questID uuid.UUID) (*questsDomain.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quest, ok := s.quests[questID]
	if !ok || quest.UserID() != userID {
		return nil, domain.ErrRemoteNotFound
	}
	return quest, nil
}

// PushQuest stores a quest row unless a scripted failure rejects it.
func (s *MemoryStore) PushQuest(ctx context.Context, quest *questsDomain.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questPushes++
	if s.PushQuestErr != nil {
		if err := s.PushQuestErr(quest); err != nil {
			return err
		}
	}
	s.quests[quest.ID()] = quest
	return nil
}

// PullStats returns rows in the closed date range.
func (s *MemoryStore) PullStats(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*statsDomain.StatsInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*statsDomain.StatsInfo
	for _, info := range s.stats {
		if info.UserID != userID {
			continue
		}
		if info.Date.Before(from) || info.Date.After(to) {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// PushStats stores a stats row unless a scripted failure rejects it.
func (s *MemoryStore) PushStats(ctx context.Context, info *statsDomain.StatsInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsPushes++
	if s.PushStatsErr != nil {
		if err := s.PushStatsErr(info); err != nil {
			return err
		}
	}
	s.stats[statsKey(info.UserID, info.QuestID, info.Date)] = info
	return nil
}

// PullProfile returns the profile row or ErrRemoteNotFound.
func (s *MemoryStore) PullProfile(ctx context.Context, userID uuid.UUID) (*playerDomain.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrRemoteNotFound
	}
	return state, nil
}

// PushProfile stores the profile row unless a scripted failure rejects it.
func (s *MemoryStore) PushProfile(ctx context.Context, state *playerDomain.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profilePushes++
	if s.PushProfileErr != nil {
		if err := s.PushProfileErr(state); err != nil {
			return err
		}
	}
	s.profiles[state.UserID()] = state
	return nil
}

func statsKey(userID, questID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", userID, questID, statsDomain.DateOf(date).Format(dateLayout))
}
