package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

// RESTStore talks to the authoritative table API: select with
// equality/range filters, upsert as keyed insert-or-replace. Requests
// carry the session bearer token and run behind a circuit breaker so a
// flapping backend fails fast instead of stalling every worker run.
type RESTStore struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewRESTStore creates a REST remote store client.
func NewRESTStore(baseURL string, tokenSource oauth2.TokenSource, timeout time.Duration) *RESTStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := oauth2.NewClient(context.Background(), tokenSource)
	client.Timeout = timeout

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Missing rows are an answer, not an outage.
			return err == nil || errors.Is(err, domain.ErrRemoteNotFound)
		},
	})

	return &RESTStore{
		baseURL: baseURL,
		client:  client,
		breaker: breaker,
	}
}

// PullQuests fetches all quests for a user.
func (s *RESTStore) PullQuests(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error) {
	query := url.Values{"user_id": {userID.String()}}
	body, err := s.do(ctx, http.MethodGet, "/tables/quests", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []questDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to decode quests response: %w", err)
	}

	quests := make([]*questsDomain.Quest, 0, len(dtos))
	for _, dto := range dtos {
		quest, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("invalid quest row %s: %w", dto.ID, err)
		}
		quests = append(quests, quest)
	}
	return quests, nil
}

// PullQuest fetches one quest's canonical remote state.
func (s *RESTStore) PullQuest(ctx context.Context, userID, questID uuid.UUID) (*questsDomain.Quest, error) {
	query := url.Values{"user_id": {userID.String()}}
	body, err := s.do(ctx, http.MethodGet, "/tables/quests/"+questID.String(), query, nil)
	if err != nil {
		return nil, err
	}

	var dto questDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode quest response: %w", err)
	}
	return dto.toDomain()
}

// PushQuest upserts a quest row remotely.
func (s *RESTStore) PushQuest(ctx context.Context, quest *questsDomain.Quest) error {
	_, err := s.do(ctx, http.MethodPut, "/tables/quests/"+quest.ID().String(), nil, questToDTO(quest))
	return err
}

// PullStats fetches stats rows in a closed date range.
func (s *RESTStore) PullStats(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*statsDomain.StatsInfo, error) {
	query := url.Values{
		"user_id": {userID.String()},
		"from":    {from.Format(dateLayout)},
		"to":      {to.Format(dateLayout)},
	}
	body, err := s.do(ctx, http.MethodGet, "/tables/quest_stats", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []statsDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	rows := make([]*statsDomain.StatsInfo, 0, len(dtos))
	for _, dto := range dtos {
		row, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("invalid stats row %s/%s: %w", dto.QuestID, dto.Date, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PushStats upserts one stats row keyed on (user, quest, date).
func (s *RESTStore) PushStats(ctx context.Context, info *statsDomain.StatsInfo) error {
	_, err := s.do(ctx, http.MethodPut, "/tables/quest_stats", nil, statsToDTO(info))
	return err
}

// PullProfile fetches the player profile row.
func (s *RESTStore) PullProfile(ctx context.Context, userID uuid.UUID) (*playerDomain.PlayerState, error) {
	body, err := s.do(ctx, http.MethodGet, "/tables/player_profile/"+userID.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	var dto profileDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return dto.toDomain()
}

// PushProfile upserts the player profile row.
func (s *RESTStore) PushProfile(ctx context.Context, state *playerDomain.PlayerState) error {
	_, err := s.do(ctx, http.MethodPut, "/tables/player_profile/"+state.UserID().String(), nil, profileToDTO(state))
	return err
}

func (s *RESTStore) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	return s.breaker.Execute(func() ([]byte, error) {
		endpoint := s.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var reqBody io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, domain.ErrRemoteNotFound
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("remote store returned %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
}
