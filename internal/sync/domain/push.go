package domain

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Recognized push payload keys. Unknown keys are ignored; each
// recognized key triggers exactly its own action, independent of the
// others.
const (
	KeyRefreshQuestID = "refreshQuestId"
	KeyTokenID        = "tokenId"
	KeyRefreshProfile = "refreshProfile"
	KeyGifts          = "gifts"
	KeyGiftCoins      = "gift_coins"
	KeyCoins          = "coins"
	KeyMessageID      = "messageId"
)

// PushPayload is a server-pushed string-keyed instruction mapping.
type PushPayload map[string]string

// RefreshQuestID returns the quest to re-pull, if instructed.
func (p PushPayload) RefreshQuestID() (uuid.UUID, bool) {
	raw, ok := p[KeyRefreshQuestID]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// TokenID returns the external-integration token to invalidate, if any.
func (p PushPayload) TokenID() (string, bool) {
	raw, ok := p[KeyTokenID]
	return raw, ok && raw != ""
}

// RefreshProfile reports whether a profile sync was requested.
func (p PushPayload) RefreshProfile() bool {
	_, ok := p[KeyRefreshProfile]
	return ok
}

// Gifts returns the serialized item-to-count mapping, if present.
func (p PushPayload) Gifts() (map[string]int, bool) {
	raw, ok := p[KeyGifts]
	if !ok || raw == "" {
		return nil, false
	}
	var gifts map[string]int
	if err := json.Unmarshal([]byte(raw), &gifts); err != nil {
		return nil, false
	}
	return gifts, len(gifts) > 0
}

// GiftCoins returns the coin amount to credit. The amount may ride on
// the gift_coins key itself, on the coins key when gift_coins is only
// a marker, or on a bare coins key.
func (p PushPayload) GiftCoins() (int, bool) {
	raw, marked := p[KeyGiftCoins]
	coins, present := p[KeyCoins]
	if !marked && !present {
		return 0, false
	}
	if marked {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			return n, true
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(coins)); err == nil && n > 0 {
		return n, true
	}
	return 0, false
}

// IdempotencyKey identifies this delivery for de-duplication. Pushes
// carrying a message id use it directly; otherwise the key is derived
// from the full payload content, so a retransmitted identical payload
// de-duplicates while a new gift of the same shape does not rely on it.
func (p PushPayload) IdempotencyKey() string {
	if id, ok := p[KeyMessageID]; ok && id != "" {
		return id
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, p[k])
	}
	return fmt.Sprintf("push-%x", h.Sum64())
}
