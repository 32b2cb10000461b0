package domain

import (
	"math"
	"strings"
	"time"
)

// Game is a template in the global game catalogue
type Game struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	Description  string                 `json:"description,omitempty"`
	ThumbnailURL string                 `json:"thumbnailUrl,omitempty"`
	Type         string                 `json:"type"`
	BaseWidth    int                    `json:"baseWidth"`
	BaseHeight   int                    `json:"baseHeight"`
	IsPortrait   bool                   `json:"isPortrait"`
	IsActive     bool                   `json:"isActive"`
	Config       map[string]interface{} `json:"config,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// GameInstance is a company's configured copy of a catalogue game
type GameInstance struct {
	ID        string                 `json:"id"`
	GameID    string                 `json:"gameId"`
	CompanyID string                 `json:"companyId"`
	Name      string                 `json:"name"`
	Slug      string                 `json:"slug"`
	Config    map[string]interface{} `json:"config,omitempty"`
	IsActive  bool                   `json:"isActive"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`

	// Populated by reads that join the catalogue
	Game *Game `json:"gameTemplate,omitempty"`
}

// EffectiveConfig is the template config overlaid with the instance config
func (i *GameInstance) EffectiveConfig() map[string]interface{} {
	merged := make(map[string]interface{})
	if i.Game != nil {
		for k, v := range i.Game.Config {
			merged[k] = v
		}
	}
	for k, v := range i.Config {
		merged[k] = v
	}
	return merged
}

// PrizeSlot is one entry of an instance's prizeList
type PrizeSlot struct {
	Index  int
	Name   string
	Type   string
	Value  float64
	Config map[string]interface{}
}

// PrizeAt resolves entry index of the effective prizeList. fallbackValue is
// used when the entry carries no positive value.
func (i *GameInstance) PrizeAt(index int, fallbackValue float64) (*PrizeSlot, bool) {
	list, _ := i.EffectiveConfig()["prizeList"].([]interface{})
	if index < 0 || index >= len(list) {
		return nil, false
	}
	entry, ok := list[index].(map[string]interface{})
	if !ok {
		return nil, false
	}

	slot := &PrizeSlot{Index: index, Config: entry, Value: fallbackValue}

	slot.Name = firstString(entry, "name", "label")
	if slot.Name == "" {
		slot.Name = "Reward"
		if jackpot, _ := entry["isJackpot"].(bool); jackpot {
			slot.Name = "JACKPOT"
		}
	}

	slot.Type = strings.ToLower(firstString(entry, "type", "prizeType"))
	if slot.Type == "" {
		slot.Type = DefaultPrizeType
	}

	if v, ok := entry["value"].(float64); ok && v > 0 && !math.IsInf(v, 0) {
		slot.Value = v
	}
	return slot, true
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Score is one submitted play result
type Score struct {
	ID         string                 `json:"id"`
	MemberID   string                 `json:"memberId"`
	InstanceID string                 `json:"instanceId"`
	Score      int64                  `json:"score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// PrizeIndex returns metadata.prizeIndex when it is a whole number
func (s *Score) PrizeIndex() (int, bool) {
	v, ok := s.Metadata["prizeIndex"].(float64)
	if !ok || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// MarkedLost reports metadata.isLose; a lost play wins no prize
func (s *Score) MarkedLost() bool {
	lose, _ := s.Metadata["isLose"].(bool)
	return lose
}
