package main

import (
	"errors"
	"fmt"
	"log"
)

// Progress is a pilot's campaign record
type Progress struct {
	CurrentLevel    string         `msgpack:"currentLevel" json:"currentLevel"`
	UnlockedLevels  []string       `msgpack:"unlockedLevels" json:"unlockedLevels"`
	CompletedLevels []string       `msgpack:"completedLevels" json:"completedLevels"`
	HighScores      map[string]int `msgpack:"highScores" json:"highScores"`
}

// NewProgress returns the record of a pilot who has flown nothing
func NewProgress(levels *LevelCatalog) Progress {
	first := levels.FirstID()
	return Progress{
		CurrentLevel:   first,
		UnlockedLevels: []string{first},
		HighScores:     make(map[string]int),
	}
}

// progressKey is the store key for a pilot; 0 is the guest record
func progressKey(pilotID int64) string {
	if pilotID <= 0 {
		return "progress:guest"
	}
	return fmt.Sprintf("progress:%d", pilotID)
}

// LoadProgress reads a pilot's record, falling back to a fresh one
func LoadProgress(s Store, pilotID int64, levels *LevelCatalog) Progress {
	p := NewProgress(levels)
	if s == nil {
		return p
	}
	var saved Progress
	err := s.Load(progressKey(pilotID), &saved)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("progress: %v, starting fresh", err)
		}
		return p
	}
	if saved.HighScores == nil {
		saved.HighScores = make(map[string]int)
	}
	if len(saved.UnlockedLevels) == 0 {
		saved.UnlockedLevels = p.UnlockedLevels
	}
	if saved.CurrentLevel == "" {
		saved.CurrentLevel = p.CurrentLevel
	}
	return saved
}

// SaveProgress persists a pilot's record
func SaveProgress(s Store, pilotID int64, p Progress) error {
	return s.Save(progressKey(pilotID), p)
}

// IsUnlocked reports whether levelID may be flown
func (p *Progress) IsUnlocked(levelID string) bool {
	return contains(p.UnlockedLevels, levelID)
}

// CompleteLevel records a win on levelID: marks it completed, keeps the best
// score and unlocks the following level. Returns the level's unlock message.
func (p *Progress) CompleteLevel(levels *LevelCatalog, levelID string, score int) string {
	if !contains(p.CompletedLevels, levelID) {
		p.CompletedLevels = append(p.CompletedLevels, levelID)
	}
	if p.HighScores == nil {
		p.HighScores = make(map[string]int)
	}
	if best, ok := p.HighScores[levelID]; !ok || score > best {
		p.HighScores[levelID] = score
	}
	if next := levels.NextID(levelID); next != "" {
		if !contains(p.UnlockedLevels, next) {
			p.UnlockedLevels = append(p.UnlockedLevels, next)
		}
		p.CurrentLevel = next
	}
	desc, ok := levels.ByID(levelID)
	if !ok {
		return ""
	}
	return desc.UnlockMessage
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
