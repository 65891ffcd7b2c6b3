package main

import "time"

// GamePhase is the top-level state of a run
type GamePhase int

const (
	PhaseMenu     GamePhase = 0
	PhasePlaying  GamePhase = 1
	PhasePaused   GamePhase = 2
	PhaseGameOver GamePhase = 3
	PhaseVictory  GamePhase = 4
)

func (p GamePhase) String() string {
	switch p {
	case PhaseMenu:
		return "menu"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "gameOver"
	case PhaseVictory:
		return "victory"
	}
	return "unknown"
}

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 20 // state frames per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
	MaxStep        = 0.1 // largest dt a single Step integrates
	StartingLives  = 3
)

// SimConfig holds the settings for one simulation
type SimConfig struct {
	Class         ShipClass
	StartingLives int
	MaxStep       float64
	Seed          int64 // 0 picks one from the clock
	Director      DirectorConfig
}

// DefaultSimConfig returns the normal-difficulty configuration
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Class:         ClassShuttle,
		StartingLives: StartingLives,
		MaxStep:       MaxStep,
		Director:      DefaultDirectorConfig(),
	}
}

// WithDifficulty scales enemy pressure for a gameplay difficulty
func (c SimConfig) WithDifficulty(d string) SimConfig {
	switch d {
	case DifficultyEasy:
		c.Director.EnemySpawnRate *= 0.5
		c.Director.DamageScale = 0.75
		c.Director.MaxEnemies = 3
	case DifficultyHard:
		c.Director.EnemySpawnRate *= 1.5
		c.Director.DamageScale = 1.5
		c.Director.MaxEnemies = 8
	}
	return c
}
