package main

import (
	"errors"
	"fmt"
	"log"
)

// settingsKey is the store key for a pilot's settings. Guests share one record.
func settingsKey(pilotID int64) string {
	if pilotID <= 0 {
		return "settings:guest"
	}
	return fmt.Sprintf("settings:%d", pilotID)
}

// Gameplay difficulties
const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
)

// GraphicsSettings are client render preferences, stored for the client
type GraphicsSettings struct {
	Quality        string  `msgpack:"quality" json:"quality"`
	Particles      bool    `msgpack:"particles" json:"particles"`
	Shadows        bool    `msgpack:"shadows" json:"shadows"`
	PostProcessing bool    `msgpack:"postProcessing" json:"postProcessing"`
	FOV            float64 `msgpack:"fov" json:"fov"`
	CameraDistance float64 `msgpack:"cameraDistance" json:"cameraDistance"`
}

type AudioSettings struct {
	MasterVolume float64 `msgpack:"masterVolume" json:"masterVolume"`
	MusicVolume  float64 `msgpack:"musicVolume" json:"musicVolume"`
	SFXVolume    float64 `msgpack:"sfxVolume" json:"sfxVolume"`
	UISounds     bool    `msgpack:"uiSounds" json:"uiSounds"`
}

type ControlSettings struct {
	InvertY          bool              `msgpack:"invertY" json:"invertY"`
	MouseSensitivity float64           `msgpack:"mouseSensitivity" json:"mouseSensitivity"`
	Vibration        bool              `msgpack:"vibration" json:"vibration"`
	KeyBindings      map[string]string `msgpack:"keyBindings" json:"keyBindings"`
}

type GameplaySettings struct {
	Difficulty      string `msgpack:"difficulty" json:"difficulty"`
	TutorialEnabled bool   `msgpack:"tutorialEnabled" json:"tutorialEnabled"`
	ShowWarnings    bool   `msgpack:"showWarnings" json:"showWarnings"`
	AutoStabilize   bool   `msgpack:"autoStabilize" json:"autoStabilize"`
}

type AccessibilitySettings struct {
	HighContrast   bool   `msgpack:"highContrast" json:"highContrast"`
	LargeText      bool   `msgpack:"largeText" json:"largeText"`
	ReducedMotion  bool   `msgpack:"reducedMotion" json:"reducedMotion"`
	ColorblindMode string `msgpack:"colorblindMode" json:"colorblindMode"`
}

// Settings is the persisted preferences record
type Settings struct {
	Graphics      GraphicsSettings      `msgpack:"graphics" json:"graphics"`
	Audio         AudioSettings         `msgpack:"audio" json:"audio"`
	Controls      ControlSettings       `msgpack:"controls" json:"controls"`
	Gameplay      GameplaySettings      `msgpack:"gameplay" json:"gameplay"`
	Accessibility AccessibilitySettings `msgpack:"accessibility" json:"accessibility"`
}

// DefaultSettings returns a fresh copy of the default preferences
func DefaultSettings() Settings {
	return Settings{
		Graphics: GraphicsSettings{
			Quality: "medium", Particles: true, Shadows: true, PostProcessing: true,
			FOV: 75, CameraDistance: 10,
		},
		Audio: AudioSettings{MasterVolume: 0.8, MusicVolume: 0.7, SFXVolume: 0.9, UISounds: true},
		Controls: ControlSettings{
			MouseSensitivity: 0.5,
			Vibration:        true,
			KeyBindings: map[string]string{
				ThrustForward.String():   "KeyW",
				ThrustBackward.String():  "KeyS",
				ThrustLeft.String():      "KeyA",
				ThrustRight.String():     "KeyD",
				ThrustUp.String():        "KeyR",
				ThrustDown.String():      "KeyF",
				ThrustRollLeft.String():  "KeyQ",
				ThrustRollRight.String(): "KeyE",
				"fullStop":               "Space",
			},
		},
		Gameplay: GameplaySettings{
			Difficulty:      DifficultyNormal,
			TutorialEnabled: true,
			ShowWarnings:    true,
		},
		Accessibility: AccessibilitySettings{ColorblindMode: "off"},
	}
}

// LoadSettings reads a pilot's settings record merged over the defaults.
// Missing or unreadable records yield the defaults.
func LoadSettings(s Store, pilotID int64) Settings {
	out := DefaultSettings()
	if s == nil {
		return out
	}
	err := s.Load(settingsKey(pilotID), &out)
	switch {
	case errors.Is(err, ErrNotFound):
		return DefaultSettings()
	case err != nil:
		log.Printf("settings: %v, using defaults", err)
		return DefaultSettings()
	}
	out.sanitize()
	return out
}

// SaveSettings persists a pilot's settings record and returns what was stored
func SaveSettings(s Store, pilotID int64, v Settings) (Settings, error) {
	v.sanitize()
	return v, s.Save(settingsKey(pilotID), v)
}

// sanitize clamps values a hand-edited record could put out of range
func (s *Settings) sanitize() {
	s.Audio.MasterVolume = Clamp(s.Audio.MasterVolume, 0, 1)
	s.Audio.MusicVolume = Clamp(s.Audio.MusicVolume, 0, 1)
	s.Audio.SFXVolume = Clamp(s.Audio.SFXVolume, 0, 1)
	s.Controls.MouseSensitivity = Clamp(s.Controls.MouseSensitivity, 0, 1)
	switch s.Gameplay.Difficulty {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
	default:
		s.Gameplay.Difficulty = DifficultyNormal
	}
}
