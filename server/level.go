package main

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// DefaultLevelTimeLimit applies when a descriptor leaves timeLimit unset
const DefaultLevelTimeLimit = 300.0

// Vec3Spec is a YAML-friendly vector
type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec returns the mgl64 form
func (v Vec3Spec) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// SizeRange bounds asteroid radii
type SizeRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SolarWind is a constant push on the craft
type SolarWind struct {
	Direction Vec3Spec `yaml:"direction"`
	Strength  float64  `yaml:"strength"` // force units
}

// GravityWell describes a gravity source placed for the level
type GravityWell struct {
	Position Vec3Spec `yaml:"position"`
	Mass     float64  `yaml:"mass"`
	Radius   float64  `yaml:"radius"`
	Falloff  float64  `yaml:"falloff,omitempty"`
}

// EnvironmentEffects are the level's hazards
type EnvironmentEffects struct {
	SolarWind              *SolarWind    `yaml:"solarWind,omitempty"`
	FogDensity             float64       `yaml:"fogDensity,omitempty"`
	NavigationInterference float64       `yaml:"navigationInterference,omitempty"` // 0..1
	GravityWells           []GravityWell `yaml:"gravityWells,omitempty"`
}

// LevelDescriptor is the authored layout of one level. Speeds and rates are
// per second.
type LevelDescriptor struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description,omitempty"`
	TimeLimit     float64            `yaml:"timeLimit"`
	AsteroidCount int                `yaml:"asteroidCount"`
	AsteroidSize  SizeRange          `yaml:"asteroidSize"`
	DeliveryPoint *Vec3Spec          `yaml:"deliveryPoint,omitempty"`
	StartPosition Vec3Spec           `yaml:"startPosition"`
	StartingFuel  float64            `yaml:"startingFuel"`
	FuelRegenRate float64            `yaml:"fuelRegenRate"`
	MaxSpeed      float64            `yaml:"maxSpeed"`
	Environment   EnvironmentEffects `yaml:"environmentEffects,omitempty"`
	UnlockMessage string             `yaml:"unlockMessage,omitempty"`
}

// LevelCatalog is the ordered list of levels flown in sequence
type LevelCatalog struct {
	Levels []LevelDescriptor `yaml:"levels"`
}

// DefaultLevels returns the built-in campaign
func DefaultLevels() *LevelCatalog {
	return &LevelCatalog{Levels: []LevelDescriptor{
		{
			ID: "tutorial", Name: "Training Mission",
			Description:   "Learn the basics of zero-g flight in a safe environment.",
			TimeLimit:     180,
			AsteroidCount: 10, AsteroidSize: SizeRange{0.5, 1.0},
			DeliveryPoint: &Vec3Spec{30, 15, -20},
			StartingFuel:  100, FuelRegenRate: 1.8, MaxSpeed: 21,
			UnlockMessage: "Training complete. You are ready for real missions.",
		},
		{
			ID: "asteroid-run", Name: "Asteroid Run",
			Description:   "Navigate a dense asteroid field to deliver critical supplies.",
			TimeLimit:     120,
			AsteroidCount: 40, AsteroidSize: SizeRange{0.5, 1.5},
			DeliveryPoint: &Vec3Spec{50, 30, -40},
			StartingFuel:  100, FuelRegenRate: 1.2, MaxSpeed: 18,
			UnlockMessage: "You have proved your skills in hazardous environments.",
		},
		{
			ID: "ice-fields", Name: "Ice Fields",
			Description:   "Deliver research equipment to a station deep in the icy void.",
			TimeLimit:     150,
			AsteroidCount: 30, AsteroidSize: SizeRange{1.0, 2.5},
			DeliveryPoint: &Vec3Spec{-60, -20, 70},
			StartingFuel:  90, FuelRegenRate: 0.9, MaxSpeed: 18,
			UnlockMessage: "Excellent delivery through the ice fields.",
		},
		{
			ID: "solar-winds", Name: "Solar Winds",
			Description:   "Fight powerful solar winds on an urgent delivery.",
			TimeLimit:     100,
			AsteroidCount: 25, AsteroidSize: SizeRange{0.5, 1.5},
			DeliveryPoint: &Vec3Spec{20, 50, -80},
			StartingFuel:  80, FuelRegenRate: 0.6, MaxSpeed: 15,
			Environment: EnvironmentEffects{
				SolarWind: &SolarWind{Direction: Vec3Spec{0.5, 0.2, -0.3}, Strength: 7.2},
			},
			UnlockMessage: "Outstanding navigation against the solar winds.",
		},
		{
			ID: "nebula-dive", Name: "Nebula Dive",
			Description:   "Low visibility and interference make this delivery extremely hard.",
			TimeLimit:     180,
			AsteroidCount: 50, AsteroidSize: SizeRange{0.3, 2.0},
			DeliveryPoint: &Vec3Spec{-40, -40, -40},
			StartingFuel:  75, FuelRegenRate: 0.3, MaxSpeed: 12,
			Environment: EnvironmentEffects{
				FogDensity:             0.02,
				NavigationInterference: 0.3,
			},
			UnlockMessage: "You have mastered delivery in the hardest conditions.",
		},
		{
			ID: "event-horizon", Name: "Event Horizon",
			Description:   "Skim a black hole's gravity well without being swallowed.",
			TimeLimit:     150,
			AsteroidCount: 20, AsteroidSize: SizeRange{0.5, 1.5},
			DeliveryPoint: &Vec3Spec{60, 0, -60},
			StartingFuel:  100, FuelRegenRate: 0.9, MaxSpeed: 18,
			Environment: EnvironmentEffects{
				GravityWells: []GravityWell{
					{Position: Vec3Spec{0, 0, -60}, Mass: 1000, Radius: 6, Falloff: 2},
				},
			},
			UnlockMessage: "You flew the edge of a black hole and lived.",
		},
	}}
}

// LoadLevels reads a level catalogue from a YAML file
func LoadLevels(path string) (*LevelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels: %w", err)
	}
	return ParseLevels(data)
}

// ParseLevels decodes and validates a YAML level catalogue
func ParseLevels(data []byte) (*LevelCatalog, error) {
	var c LevelCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}
	if len(c.Levels) == 0 {
		return nil, fmt.Errorf("parse levels: no levels defined")
	}
	seen := make(map[string]bool, len(c.Levels))
	for i := range c.Levels {
		l := &c.Levels[i]
		if l.ID == "" {
			return nil, fmt.Errorf("parse levels: level %d has no id", i)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("parse levels: duplicate id %q", l.ID)
		}
		seen[l.ID] = true
		l.normalize()
	}
	return &c, nil
}

// normalize fills unset fields and clamps the rest into range
func (l *LevelDescriptor) normalize() {
	if l.TimeLimit <= 0 {
		l.TimeLimit = DefaultLevelTimeLimit
	}
	if l.StartingFuel <= 0 {
		l.StartingFuel = MaxFuel
	}
	l.StartingFuel = Clamp(l.StartingFuel, 0, MaxFuel)
	if l.FuelRegenRate < 0 {
		l.FuelRegenRate = 0
	}
	if l.MaxSpeed <= 0 {
		l.MaxSpeed = CraftMaxSpeed
	}
	if l.AsteroidCount < 0 {
		l.AsteroidCount = 0
	}
	if l.AsteroidSize.Max < l.AsteroidSize.Min {
		l.AsteroidSize.Max = l.AsteroidSize.Min
	}
	l.Environment.NavigationInterference = Clamp(l.Environment.NavigationInterference, 0, 1)
	if l.Name == "" {
		l.Name = l.ID
	}
}

// ForLevel returns the descriptor flown at level counter n (1-based). The
// campaign repeats once every descriptor has been flown.
func (c *LevelCatalog) ForLevel(n int) LevelDescriptor {
	if c == nil || len(c.Levels) == 0 {
		return DefaultLevels().ForLevel(n)
	}
	if n < 1 {
		n = 1
	}
	return c.Levels[(n-1)%len(c.Levels)]
}

// ByID looks up a descriptor
func (c *LevelCatalog) ByID(id string) (LevelDescriptor, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return LevelDescriptor{}, false
}

// NextID returns the id following id, or "" for the last level
func (c *LevelCatalog) NextID(id string) string {
	for i, l := range c.Levels {
		if l.ID == id && i+1 < len(c.Levels) {
			return c.Levels[i+1].ID
		}
	}
	return ""
}

// FirstID returns the id of the opening level
func (c *LevelCatalog) FirstID() string {
	if len(c.Levels) == 0 {
		return ""
	}
	return c.Levels[0].ID
}
