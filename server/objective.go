package main

import (
	"fmt"
	"math"
)

// ObjectiveType identifies how an objective progresses
type ObjectiveType string

const (
	ObjDelivery    ObjectiveType = "delivery"
	ObjSurvival    ObjectiveType = "survival"
	ObjElimination ObjectiveType = "elimination"
	ObjCollection  ObjectiveType = "collection"
	ObjBonus       ObjectiveType = "bonus"
)

// NoDamageObjectiveID is the optional "take no damage" objective
const NoDamageObjectiveID = "no_damage"

// Objective is one goal of a level. Current only grows and never exceeds
// Target.
type Objective struct {
	ID          string
	Type        ObjectiveType
	Description string
	Target      float64
	Current     float64
	Completed   bool
	Primary     bool
	Bonus       bool
	broken      bool // bonus forfeited
}

// survivalMargin is how long before the level's time limit a survival goal
// must be reachable
const survivalMargin = 10.0

// generateObjectives builds the objectives for level: one primary goal chosen
// by level%4 plus the no-damage bonus. A positive timeLimit caps the survival
// duration so the goal ends before the clock does.
func generateObjectives(level int, timeLimit float64) []*Objective {
	lv := float64(level)
	var primary *Objective
	switch level % 4 {
	case 1:
		n := 2 + level
		primary = &Objective{ID: "delivery_mission", Type: ObjDelivery,
			Description: fmt.Sprintf("Deliver cargo to %d stations", n), Target: float64(n)}
	case 2:
		secs := 60 + 30*lv
		if timeLimit > 0 {
			secs = math.Min(secs, math.Floor(math.Max(timeLimit-survivalMargin, timeLimit/2)))
		}
		primary = &Objective{ID: "survival_mission", Type: ObjSurvival,
			Description: fmt.Sprintf("Survive for %.0f seconds", secs), Target: secs}
	case 3:
		n := 5 + 2*level
		primary = &Objective{ID: "elimination_mission", Type: ObjElimination,
			Description: fmt.Sprintf("Eliminate %d enemies", n), Target: float64(n)}
	default:
		n := 3 + level
		primary = &Objective{ID: "collection_mission", Type: ObjCollection,
			Description: fmt.Sprintf("Collect %d power-ups", n), Target: float64(n)}
	}
	primary.Primary = true
	return []*Objective{
		primary,
		{
			ID:          NoDamageObjectiveID,
			Type:        ObjBonus,
			Description: "Complete without taking damage",
			Target:      1,
			Bonus:       true,
		},
	}
}

// advance adds progress and reports whether this call completed the objective
func (o *Objective) advance(amount float64) bool {
	if o.Completed || o.broken || amount <= 0 {
		return false
	}
	o.Current = math.Min(o.Current+amount, o.Target)
	if o.Current >= o.Target {
		o.Completed = true
		return true
	}
	return false
}

// ObjectiveStatus is the display form of an objective
type ObjectiveStatus struct {
	Description string `json:"desc" msgpack:"desc"`
	Progress    string `json:"progress" msgpack:"progress"`
	Completed   bool   `json:"done" msgpack:"done"`
	Primary     bool   `json:"primary" msgpack:"primary"`
	Bonus       bool   `json:"bonus,omitempty" msgpack:"bonus,omitempty"`
}

// Status renders the objective as "current/target"
func (o *Objective) Status() ObjectiveStatus {
	return ObjectiveStatus{
		Description: o.Description,
		Progress:    fmt.Sprintf("%d/%d", int(math.Floor(o.Current)), int(o.Target)),
		Completed:   o.Completed,
		Primary:     o.Primary,
		Bonus:       o.Bonus,
	}
}
