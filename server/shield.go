package main

const (
	ShieldMaxEnergy   = 100.0
	ShieldPickupBoost = 50.0
)

// Shield absorbs hits while active and charged
type Shield struct {
	Active bool
	Energy float64
}

// Toggle flips the shield on or off. An empty shield cannot be raised.
func (s *Shield) Toggle() bool {
	if s.Energy <= 0 {
		s.Active = false
		return false
	}
	s.Active = !s.Active
	return true
}

// Charge adds energy up to the cap
func (s *Shield) Charge(amount float64) {
	s.Energy = Clamp(s.Energy+amount, 0, ShieldMaxEnergy)
}

// AbsorbDamage soaks a hit. Returns true if the shield took it; a drained
// shield drops.
func (s *Shield) AbsorbDamage(dmg float64) bool {
	if !s.Active || s.Energy <= 0 {
		return false
	}
	s.Energy -= dmg
	if s.Energy <= 0 {
		s.Energy = 0
		s.Active = false
	}
	return true
}

// Reset empties and lowers the shield
func (s *Shield) Reset() {
	s.Active = false
	s.Energy = 0
}
