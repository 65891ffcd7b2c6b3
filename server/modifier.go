package main

// ModifierKind identifies what a timed modifier scales
type ModifierKind uint8

const (
	ModSpeed ModifierKind = iota
)

// Modifier is a timed effect expressed in simulation time
type Modifier struct {
	Kind      ModifierKind
	Factor    float64
	ExpiresAt float64
}

// ModifierList holds active timed effects. It lives with the game state and
// is pruned every tick, so nothing outlives a reset.
type ModifierList struct {
	items []Modifier
}

// Add registers a modifier lasting duration seconds from now
func (m *ModifierList) Add(kind ModifierKind, factor, now, duration float64) {
	m.items = append(m.items, Modifier{Kind: kind, Factor: factor, ExpiresAt: now + duration})
}

// Prune drops every modifier that has expired at now
func (m *ModifierList) Prune(now float64) {
	kept := m.items[:0]
	for _, mod := range m.items {
		if mod.ExpiresAt > now {
			kept = append(kept, mod)
		}
	}
	m.items = kept
}

// Factor returns the product of all active factors of kind
func (m *ModifierList) Factor(kind ModifierKind) float64 {
	f := 1.0
	for _, mod := range m.items {
		if mod.Kind == kind {
			f *= mod.Factor
		}
	}
	return f
}

// Active reports whether any modifier of kind is present
func (m *ModifierList) Active(kind ModifierKind) bool {
	for _, mod := range m.items {
		if mod.Kind == kind {
			return true
		}
	}
	return false
}

// Len returns the number of active modifiers
func (m *ModifierList) Len() int {
	return len(m.items)
}

// Clear discards all modifiers
func (m *ModifierList) Clear() {
	m.items = m.items[:0]
}
