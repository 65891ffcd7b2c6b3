package main

// ShipClass identifies the craft profile a pilot flies
type ShipClass int

const (
	ClassShuttle   ShipClass = 0
	ClassSpeedster ShipClass = 1
	ClassHauler    ShipClass = 2
	ClassGhost     ShipClass = 3
)

// ShipClassDef scales the base spacecraft handling
type ShipClassDef struct {
	Name            string
	Speed           float64 // max speed and thrust multiplier
	Maneuverability float64 // angular thrust multiplier
	FuelConsumption float64 // consumption multiplier
	StealthRating   float64 // 0 = none; scales enemy detection range down
}

var ShipClasses = [4]ShipClassDef{
	// Shuttle: balanced
	{Name: "Cargo Shuttle", Speed: 1.0, Maneuverability: 1.0, FuelConsumption: 1.0},
	// Speedster: fast, thirsty
	{Name: "Swift Courier", Speed: 1.5, Maneuverability: 1.2, FuelConsumption: 1.6},
	// Hauler: slow, efficient
	{Name: "Heavy Hauler", Speed: 0.7, Maneuverability: 0.6, FuelConsumption: 0.6},
	// Ghost: harder to notice
	{Name: "Ghost Runner", Speed: 1.1, Maneuverability: 1.0, FuelConsumption: 1.2, StealthRating: 0.3},
}

// GetClassDef returns the definition for a ship class
func GetClassDef(class ShipClass) ShipClassDef {
	if class < 0 || int(class) >= len(ShipClasses) {
		return ShipClasses[ClassShuttle]
	}
	return ShipClasses[class]
}

// ParseShipClass maps a profile id to its class, defaulting to the shuttle
func ParseShipClass(id string) ShipClass {
	switch id {
	case "speedster":
		return ClassSpeedster
	case "hauler":
		return ClassHauler
	case "stealth", "ghost":
		return ClassGhost
	}
	return ClassShuttle
}

// ID is the profile id ParseShipClass accepts
func (c ShipClass) ID() string {
	switch c {
	case ClassSpeedster:
		return "speedster"
	case ClassHauler:
		return "hauler"
	case ClassGhost:
		return "ghost"
	}
	return "shuttle"
}
