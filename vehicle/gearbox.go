package vehicle

import "math"

// Gear maps a speed band in km/h onto an RPM band.
type Gear struct {
	SpeedStart float64
	SpeedEnd   float64
	RPMStart   float64
	RPMEnd     float64
}

func gearFromConfig(cfg GearConfig) Gear {
	return Gear{SpeedStart: cfg.SpeedStart, SpeedEnd: cfg.SpeedEnd, RPMStart: cfg.RPMStart, RPMEnd: cfg.RPMEnd}
}

// GearBox holds the active gear: 0 is neutral, -1 reverse, 1..N forward.
type GearBox struct {
	// ChangeTime is the number of ticks of a gear change
	ChangeTime int

	forward       []Gear
	reverse       Gear
	active        int
	changeCounter int
}

func NewGearBox(cfg EngineConfig) *GearBox {
	g := &GearBox{
		ChangeTime: cfg.GearChangeTime,
		reverse:    gearFromConfig(cfg.Reverse),
	}
	for _, gear := range cfg.Gears {
		g.forward = append(g.forward, gearFromConfig(gear))
	}

	return g
}

func (g *GearBox) NumGears() int {
	return len(g.forward)
}

func (g *GearBox) ActiveGearNum() int {
	return g.active
}

// SetActiveGearNum selects a gear without starting a change
func (g *GearBox) SetActiveGearNum(n int) {
	g.active = max(-1, min(n, len(g.forward)))
}

// ActiveGear is the zero Gear in neutral.
func (g *GearBox) ActiveGear() Gear {
	switch {
	case g.active < 0:
		return g.reverse
	case g.active == 0:
		return Gear{}
	default:
		return g.forward[g.active-1]
	}
}

func (g *GearBox) ChangeCounter() int {
	return g.changeCounter
}

// UpdateChangeCounter counts one tick of the current change down.
func (g *GearBox) UpdateChangeCounter() int {
	if g.changeCounter > 0 {
		g.changeCounter--
	}
	return g.changeCounter
}

// IncreaseGear shifts up one forward gear.
func (g *GearBox) IncreaseGear() bool {
	if g.active < 1 || g.active >= len(g.forward) {
		return false
	}
	g.active++
	g.changeCounter = g.ChangeTime
	return true
}

// DecreaseGear shifts down, never below first gear.
func (g *GearBox) DecreaseGear() bool {
	if g.active <= 1 {
		return false
	}
	g.active--
	g.changeCounter = g.ChangeTime
	return true
}

// RPM maps the wheel speed onto the active gear band, normalized by the
// engine max revs. The result is not clamped.
func (g *GearBox) RPM(engine *Engine, speedKmh float64) float64 {
	gear := g.ActiveGear()
	speed := math.Abs(speedKmh)
	if gear.SpeedEnd <= gear.SpeedStart || engine.MaxRevs <= 0 {
		return gear.RPMStart / math.Max(engine.MaxRevs, 1)
	}

	t := (speed - gear.SpeedStart) / (gear.SpeedEnd - gear.SpeedStart)
	rpm := gear.RPMStart + t*(gear.RPMEnd-gear.RPMStart)
	return rpm / engine.MaxRevs
}
