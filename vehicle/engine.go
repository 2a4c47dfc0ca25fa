package vehicle

import "math"

// Engine holds the revolution state. Revs are normalized to [0, 1] of MaxRevs.
type Engine struct {
	MaxRevs float64
	IdleRPM float64
	// Braking is the engine braking torque applied to driving wheels when coasting
	Braking float64

	revs    float64
	started bool
	power   []PowerPoint
}

func NewEngine(cfg EngineConfig) *Engine {
	idle := cfg.IdleRPM
	if idle <= 0 {
		idle = DefaultIdleRPM
	}

	return &Engine{
		MaxRevs: cfg.MaxRevs,
		IdleRPM: idle,
		Braking: cfg.Braking,
		power:   append([]PowerPoint(nil), cfg.Power...),
	}
}

func (e *Engine) Revs() float64 {
	return e.revs
}

// SetRevs clamps to [0, 1]; NaN stalls the engine revs to 0.
func (e *Engine) SetRevs(revs float64) {
	if math.IsNaN(revs) {
		revs = 0
	}
	e.revs = clamp(revs, 0, 1)
}

func (e *Engine) RPM() float64 {
	return e.revs * e.MaxRevs
}

func (e *Engine) Started() bool {
	return e.started
}

func (e *Engine) SetStarted(started bool) {
	e.started = started
}

// PowerAt interpolates the power curve, holding the end values outside of it.
func (e *Engine) PowerAt(rpm float64) float64 {
	points := e.power
	if len(points) == 0 {
		return 0
	}
	if rpm <= points[0].RPM {
		return points[0].Power
	}

	for i := 0; i < len(points)-1; i++ {
		lo := points[i]
		hi := points[i+1]
		if rpm >= lo.RPM && rpm <= hi.RPM {
			return lo.Power + (hi.Power-lo.Power)*(rpm-lo.RPM)/(hi.RPM-lo.RPM)
		}
	}

	return points[len(points)-1].Power
}

// PowerOutput is the power at the current revs
func (e *Engine) PowerOutput() float64 {
	return e.PowerAt(e.RPM())
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
