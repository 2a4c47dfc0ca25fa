package vehicle

import "math"

// LowSpeedThreshold is the ground speed, in m/s, below which slip is
// computed against this value instead of the actual speed.
const LowSpeedThreshold = 0.5

// Eval is the magic formula D·sin(C·atan(B·x − E·(B·x − atan(B·x)))).
func (c Curve) Eval(x float64) float64 {
	bx := c.B * x
	return c.D * math.Sin(c.C*math.Atan(bx-c.E*(bx-math.Atan(bx))))
}

// TireModel turns slip into contact patch forces.
type TireModel struct {
	Longitudinal Curve
	Lateral      Curve
}

func NewTireModel(cfg TireConfig) TireModel {
	return TireModel{Longitudinal: cfg.Longitudinal, Lateral: cfg.Lateral}
}

// SlipRatio of the wheel surface against the ground, in [-1, 1].
func SlipRatio(wheelSurfaceSpeed, groundSpeed float64) float64 {
	denominator := math.Max(math.Abs(groundSpeed), LowSpeedThreshold)
	ratio := (wheelSurfaceSpeed - groundSpeed) / denominator
	if math.IsNaN(ratio) {
		return 0
	}
	return clamp(ratio, -1, 1)
}

// SlipAngle between the wheel heading and the contact patch velocity, in [-π/2, π/2].
func SlipAngle(longitudinalSpeed, lateralSpeed float64) float64 {
	denominator := math.Max(math.Abs(longitudinalSpeed), LowSpeedThreshold)
	angle := math.Atan(lateralSpeed / denominator)
	if math.IsNaN(angle) {
		return 0
	}
	return clamp(angle, -math.Pi/2, math.Pi/2)
}

// Forces returns the longitudinal force along the wheel heading and the
// lateral force opposing the lateral slip, limited by the friction ellipse.
func (t TireModel) Forces(load, slipRatio, slipAngle float64) (fx, fy float64) {
	if !(load > 0) || math.IsInf(load, 0) {
		return 0, 0
	}
	if math.IsNaN(slipRatio) {
		slipRatio = 0
	}
	if math.IsNaN(slipAngle) {
		slipAngle = 0
	}

	fx = t.Longitudinal.Eval(clamp(slipRatio, -1, 1)) * load
	fy = -t.Lateral.Eval(clamp(slipAngle, -math.Pi/2, math.Pi/2)) * load

	maxX := math.Abs(t.Longitudinal.D) * load
	maxY := math.Abs(t.Lateral.D) * load
	if maxX == 0 || maxY == 0 {
		return 0, 0
	}
	if k := (fx/maxX)*(fx/maxX) + (fy/maxY)*(fy/maxY); k > 1 {
		scale := 1 / math.Sqrt(k)
		fx *= scale
		fy *= scale
	}

	return fx, fy
}
