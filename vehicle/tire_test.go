package vehicle

import (
	"math"
	"testing"
)

func TestSlipRatio(t *testing.T) {
	tests := []struct {
		name    string
		surface float64
		ground  float64
		want    float64
	}{
		{"rolling", 10, 10, 0},
		{"standing still", 0, 0, 0},
		{"spinning from standstill is clamped", 1, 0, 1},
		{"low speed uses the threshold", 0.2, 0, 0.4},
		{"locked wheel", 0, 20, -1},
		{"half slip", 15, 10, 0.5},
		{"backwards", -10, -10, 0},
		{"nan surface speed", math.NaN(), 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlipRatio(tt.surface, tt.ground); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SlipRatio(%v, %v) = %v, want %v", tt.surface, tt.ground, got, tt.want)
			}
		})
	}
}

func TestSlipAngle(t *testing.T) {
	tests := []struct {
		name string
		long float64
		lat  float64
		want float64
	}{
		{"straight", 10, 0, 0},
		{"standing still", 0, 0, 0},
		{"sliding sideways slowly", 0, 0.5, math.Pi / 4},
		{"sideways at speed", 10, 10, math.Pi / 4},
		{"backwards", -10, 10, math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlipAngle(tt.long, tt.lat); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SlipAngle(%v, %v) = %v, want %v", tt.long, tt.lat, got, tt.want)
			}
		})
	}

	if got := SlipAngle(0, 1e12); got > math.Pi/2 || got <= 0 {
		t.Errorf("SlipAngle() = %v, want in (0, π/2]", got)
	}
}

func TestCurve_Eval(t *testing.T) {
	curve := DefaultConfig().Tire.Longitudinal
	if curve.Eval(0) != 0 {
		t.Errorf("Eval(0) = %v, want 0", curve.Eval(0))
	}
	for _, x := range []float64{0.05, 0.1, 0.5, 1} {
		if a, b := curve.Eval(x), curve.Eval(-x); math.Abs(a+b) > 1e-12 {
			t.Errorf("Eval is not odd at %v: %v, %v", x, a, b)
		}
		if v := curve.Eval(x); v <= 0 || v > curve.D {
			t.Errorf("Eval(%v) = %v out of (0, D]", x, v)
		}
	}
	// peak then falloff
	if curve.Eval(0.1) <= curve.Eval(0.02) {
		t.Error("curve does not rise at small slip")
	}
}

func TestTireModel_Forces(t *testing.T) {
	tire := NewTireModel(DefaultConfig().Tire)

	if fx, fy := tire.Forces(0, 1, 1); fx != 0 || fy != 0 {
		t.Errorf("no load gave %v, %v", fx, fy)
	}
	if fx, fy := tire.Forces(-100, 1, 1); fx != 0 || fy != 0 {
		t.Errorf("negative load gave %v, %v", fx, fy)
	}
	if fx, fy := tire.Forces(math.NaN(), 1, 1); fx != 0 || fy != 0 {
		t.Errorf("NaN load gave %v, %v", fx, fy)
	}

	fx, _ := tire.Forces(3000, 0.1, 0)
	if fx <= 0 {
		t.Errorf("positive slip ratio should push forward: %v", fx)
	}
	_, fy := tire.Forces(3000, 0, 0.1)
	if fy >= 0 {
		t.Errorf("lateral force should oppose the slip angle: %v", fy)
	}

	// combined slip stays inside the friction ellipse
	fx, fy = tire.Forces(3000, 1, 0.4)
	maxX := tire.Longitudinal.D * 3000
	maxY := tire.Lateral.D * 3000
	if k := (fx/maxX)*(fx/maxX) + (fy/maxY)*(fy/maxY); k > 1+1e-9 {
		t.Errorf("friction ellipse exceeded: %v", k)
	}
}

func TestTireModel_FiniteAtStandstill(t *testing.T) {
	tire := NewTireModel(DefaultConfig().Tire)
	load := 3000.0
	limit := math.Max(tire.Longitudinal.D, tire.Lateral.D) * load

	groundSpeeds := []float64{0, 1e-12, -1e-12, 0.01, -0.3}
	surfaceSpeeds := []float64{-50, -1, -1e-9, 0, 1e-9, 0.4, 3, 80, math.Inf(1), math.Inf(-1)}
	lateralSpeeds := []float64{-5, 0, 1e-9, 2, math.Inf(1)}

	for _, ground := range groundSpeeds {
		for _, surface := range surfaceSpeeds {
			for _, lateral := range lateralSpeeds {
				ratio := SlipRatio(surface, ground)
				angle := SlipAngle(ground, lateral)
				fx, fy := tire.Forces(load, ratio, angle)

				if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
					t.Fatalf("ground %v surface %v lateral %v: forces %v, %v", ground, surface, lateral, fx, fy)
				}
				if math.Hypot(fx, fy) > limit*(1+1e-9) {
					t.Fatalf("ground %v surface %v lateral %v: |F| = %v over %v", ground, surface, lateral, math.Hypot(fx, fy), limit)
				}
			}
		}
	}
}
