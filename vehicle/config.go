package vehicle

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidConfig = errors.New("vehicle: invalid config")

// Curve holds the magic formula coefficients: stiffness B, shape C, peak D, curvature E.
type Curve struct {
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
}

type TireConfig struct {
	Longitudinal Curve `json:"longitudinal"`
	Lateral      Curve `json:"lateral"`
}

// PowerPoint is one point of the engine curve. Power is the drive torque in N·m.
type PowerPoint struct {
	RPM   float64 `json:"rpm"`
	Power float64 `json:"power"`
}

// GearConfig maps a speed band (km/h) onto an RPM band.
type GearConfig struct {
	SpeedStart float64 `json:"speedStart"`
	SpeedEnd   float64 `json:"speedEnd"`
	RPMStart   float64 `json:"rpmStart"`
	RPMEnd     float64 `json:"rpmEnd"`
}

type EngineConfig struct {
	MaxRevs        float64      `json:"maxRevs"`
	IdleRPM        float64      `json:"idleRpm"`
	Braking        float64      `json:"braking"`
	GearChangeTime int          `json:"gearChangeTime"`
	Power          []PowerPoint `json:"power"`
	Gears          []GearConfig `json:"gears"`
	Reverse        GearConfig   `json:"reverse"`
}

type WheelConfig struct {
	PartID int `json:"partId"`
	// Position of the suspension attachment, relative to the chassis center
	Position             mgl64.Vec3 `json:"position"`
	Radius               float64    `json:"radius"`
	Mass                 float64    `json:"mass"`
	Steerable            bool       `json:"steerable"`
	Driving              bool       `json:"driving"`
	HandBrake            bool       `json:"handBrake"`
	SuspensionRestLength float64    `json:"suspensionRestLength"`
	SuspensionStiffness  float64    `json:"suspensionStiffness"`
	SuspensionDamping    float64    `json:"suspensionDamping"`
	MaxSteerAngle        float64    `json:"maxSteerAngle"`
	BrakeTorque          float64    `json:"brakeTorque"`
	HandBrakeTorque      float64    `json:"handBrakeTorque"`
}

// Config is the static description of a vehicle. A nil Engine describes a trailer.
type Config struct {
	Name        string        `json:"name"`
	Mass        float64       `json:"mass"`
	HalfExtents mgl64.Vec3    `json:"halfExtents"`
	MaxSpeed    float64       `json:"maxSpeed"`
	Engine      *EngineConfig `json:"engine,omitempty"`
	Tire        TireConfig    `json:"tire"`
	Wheels      []WheelConfig `json:"wheels"`
}

func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("vehicle: read config: %w", err)
	}
	return ParseConfig(data)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c Config) Validate() error {
	if c.Mass <= 0 {
		return invalid("mass %v must be positive", c.Mass)
	}
	if c.HalfExtents.X() <= 0 || c.HalfExtents.Y() <= 0 || c.HalfExtents.Z() <= 0 {
		return invalid("half extents %v must be positive", c.HalfExtents)
	}
	if c.MaxSpeed <= 0 {
		return invalid("max speed %v must be positive", c.MaxSpeed)
	}
	if c.Tire.Longitudinal.D <= 0 || c.Tire.Lateral.D <= 0 {
		return invalid("tire peak D must be positive")
	}

	parts := make(map[int]struct{}, len(c.Wheels))
	for i, w := range c.Wheels {
		if _, dup := parts[w.PartID]; dup {
			return invalid("wheel %d: duplicate part id %d", i, w.PartID)
		}
		parts[w.PartID] = struct{}{}
		if w.Radius <= 0 || w.Mass <= 0 {
			return invalid("wheel %d: radius and mass must be positive", i)
		}
		if w.SuspensionRestLength < 0 || w.SuspensionStiffness <= 0 || w.SuspensionDamping < 0 {
			return invalid("wheel %d: bad suspension", i)
		}
	}

	if c.Engine != nil {
		return c.Engine.validate()
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if e.MaxRevs <= 0 {
		return invalid("engine max revs %v must be positive", e.MaxRevs)
	}
	if e.GearChangeTime < 1 {
		return invalid("gear change time %d must be at least one tick", e.GearChangeTime)
	}
	if len(e.Power) == 0 {
		return invalid("engine needs at least one power point")
	}
	for i := 1; i < len(e.Power); i++ {
		if e.Power[i].RPM <= e.Power[i-1].RPM {
			return invalid("power points must have increasing rpm")
		}
	}
	if len(e.Gears) == 0 {
		return invalid("engine needs at least one forward gear")
	}
	for i, g := range append([]GearConfig{e.Reverse}, e.Gears...) {
		if g.SpeedEnd <= g.SpeedStart || g.RPMEnd <= g.RPMStart {
			return invalid("gear %d: empty speed or rpm band", i-1)
		}
	}
	return nil
}

//go:embed defaults/sedan.json
var sedanPayload []byte

var (
	sedanOnce sync.Once
	sedan     Config
	sedanErr  error
)

// DefaultConfig is a rear wheel drive sedan.
func DefaultConfig() Config {
	sedanOnce.Do(func() {
		sedan, sedanErr = ParseConfig(sedanPayload)
	})
	if sedanErr != nil {
		panic(sedanErr)
	}

	cfg := sedan
	engine := *sedan.Engine
	engine.Power = append([]PowerPoint(nil), engine.Power...)
	engine.Gears = append([]GearConfig(nil), engine.Gears...)
	cfg.Engine = &engine
	cfg.Wheels = append([]WheelConfig(nil), sedan.Wheels...)
	return cfg
}
