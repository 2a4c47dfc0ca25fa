package traction

import (
	"log"
	"time"

	"github.com/akmonengine/traction/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultTimeStep is the simulated time of one step, in seconds
	DefaultTimeStep = 1.0 / 60.0
	// DefaultIdleSleep is how long the loop waits when no step is requested
	DefaultIdleSleep = 50 * time.Millisecond
	// DefaultMaxCrashes is the crash count after which the world stops for good
	DefaultMaxCrashes = 2
)

type Config struct {
	TimeStep  float64
	Substeps  int
	Workers   int
	Gravity   mgl64.Vec3
	IdleSleep time.Duration

	MaxCrashes int
	Supervisor *Supervisor
	Logger     *log.Logger

	// Terrain is ticked after each step and serves as the ground unless
	// Ground is set.
	Terrain *terrain.Manager
	Ground  Ground
}

func DefaultConfig() Config {
	return Config{
		TimeStep:   DefaultTimeStep,
		Substeps:   DefaultSubsteps,
		Workers:    DefaultWorkers,
		Gravity:    mgl64.Vec3{0, -9.81, 0},
		IdleSleep:  DefaultIdleSleep,
		MaxCrashes: DefaultMaxCrashes,
	}
}

// withDefaults fills the zero fields
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TimeStep <= 0 {
		c.TimeStep = d.TimeStep
	}
	if c.Substeps <= 0 {
		c.Substeps = d.Substeps
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.Gravity == (mgl64.Vec3{}) {
		c.Gravity = d.Gravity
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = d.IdleSleep
	}
	if c.MaxCrashes <= 0 {
		c.MaxCrashes = d.MaxCrashes
	}
	if c.Supervisor == nil {
		c.Supervisor = DefaultSupervisor
	}
	if c.Ground == nil && c.Terrain != nil {
		c.Ground = c.Terrain
	}
	return c
}
