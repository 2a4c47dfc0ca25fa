package traction

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Substeps: -3, Workers: 0}.withDefaults()

	if cfg.TimeStep != DefaultTimeStep {
		t.Errorf("TimeStep = %v, want %v", cfg.TimeStep, DefaultTimeStep)
	}
	if cfg.Substeps != DefaultSubsteps || cfg.Workers != DefaultWorkers {
		t.Errorf("Substeps, Workers = %d, %d, want %d, %d", cfg.Substeps, cfg.Workers, DefaultSubsteps, DefaultWorkers)
	}
	if cfg.IdleSleep != DefaultIdleSleep || cfg.MaxCrashes != DefaultMaxCrashes {
		t.Errorf("IdleSleep, MaxCrashes = %v, %d", cfg.IdleSleep, cfg.MaxCrashes)
	}
	if cfg.Gravity != (mgl64.Vec3{0, -9.81, 0}) {
		t.Errorf("Gravity = %v", cfg.Gravity)
	}
	if cfg.Supervisor != DefaultSupervisor {
		t.Error("Supervisor should default to DefaultSupervisor")
	}
}

func TestConfig_KeepsExplicitValues(t *testing.T) {
	supervisor := NewSupervisor()
	cfg := Config{Substeps: 4, Workers: 8, Gravity: mgl64.Vec3{0, -1.62, 0}, Supervisor: supervisor, Ground: flatGround{}}.withDefaults()

	if cfg.Substeps != 4 || cfg.Workers != 8 {
		t.Errorf("Substeps, Workers = %d, %d, want 4, 8", cfg.Substeps, cfg.Workers)
	}
	if cfg.Gravity.Y() != -1.62 || cfg.Supervisor != supervisor {
		t.Error("explicit gravity or supervisor overwritten")
	}
	if _, ok := cfg.Ground.(flatGround); !ok {
		t.Errorf("Ground = %T, want flatGround", cfg.Ground)
	}
}
