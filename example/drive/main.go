package main

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/internal/logger"
	"github.com/akmonengine/traction/terrain"
	"github.com/akmonengine/traction/vehicle"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	log := logger.New("drive")
	cachePath := getEnv("TERRAIN_CACHE", filepath.Join(os.TempDir(), "traction-terrain.dnxt"))
	storeKind := getEnv("TERRAIN_STORE", "file")
	seed := getEnvInt("TERRAIN_SEED", 7)
	duration := time.Duration(getEnvInt("DRIVE_SECONDS", 10)) * time.Second

	var (
		stale        bool
		staleVersion int16
	)
	onStale := func(path string, version int16) {
		stale, staleVersion = true, version
	}

	var store terrain.Store
	switch storeKind {
	case "leveldb":
		db, err := terrain.OpenLevelDB(cachePath+".ldb", false, logger.New("terrain"), onStale)
		if err != nil {
			log.Fatalf("cannot open the terrain database: %v", err)
		}
		defer db.Close()
		store = db
	default:
		file := terrain.NewFile(cachePath, false, logger.New("terrain"))
		file.OnStale = onStale
		if err := file.Load(); err != nil {
			log.Fatalf("cannot load the terrain cache: %v", err)
		}
		store = file
	}

	manager := terrain.NewManager(store, terrain.DefaultNoiseGenerator(float64(seed)), terrain.DefaultGrid(), logger.New("terrain"))

	cfg := traction.DefaultConfig()
	cfg.Logger = logger.New("world")
	cfg.Terrain = manager
	world := traction.NewWorld(cfg)
	defer world.Shutdown()
	if stale {
		world.OnCacheStale(cachePath, staleVersion)
	}
	world.Events().Subscribe(traction.TICKS_SKIPPED, func(e traction.Event) {
		log.Printf("skipped %d ticks", e.(traction.TicksSkippedEvent).Skipped)
	})

	ground, ok := manager.SurfaceBelow(0, 64, 0, 128)
	if !ok {
		ground = 0
	}
	car, err := vehicle.New(vehicle.DefaultConfig(), actor.Transform{Position: mgl64.Vec3{0, ground + 1.2, 0}})
	if err != nil {
		log.Fatalf("cannot build the vehicle: %v", err)
	}
	if err := world.AddVehicle(car); err != nil {
		log.Fatalf("cannot add the vehicle: %v", err)
	}
	log.Printf("vehicle %s spawned at %.2f", car.ID, ground+1.2)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	start := time.Now()
	lastReport := start
	for now := range ticker.C {
		elapsed := now.Sub(start)
		if elapsed > duration {
			break
		}

		controls := vehicle.ControlEngineOn | vehicle.ControlAccelerate
		if elapsed > duration/2 {
			controls |= vehicle.ControlLeft
		}
		car.SetControls(controls)

		if err := world.RequestStep(traction.DefaultTimeStep); err != nil {
			log.Printf("physics stopped: %v", err)
			break
		}

		if now.Sub(lastReport) >= time.Second {
			lastReport = now
			world.TickStart()
			state := car.State()
			world.TickEnd()
			log.Printf("pos=%.1f,%.1f,%.1f speed=%.1fkm/h gear=%d rpm=%.0f controls=%s",
				state.Position.X(), state.Position.Y(), state.Position.Z(), state.Speed, state.Gear, state.RPM, state.Controls)
		}
	}

	world.TickStart()
	stats := world.Stats()
	world.TickEnd()
	log.Printf("steps=%d skipped=%d simulated=%.2fs requested=%.2fs regions=%d generated=%d",
		stats.Steps, stats.SkippedSteps, stats.SimulatedTime, stats.RequestedTime, manager.Loaded(), manager.Generated())

	if err := manager.Save(); err != nil {
		log.Printf("cannot save the terrain cache: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
