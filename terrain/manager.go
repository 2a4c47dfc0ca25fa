package terrain

import (
	"log"
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/internal/logger"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sasha-s/go-deadlock"
)

const (
	DefaultCellSize = 1.0
	// DefaultTickMargin keeps regions this far around active bodies loaded
	DefaultTickMargin = 8.0
)

// Manager serves ground queries from the decoded region shapes, generating
// and storing missing regions on demand.
type Manager struct {
	grid     Grid
	store    Store
	gen      Generator
	logger   *log.Logger
	cellSize float64
	margin   float64

	mu     deadlock.Mutex
	shapes map[RegionKey]*Heightfield

	generated int
}

func NewManager(store Store, gen Generator, grid Grid, l *log.Logger) *Manager {
	return &Manager{
		grid:     grid,
		store:    store,
		gen:      gen,
		logger:   logger.OrDiscard(l),
		cellSize: DefaultCellSize,
		margin:   DefaultTickMargin,
		shapes:   make(map[RegionKey]*Heightfield),
	}
}

func (m *Manager) Grid() Grid {
	return m.grid
}

func (m *Manager) Store() Store {
	return m.store
}

// Shape returns the decoded region, from memory, the store or the generator.
func (m *Manager) Shape(key RegionKey) *Heightfield {
	m.mu.Lock()
	shape, ok := m.shapes[key]
	m.mu.Unlock()
	if ok {
		return shape
	}

	shape = m.fetch(key)

	m.mu.Lock()
	m.shapes[key] = shape
	m.mu.Unlock()

	return shape
}

func (m *Manager) fetch(key RegionKey) *Heightfield {
	m.store.Lock(key)
	defer m.store.Unlock(key)

	if data, ok := m.store.Get(key); ok {
		shape, err := UnmarshalHeightfield(data)
		if err == nil {
			return shape
		}
		m.logger.Printf("WARN: region %s: %v, generating it again", key, err)
	}

	shape := BuildHeightfield(m.gen, m.grid, key, m.cellSize)
	data, err := shape.Marshal()
	if err != nil {
		m.logger.Printf("ERROR: region %s: encode: %v", key, err)
		return shape
	}
	m.store.Put(key, data)

	m.mu.Lock()
	m.generated++
	m.mu.Unlock()

	return shape
}

// SurfaceBelow returns the highest surface under (x, y, z) no deeper than maxDepth.
func (m *Manager) SurfaceBelow(x, y, z, maxDepth float64) (float64, bool) {
	bottom := y - maxDepth
	top := m.grid.RegionOf(mgl64.Vec3{x, y, z})
	lowest := int32(math.Floor(bottom / m.grid.SliceHeight))

	// a column has a single surface, the first slice holding it answers
	for sy := top.Y; sy >= lowest; sy-- {
		h, ok := m.Shape(RegionKey{top.X, sy, top.Z}).HeightAt(x, z)
		if ok && h <= y && h >= bottom {
			return h, true
		}
	}

	return 0, false
}

// Tick keeps the regions around awake dynamic bodies loaded and evicts the rest.
// With nothing awake every decoded shape is dropped, the store keeps the blobs.
func (m *Manager) Tick(bodies []*actor.RigidBody) {
	wanted := make(map[RegionKey]struct{})
	for _, body := range bodies {
		if body.BodyType == actor.BodyTypeStatic || body.IsSleeping {
			continue
		}
		for _, key := range m.grid.RegionsAround(body.Shape.GetAABB(), m.margin) {
			wanted[key] = struct{}{}
		}
	}
	for key := range wanted {
		m.Shape(key)
	}

	m.mu.Lock()
	for key := range m.shapes {
		if _, ok := wanted[key]; !ok {
			delete(m.shapes, key)
		}
	}
	m.mu.Unlock()
}

// Loaded is the number of decoded shapes held in memory
func (m *Manager) Loaded() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.shapes)
}

// Generated counts the regions built since the manager was created
func (m *Manager) Generated() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.generated
}

// Save persists the store when it supports it.
func (m *Manager) Save() error {
	if saver, ok := m.store.(Saver); ok {
		return saver.Save()
	}
	return nil
}
