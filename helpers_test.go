package traction

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/internal/logger"
	"github.com/go-gl/mathgl/mgl64"
)

type flatGround struct {
	level float64
}

func (g flatGround) SurfaceBelow(x, y, z, maxDepth float64) (float64, bool) {
	if y < g.level || y-maxDepth > g.level {
		return 0, false
	}
	return g.level, true
}

// syncBuffer collects the log of the simulation goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}

type testEntity struct {
	body    *actor.RigidBody
	pre     atomic.Int32
	post    atomic.Int32
	explode atomic.Bool
}

func (e *testEntity) RigidBody() *actor.RigidBody {
	return e.body
}

func (e *testEntity) PrePhysicsUpdate(dt float64) {
	if e.explode.Load() {
		panic("entity exploded")
	}
	e.pre.Add(1)
}

func (e *testEntity) PostPhysicsUpdate(dt float64) {
	e.post.Add(1)
}

func newSphere(position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position}, &actor.Sphere{Radius: 0.5}, actor.BodyTypeDynamic, 1.0)
}

func newTestLogger() (*syncBuffer, *logger.Logger) {
	out := &syncBuffer{}
	return out, logger.NewTo(out, "test")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func bodiesOf(bodies ...*actor.RigidBody) []*actor.RigidBody {
	return bodies
}
