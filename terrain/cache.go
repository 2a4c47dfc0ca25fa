package terrain

import (
	"maps"
	"slices"

	"github.com/sasha-s/go-deadlock"
)

// Store is a region keyed blob cache with per-region locking.
// A caller generating a region holds its lock across Get and Put so that
// concurrent generators of the same region run one after the other.
type Store interface {
	Lock(key RegionKey)
	Unlock(key RegionKey)
	Get(key RegionKey) ([]byte, bool)
	Put(key RegionKey, data []byte)
	Remove(key RegionKey)
	Len() int
}

// Saver is implemented by stores that persist on demand.
type Saver interface {
	Save() error
}

const defaultLockStripes = 64

// regionLocks is a fixed table of mutexes indexed by region hash.
// Two regions may share a stripe; a caller never holds two region locks at once.
type regionLocks struct {
	stripes []deadlock.Mutex
	mask    int
}

func newRegionLocks(n int) regionLocks {
	n = nextPowerOfTwo(n)
	return regionLocks{
		stripes: make([]deadlock.Mutex, n),
		mask:    n - 1,
	}
}

func (l *regionLocks) lock(key RegionKey) {
	l.stripes[hashRegion(key, l.mask)].Lock()
}

func (l *regionLocks) unlock(key RegionKey) {
	l.stripes[hashRegion(key, l.mask)].Unlock()
}

// VirtualFile is the in-memory cache with no backing file.
type VirtualFile struct {
	mu    deadlock.RWMutex
	data  map[RegionKey][]byte
	locks regionLocks
}

func NewVirtualFile() *VirtualFile {
	return &VirtualFile{
		data:  make(map[RegionKey][]byte),
		locks: newRegionLocks(defaultLockStripes),
	}
}

func (v *VirtualFile) Lock(key RegionKey) {
	v.locks.lock(key)
}

func (v *VirtualFile) Unlock(key RegionKey) {
	v.locks.unlock(key)
}

// Get returns the stored blob. Blobs are never mutated after Put.
func (v *VirtualFile) Get(key RegionKey) ([]byte, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	data, ok := v.data[key]
	return data, ok
}

func (v *VirtualFile) Put(key RegionKey, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.data[key] = data
}

func (v *VirtualFile) Remove(key RegionKey) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.data, key)
}

func (v *VirtualFile) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return len(v.data)
}

// Keys returns the stored keys in a stable order.
func (v *VirtualFile) Keys() []RegionKey {
	v.mu.RLock()
	keys := slices.Collect(maps.Keys(v.data))
	v.mu.RUnlock()

	slices.SortFunc(keys, RegionKey.Compare)
	return keys
}

// Entries returns a shallow copy of the map.
func (v *VirtualFile) Entries() map[RegionKey][]byte {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return maps.Clone(v.data)
}

// merge adds every entry at once, so readers never see a partial load
func (v *VirtualFile) merge(entries map[RegionKey][]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	maps.Copy(v.data, entries)
}
