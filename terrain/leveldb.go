package terrain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/akmonengine/traction/internal/logger"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/util"
)

var (
	versionKey   = []byte("version")
	regionPrefix = []byte("r/")
)

// LevelDB is a Store writing every region as its own key, for worlds that
// prefer incremental writes over whole-file saves. It follows the File
// version policy: outdated databases are wiped on open.
type LevelDB struct {
	db      *leveldb.DB
	path    string
	version int16
	logger  *log.Logger
	locks   regionLocks
}

// OpenLevelDB opens or creates the database at path. onStale may be nil.
func OpenLevelDB(path string, slopes bool, l *log.Logger, onStale func(path string, version int16)) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("terrain: open leveldb %s: %w", path, err)
	}

	version := Version
	if slopes {
		version = SlopesVersion
	}
	store := &LevelDB{
		db:      db,
		path:    path,
		version: version,
		logger:  logger.OrDiscard(l),
		locks:   newRegionLocks(defaultLockStripes),
	}
	if err := store.checkVersion(onStale); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *LevelDB) checkVersion(onStale func(string, int16)) error {
	raw, err := s.db.Get(versionKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return s.writeVersion()
	case err != nil:
		return fmt.Errorf("terrain: read version %s: %w", s.path, err)
	case len(raw) != 2:
		return fmt.Errorf("%w: version key of %d bytes in %s", ErrUnsupportedVersion, len(raw), s.path)
	}

	found := int16(binary.BigEndian.Uint16(raw))
	switch {
	case found >= s.version:
		return nil
	case found >= 1 && s.version != SlopesVersion:
		s.logger.Printf("WARN: outdated terrain database %s: version %d, expected %d, everything will be erased", s.path, found, s.version)
		if err := s.wipe(); err != nil {
			return err
		}
		if onStale != nil {
			onStale(s.path, found)
		}
		return s.writeVersion()
	default:
		return fmt.Errorf("%w: %d in %s", ErrUnsupportedVersion, found, s.path)
	}
}

func (s *LevelDB) writeVersion() error {
	var raw [2]byte
	binary.BigEndian.PutUint16(raw[:], uint16(s.version))
	if err := s.db.Put(versionKey, raw[:], nil); err != nil {
		return fmt.Errorf("terrain: write version %s: %w", s.path, err)
	}
	return nil
}

func (s *LevelDB) wipe() error {
	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix(regionPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("terrain: wipe %s: %w", s.path, err)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("terrain: wipe %s: %w", s.path, err)
	}
	return nil
}

func regionDBKey(key RegionKey) []byte {
	out := make([]byte, len(regionPrefix)+12)
	n := copy(out, regionPrefix)
	binary.BigEndian.PutUint32(out[n:], uint32(key.X))
	binary.BigEndian.PutUint32(out[n+4:], uint32(key.Y))
	binary.BigEndian.PutUint32(out[n+8:], uint32(key.Z))
	return out
}

func (s *LevelDB) Version() int16 {
	return s.version
}

func (s *LevelDB) Lock(key RegionKey) {
	s.locks.lock(key)
}

func (s *LevelDB) Unlock(key RegionKey) {
	s.locks.unlock(key)
}

func (s *LevelDB) Get(key RegionKey) ([]byte, bool) {
	data, err := s.db.Get(regionDBKey(key), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			s.logger.Printf("ERROR: cannot read region %s from %s: %v", key, s.path, err)
		}
		return nil, false
	}
	return data, true
}

func (s *LevelDB) Put(key RegionKey, data []byte) {
	if err := s.db.Put(regionDBKey(key), data, nil); err != nil {
		s.logger.Printf("ERROR: cannot write region %s to %s: %v", key, s.path, err)
	}
}

func (s *LevelDB) Remove(key RegionKey) {
	if err := s.db.Delete(regionDBKey(key), nil); err != nil {
		s.logger.Printf("ERROR: cannot delete region %s from %s: %v", key, s.path, err)
	}
}

func (s *LevelDB) Len() int {
	n := 0
	iter := s.db.NewIterator(util.BytesPrefix(regionPrefix), nil)
	for iter.Next() {
		n++
	}
	iter.Release()
	return n
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}
