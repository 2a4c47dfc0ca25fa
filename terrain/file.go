package terrain

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/akmonengine/traction/internal/logger"
	"github.com/sasha-s/go-deadlock"
)

const (
	// Version of the terrain cache format
	Version int16 = 6
	// SlopesVersion of the slopes cache format, which is never wiped
	SlopesVersion int16 = 4

	// maxBlobSize bounds a single region blob read from disk
	maxBlobSize = 64 << 20
)

var (
	ErrUnsupportedVersion = errors.New("terrain: unsupported cache version")
	ErrCorrupted          = errors.New("terrain: corrupted cache file")
)

// File is a VirtualFile persisted as one gzip stream:
//
//	int16 version, int32 count, then count times: int32 x, y, z, int32 len, len bytes
//
// all big endian. Load and Save hold the io lock for the whole file; Lock waits
// for them before taking the region lock.
type File struct {
	*VirtualFile

	path    string
	version int16
	logger  *log.Logger

	ioLock deadlock.RWMutex

	// OnStale is called after an outdated cache file was deleted.
	OnStale func(path string, version int16)

	open func(name string) (io.ReadCloser, error)
}

func NewFile(path string, slopes bool, l *log.Logger) *File {
	version := Version
	if slopes {
		version = SlopesVersion
	}

	return &File{
		VirtualFile: NewVirtualFile(),
		path:        path,
		version:     version,
		logger:      logger.OrDiscard(l),
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// Version is the format version this file expects and writes
func (f *File) Version() int16 {
	return f.version
}

func (f *File) Path() string {
	return f.path
}

// Lock blocks while a Load or Save is in flight, then locks the region.
func (f *File) Lock(key RegionKey) {
	f.ioLock.RLock()
	f.ioLock.RUnlock()

	f.VirtualFile.Lock(key)
}

// Load merges the file content into the cache. A missing file is an empty cache.
// An outdated file is deleted. A failed load leaves the cache as it was.
func (f *File) Load() error {
	f.ioLock.Lock()
	defer f.ioLock.Unlock()

	r, err := f.open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		f.logger.Printf("ERROR: cannot open terrain cache %s: %v", f.path, err)
		return fmt.Errorf("terrain: open %s: %w", f.path, err)
	}
	version, entries, err := decode(r, f.version)
	r.Close()
	if err != nil {
		f.logger.Printf("ERROR: cannot read terrain cache %s: %v", f.path, err)
		return fmt.Errorf("terrain: load %s: %w", f.path, err)
	}

	switch {
	case version >= f.version:
		f.merge(entries)
		return nil
	case version >= 1 && f.version != SlopesVersion:
		f.logger.Printf("WARN: outdated terrain cache %s: version %d, expected %d, everything will be erased", f.path, version, f.version)
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Printf("ERROR: cannot delete outdated terrain cache %s: %v", f.path, err)
			return fmt.Errorf("terrain: delete %s: %w", f.path, err)
		}
		if f.OnStale != nil {
			f.OnStale(f.path, version)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d in %s", ErrUnsupportedVersion, version, f.path)
	}
}

// Save writes the whole cache next to the file, then renames it over the old one.
func (f *File) Save() error {
	f.ioLock.Lock()
	defer f.ioLock.Unlock()

	entries := f.Entries()
	keys := slices.SortedFunc(maps.Keys(entries), RegionKey.Compare)

	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		f.logger.Printf("ERROR: cannot save terrain cache %s: %v", f.path, err)
		return fmt.Errorf("terrain: save %s: %w", f.path, err)
	}
	err = encode(out, f.version, keys, entries)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, f.path)
	}
	if err != nil {
		os.Remove(tmp)
		f.logger.Printf("ERROR: cannot save terrain cache %s: %v", f.path, err)
		return fmt.Errorf("terrain: save %s: %w", f.path, err)
	}

	return nil
}

func encode(w io.Writer, version int16, keys []RegionKey, entries map[RegionKey][]byte) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	var header [6]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(version))
	binary.BigEndian.PutUint32(header[2:6], uint32(len(keys)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var record [16]byte
	for _, key := range keys {
		data := entries[key]
		binary.BigEndian.PutUint32(record[0:4], uint32(key.X))
		binary.BigEndian.PutUint32(record[4:8], uint32(key.Y))
		binary.BigEndian.PutUint32(record[8:12], uint32(key.Z))
		binary.BigEndian.PutUint32(record[12:16], uint32(len(data)))
		if _, err := bw.Write(record[:]); err != nil {
			return err
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// decode reads the version, and the entries only when version >= expected.
func decode(r io.Reader, expected int16) (int16, map[RegionKey][]byte, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	var version int16
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return 0, nil, fmt.Errorf("%w: version: %w", ErrCorrupted, err)
	}
	if version < expected {
		return version, nil, nil
	}

	var count int32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return version, nil, fmt.Errorf("%w: count: %w", ErrCorrupted, err)
	}
	if count < 0 {
		return version, nil, fmt.Errorf("%w: negative count %d", ErrCorrupted, count)
	}

	entries := make(map[RegionKey][]byte, min(int(count), 4096))
	var record [4]int32
	for i := int32(0); i < count; i++ {
		if err := binary.Read(br, binary.BigEndian, &record); err != nil {
			return version, nil, fmt.Errorf("%w: region %d: %w", ErrCorrupted, i, err)
		}
		size := record[3]
		if size < 0 || size > maxBlobSize {
			return version, nil, fmt.Errorf("%w: region %d: blob size %d", ErrCorrupted, i, size)
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return version, nil, fmt.Errorf("%w: region %d: %w", ErrCorrupted, i, err)
		}
		entries[RegionKey{X: record[0], Y: record[1], Z: record[2]}] = data
	}

	return version, entries, nil
}
