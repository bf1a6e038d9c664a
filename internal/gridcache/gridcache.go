// Package gridcache stores built grids on disk so large scenes skip the
// build on the next start.
//
// A snapshot is a zstd stream holding one JSON header line followed by the
// gob-encoded grid. The header carries a content key over the positions
// and build options; a snapshot whose key does not match is stale.
package gridcache

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/splatlod/internal/lod"
)

// Version is the snapshot format version.
const Version = 1

const bufSize = 256 * 1024

// Cache errors.
var (
	ErrStale     = errors.New("grid snapshot is stale")
	ErrEmptyGrid = errors.New("empty grids are not cached")
	ErrVersion   = errors.New("unsupported grid snapshot version")
)

// Header is the first line of a snapshot.
type Header struct {
	Version        int     `json:"version"`
	Key            uint64  `json:"key"`
	Points         int     `json:"points"`
	Cells          int     `json:"cells"`
	CellSize       float64 `json:"cell_size"`
	MaxReprPerCell int     `json:"max_repr_per_cell"`
}

// Key hashes the positions and build options. Any change to either yields a
// different key.
func Key(positions []float32, opts lod.BuildOptions) uint64 {
	d := xxhash.New()
	var scratch [16]byte
	binary.LittleEndian.PutUint64(scratch[:8], gomath.Float64bits(opts.CellSize))
	binary.LittleEndian.PutUint64(scratch[8:], uint64(opts.MaxReprPerCell))
	_, _ = d.Write(scratch[:])

	buf := make([]byte, 0, 64*1024)
	for _, f := range positions {
		buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(f))
		if len(buf) == cap(buf) {
			_, _ = d.Write(buf)
			buf = buf[:0]
		}
	}
	_, _ = d.Write(buf)
	return d.Sum64()
}

// Save writes grid to path under key, creating parent directories.
func Save(path string, key uint64, opts lod.BuildOptions, grid *lod.Grid) (err error) {
	if grid.Empty() {
		return ErrEmptyGrid
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, bufSize)

	hb, err := json.Marshal(Header{
		Version:        Version,
		Key:            key,
		Points:         grid.PointCount,
		Cells:          len(grid.Cells),
		CellSize:       opts.CellSize,
		MaxReprPerCell: opts.MaxReprPerCell,
	})
	if err != nil {
		enc.Close()
		return err
	}
	hb = append(hb, '\n')
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(grid); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader returns the header of the snapshot at path without decoding
// the grid.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()

	h, _, err := readHeader(bufio.NewReaderSize(dec, bufSize))
	return h, err
}

func readHeader(br *bufio.Reader) (Header, *bufio.Reader, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return h, br, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, br, fmt.Errorf("parse header: %w", err)
	}
	if h.Version != Version {
		return h, br, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, br, nil
}

// Load reads the snapshot at path. It returns ErrStale when the stored key
// differs from key.
func Load(path string, key uint64) (*lod.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	h, br, err := readHeader(bufio.NewReaderSize(dec, bufSize))
	if err != nil {
		return nil, err
	}
	if h.Key != key {
		return nil, fmt.Errorf("%w: key %016x, want %016x", ErrStale, h.Key, key)
	}

	var g lod.Grid
	if err := gob.NewDecoder(br).Decode(&g); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	if g.PointCount != h.Points || len(g.Cells) != h.Cells {
		return nil, fmt.Errorf("%w: header says %d points in %d cells, grid has %d in %d",
			ErrStale, h.Points, h.Cells, g.PointCount, len(g.Cells))
	}
	return &g, nil
}

// Cache is a directory of snapshots named by key.
type Cache struct {
	Dir string
}

// Path returns the snapshot file for key.
func (c Cache) Path(key uint64) string {
	return filepath.Join(c.Dir, fmt.Sprintf("grid-%016x.zst", key))
}

// LoadOrBuild returns the cached grid for positions and opts, or builds and
// stores it. The grid is always usable; a non-nil error reports a cache
// failure the caller may log.
func (c Cache) LoadOrBuild(positions []float32, opts lod.BuildOptions) (grid *lod.Grid, hit bool, err error) {
	key := Key(positions, opts)
	path := c.Path(key)

	g, loadErr := Load(path, key)
	if loadErr == nil {
		return g, true, nil
	}

	g = opts.Build(positions)
	if g.Empty() {
		return g, false, nil
	}
	if saveErr := Save(path, key, opts, g); saveErr != nil {
		return g, false, fmt.Errorf("save grid snapshot: %w", saveErr)
	}
	if errors.Is(loadErr, os.ErrNotExist) {
		return g, false, nil
	}
	return g, false, fmt.Errorf("load grid snapshot: %w", loadErr)
}
