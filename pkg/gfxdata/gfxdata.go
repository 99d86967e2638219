// Package gfxdata accumulates packed tile bytes and their offsets as tiles
// are produced, possibly out of order by concurrent workers, then writes
// the accumulated .bin/.idx/.pal output files.
package gfxdata

import (
	"encoding/binary"
	"os"
	"sync"
)

// Table collects one run's output: the concatenated tile byte data and the
// offset into it at which each tile's data starts, guarded by one mutex
// over an append-only pair of slices.
type Table struct {
	mu        sync.Mutex
	gfxData   []byte
	indexData []uint16
}

// NewTable returns an empty accumulator.
func NewTable() *Table {
	return &Table{}
}

// AddTile appends one tile's packed bytes, recording its starting offset in
// the index. Tiles may arrive from concurrent workers in any order; the
// caller is responsible for calling AddTile in final tile order if offsets
// must match source order (cmd/tile2sam calls it in order over the results
// of driver.RunTiles).
func (t *Table) AddTile(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indexData = append(t.indexData, uint16(len(t.gfxData)))
	t.gfxData = append(t.gfxData, data...)
}

// GfxData returns the accumulated tile byte data.
func (t *Table) GfxData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.gfxData))
	copy(out, t.gfxData)
	return out
}

// IndexData returns the accumulated per-tile start offsets.
func (t *Table) IndexData() []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uint16, len(t.indexData))
	copy(out, t.indexData)
	return out
}

// WriteBin writes the accumulated tile data to path, appending to an
// existing file instead of truncating it when appendMode is set.
func (t *Table) WriteBin(path string, appendMode bool) error {
	return writeFile(path, t.GfxData(), appendMode)
}

// WriteIndex writes the accumulated offsets as big-endian uint16s, the way
// the source generator's struct.pack(">NH", ...) does.
func (t *Table) WriteIndex(path string) error {
	idx := t.IndexData()
	buf := make([]byte, 2*len(idx))
	for i, v := range idx {
		binary.BigEndian.PutUint16(buf[i*2:], v)
	}
	return writeFile(path, buf, false)
}

// WritePalette writes a CLUT as one byte per entry.
func WritePalette(path string, clut []int) error {
	buf := make([]byte, len(clut))
	for i, c := range clut {
		buf[i] = byte(c)
	}
	return writeFile(path, buf, false)
}

// WriteCode writes generated assembly text, appending instead of
// truncating when appendMode is set (mirrors the .bin file's append flag).
func WriteCode(path, text string, appendMode bool) error {
	return writeFile(path, []byte(text), appendMode)
}

func writeFile(path string, data []byte, appendMode bool) error {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
