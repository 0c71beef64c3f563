package kmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Import reads and validates one KMD file. It returns either a fully
// decoded File or exactly one of the package's sentinel errors; it never
// panics and never returns partial data.
//
// The whole file is read into memory in one piece. MaxFileSize caps the
// read at just over 1 GiB, which keeps that simple strategy safe.
func Import(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnknownRead, path, err)
	}
	if !info.Mode().IsRegular() || strings.ToLower(filepath.Ext(path)) != Extension {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	if info.Mode().Perm()&0o444 == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorizedRead, path)
	}

	// Size envelope from stat, before the file is read into memory.
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileEmpty, path)
	}
	if size < MinFileSize || size > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrUnsupportedFileSize, path, size)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrUnauthorizedRead, path)
		case errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY):
			return nil, fmt.Errorf("%w: %s", ErrFileLocked, path)
		default:
			return nil, fmt.Errorf("%w: read %s: %v", ErrUnknownRead, path, err)
		}
	}

	return ImportBytes(data)
}

// ImportBytes decodes a KMD container already held in memory. The buffer
// is only read; the returned File owns copied-out structures and keeps no
// reference to data.
func ImportBytes(data []byte) (f *File, err error) {
	// The decode path never indexes past a bounds check, but the contract
	// is that this function returns a tagged error rather than panicking.
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("%w: %v", ErrUnknownRead, r)
		}
	}()

	if len(data) == 0 {
		return nil, ErrFileEmpty
	}
	if len(data) < MinFileSize || len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnsupportedFileSize, len(data))
	}

	header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	tables, err := decodeTables(data, header)
	if err != nil {
		return nil, err
	}

	blocks := make([]ModelBlock, 0, len(tables))
	for i := range tables {
		b, err := decodeBlock(data, &tables[i])
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	return &File{Header: header, Tables: tables, Blocks: blocks}, nil
}

// decodeHeader validates the fixed top header field by field, in order:
// structural identity (magic) before format compatibility (version) before
// content bounds. The buffer is at least MinFileSize here, so the fixed
// offsets are always in range.
func decodeHeader(data []byte) (ModelHeader, error) {
	var h ModelHeader

	h.Magic = binary.LittleEndian.Uint32(data[0:])
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: got %#08x", ErrInvalidMagic, h.Magic)
	}

	h.Version = data[4]
	if h.Version != Version {
		return h, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, h.Version, Version)
	}

	// Out-of-range selectors decode as 0 instead of failing. This is the
	// format's one lenient header field.
	h.ScaleFactor = data[5]
	if h.ScaleFactor > 8 {
		h.ScaleFactor = 0
	}

	h.ModelCount = binary.LittleEndian.Uint32(data[6:])
	if h.ModelCount > MaxModelCount {
		return h, fmt.Errorf("%w: %d", ErrInvalidModelCount, h.ModelCount)
	}

	h.TablesSize = binary.LittleEndian.Uint32(data[10:])
	if h.TablesSize < TableEntrySize || h.TablesSize > MaxTableRegionSize {
		return h, fmt.Errorf("%w: %d", ErrInvalidTableSize, h.TablesSize)
	}

	h.BlocksSize = binary.LittleEndian.Uint32(data[14:])
	if h.BlocksSize < VertexDataOffset || h.BlocksSize > MaxBlockRegionSize {
		return h, fmt.Errorf("%w: %d", ErrInvalidBlockSize, h.BlocksSize)
	}

	return h, nil
}

// decodeTables walks the table region in TableEntrySize strides starting
// right after the header. Every stride that starts inside the declared
// region is decoded; entries are raw field copies and offset/size
// cross-validation is deferred to decodeBlock.
func decodeTables(data []byte, h ModelHeader) ([]ModelTable, error) {
	tables := make([]ModelTable, 0, h.ModelCount)

	end := HeaderSize + int(h.TablesSize)
	for off := HeaderSize; off < end; off += TableEntrySize {
		c := cursor{data: data, off: off}

		var t ModelTable
		var err error
		if t.Name, err = c.name(NameCapacity); err != nil {
			return nil, fmt.Errorf("%w: table entry at %d", ErrUnexpectedEOF, off)
		}
		if t.BlockOffset, err = c.u32(); err != nil {
			return nil, fmt.Errorf("%w: table entry at %d", ErrUnexpectedEOF, off)
		}
		if t.BlockSize, err = c.u32(); err != nil {
			return nil, fmt.Errorf("%w: table entry at %d", ErrUnexpectedEOF, off)
		}

		tables = append(tables, t)
	}

	return tables, nil
}

// decodeBlock decodes and validates one model block located by its table
// entry. Any violation aborts the whole import.
func decodeBlock(data []byte, t *ModelTable) (ModelBlock, error) {
	var b ModelBlock

	// Wide arithmetic so a hostile offset+size pair cannot wrap.
	off := int64(t.BlockOffset)
	if off+int64(t.BlockSize) > int64(len(data)) {
		return b, fmt.Errorf("%w: block %q at %d+%d", ErrUnexpectedEOF, t.Name, t.BlockOffset, t.BlockSize)
	}

	c := cursor{data: data, off: int(off)}

	var err error
	if b.NodeName, err = c.name(NameCapacity); err != nil {
		return b, blockEOF(t)
	}
	if b.MeshName, err = c.name(NameCapacity); err != nil {
		return b, blockEOF(t)
	}
	if b.SourcePath, err = c.name(PathCapacity); err != nil {
		return b, blockEOF(t)
	}
	if b.DataTypeFlags, err = c.u8(); err != nil {
		return b, blockEOF(t)
	}
	if b.RenderType, err = c.u8(); err != nil {
		return b, blockEOF(t)
	}

	for i := 0; i < 3; i++ {
		if b.Position[i], err = c.f32(); err != nil {
			return b, blockEOF(t)
		}
	}
	if outOfRange(b.Position[:], MinPosition, MaxPosition) {
		return b, fmt.Errorf("%w: block %q position %v", ErrInvalidModelPosition, b.NodeName, b.Position)
	}

	// Any quaternion is accepted structurally; normalization is the
	// caller's concern.
	for i := 0; i < 4; i++ {
		if b.Rotation[i], err = c.f32(); err != nil {
			return b, blockEOF(t)
		}
	}

	for i := 0; i < 3; i++ {
		if b.Scale[i], err = c.f32(); err != nil {
			return b, blockEOF(t)
		}
	}
	if outOfRange(b.Scale[:], MinScale, MaxScale) {
		return b, fmt.Errorf("%w: block %q scale %v", ErrInvalidModelSize, b.NodeName, b.Scale)
	}

	if b.VerticesOffset, err = c.u32(); err != nil {
		return b, blockEOF(t)
	}
	if b.VerticesSize, err = c.u32(); err != nil {
		return b, blockEOF(t)
	}
	if b.IndicesOffset, err = c.u32(); err != nil {
		return b, blockEOF(t)
	}
	if b.IndicesSize, err = c.u32(); err != nil {
		return b, blockEOF(t)
	}

	vertexBase := off + VertexDataOffset
	if vertexBase+int64(b.VerticesSize) > int64(len(data)) {
		return b, fmt.Errorf("%w: block %q vertex data", ErrUnexpectedEOF, b.NodeName)
	}
	indexBase := vertexBase + int64(b.VerticesSize)
	if indexBase+int64(b.IndicesSize) > int64(len(data)) {
		return b, fmt.Errorf("%w: block %q index data", ErrUnexpectedEOF, b.NodeName)
	}

	// Counts are derived by division; a trailing partial record is dropped
	// unless it pushes the declared size past the file end.
	b.Vertices = decodeVertices(data[vertexBase : vertexBase+int64(b.VerticesSize)])
	b.Indices = decodeIndices(data[indexBase : indexBase+int64(b.IndicesSize)])

	return b, nil
}

func blockEOF(t *ModelTable) error {
	return fmt.Errorf("%w: block %q", ErrUnexpectedEOF, t.Name)
}

// outOfRange reports whether any component leaves [min, max]. NaN passes
// both comparisons and is accepted, matching the format's reference
// behavior.
func outOfRange(v []float32, min, max float32) bool {
	for _, x := range v {
		if x < min || x > max {
			return true
		}
	}
	return false
}

func decodeVertices(raw []byte) []Vertex {
	count := len(raw) / VertexSize
	verts := make([]Vertex, count)
	for i := 0; i < count; i++ {
		o := i * VertexSize
		v := &verts[i]
		for k := 0; k < 3; k++ {
			v.Position[k] = f32At(raw, o+k*4)
			v.Normal[k] = f32At(raw, o+12+k*4)
		}
		v.TexCoord[0] = f32At(raw, o+24)
		v.TexCoord[1] = f32At(raw, o+28)
		for k := 0; k < 4; k++ {
			v.Tangent[k] = f32At(raw, o+32+k*4)
		}
	}
	return verts
}

func decodeIndices(raw []byte) []uint32 {
	count := len(raw) / IndexSize
	indices := make([]uint32, count)
	for i := 0; i < count; i++ {
		indices[i] = binary.LittleEndian.Uint32(raw[i*IndexSize:])
	}
	return indices
}

func f32At(raw []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
}
