package kmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Encode serializes a File into KMD container bytes. The table region,
// absolute block offsets, sub-array offsets/sizes and header totals are
// recomputed from the blocks, so a decoded File re-encodes to the same
// canonical layout. Table names are taken from f.Tables when one entry per
// block is present, otherwise from each block's node name.
//
// Encode validates structure only (name capacities, counts, region caps);
// it does not range-check positions or scales, which lets tests and tools
// produce deliberately invalid files by patching valid ones.
func Encode(f *File) ([]byte, error) {
	n := len(f.Blocks)
	if n == 0 {
		return nil, fmt.Errorf("kmd: encode: no model blocks")
	}
	if n > MaxModelCount {
		return nil, fmt.Errorf("kmd: encode: %d models exceeds limit %d", n, MaxModelCount)
	}

	tablesSize := n * TableEntrySize
	if tablesSize > MaxTableRegionSize {
		return nil, fmt.Errorf("kmd: encode: table region %d exceeds limit", tablesSize)
	}

	blocksSize := 0
	for i := range f.Blocks {
		b := &f.Blocks[i]
		if err := checkName("node name", b.NodeName, NameCapacity); err != nil {
			return nil, err
		}
		if err := checkName("mesh name", b.MeshName, NameCapacity); err != nil {
			return nil, err
		}
		if err := checkName("source path", b.SourcePath, PathCapacity); err != nil {
			return nil, err
		}
		blocksSize += VertexDataOffset + len(b.Vertices)*VertexSize + len(b.Indices)*IndexSize
	}
	if blocksSize > MaxBlockRegionSize {
		return nil, fmt.Errorf("kmd: encode: block region %d exceeds limit", blocksSize)
	}

	selector := f.Header.ScaleFactor
	if selector > 8 {
		selector = 0
	}

	buf := make([]byte, HeaderSize+tablesSize+blocksSize)

	// Top header.
	binary.LittleEndian.PutUint32(buf[0:], Magic)
	buf[4] = Version
	buf[5] = selector
	binary.LittleEndian.PutUint32(buf[6:], uint32(n))
	binary.LittleEndian.PutUint32(buf[10:], uint32(tablesSize))
	binary.LittleEndian.PutUint32(buf[14:], uint32(blocksSize))

	blockOff := HeaderSize + tablesSize
	for i := range f.Blocks {
		b := &f.Blocks[i]
		vSize := len(b.Vertices) * VertexSize
		iSize := len(b.Indices) * IndexSize
		bSize := VertexDataOffset + vSize + iSize

		name := b.NodeName
		if len(f.Tables) == n {
			name = f.Tables[i].Name
			if err := checkName("table name", name, NameCapacity); err != nil {
				return nil, err
			}
		}

		// Table entry.
		tOff := HeaderSize + i*TableEntrySize
		putName(buf[tOff:], name, NameCapacity)
		binary.LittleEndian.PutUint32(buf[tOff+20:], uint32(blockOff))
		binary.LittleEndian.PutUint32(buf[tOff+24:], uint32(bSize))

		// Block metadata.
		putName(buf[blockOff:], b.NodeName, NameCapacity)
		putName(buf[blockOff+20:], b.MeshName, NameCapacity)
		putName(buf[blockOff+40:], b.SourcePath, PathCapacity)
		buf[blockOff+90] = b.DataTypeFlags
		buf[blockOff+91] = b.RenderType
		for k := 0; k < 3; k++ {
			putF32(buf[blockOff+92+k*4:], b.Position[k])
		}
		for k := 0; k < 4; k++ {
			putF32(buf[blockOff+104+k*4:], b.Rotation[k])
		}
		for k := 0; k < 3; k++ {
			putF32(buf[blockOff+120+k*4:], b.Scale[k])
		}
		binary.LittleEndian.PutUint32(buf[blockOff+132:], VertexDataOffset)
		binary.LittleEndian.PutUint32(buf[blockOff+136:], uint32(vSize))
		binary.LittleEndian.PutUint32(buf[blockOff+140:], uint32(VertexDataOffset+vSize))
		binary.LittleEndian.PutUint32(buf[blockOff+144:], uint32(iSize))

		// Vertex and index payload.
		vOff := blockOff + VertexDataOffset
		for j := range b.Vertices {
			encodeVertex(buf[vOff+j*VertexSize:], &b.Vertices[j])
		}
		iOff := vOff + vSize
		for j, idx := range b.Indices {
			binary.LittleEndian.PutUint32(buf[iOff+j*IndexSize:], idx)
		}

		blockOff += bSize
	}

	return buf, nil
}

// WriteFile encodes f and writes it to path.
func WriteFile(path string, f *File) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func checkName(field, s string, capacity int) error {
	// The capacity includes the NUL terminator.
	if len(s) >= capacity {
		return fmt.Errorf("kmd: encode: %s %q longer than %d bytes", field, s, capacity-1)
	}
	return nil
}

func putName(dst []byte, s string, capacity int) {
	copy(dst[:capacity], s)
	for i := len(s); i < capacity; i++ {
		dst[i] = 0
	}
}

func putF32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func encodeVertex(dst []byte, v *Vertex) {
	for k := 0; k < 3; k++ {
		putF32(dst[k*4:], v.Position[k])
		putF32(dst[12+k*4:], v.Normal[k])
	}
	putF32(dst[24:], v.TexCoord[0])
	putF32(dst[28:], v.TexCoord[1])
	for k := 0; k < 4; k++ {
		putF32(dst[32+k*4:], v.Tangent[k])
	}
}
