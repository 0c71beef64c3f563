// Package kmd decodes and encodes KMD ("kalamodeldata") binary model
// containers: a fixed top header, a directory of per-model table entries,
// and one variable-size data block per model holding metadata, a transform
// and raw vertex/index arrays.
//
// All multi-byte fields are little-endian. Import is all-or-nothing: the
// first violated invariant aborts the whole import and no partial model
// list is ever returned.
package kmd

// Magic is the 32-bit word at offset 0 of every KMD file: 'K','M','D','\0'.
const Magic uint32 = 0x00444D4B

// Version is the only container version this package accepts.
const Version uint8 = 1

const (
	// HeaderSize is the fixed size of the top header in bytes.
	HeaderSize = 18

	// TableEntrySize is the fixed size of one per-model table entry.
	TableEntrySize = 28

	// VertexDataOffset is where vertex data starts relative to each block.
	VertexDataOffset = 148

	// VertexSize is the encoded size of one Vertex record.
	VertexSize = 48

	// IndexSize is the encoded size of one index (uint32).
	IndexSize = 4

	// NameCapacity is the fixed byte capacity of name fields (19 + NUL).
	NameCapacity = 20

	// PathCapacity is the fixed byte capacity of the source path (49 + NUL).
	PathCapacity = 50
)

const (
	// MaxModelCount bounds the model count declared in the header.
	MaxModelCount = 1024

	// MaxTableRegionSize caps the combined table region (28 KiB).
	MaxTableRegionSize = 28672

	// MaxBlockRegionSize caps the combined block region (1 GiB).
	MaxBlockRegionSize = 1 << 30

	// MinFileSize is the smallest legal file: header, one table entry and
	// one block with empty vertex/index arrays.
	MinFileSize = HeaderSize + TableEntrySize + VertexDataOffset

	// MaxFileSize is the largest legal file.
	MaxFileSize = HeaderSize + MaxTableRegionSize + MaxBlockRegionSize
)

const (
	// MinPosition and MaxPosition bound each model position axis.
	MinPosition float32 = -10000.0
	MaxPosition float32 = 10000.0

	// MinScale and MaxScale bound each model scale axis.
	MinScale float32 = 0.01
	MaxScale float32 = 10000.0
)

// Extension is the required file extension, lower case.
const Extension = ".kmd"

// Data-type flag bits describing which optional sub-resources a block has.
const (
	FlagMaterial uint8 = 1 << iota
	FlagTexture
	FlagCamera
	FlagLight
	FlagAnimation
)

// Render types. Values 3-255 are unused and treated as opaque.
const (
	RenderOpaque      uint8 = 0
	RenderTransparent uint8 = 1
	RenderMasked      uint8 = 2
)

// scaleMultipliers maps the header's scale-factor selector to the global
// model-space downscale multiplier.
var scaleMultipliers = [9]float32{1, 10, 100, 1000, 10000, 0.1, 0.01, 0.001, 0.0001}

// ModelHeader is the fixed header at the top of each KMD file.
// It is immutable once decoded.
type ModelHeader struct {
	Magic       uint32 // always Magic
	Version     uint8  // always Version
	ScaleFactor uint8  // selector 0-8; out-of-range values decode as 0
	ModelCount  uint32 // count of models, 0..MaxModelCount
	TablesSize  uint32 // total size of the table region
	BlocksSize  uint32 // total size of the block region
}

// ScaleMultiplier returns the downscale multiplier selected by ScaleFactor.
func (h ModelHeader) ScaleMultiplier() float32 {
	if int(h.ScaleFactor) >= len(scaleMultipliers) {
		return scaleMultipliers[0]
	}
	return scaleMultipliers[h.ScaleFactor]
}

// ModelTable is one directory entry locating a model's block by absolute
// file offset. Entries never embed the block payload.
type ModelTable struct {
	Name        string // model name, at most NameCapacity-1 bytes
	BlockOffset uint32 // absolute offset of the block from file start
	BlockSize   uint32 // declared size of the block payload
}

// Vertex is one fixed-layout render-ready vertex record.
type Vertex struct {
	Position [3]float32 // x, y, z
	Normal   [3]float32 // nx, ny, nz
	TexCoord [2]float32 // u, v
	Tangent  [4]float32 // tx, ty, tz, tw
}

// ModelBlock is the full payload for one model.
type ModelBlock struct {
	NodeName   string // at most NameCapacity-1 bytes
	MeshName   string // at most NameCapacity-1 bytes
	SourcePath string // at most PathCapacity-1 bytes

	DataTypeFlags uint8 // Flag* bits
	RenderType    uint8 // RenderOpaque, RenderTransparent or RenderMasked

	Position [3]float32 // x, y, z
	Rotation [4]float32 // quaternion w, x, y, z; not range-checked
	Scale    [3]float32 // x, y, z

	// Declared sub-array locations, relative to the block's own start.
	VerticesOffset uint32
	VerticesSize   uint32
	IndicesOffset  uint32
	IndicesSize    uint32

	Vertices []Vertex
	Indices  []uint32
}

// HasData reports whether the block carries the given Flag* sub-resource.
func (b *ModelBlock) HasData(flag uint8) bool {
	return b.DataTypeFlags&flag != 0
}

// File is one fully decoded KMD container. Tables and Blocks are in file
// order and correspond index-for-index.
type File struct {
	Header ModelHeader
	Tables []ModelTable
	Blocks []ModelBlock
}
