package kmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

// testFile builds a valid in-memory File with n distinct model blocks.
func testFile(n int) *File {
	f := &File{Header: ModelHeader{ScaleFactor: 3}}
	for i := 0; i < n; i++ {
		f.Blocks = append(f.Blocks, ModelBlock{
			NodeName:      fmt.Sprintf("node-%d", i),
			MeshName:      fmt.Sprintf("mesh-%d", i),
			SourcePath:    fmt.Sprintf("models/source-%d.fbx", i),
			DataTypeFlags: FlagMaterial | FlagTexture,
			RenderType:    RenderOpaque,
			Position:      [3]float32{float32(i), -2.5, 10},
			Rotation:      [4]float32{1, 0, 0, 0},
			Scale:         [3]float32{1, 1, 0.5},
			Vertices: []Vertex{
				{
					Position: [3]float32{0, 0, 0},
					Normal:   [3]float32{0, 0, 1},
					TexCoord: [2]float32{0, 0},
					Tangent:  [4]float32{1, 0, 0, 1},
				},
				{
					Position: [3]float32{1, 0, 0},
					Normal:   [3]float32{0, 0, 1},
					TexCoord: [2]float32{1, 0},
					Tangent:  [4]float32{1, 0, 0, 1},
				},
				{
					Position: [3]float32{0, 1, float32(i)},
					Normal:   [3]float32{0, 0, 1},
					TexCoord: [2]float32{0, 1},
					Tangent:  [4]float32{1, 0, 0, 1},
				},
			},
			Indices: []uint32{0, 1, 2},
		})
	}
	return f
}

// encodeValid encodes a testFile and fails the test on encoder errors.
func encodeValid(t *testing.T, n int) []byte {
	t.Helper()
	data, err := Encode(testFile(n))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

// blockStart returns the absolute offset of block i in an encodeValid(n)
// buffer. Every test block has 3 vertices and 3 indices.
func blockStart(n, i int) int {
	blockSize := VertexDataOffset + 3*VertexSize + 3*IndexSize
	return HeaderSize + n*TableEntrySize + i*blockSize
}

func patchF32(data []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v))
}

func TestImportBytesSuccess(t *testing.T) {
	const n = 5
	data := encodeValid(t, n)

	f, err := ImportBytes(data)
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}

	if f.Header.Magic != Magic || f.Header.Version != Version {
		t.Errorf("header identity = %#08x v%d", f.Header.Magic, f.Header.Version)
	}
	if f.Header.ModelCount != n {
		t.Errorf("ModelCount = %d, want %d", f.Header.ModelCount, n)
	}
	if len(f.Tables) != n || len(f.Blocks) != n {
		t.Fatalf("got %d tables, %d blocks, want %d each", len(f.Tables), len(f.Blocks), n)
	}

	// File order is preserved and tables correspond to blocks by index.
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("node-%d", i)
		if f.Tables[i].Name != want {
			t.Errorf("Tables[%d].Name = %q, want %q", i, f.Tables[i].Name, want)
		}
		if f.Blocks[i].NodeName != want {
			t.Errorf("Blocks[%d].NodeName = %q, want %q", i, f.Blocks[i].NodeName, want)
		}
		if len(f.Blocks[i].Vertices) != 3 || len(f.Blocks[i].Indices) != 3 {
			t.Errorf("Blocks[%d]: %d vertices, %d indices, want 3 each",
				i, len(f.Blocks[i].Vertices), len(f.Blocks[i].Indices))
		}
	}
}

func TestImportBytesRoundTrip(t *testing.T) {
	src := testFile(2)
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	f, err := ImportBytes(data)
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}

	if f.Header.ScaleFactor != 3 {
		t.Errorf("ScaleFactor = %d, want 3", f.Header.ScaleFactor)
	}
	for i := range src.Blocks {
		sb, db := &src.Blocks[i], &f.Blocks[i]
		if sb.NodeName != db.NodeName || sb.MeshName != db.MeshName || sb.SourcePath != db.SourcePath {
			t.Errorf("block %d names differ: %+v vs %+v", i, sb, db)
		}
		if sb.DataTypeFlags != db.DataTypeFlags || sb.RenderType != db.RenderType {
			t.Errorf("block %d flags differ", i)
		}
		if sb.Position != db.Position || sb.Rotation != db.Rotation || sb.Scale != db.Scale {
			t.Errorf("block %d transform differs", i)
		}
		if !reflect.DeepEqual(sb.Vertices, db.Vertices) {
			t.Errorf("block %d vertices differ", i)
		}
		if !reflect.DeepEqual(sb.Indices, db.Indices) {
			t.Errorf("block %d indices differ", i)
		}
	}

	// Decode → encode reproduces the exact bytes.
	again, err := Encode(f)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !reflect.DeepEqual(data, again) {
		t.Error("re-encoded bytes differ from original")
	}
}

func TestImportBytesInvalidMagic(t *testing.T) {
	for i := 0; i < 4; i++ {
		data := encodeValid(t, 1)
		data[i] ^= 0xFF

		_, err := ImportBytes(data)
		if !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("byte %d corrupted: err = %v, want ErrInvalidMagic", i, err)
		}
	}
}

func TestImportBytesInvalidVersion(t *testing.T) {
	data := encodeValid(t, 1)
	data[4] = Version + 1

	if _, err := ImportBytes(data); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("err = %v, want ErrInvalidVersion", err)
	}
}

func TestImportBytesScaleSelectorClamp(t *testing.T) {
	// Out-of-range selectors are clamped to 0, never rejected.
	for _, sel := range []uint8{9, 100, 255} {
		data := encodeValid(t, 1)
		data[5] = sel

		f, err := ImportBytes(data)
		if err != nil {
			t.Fatalf("selector %d: %v", sel, err)
		}
		if f.Header.ScaleFactor != 0 {
			t.Errorf("selector %d: ScaleFactor = %d, want 0", sel, f.Header.ScaleFactor)
		}
		if got := f.Header.ScaleMultiplier(); got != 1 {
			t.Errorf("selector %d: multiplier = %v, want 1", sel, got)
		}
	}
}

func TestScaleMultiplier(t *testing.T) {
	tests := []struct {
		selector uint8
		want     float32
	}{
		{0, 1}, {1, 10}, {2, 100}, {3, 1000}, {4, 10000},
		{5, 0.1}, {6, 0.01}, {7, 0.001}, {8, 0.0001},
	}
	for _, tt := range tests {
		h := ModelHeader{ScaleFactor: tt.selector}
		if got := h.ScaleMultiplier(); got != tt.want {
			t.Errorf("selector %d: multiplier = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestImportBytesHeaderBounds(t *testing.T) {
	tests := []struct {
		name  string
		off   int
		value uint32
		want  error
	}{
		{"model count over limit", 6, MaxModelCount + 1, ErrInvalidModelCount},
		{"table region too small", 10, TableEntrySize - 1, ErrInvalidTableSize},
		{"table region too large", 10, MaxTableRegionSize + 1, ErrInvalidTableSize},
		{"block region too small", 14, VertexDataOffset - 1, ErrInvalidBlockSize},
		{"block region too large", 14, MaxBlockRegionSize + 1, ErrInvalidBlockSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeValid(t, 1)
			binary.LittleEndian.PutUint32(data[tt.off:], tt.value)

			if _, err := ImportBytes(data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportBytesBlockPastEOF(t *testing.T) {
	const n = 3
	data := encodeValid(t, n)

	// Second entry points past the end of the file.
	entry := HeaderSize + 1*TableEntrySize
	binary.LittleEndian.PutUint32(data[entry+20:], uint32(len(data)))

	f, err := ImportBytes(data)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want ErrUnexpectedEOF", err)
	}
	// All-or-nothing: the first block decoded fine but nothing is returned.
	if f != nil {
		t.Error("partial result returned on failed import")
	}
}

func TestImportBytesBlockOffsetOverflow(t *testing.T) {
	data := encodeValid(t, 1)

	// offset + size would wrap a 32-bit sum back into range.
	entry := HeaderSize
	binary.LittleEndian.PutUint32(data[entry+20:], 0xFFFFFF00)
	binary.LittleEndian.PutUint32(data[entry+24:], 0x00000200)

	if _, err := ImportBytes(data); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestImportBytesPositionBounds(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		ok    bool
	}{
		{"max boundary", 10000.0, true},
		{"above max", 10000.1, false},
		{"min boundary", -10000.0, true},
		{"below min", -10000.1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 2
			data := encodeValid(t, n)
			// Y axis of the second block's position.
			patchF32(data, blockStart(n, 1)+92+4, tt.value)

			f, err := ImportBytes(data)
			if tt.ok {
				if err != nil {
					t.Fatalf("value %v rejected: %v", tt.value, err)
				}
				if got := f.Blocks[1].Position[1]; got != tt.value {
					t.Errorf("Position[1] = %v, want %v", got, tt.value)
				}
				return
			}
			if !errors.Is(err, ErrInvalidModelPosition) {
				t.Errorf("err = %v, want ErrInvalidModelPosition", err)
			}
			if f != nil {
				t.Error("partial result returned on failed import")
			}
		})
	}
}

func TestImportBytesScaleBounds(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		ok    bool
	}{
		{"min boundary", 0.01, true},
		{"below min", 0.009, false},
		{"zero", 0, false},
		{"max boundary", 10000.0, true},
		{"above max", 10000.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeValid(t, 1)
			patchF32(data, blockStart(1, 0)+120, tt.value)

			_, err := ImportBytes(data)
			if tt.ok {
				if err != nil {
					t.Errorf("value %v rejected: %v", tt.value, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidModelSize) {
				t.Errorf("err = %v, want ErrInvalidModelSize", err)
			}
		})
	}
}

func TestImportBytesArrayPastEOF(t *testing.T) {
	tests := []struct {
		name string
		off  int // relative to block start
	}{
		{"vertex array", 136},
		{"index array", 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeValid(t, 1)
			binary.LittleEndian.PutUint32(data[blockStart(1, 0)+tt.off:], uint32(len(data)))

			if _, err := ImportBytes(data); !errors.Is(err, ErrUnexpectedEOF) {
				t.Errorf("err = %v, want ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestImportBytesTruncatedFinalVertex(t *testing.T) {
	// A declared vertex size that is not a multiple of the record size
	// drops the trailing partial record; it only fails if the declared
	// bytes run past the file end.
	data := encodeValid(t, 1)
	start := blockStart(1, 0)
	binary.LittleEndian.PutUint32(data[start+136:], VertexSize-1)

	f, err := ImportBytes(data)
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}
	if len(f.Blocks[0].Vertices) != 0 {
		t.Errorf("got %d vertices, want 0", len(f.Blocks[0].Vertices))
	}
}

func TestImportBytesSizeEnvelope(t *testing.T) {
	if _, err := ImportBytes(nil); !errors.Is(err, ErrFileEmpty) {
		t.Errorf("empty: err = %v, want ErrFileEmpty", err)
	}

	_, err := ImportBytes(make([]byte, MinFileSize-1))
	if !errors.Is(err, ErrUnsupportedFileSize) {
		t.Errorf("undersized: err = %v, want ErrUnsupportedFileSize", err)
	}
	// Undersized input is reported before any decoding, distinct from a
	// mid-block EOF.
	if errors.Is(err, ErrUnexpectedEOF) {
		t.Error("undersized input reported as unexpected EOF")
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "scene.kmd")
	if err := WriteFile(valid, testFile(2)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := Import(valid)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(f.Blocks) != 2 {
		t.Errorf("got %d blocks, want 2", len(f.Blocks))
	}

	if _, err := Import(filepath.Join(dir, "missing.kmd")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing: err = %v, want ErrFileNotFound", err)
	}

	// The extension check is case-insensitive.
	upper := filepath.Join(dir, "scene.KMD")
	if err := WriteFile(upper, testFile(1)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Import(upper); err != nil {
		t.Errorf("uppercase extension: err = %v, want nil", err)
	}

	wrongExt := filepath.Join(dir, "scene.bin")
	if err := os.WriteFile(wrongExt, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(wrongExt); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("wrong extension: err = %v, want ErrInvalidExtension", err)
	}

	subdir := filepath.Join(dir, "dir.kmd")
	if err := os.Mkdir(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(subdir); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("directory: err = %v, want ErrInvalidExtension", err)
	}

	empty := filepath.Join(dir, "empty.kmd")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(empty); !errors.Is(err, ErrFileEmpty) {
		t.Errorf("empty: err = %v, want ErrFileEmpty", err)
	}

	tiny := filepath.Join(dir, "tiny.kmd")
	if err := os.WriteFile(tiny, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(tiny); !errors.Is(err, ErrUnsupportedFileSize) {
		t.Errorf("tiny: err = %v, want ErrUnsupportedFileSize", err)
	}
}

func TestImportUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "locked.kmd")
	if err := WriteFile(path, testFile(1)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chmod(path, 0o200); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(path, 0o644)

	if _, err := Import(path); !errors.Is(err, ErrUnauthorizedRead) {
		t.Errorf("err = %v, want ErrUnauthorizedRead", err)
	}
}
