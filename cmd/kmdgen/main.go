// kmdgen writes sample .kmd files through the reference encoder. Handy for
// exercising the importer and the preview tools without a real exporter.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"kmd-toolkit/internal/kmd"
	"kmd-toolkit/internal/logging"
)

func main() {
	out := flag.String("out", "sample.kmd", "Output file path")
	shape := flag.String("shape", "cube", "Shape per model: cube or plane")
	models := flag.Int("models", 1, "Number of model blocks to generate")
	selector := flag.Int("scale", 0, "Scale-factor selector (0-8)")
	texture := flag.String("texture", "", "Texture reference to store as each block's source path")
	corruptMode := flag.String("corrupt", "", "Break the encoded file before writing: magic, version, count, table-size or block-eof")

	flag.Parse()

	if *models < 1 || *models > kmd.MaxModelCount {
		logging.Fatalf("models must be 1..%d", kmd.MaxModelCount)
	}
	if *selector < 0 || *selector > 8 {
		logging.Fatalf("scale selector must be 0..8")
	}

	var verts []kmd.Vertex
	var indices []uint32
	switch *shape {
	case "cube":
		verts, indices = cube()
	case "plane":
		verts, indices = plane()
	default:
		logging.Fatalf("unknown shape %q", *shape)
	}

	f := &kmd.File{Header: kmd.ModelHeader{ScaleFactor: uint8(*selector)}}
	for i := 0; i < *models; i++ {
		b := kmd.ModelBlock{
			NodeName:   fmt.Sprintf("%s-%d", *shape, i),
			MeshName:   *shape,
			SourcePath: *texture,
			RenderType: kmd.RenderOpaque,
			// Lay the models out in a row so multi-model previews show
			// every block.
			Position: [3]float32{float32(i) * 2.5, 0, 0},
			Rotation: [4]float32{1, 0, 0, 0},
			Scale:    [3]float32{1, 1, 1},
			Vertices: verts,
			Indices:  indices,
		}
		if *texture != "" {
			b.DataTypeFlags = kmd.FlagTexture
		}
		f.Blocks = append(f.Blocks, b)
	}

	data, err := kmd.Encode(f)
	if err != nil {
		logging.Fatalf("encoding: %v", err)
	}
	if *corruptMode != "" {
		if err := corrupt(data, *corruptMode); err != nil {
			logging.Fatalf("%v", err)
		}
	}

	if err := os.WriteFile(*out, data, 0644); err != nil {
		logging.Fatalf("writing %s: %v", *out, err)
	}

	fmt.Printf("%s: %d models, %d bytes\n", *out, *models, len(data))
}

// corrupt patches one header or table field in an encoded file so the
// importer rejects it with a predictable outcome. Used to exercise the
// validator by hand.
func corrupt(data []byte, mode string) error {
	switch mode {
	case "magic":
		data[0] ^= 0xFF
	case "version":
		data[4] = kmd.Version + 1
	case "count":
		binary.LittleEndian.PutUint32(data[6:], kmd.MaxModelCount+1)
	case "table-size":
		binary.LittleEndian.PutUint32(data[10:], kmd.TableEntrySize-1)
	case "block-eof":
		// Point the first table entry's block past the end of the file.
		binary.LittleEndian.PutUint32(data[kmd.HeaderSize+kmd.NameCapacity:], uint32(len(data)))
	default:
		return fmt.Errorf("unknown corrupt mode %q", mode)
	}
	return nil
}

// cube returns a unit cube with per-face normals and UVs.
func cube() ([]kmd.Vertex, []uint32) {
	faces := []struct {
		normal  [3]float32
		tangent [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0},
			[4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0},
			[4][3]float32{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1},
			[4][3]float32{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1},
			[4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0},
			[4][3]float32{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0},
			[4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
	}

	uv := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	var verts []kmd.Vertex
	var indices []uint32
	for _, face := range faces {
		base := uint32(len(verts))
		for c := 0; c < 4; c++ {
			verts = append(verts, kmd.Vertex{
				Position: face.corners[c],
				Normal:   face.normal,
				TexCoord: uv[c],
				Tangent:  [4]float32{face.tangent[0], face.tangent[1], face.tangent[2], 1},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return verts, indices
}

// plane returns a unit quad in the XZ plane facing up.
func plane() ([]kmd.Vertex, []uint32) {
	corners := [4][3]float32{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}
	uv := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	verts := make([]kmd.Vertex, 4)
	for c := 0; c < 4; c++ {
		verts[c] = kmd.Vertex{
			Position: corners[c],
			Normal:   [3]float32{0, 1, 0},
			TexCoord: uv[c],
			Tangent:  [4]float32{1, 0, 0, 1},
		}
	}
	return verts, []uint32{0, 1, 2, 0, 2, 3}
}
