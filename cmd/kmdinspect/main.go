package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"kmd-toolkit/internal/kmd"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: kmdinspect <file.kmd> [...]")
		os.Exit(2)
	}

	exit := 0
	for _, arg := range os.Args[1:] {
		f, err := kmd.Import(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import error %s: %v\n", arg, err)
			exit = 1
			continue
		}

		fmt.Printf("\n=== %s ===\n", arg)
		printHeader(f.Header)
		printTables(f.Tables)
		printBlocks(f.Blocks)
	}
	os.Exit(exit)
}

func printHeader(h kmd.ModelHeader) {
	fmt.Printf("header: version=%d scale-selector=%d (×%g) models=%d tables=%dB blocks=%dB\n",
		h.Version, h.ScaleFactor, h.ScaleMultiplier(), h.ModelCount, h.TablesSize, h.BlocksSize)
}

func printTables(tables []kmd.ModelTable) {
	for i, t := range tables {
		fmt.Printf("  table[%d]: %-19q offset=%d size=%d\n", i, t.Name, t.BlockOffset, t.BlockSize)
	}
}

func printBlocks(blocks []kmd.ModelBlock) {
	for i := range blocks {
		b := &blocks[i]
		fmt.Printf("  block[%d]: node=%q mesh=%q source=%q\n", i, b.NodeName, b.MeshName, b.SourcePath)
		fmt.Printf("    data=[%s] render=%s\n", flagNames(b.DataTypeFlags), renderName(b.RenderType))
		fmt.Printf("    pos=(%g, %g, %g) rot=(%g, %g, %g, %g) scale=(%g, %g, %g)\n",
			b.Position[0], b.Position[1], b.Position[2],
			b.Rotation[0], b.Rotation[1], b.Rotation[2], b.Rotation[3],
			b.Scale[0], b.Scale[1], b.Scale[2])

		min, max := bbox(b.Vertices)
		fmt.Printf("    v=%d i=%d (tris=%d) min=(%.1f, %.1f, %.1f) max=(%.1f, %.1f, %.1f)\n",
			len(b.Vertices), len(b.Indices), len(b.Indices)/3,
			min[0], min[1], min[2], max[0], max[1], max[2])
	}
}

func bbox(verts []kmd.Vertex) (min, max [3]float32) {
	if len(verts) == 0 {
		return
	}
	for k := 0; k < 3; k++ {
		min[k] = float32(math.Inf(1))
		max[k] = float32(math.Inf(-1))
	}
	for i := range verts {
		for k := 0; k < 3; k++ {
			v := verts[i].Position[k]
			if v < min[k] {
				min[k] = v
			}
			if v > max[k] {
				max[k] = v
			}
		}
	}
	return
}

func flagNames(flags uint8) string {
	names := []struct {
		bit  uint8
		name string
	}{
		{kmd.FlagMaterial, "material"},
		{kmd.FlagTexture, "texture"},
		{kmd.FlagCamera, "camera"},
		{kmd.FlagLight, "light"},
		{kmd.FlagAnimation, "animation"},
	}
	var set []string
	for _, n := range names {
		if flags&n.bit != 0 {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ",")
}

func renderName(rt uint8) string {
	switch rt {
	case kmd.RenderTransparent:
		return "transparent"
	case kmd.RenderMasked:
		return "masked"
	default:
		return "opaque"
	}
}
