package raster

import (
	"image"
	"math"

	"kmd-toolkit/internal/kmd"
	"kmd-toolkit/internal/mathutil"
	"kmd-toolkit/internal/texture"
)

// RenderModel renders decoded KMD blocks to an NRGBA preview image.
//
// Each block's transform is applied in order: per-axis scale, quaternion
// rotation, translation, then the container's global downscale multiplier
// (world = stored / multiplier). A fixed preview camera frames the
// combined bounding box of all blocks.
func RenderModel(
	blocks []kmd.ModelBlock,
	downscale float32,
	resolver texture.Resolver,
	size int,
	supersample int,
) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample

	inv := 1.0
	if downscale > 0 {
		inv = 1.0 / float64(downscale)
	}
	view := mathutil.PreviewView

	// Transform every vertex into view space and track the global bounds.
	viewVerts := make([][]mathutil.Vec3, len(blocks))
	allMin := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	allMax := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	any := false

	for i := range blocks {
		b := &blocks[i]
		rot := mathutil.QuatToMat3(mathutil.Quat{
			float64(b.Rotation[0]),
			float64(b.Rotation[1]),
			float64(b.Rotation[2]),
			float64(b.Rotation[3]),
		})

		vs := make([]mathutil.Vec3, len(b.Vertices))
		for j := range b.Vertices {
			p := b.Vertices[j].Position
			v := mathutil.Vec3{
				float64(p[0]) * float64(b.Scale[0]),
				float64(p[1]) * float64(b.Scale[1]),
				float64(p[2]) * float64(b.Scale[2]),
			}
			v = rot.MulVec3(v)
			v = v.Add(mathutil.Vec3{
				float64(b.Position[0]),
				float64(b.Position[1]),
				float64(b.Position[2]),
			})
			v = view.MulVec3(v.Scale(inv))
			vs[j] = v

			any = true
			for k := 0; k < 3; k++ {
				if v[k] < allMin[k] {
					allMin[k] = v[k]
				}
				if v[k] > allMax[k] {
					allMax[k] = v[k]
				}
			}
		}
		viewVerts[i] = vs
	}

	if !any {
		return image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	center := allMin.Add(allMax).Scale(0.5)
	span := allMax[0] - allMin[0]
	if s := allMax[1] - allMin[1]; s > span {
		span = s
	}
	if span < 0.001 {
		span = 0.001
	}

	margin := 16 * supersample
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	for i := range blocks {
		b := &blocks[i]
		if len(b.Vertices) == 0 || len(b.Indices) < 3 {
			continue
		}

		// Screen projection: Y flips so +Y is up.
		n := len(viewVerts[i])
		px := make([]float64, n)
		py := make([]float64, n)
		pz := make([]float64, n)
		for j, v := range viewVerts[i] {
			px[j] = (v[0]-center[0])*scale + half
			py[j] = half - (v[1]-center[1])*scale
			pz[j] = (v[2] - center[2]) * scale
		}

		uvs := make([][2]float32, len(b.Vertices))
		for j := range b.Vertices {
			uvs[j] = b.Vertices[j].TexCoord
		}

		var tex *image.NRGBA
		if resolver != nil && b.HasData(kmd.FlagTexture) {
			tex = resolver.Resolve(b.SourcePath)
		}

		var defR, defG, defB, defA uint8 = 160, 160, 170, 255
		if tex != nil {
			defR, defG, defB, defA = averageColor(tex)
		}

		additive := b.RenderType == kmd.RenderTransparent
		for k := 0; k+2 < len(b.Indices); k += 3 {
			// UV index equals vertex index in the KMD vertex layout.
			// Out-of-range indices are dropped by the rasterizer.
			vi := [3]int{int(b.Indices[k]), int(b.Indices[k+1]), int(b.Indices[k+2])}
			if additive {
				RasterizeTriangleAdditive(fb, px, py, pz, uvs, vi, vi, tex, defR, defG, defB, defA, &lc)
			} else {
				RasterizeTriangle(fb, px, py, pz, uvs, vi, vi, tex, defR, defG, defB, defA, &lc)
			}
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.Color)

	return img
}

func averageColor(tex *image.NRGBA) (uint8, uint8, uint8, uint8) {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 160, 160, 170, 255
	}

	var sumR, sumG, sumB float64
	total := w * h
	stride := tex.Stride
	for y := 0; y < h; y++ {
		off := y * stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(total)
	return uint8(sumR/n + 0.5), uint8(sumG/n + 0.5), uint8(sumB/n + 0.5), 255
}
