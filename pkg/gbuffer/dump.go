package gbuffer

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lumenray/tracer/pkg/vertex"
)

// dumpNames are the nine debug images written by DebugSaveGbufferImage in
// original_source/hydra_drv/CPUExp_GBuffer.cpp, in order.
var dumpNames = []string{
	"01_depth.png",
	"02_normal.png",
	"03_texcoord.png",
	"04_matid.png",
	"05_objid.png",
	"06_instid.png",
	"07_coverage.png",
	"08_color.png",
	"09_alpha.png",
}

// colorTable is a 16-entry false-color palette for rendering integer id
// channels (matId, objId, instId), mirroring g_colorTable[16].
var colorTable = [16]color.RGBA{
	{230, 25, 75, 255}, {60, 180, 75, 255}, {255, 225, 25, 255}, {0, 130, 200, 255},
	{245, 130, 48, 255}, {145, 30, 180, 255}, {70, 240, 240, 255}, {240, 50, 230, 255},
	{210, 245, 60, 255}, {250, 190, 212, 255}, {0, 128, 128, 255}, {220, 190, 255, 255},
	{170, 110, 40, 255}, {255, 250, 200, 255}, {128, 0, 0, 255}, {170, 255, 195, 255},
}

func idColor(id int32) color.Color {
	if id < 0 {
		return color.Black
	}
	return colorTable[int(id)%16]
}

// DebugSaveGbufferImage writes the nine debug PNGs into dir, one per
// channel of the G-buffer.
func DebugSaveGbufferImage(dir string, width, height int, pixels []vertex.GBufferPixel) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "gbuffer: create debug dir")
	}

	images := make([]*image.RGBA, len(dumpNames))
	for i := range images {
		images[i] = image.NewRGBA(image.Rect(0, 0, width, height))
	}

	maxDepth := 0.0
	for _, p := range pixels {
		if !math.IsInf(p.Depth, 1) && p.Depth > maxDepth {
			maxDepth = p.Depth
		}
	}
	if maxDepth == 0 {
		maxDepth = 1
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := pixels[y*width+x]

			depthN := uint8(0)
			if !math.IsInf(p.Depth, 1) {
				depthN = uint8(255 * math.Min(1, p.Depth/maxDepth))
			}
			images[0].Set(x, y, color.Gray{Y: depthN})

			images[1].Set(x, y, color.RGBA{
				R: uint8(255 * (p.Normal.X*0.5 + 0.5)),
				G: uint8(255 * (p.Normal.Y*0.5 + 0.5)),
				B: uint8(255 * (p.Normal.Z*0.5 + 0.5)),
				A: 255,
			})

			images[2].Set(x, y, color.RGBA{
				R: uint8(255 * clamp01(p.TexCoord.X)),
				G: uint8(255 * clamp01(p.TexCoord.Y)),
				B: 0, A: 255,
			})

			images[3].Set(x, y, idColor(p.MatID))
			images[4].Set(x, y, idColor(p.ObjID))
			images[5].Set(x, y, idColor(p.InstID))

			images[6].Set(x, y, color.Gray{Y: uint8(255 * clamp01(p.Coverage))})

			images[7].Set(x, y, color.RGBA{
				R: uint8(255 * clamp01(p.Color.X)),
				G: uint8(255 * clamp01(p.Color.Y)),
				B: uint8(255 * clamp01(p.Color.Z)),
				A: 255,
			})

			images[8].Set(x, y, color.Gray{Y: uint8(255 * clamp01(p.Alpha))})
		}
	}

	for i, name := range dumpNames {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return errors.Wrapf(err, "gbuffer: create %s", name)
		}
		err = png.Encode(f, images[i])
		closeErr := f.Close()
		if err != nil {
			return errors.Wrapf(err, "gbuffer: encode %s", name)
		}
		if closeErr != nil {
			return errors.Wrapf(closeErr, "gbuffer: close %s", name)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
