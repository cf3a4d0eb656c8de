package atlas

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
)

// Packed texel layout of Record.Image. A zero texel is unused.
const (
	ImageChartIndexMask   uint32 = 0x1FFFFFFF
	ImageHasChartIndexBit uint32 = 0x80000000
	ImageIsBilinearBit    uint32 = 0x40000000
	ImageIsPaddingBit     uint32 = 0x20000000
)

// Marker colors.
var (
	PaddingColor  = [3]uint8{0, 0, 255}
	BilinearColor = [3]uint8{0, 255, 0}
)

// ChartColor returns the visualization color of chart c. The generator is
// seeded with c on every call, so a chart always gets the same color.
func ChartColor(c uint32) [3]uint8 {
	rng := rand.New(rand.NewPCG(uint64(c), 0))

	var rgb [3]uint8
	for i := range rgb {
		sample := float64(rng.IntN(255)) // 0..254
		rgb[i] = uint8(math.Round((sample + 192) * 0.5))
	}
	return rgb
}

// DecodeTexel maps a packed texel to its visualization color.
func DecodeTexel(data uint32) [3]uint8 {
	switch {
	case data == 0:
		return [3]uint8{}
	case data&ImageIsPaddingBit != 0:
		return PaddingColor
	case data&ImageIsBilinearBit != 0:
		return BilinearColor
	default:
		return ChartColor(data & ImageChartIndexMask)
	}
}

// ChartImage is a row-major RGB visualization of one atlas layer.
type ChartImage struct {
	Width  int
	Height int
	Pix    []uint8 // Height*Width*3
}

// ColorModel implements image.Image.
func (m *ChartImage) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (m *ChartImage) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// At implements image.Image.
func (m *ChartImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return color.RGBA{}
	}
	o := (y*m.Width + x) * 3
	return color.RGBA{m.Pix[o], m.Pix[o+1], m.Pix[o+2], 255}
}

// RGB returns the color of texel (x, y).
func (m *ChartImage) RGB(x, y int) [3]uint8 {
	o := (y*m.Width + x) * 3
	return [3]uint8{m.Pix[o], m.Pix[o+1], m.Pix[o+2]}
}

// ChartImage decodes the packed image of atlas layer i.
func (a *Atlas) ChartImage(i int) (*ChartImage, error) {
	rec, err := a.generated()
	if err != nil {
		return nil, err
	}

	if i < 0 || i >= int(rec.AtlasCount) {
		return nil, fmt.Errorf("%w: atlas index %d out of bounds for atlas with %d atlases",
			ErrIndexOutOfRange, i, rec.AtlasCount)
	}
	if rec.Image == nil || rec.Width == 0 || rec.Height == 0 {
		return nil, ErrNoImage
	}

	w, h := int(rec.Width), int(rec.Height)
	layer := w * h
	if len(rec.Image) < layer*int(rec.AtlasCount) {
		return nil, fmt.Errorf("%w: packed image has %d texels, expected %d",
			ErrInternalConsistency, len(rec.Image), layer*int(rec.AtlasCount))
	}

	return decodeLayer(rec.Image[i*layer:(i+1)*layer], w, h, rec.ChartCount), nil
}

func decodeLayer(texels []uint32, w, h int, chartCount uint32) *ChartImage {
	palette := make([][3]uint8, chartCount)
	for c := range palette {
		palette[c] = ChartColor(uint32(c))
	}

	img := &ChartImage{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
	for t, data := range texels {
		var rgb [3]uint8
		if idx := data & ImageChartIndexMask; data&(ImageIsPaddingBit|ImageIsBilinearBit) == 0 && data != 0 && idx < chartCount {
			rgb = palette[idx]
		} else {
			rgb = DecodeTexel(data)
		}
		copy(img.Pix[t*3:t*3+3], rgb[:])
	}
	return img
}
