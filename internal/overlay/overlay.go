package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// ParseHexColor parses "#rrggbb" (the leading # is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("overlay: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("overlay: invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// LayerColor returns the uniform overlay color: hex at the given opacity.
// The alpha is truncated to 8 bits, so 0.4 becomes 102.
func LayerColor(hex string, opacity float64) (color.NRGBA, error) {
	if opacity < 0 || opacity > 1 {
		return color.NRGBA{}, fmt.Errorf("overlay: opacity %v out of range [0,1]", opacity)
	}
	c, err := ParseHexColor(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(255 * opacity)}, nil
}

// Composite returns src with a uniform layer of c blended over every pixel
// using the Porter-Duff over operator. src is not modified.
func Composite(src image.Image, c color.NRGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	draw.Draw(dst, b, image.NewUniform(c), image.Point{}, draw.Over)
	return dst
}

// Flatten drops the alpha channel, keeping each pixel's straight color.
// The result is fully opaque.
func Flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff})
		}
	}
	return dst
}
