// Package quant maps true-colour images onto the SAM Coupé's fixed 128-entry
// RGB palette, then remaps those palette indices through a caller-supplied
// CLUT (colour look-up table) of at most 2^bpp entries.
package quant

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"
)

// intensities is the SAM's 3-bit-per-channel DAC ladder.
var intensities = [8]uint8{0x00, 0x24, 0x49, 0x6d, 0x92, 0xb6, 0xdb, 0xff}

// RGBFromIndex maps a SAM palette index (0-127) to its RGB colour. The
// index's bits are scattered across the three channels rather than packed
// R:G:B in order — this is the SAM's actual DAC wiring, not an arbitrary
// encoding choice.
func RGBFromIndex(i int) color.RGBA {
	red := intensities[(i&0x02)|((i&0x20)>>3)|((i&0x08)>>3)]
	green := intensities[((i&0x04)>>1)|((i&0x40)>>4)|((i&0x08)>>3)]
	blue := intensities[((i&0x01)<<1)|((i&0x10)>>2)|((i&0x08)>>3)]
	return color.RGBA{R: red, G: green, B: blue, A: 0xff}
}

// Palette builds the full 128-colour SAM palette.
func Palette() []color.RGBA {
	pal := make([]color.RGBA, 128)
	for i := range pal {
		pal[i] = RGBFromIndex(i)
	}
	return pal
}

// ColourDistanceSquared is the squared Euclidian distance between two RGB
// colours, in raw 8-bit-channel units.
func ColourDistanceSquared(a, b color.RGBA) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// ClosestPaletteIndex returns the index of the palette entry nearest c.
func ClosestPaletteIndex(c color.RGBA, palette []color.RGBA) int {
	best := 0
	bestDist := -1
	for i, p := range palette {
		d := ColourDistanceSquared(c, p)
		if bestDist < 0 || d < bestDist {
			bestDist, best = d, i
		}
	}
	return best
}

// Palettise maps every pixel of img onto the nearest colour in palette,
// returning a paletted image. Unlike Go's image/draw quantizers this never
// dithers: every source colour maps to exactly one fixed output index, the
// way a lookup-table remap must for tile data to pack predictably.
func Palettise(img image.Image, palette []color.RGBA) *image.Paletted {
	bounds := img.Bounds()
	goPalette := make(color.Palette, len(palette))
	for i, c := range palette {
		goPalette[i] = c
	}

	out := image.NewPaletted(bounds, goPalette)
	seen := map[color.RGBA]uint8{}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
			idx, ok := seen[c]
			if !ok {
				idx = uint8(ClosestPaletteIndex(c, palette))
				seen[c] = idx
			}
			out.SetColorIndex(x, y, idx)
		}
	}
	return out
}

// UsedIndices returns the sorted, de-duplicated set of palette indices
// actually present in a paletted image.
func UsedIndices(img *image.Paletted) []int {
	seen := map[uint8]bool{}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			seen[img.ColorIndexAt(x, y)] = true
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, int(idx))
	}
	sort.Ints(out)
	return out
}

// ReadPalette loads a CLUT either from a binary file of one byte per entry,
// or (if the path can't be opened) by parsing s as a comma-separated list
// of integers. Every entry is masked to 7 bits, since SAM palette indices
// only ever span 0-127.
func ReadPalette(s string) ([]int, error) {
	if f, err := os.Open(s); err == nil {
		defer f.Close()
		r := bufio.NewReader(f)
		var out []int
		for {
			b, err := r.ReadByte()
			if err != nil {
				break
			}
			out = append(out, int(b)&0x7f)
		}
		return out, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid colour list: %w", err)
		}
		out = append(out, int(v)&0x7f)
	}
	return out, nil
}

// ClutIndex returns the first position of colour within clut.
func ClutIndex(colour int, clut []int) (int, bool) {
	for i, c := range clut {
		if c == colour {
			return i, true
		}
	}
	return 0, false
}

// Clutise remaps a paletted image's SAM-palette indices through clut,
// producing the final per-pixel CLUT indices tile packing consumes.
// Pixels whose colour is absent from clut map to index 0, matching the
// source generator's point-table default.
func Clutise(img *image.Paletted, clut []int) *image.Paletted {
	remap := make(map[uint8]uint8, len(img.Palette))
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			idx := img.ColorIndexAt(x, y)
			if _, ok := remap[idx]; ok {
				continue
			}
			if ci, ok := ClutIndex(int(idx), clut); ok {
				remap[idx] = uint8(ci)
			} else {
				remap[idx] = 0
			}
		}
	}

	out := image.NewPaletted(bounds, img.Palette)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetColorIndex(x, y, remap[img.ColorIndexAt(x, y)])
		}
	}
	return out
}
