// Package imageio handles everything between a source image file and a
// grid of pixel tiles ready for quantisation: decoding, optional crop and
// scale, tile-grid geometry, and tile-range selection.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// Decode opens and decodes an image file, recognising PNG, JPEG, GIF and
// BMP by content regardless of extension.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return img, nil
}

var digits = regexp.MustCompile(`\d+`)

// CropImage clips img to a "WxH" or "WxH+X+Y" geometry string.
func CropImage(img image.Image, geometry string) (image.Image, error) {
	nums := digits.FindAllString(geometry, -1)
	vals := make([]int, len(nums))
	for i, n := range nums {
		v, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("invalid crop region (should be WxH or WxH+X+Y)")
		}
		vals[i] = v
	}

	var rect image.Rectangle
	switch len(vals) {
	case 2:
		rect = image.Rect(0, 0, vals[0], vals[1])
	case 4:
		rect = image.Rect(vals[2], vals[3], vals[2]+vals[0], vals[3]+vals[1])
	default:
		return nil, fmt.Errorf("invalid crop region (should be WxH or WxH+X+Y)")
	}
	rect = rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	return subImage(img, rect), nil
}

func subImage(img image.Image, rect image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

var scaleNums = regexp.MustCompile(`[\d.]+`)

// ScaleImage resizes img by one factor (applied to both axes) or two
// ("HxV"), using nearest-neighbour sampling so palette indices survive the
// resize untouched.
func ScaleImage(img image.Image, scale string) (image.Image, error) {
	raw := scaleNums.FindAllString(scale, -1)
	if len(raw) == 0 {
		return nil, fmt.Errorf("invalid scale factors")
	}
	factors := make([]float64, 0, 2)
	for _, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scale factors")
		}
		factors = append(factors, f)
	}
	if len(factors) == 1 {
		factors = append(factors, factors[0])
	}

	b := img.Bounds()
	w := int(float64(b.Dx()) * factors[0])
	h := int(float64(b.Dy()) * factors[1])
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid scale factors")
	}

	return resize.Resize(uint(w), uint(h), img, resize.NearestNeighbor), nil
}

// GetTileSize parses a "N" or "WxH" tile dimension string.
func GetTileSize(size string) (w, h int, err error) {
	nums := digits.FindAllString(size, -1)
	vals := make([]int, len(nums))
	for i, n := range nums {
		v, convErr := strconv.Atoi(n)
		if convErr != nil {
			return 0, 0, fmt.Errorf("invalid tile dimensions")
		}
		vals[i] = v
	}
	switch len(vals) {
	case 0:
		return 0, 0, fmt.Errorf("invalid tile dimensions")
	case 1:
		return vals[0], vals[0], nil
	default:
		return vals[0], vals[1], nil
	}
}

// TileRange is an inclusive, direction-aware tile index range: Start may be
// greater than End, in which case the range is walked descending.
type TileRange struct{ Start, End int }

// GetTileSelection parses the --tiles flag: empty selects every tile,
// "N" selects the first N, and "N-M,K-L" selects an explicit set of
// (inclusive) index ranges.
func GetTileSelection(tileSelect string, maxTiles int) ([]TileRange, error) {
	if tileSelect == "" {
		return []TileRange{{0, maxTiles - 1}}, nil
	}

	if n, err := strconv.ParseInt(tileSelect, 0, 32); err == nil && n > 0 {
		end := int(n)
		if end > maxTiles {
			end = maxTiles
		}
		return []TileRange{{0, end - 1}}, nil
	}

	items := strings.Split(tileSelect, ",")
	out := make([]TileRange, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		parts := strings.SplitN(item, "-", 2)
		first, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid tile count or range")
		}
		if len(parts) == 1 {
			out = append(out, TileRange{int(first), int(first)})
			continue
		}
		second, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid tile count or range")
		}
		out = append(out, TileRange{int(first), int(second)})
	}
	return out, nil
}

// TileAt extracts the tile at grid position (col,row) for a tileW x tileH
// grid, as a sub-image of img that keeps img's coordinate space.
func TileAt(img image.Image, col, row, tileW, tileH int) image.Image {
	b := img.Bounds()
	x := b.Min.X + col*tileW
	y := b.Min.Y + row*tileH
	rect := image.Rect(x, y, x+tileW, y+tileH)
	return subImage(img, rect)
}

// GridSize returns how many whole tileW x tileH tiles fit in img.
func GridSize(img image.Image, tileW, tileH int) (cols, rows int) {
	b := img.Bounds()
	return b.Dx() / tileW, b.Dy() / tileH
}
