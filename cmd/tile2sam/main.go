// Command tile2sam converts a source image into SAM Coupé tile data or
// bespoke Z80 drawing routines: decode, optional crop/scale, quantize to
// the SAM's 128-colour hardware palette, remap through a CLUT, then emit
// either packed pixel bytes or generated assembly per tile.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonowen/tile2sam-go/pkg/driver"
	"github.com/simonowen/tile2sam-go/pkg/gfxdata"
	"github.com/simonowen/tile2sam-go/pkg/imageio"
	"github.com/simonowen/tile2sam-go/pkg/quant"
	"github.com/spf13/cobra"
)

func main() {
	var (
		mode       int
		clutFlag   string
		output     string
		appendMode bool
		writePal   bool
		writeIndex bool
		tilesFlag  string
		codeFlag   string
		namesFlag  string
		low        bool
		quiet      bool
		cropFlag   string
		scaleFlag  string
		shiftFlag  int
	)

	rootCmd := &cobra.Command{
		Use:   "tile2sam IMAGE TILESIZE",
		Short: "Convert SAM graphics images to code or data files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], options{
				mode: mode, clut: clutFlag, output: output, appendMode: appendMode,
				writePal: writePal, writeIndex: writeIndex, tiles: tilesFlag,
				code: codeFlag, names: namesFlag, low: low, quiet: quiet,
				crop: cropFlag, scale: scaleFlag, shift: shiftFlag,
			})
		},
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&mode, "mode", "m", 4, "output data screen mode (1-4)")
	flags.StringVarP(&clutFlag, "clut", "c", "", "custom colour file or list")
	flags.StringVarP(&output, "output", "o", "", "custom output filename")
	flags.BoolVarP(&appendMode, "append", "a", false, "append to existing output file")
	flags.BoolVarP(&writePal, "pal", "p", false, "write clut to .pal file")
	flags.BoolVarP(&writeIndex, "index", "i", false, "write offsets index to .idx")
	flags.StringVarP(&tilesFlag, "tiles", "t", "", "tile count or list of ranges (N-M)")
	flags.StringVarP(&codeFlag, "code", "z", "", "Z80 code to generate")
	flags.StringVarP(&namesFlag, "names", "n", "", "names for sprite labels")
	flags.BoolVarP(&low, "low", "0", false, "screen at 0 instead of 0x8000")
	flags.BoolVarP(&quiet, "quiet", "q", false, "quiet mode")
	flags.StringVar(&cropFlag, "crop", "", "crop region (WxH or WxH+X+Y)")
	flags.StringVar(&scaleFlag, "scale", "", "scale factor (S or HxV)")
	flags.IntVar(&shiftFlag, "shift", 0, "pixels to shift right")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	mode                             int
	clut, output                     string
	appendMode, writePal, writeIndex bool
	tiles, code, names               string
	low, quiet                       bool
	crop, scale                      string
	shift                            int
}

var bppByMode = [4]int{1, 1, 2, 4}

func bppFromMode(mode int) (int, error) {
	if mode < 1 || mode > 4 {
		return 0, fmt.Errorf("error: invalid screen mode (%d), must be 1-4", mode)
	}
	return bppByMode[mode-1], nil
}

func run(imagePath, tileSize string, opt options) error {
	bpp, err := bppFromMode(opt.mode)
	if err != nil {
		return err
	}

	tileWidth, tileHeight, err := imageio.GetTileSize(tileSize)
	if err != nil {
		return err
	}

	img, err := imageio.Decode(imagePath)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", imagePath, err)
	}

	if !opt.quiet {
		b := img.Bounds()
		fmt.Printf("Source image %s is %dx%d\n", imagePath, b.Dx(), b.Dy())
	}

	if opt.crop != "" {
		img, err = imageio.CropImage(img, opt.crop)
		if err != nil {
			return err
		}
		if !opt.quiet {
			b := img.Bounds()
			fmt.Printf("Cropped image to %dx%d\n", b.Dx(), b.Dy())
		}
	}

	if opt.scale != "" {
		img, err = imageio.ScaleImage(img, opt.scale)
		if err != nil {
			return err
		}
		if !opt.quiet {
			b := img.Bounds()
			fmt.Printf("Scaled image to %dx%d\n", b.Dx(), b.Dy())
		}
	}

	tilesX, tilesY := imageio.GridSize(img, tileWidth, tileHeight)
	if tilesX == 0 || tilesY == 0 {
		return fmt.Errorf("error: no tiles found for size %dx%d", tileWidth, tileHeight)
	}

	tileSelect, err := imageio.GetTileSelection(opt.tiles, tilesX*tilesY)
	if err != nil {
		return err
	}

	img, err = imageio.CropImage(img, fmt.Sprintf("%dx%d", tilesX*tileWidth, tilesY*tileHeight))
	if err != nil {
		return err
	}

	if !opt.quiet {
		fmt.Printf("Contains %dx%d grid of %dx%d tiles\n", tilesX, tilesY, tileWidth, tileHeight)
	}

	samPalette := quant.Palette()
	imgPal := quant.Palettise(img, samPalette)

	used := quant.UsedIndices(imgPal)
	if len(used) > (1 << bpp) {
		return fmt.Errorf("error: too many colours (%d) for screen mode %d", len(used), opt.mode)
	}

	var clut []int
	if opt.clut == "" {
		clut = used
	} else {
		clut, err = quant.ReadPalette(opt.clut)
		if err != nil {
			return err
		}
		have := map[int]bool{}
		for _, c := range clut {
			have[c] = true
		}
		for _, c := range used {
			if !have[c] {
				clut = append(clut, c)
			}
		}
	}
	if len(clut) > (1 << bpp) {
		return fmt.Errorf("error: clut has too many entries (%d) for mode %d", len(clut), opt.mode)
	}

	imgClut := quant.Clutise(imgPal, clut)

	var names []string
	if opt.names != "" {
		for _, n := range strings.Split(opt.names, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}
	var routines []string
	if opt.code != "" {
		for _, r := range strings.Split(opt.code, ",") {
			routines = append(routines, strings.TrimSpace(r))
		}
	}

	type tileJob struct {
		idx, x, y int
	}
	var order []tileJob
	for _, rng := range tileSelect {
		step := 1
		if rng.Start > rng.End {
			step = -1
		}
		for idx := rng.Start; ; idx += step {
			if idx >= 0 && idx < tilesX*tilesY {
				x := (idx % tilesX) * tileWidth
				y := (idx / tilesX) * tileHeight
				order = append(order, tileJob{idx, x, y})
			}
			if idx == rng.End {
				break
			}
		}
	}

	jobs := make([]driver.Job, len(order))
	for i, tj := range order {
		tj := tj
		jobs[i] = driver.Job{Work: func() ([]byte, string, error) {
			pixels := tilePixels(imgClut, tj.x, tj.y, tileWidth, tileHeight)
			if opt.code != "" {
				name := fmt.Sprintf("sprite%d", tj.idx)
				if tj.idx < len(names) {
					name = names[tj.idx]
				}
				text, err := driver.GenerateTileCode(pixels, tileWidth, tileHeight, bpp, name, opt.shift, opt.low, routines)
				return nil, text, err
			}
			data := driver.TileToData(pixels, tileWidth, tileHeight, bpp, opt.shift)
			return data, "", nil
		}}
	}

	results := driver.RunTiles(jobs, 0)

	table := gfxdata.NewTable()
	var codeText strings.Builder
	numTiles := 0
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
		if opt.code != "" {
			codeText.WriteString(r.Code)
		} else {
			table.AddTile(r.Data)
		}
		numTiles++
	}

	base := opt.output
	if base == "" {
		base = imagePath
	}
	basename := strings.TrimSuffix(base, filepath.Ext(base))

	gfxData := table.GfxData()
	if len(gfxData) > 0 {
		path := opt.output
		if path == "" {
			path = basename + ".bin"
		}
		if err := table.WriteBin(path, opt.appendMode); err != nil {
			return err
		}
		if !opt.quiet {
			fmt.Printf("%d tile(s) of size %dx%d for mode %d = %d bytes\n",
				numTiles, tileWidth, tileHeight, opt.mode, len(gfxData))
		}
	}

	if codeText.Len() > 0 {
		path := opt.output
		if path == "" {
			path = basename + ".asm"
		}
		if err := gfxdata.WriteCode(path, codeText.String(), opt.appendMode); err != nil {
			return err
		}
	}

	if opt.writePal {
		if err := gfxdata.WritePalette(basename+".pal", clut); err != nil {
			return err
		}
	}

	if opt.writeIndex && len(table.IndexData()) > 0 {
		if err := table.WriteIndex(basename + ".idx"); err != nil {
			return err
		}
	}

	if !opt.quiet {
		fmt.Printf("%d colours: %v\n", len(clut), clut)
	}

	return nil
}

// tilePixels reads one tile's CLUT indices out of a palettised image in
// row-major order.
func tilePixels(img *image.Paletted, x0, y0, w, h int) []int {
	out := make([]int, w*h)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = int(img.ColorIndexAt(b.Min.X+x0+x, b.Min.Y+y0+y))
		}
	}
	return out
}
