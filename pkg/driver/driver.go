// Package driver assembles one tile's packed pixel data into either a
// concatenated data blob (the "poke the bytes in at runtime" path) or a
// full set of labelled Z80 routines (the "synthesize bespoke code" path),
// and fans either path out across many tiles with a worker pool — the
// generator itself stays the single-threaded, pure function the component
// design calls for; only the per-tile dispatch runs concurrently.
package driver

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/simonowen/tile2sam-go/pkg/gen"
	"github.com/simonowen/tile2sam-go/pkg/inst"
	"github.com/simonowen/tile2sam-go/pkg/tile"
)

// validRoutines is the full set of primitives tile_to_code can emit.
var validRoutines = map[string]bool{
	"unmasked": true, "masked": true,
	"save": true, "restore": true,
	"clear": true, "rect": true,
}

func negMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// TileToData packs one tile's CLUT-index pixels (row-major, tileWidth x
// tileHeight) into display bytes at bpp bits per pixel, left-padding by
// shift pixels and zero-right-padding out to a whole number of bytes per
// row — the plain data-export path used when no code generation is
// requested.
func TileToData(pixels []int, tileWidth, tileHeight, bpp, shift int) []byte {
	perByte := 8 / bpp
	padLeft := shift
	padRight := negMod(-(padLeft + tileWidth), perByte)
	spriteWidth := padLeft + tileWidth + padRight

	padded := make([]int, spriteWidth*tileHeight)
	for y := 0; y < tileHeight; y++ {
		for x := 0; x < tileWidth; x++ {
			padded[y*spriteWidth+padLeft+x] = pixels[y*tileWidth+x]
		}
	}
	data, _ := tile.PackBytes(padded, bpp)
	return data
}

// ValidRoutineNames lists the six routine names accepted by GenerateTileCode,
// in alphabetical order.
func ValidRoutineNames() []string {
	names := make([]string, 0, len(validRoutines))
	for n := range validRoutines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GenerateTileCode builds every requested routine for one 4-bpp tile and
// returns the concatenated, labelled assembly text. shift selects the
// pixel alignment: 0 for a plain entry point, 1 to additionally build the
// one-pixel-shifted alternate and a dispatch stub that picks between them
// at runtime from the carry flag the coordinate preamble leaves behind —
// the single alternate alignment the component design's non-goals allow;
// any other shift is a user-input error, the same class tile_to_code's own
// mode and routine-name checks raise.
func GenerateTileCode(pixels []int, tileWidth, tileHeight, bpp int, name string, shift int, low bool, routines []string) (string, error) {
	if bpp != 4 {
		return "", fmt.Errorf("error: code generation requires mode 4")
	}
	if shift != 0 && shift != 1 {
		return "", fmt.Errorf("error: code generation doesn't support shift %d", shift)
	}
	for _, r := range routines {
		if !validRoutines[r] {
			return "", fmt.Errorf("invalid routine(s): %s", r)
		}
	}
	want := func(name string) bool {
		for _, r := range routines {
			if r == name {
				return true
			}
		}
		return false
	}

	shifted := shift != 0
	widthBytes := (tileWidth + shift + 1) / 2
	width, height := widthBytes*2, tileHeight

	padded0 := make([]int, width*height)
	padded1 := make([]int, width*height)
	for y := 0; y < tileHeight; y++ {
		for x := 0; x < tileWidth; x++ {
			padded0[y*width+x] = pixels[y*tileWidth+x]
			if x+1 < width {
				padded1[y*width+x+1] = pixels[y*tileWidth+x]
			}
		}
	}

	image0, mask0 := tile.PackBytes(padded0, 4)
	image1, mask1 := tile.PackBytes(padded1, 4)

	maskData := mask0
	if shifted {
		maskData = make([]byte, len(mask0))
		for i := range maskData {
			maskData[i] = mask0[i] | mask1[i]
		}
	}
	noImageData := make([]byte, len(maskData))
	fullMaskData := make([]byte, len(maskData))
	for i := range fullMaskData {
		fullMaskData[i] = 0xff
	}

	grid0 := tile.Grid{ImageData: image0, MaskData: mask0, Width: widthBytes, Height: height}
	grid1 := tile.Grid{ImageData: image1, MaskData: mask1, Width: widthBytes, Height: height}
	footprintGrid := tile.Grid{ImageData: noImageData, MaskData: maskData, Width: widthBytes, Height: height}
	rectGrid := tile.Grid{ImageData: noImageData, MaskData: fullMaskData, Width: widthBytes, Height: height}

	maskedCode0 := gen.Draw(grid0, true)
	maskedCode1 := gen.Draw(grid1, true)
	unmaskedCode0 := gen.Draw(grid0, false)
	unmaskedCode1 := gen.Draw(grid1, false)

	saveLDI, restoreLDI := gen.SaveRestoreLDI(footprintGrid)
	saveMemStack, restoreMemStack := gen.SaveRestoreMemStack(footprintGrid)
	saveRestore := gen.Fastest(
		[][]inst.Instruction{saveMemStack, restoreMemStack},
		[][]inst.Instruction{saveLDI, restoreLDI},
	)
	saveCode, restoreCode := saveRestore[0], saveRestore[1]

	clearPokeCode := gen.Draw(footprintGrid, false)
	clearPushCode := gen.ClearPush(footprintGrid)
	clearCode := gen.Fastest([][]inst.Instruction{clearPokeCode}, [][]inst.Instruction{clearPushCode})[0]

	rectPokeCode := gen.Draw(rectGrid, false)
	rectPushCode := gen.ClearRectPush(widthBytes, height)
	rectCode := gen.Fastest([][]inst.Instruction{rectPokeCode}, [][]inst.Instruction{rectPushCode})[0]

	coordCode := gen.Preamble(low)

	var b strings.Builder
	b.WriteString("; generated by tile2sam-go\n\n")

	emitPair := func(base string, code0, code1 []inst.Instruction) {
		label := base + "_" + name
		if !shifted {
			b.WriteString(gen.FormatCode(label, code0))
			return
		}
		dispatch := append(append([]inst.Instruction{}, coordCode...),
			inst.Raw(inst.KindJpCond, "jp", "c", label+"1"))
		b.WriteString(gen.FormatCode(label, dispatch))
		b.WriteString(gen.FormatCode(label+"0", code0))
		b.WriteString(gen.FormatCode(label+"1", code1))
	}

	withPreamble := func(code []inst.Instruction) []inst.Instruction {
		return append(append([]inst.Instruction{}, coordCode...), code...)
	}

	if want("masked") {
		emitPair("masked", maskedCode0, maskedCode1)
	}
	if want("unmasked") {
		emitPair("unmasked", unmaskedCode0, unmaskedCode1)
	}
	if want("save") || want("restore") {
		b.WriteString(gen.FormatCode("save_"+name, withPreamble(saveCode)))
		b.WriteString(gen.FormatCode("restore_"+name, withPreamble(restoreCode)))
	}
	if want("clear") {
		b.WriteString(gen.FormatCode("clear_"+name, withPreamble(clearCode)))
	}
	if want("rect") {
		label := fmt.Sprintf("clear_rect_%dx%d", widthBytes, height)
		b.WriteString(gen.FormatCode(label, withPreamble(rectCode)))
	}

	return b.String(), nil
}

// Job is one tile's unit of work for RunTiles.
type Job struct {
	Work func() (data []byte, code string, err error)
}

// Result is one tile's outcome; RunTiles returns it at the same index as
// its Job.
type Result struct {
	Data []byte
	Code string
	Err  error
}

// RunTiles fans jobs out across numWorkers goroutines (NumCPU if <= 0) and
// returns results indexed exactly like jobs, independent of which worker
// finishes first or in what order — the generator itself is pure and
// single-threaded per call, only the fan-out is concurrent.
func RunTiles(jobs []Job, numWorkers int) []Result {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	results := make([]Result, len(jobs))
	ch := make(chan int, len(jobs))
	for i := range jobs {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				data, code, err := jobs[i].Work()
				results[i] = Result{Data: data, Code: code, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}
