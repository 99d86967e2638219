// Package gen implements the routine-generation strategies: drawing a tile
// into display memory, saving/restoring the memory a tile would overwrite,
// and clearing a tile's footprint. Save/restore, clear and clear-rect each
// have two candidate strategies, scored and picked by pkg/inst's nominal
// timing model; drawing has one.
package gen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/simonowen/tile2sam-go/pkg/cache"
	"github.com/simonowen/tile2sam-go/pkg/delta"
	"github.com/simonowen/tile2sam-go/pkg/inst"
	"github.com/simonowen/tile2sam-go/pkg/tile"
)

// Preamble returns the coordinate-conversion instructions that turn a pixel
// position (y in h, x in l) into a display byte address, left unscored because they
// never take part in a strategy's timing comparison — they are spliced
// onto the winning code only after selection. low places the screen at
// address 0 instead of 0x8000, dropping the need for the carry-setting scf.
func Preamble(low bool) []inst.Instruction {
	if low {
		return []inst.Instruction{
			inst.Raw(inst.KindUntimed, "srl", "h"),
			inst.Raw(inst.KindUntimed, "rr", "l"),
		}
	}
	return []inst.Instruction{
		inst.Raw(inst.KindScf, "scf"),
		inst.Raw(inst.KindUntimed, "rr", "h"),
		inst.Raw(inst.KindUntimed, "rr", "l"),
	}
}

// Draw generates code that pokes a tile's pixel bytes directly into display
// memory, masking out the background first when masked is true. It runs
// the two-pass fixpoint: pass one has no spare register pair to work with,
// so every carry-crossing address delta pays for an inline literal; pass
// two plans a literal cache over everything pass one needed, asks it
// whether a pair came out wholly unclaimed, and rebuilds the code with that
// pair (if any) available to the delta synthesizer.
func Draw(grid tile.Grid, masked bool) []inst.Instruction {
	sparePair := ""
	var stream *cache.ValueStream
	var imageAddrs []int
	maskAddrs := map[int]bool{}

	for pass := 0; pass < 2; pass++ {
		imageAddrs = nil
		maskAddrs = map[int]bool{}
		var values []byte
		lastAddr := 0

		for _, pos := range tile.ZigZagCells(grid.Width, grid.Height) {
			idx := pos.Y*grid.Width + pos.X
			if grid.MaskData[idx] == 0 {
				continue
			}
			addr := tile.Addr(pos.X, pos.Y)
			_, vals := delta.Reg16Change(uint16(lastAddr), uint16(addr), "hl", sparePair, nil)
			values = append(values, vals...)

			if masked && grid.MaskData[idx] != 0xff {
				values = append(values, ^grid.MaskData[idx])
				maskAddrs[addr] = true
			}
			values = append(values, grid.ImageData[idx])
			imageAddrs = append(imageAddrs, addr)
			lastAddr = addr
		}

		stream = cache.New(values, cache.Registers)
		sparePair = stream.SparePair()
	}

	var code []inst.Instruction
	lastAddr := 0
	for _, addr := range imageAddrs {
		c, _ := delta.Reg16Change(uint16(lastAddr), uint16(addr), "hl", sparePair, stream)
		code = append(code, c...)

		val := stream.Next(&code)

		if maskAddrs[addr] {
			code = append(code,
				inst.Raw(inst.KindLdRHL, "ld", "a", "(hl)"),
				inst.Raw(delta.AluKind(val), "and", val),
			)
			val = stream.Next(&code)
			code = append(code,
				inst.Raw(delta.AluKind(val), "or", val),
				inst.Raw(inst.KindLdHLR, "ld", "(hl)", "a"),
			)
		} else {
			code = append(code, inst.Raw(ldHLKind(val), "ld", "(hl)", val))
		}

		lastAddr = addr
	}
	code = append(code, inst.Ret())
	return code
}

// ldHLKind mirrors delta.AluKind for "ld (hl),val": a cached register
// letter is the 1-byte register-operand form, a formatted literal is the
// 2-byte immediate form.
func ldHLKind(val string) inst.Kind {
	if len(val) == 1 {
		return inst.KindLdHLR
	}
	return inst.KindLdHLN
}

// SaveRestoreLDI generates save/restore code built around LDI's
// autoincrement: one pass over the tile's opaque bytes left-to-right, top
// rows down then bottom rows up, with HL (save) or DE (restore) walked
// forward a byte at a time.
func SaveRestoreLDI(grid tile.Grid) (save, restore []inst.Instruction) {
	var addrs []int
	for _, pos := range tile.RowMajorCells(grid.Width, grid.Height) {
		idx := pos.Y*grid.Width + pos.X
		if grid.MaskData[idx] != 0 {
			addrs = append(addrs, tile.Addr(pos.X, pos.Y))
		}
	}

	restore = append(restore, inst.Raw(inst.KindExDEHL, "ex", "de", "hl"))

	lastAddr := 0
	for _, addr := range addrs {
		saveMove, _ := delta.Reg16Change(uint16(lastAddr), uint16(addr), "hl", "bc", nil)
		save = append(save, saveMove...)
		save = append(save, inst.Raw(inst.KindLdiLdd, "ldi"))

		restoreMove, _ := delta.Reg16Change(uint16(lastAddr), uint16(addr), "de", "", nil)
		restore = append(restore, restoreMove...)
		restore = append(restore, inst.Raw(inst.KindLdiLdd, "ldi"))

		lastAddr = addr + 1
	}

	save = append(save, inst.Ret())
	restore = append(restore, inst.Ret())
	return save, restore
}

// spRestoreFixup is the first instruction of every stack-juggling routine:
// it patches the stack-pointer literal at the routine's own "ret via
// ld sp,nn" trampoline so the caller's stack frame is restored regardless
// of how far this routine moved SP.
func spRestoreFixup() inst.Instruction {
	return inst.Raw(inst.KindLdAddrRR, "ld", "(@+sp_restore+1)", "sp")
}

func spRestoreTrampoline() []inst.Instruction {
	return []inst.Instruction{
		inst.LocalLabel("sp_restore"),
		inst.Raw(inst.KindLdRRNN, "ld", "sp", "0"),
		inst.Ret(),
	}
}

// SaveRestoreMemStack generates save/restore code that walks SP across the
// tile's footprint: each byte is read (save) or written (restore) through
// (hl) and bytes travel two at a time through push/pop of de; an odd final
// byte is pushed together with whatever d still holds.
func SaveRestoreMemStack(grid tile.Grid) (save, restore []inst.Instruction) {
	var maskAddrs []int
	stackSpace := 0
	dx := 1
	for _, y := range tile.ZigZagRows(grid.Height) {
		if dx > 0 {
			for x := 0; x < grid.Width; x++ {
				if grid.MaskData[y*grid.Width+x] != 0 {
					maskAddrs = append(maskAddrs, tile.Addr(x, y))
					stackSpace++
				}
			}
		} else {
			for x := grid.Width - 1; x >= 0; x-- {
				if grid.MaskData[y*grid.Width+x] != 0 {
					maskAddrs = append(maskAddrs, tile.Addr(x, y))
					stackSpace++
				}
			}
		}
		dx = -dx
	}

	reserve := (stackSpace + 1) &^ 1
	save = append(save,
		spRestoreFixup(),
		inst.Raw(inst.KindExDEHL, "ex", "de", "hl"),
		inst.Raw(inst.KindLdRRNN, "ld", "bc", decimal(reserve)),
		inst.Raw(inst.KindAddHLRR, "add", "hl", "bc"),
		inst.Raw(inst.KindLdSPHL, "ld", "sp", "hl"),
		inst.Raw(inst.KindExDEHL, "ex", "de", "hl"),
	)

	lastAddr := 0
	firstByte := true
	for _, addr := range maskAddrs {
		c, _ := delta.Reg16Change(uint16(lastAddr), uint16(addr), "hl", "bc", nil)
		save = append(save, c...)
		if firstByte {
			save = append(save, inst.Raw(inst.KindLdRHL, "ld", "e", "(hl)"))
		} else {
			save = append(save,
				inst.Raw(inst.KindLdRHL, "ld", "d", "(hl)"),
				inst.Raw(inst.KindPushRR, "push", "de"),
			)
		}
		lastAddr = addr
		firstByte = !firstByte
	}
	if !firstByte {
		save = append(save, inst.Raw(inst.KindPushRR, "push", "de"))
	}
	save = append(save, spRestoreTrampoline()...)

	restore = append(restore,
		spRestoreFixup(),
		inst.Raw(inst.KindExDEHL, "ex", "de", "hl"),
		inst.Raw(inst.KindLdSPHL, "ld", "sp", "hl"),
		inst.Raw(inst.KindExDEHL, "ex", "de", "hl"),
	)

	lastAddr = 0
	firstByte = stackSpace%2 == 0
	if !firstByte {
		restore = append(restore, inst.Raw(inst.KindPopRR, "pop", "de"))
	}
	for i := len(maskAddrs) - 1; i >= 0; i-- {
		addr := maskAddrs[i]
		c, _ := delta.Reg16Change(uint16(lastAddr), uint16(addr), "hl", "bc", nil)
		restore = append(restore, c...)
		if firstByte {
			restore = append(restore,
				inst.Raw(inst.KindPopRR, "pop", "de"),
				inst.Raw(inst.KindLdHLR, "ld", "(hl)", "d"),
			)
		} else {
			restore = append(restore, inst.Raw(inst.KindLdHLR, "ld", "(hl)", "e"))
		}
		lastAddr = addr
		firstByte = !firstByte
	}
	restore = append(restore, spRestoreTrampoline()...)

	return save, restore
}

// ClearPush zeroes a tile's footprint, one display row at a time, filling
// pairs of bytes with push and the odd byte at the right-hand end of the
// row (if any) with a plain memory write.
func ClearPush(grid tile.Grid) []inst.Instruction {
	type lineEnd struct {
		addr    int
		fillLen int
	}
	var lineEnds []lineEnd

	for _, y := range tile.ZigZagRows(grid.Height) {
		row := grid.MaskData[y*grid.Width : (y+1)*grid.Width]
		start := -1
		end := -1
		for x, m := range row {
			if m != 0 {
				if start == -1 {
					start = x
				}
				end = x + 1
			}
		}
		if start == -1 {
			continue
		}
		lineEnds = append(lineEnds, lineEnd{tile.Addr(end, y), end - start})
	}

	code := []inst.Instruction{
		spRestoreFixup(),
		inst.Raw(inst.KindLdRRNN, "ld", "de", "0"),
	}
	lastAddr := 0
	for _, le := range lineEnds {
		odd := le.fillLen & 1
		target := le.addr - odd
		c, _ := delta.Reg16Change(uint16(lastAddr), uint16(target), "hl", "bc", nil)
		code = append(code, c...)
		lastAddr = target

		if odd != 0 {
			code = append(code, inst.Raw(inst.KindLdHLR, "ld", "(hl)", "e"))
		}
		if le.fillLen > 1 {
			code = append(code, inst.Raw(inst.KindLdSPHL, "ld", "sp", "hl"))
			for i := 0; i < le.fillLen/2; i++ {
				code = append(code, inst.Raw(inst.KindPushRR, "push", "de"))
			}
		}
	}
	code = append(code, spRestoreTrampoline()...)
	return code
}

// ClearRectPush zeroes a full widthBytes x height rectangle unconditionally
// (no per-tile mask), the same way ClearPush zeroes one row at a time.
func ClearRectPush(widthBytes, height int) []inst.Instruction {
	var lineEnds []int
	for _, y := range tile.ZigZagRows(height) {
		lineEnds = append(lineEnds, tile.Addr(widthBytes, y))
	}

	code := []inst.Instruction{
		spRestoreFixup(),
		inst.Raw(inst.KindLdRRNN, "ld", "de", "0"),
	}
	lastAddr := 0
	odd := widthBytes & 1
	for _, endAddr := range lineEnds {
		target := endAddr - odd
		c, _ := delta.Reg16Change(uint16(lastAddr), uint16(target), "hl", "bc", nil)
		code = append(code, c...)
		lastAddr = target

		if odd != 0 {
			code = append(code, inst.Raw(inst.KindLdHLR, "ld", "(hl)", "e"))
		}
		if widthBytes > 1 {
			code = append(code, inst.Raw(inst.KindLdSPHL, "ld", "sp", "hl"))
			for i := 0; i < widthBytes/2; i++ {
				code = append(code, inst.Raw(inst.KindPushRR, "push", "de"))
			}
		}
	}
	code = append(code, spRestoreTrampoline()...)
	return code
}

// Fastest returns whichever option has the lowest combined nominal timing,
// each option being one or more code sequences scored together (a
// save/restore pair scores as the sum of both halves, so the selector
// can't pick a cheap save that makes the matching restore expensive).
func Fastest(options ...[][]inst.Instruction) [][]inst.Instruction {
	best := options[0]
	bestT := sumTiming(best)
	for _, opt := range options[1:] {
		if t := sumTiming(opt); t < bestT {
			best, bestT = opt, t
		}
	}
	return best
}

func sumTiming(seqs [][]inst.Instruction) int {
	total := 0
	for _, s := range seqs {
		total += inst.Timing(s)
	}
	return total
}

var labelLineRe = regexp.MustCompile(`(?m)^[ \t]+(@?\w+:)`)

// FormatCode renders one labelled routine body as indented assembly text,
// de-indenting any label lines the routine itself contains (local labels
// like "@sp_restore:" fall out of the code slice at the same indent as
// everything else and need unwinding back to column 0).
func FormatCode(label string, code []inst.Instruction) string {
	const indent = "        "
	var b strings.Builder
	if label != "" {
		b.WriteString(label)
		b.WriteString(":\n")
	}
	lines := make([]string, len(code))
	for i, in := range code {
		lines[i] = in.Text()
	}
	b.WriteString(indent)
	b.WriteString(strings.Join(lines, "\n"+indent))
	b.WriteString("\n\n")
	return labelLineRe.ReplaceAllString(b.String(), "$1")
}

func decimal(n int) string { return strconv.Itoa(n) }
