// Package tile holds the pixel-to-byte packing and the shared
// boustrophedon (zig-zag) traversal orders the routine generators sweep a
// tile in. Keeping the traversal in one place means every generator that
// needs "even rows down, odd rows up" gets it identically, rather than
// re-deriving the loop.
package tile

// Addr computes a SAM Coupé display byte address from a byte-column and
// pixel row: address = y*128+x. The result never has the top bit set; that
// bit selects the screen page (0x0000 or 0x8000) and is set at run time by
// the generated coordinate preamble (see pkg/gen.Preamble).
func Addr(x, y int) int { return y*128 + x }

// Grid bundles one tile's packed display data with the dimensions every
// generator needs alongside it.
type Grid struct {
	ImageData []byte
	MaskData  []byte
	Width     int // in bytes
	Height    int // in pixel rows
}

// Pos is one byte-cell coordinate within a tile.
type Pos struct{ X, Y int }

// ZigZagRows returns pixel rows in the order the generators sweep them:
// even rows ascending, then odd rows descending. Consecutive visited rows
// are two rows (256 bytes) apart, except at the turn between the two
// passes where they are one row (128 bytes) apart, and the sweep ends on
// row 1, next to where it started.
func ZigZagRows(height int) []int {
	var rows []int
	for y := 0; y < height; y += 2 {
		rows = append(rows, y)
	}
	for y := oddStart(height); y >= 1; y -= 2 {
		rows = append(rows, y)
	}
	return rows
}

func oddStart(height int) int {
	last := height - 1
	if last%2 == 0 {
		last--
	}
	return last
}

// ZigZagCells returns (x,y) byte-cell coordinates in zig-zag order: rows in
// ZigZagRows order, with the column sweep direction flipping after every
// row (continuously, not reset between the even and odd passes).
func ZigZagCells(widthBytes, height int) []Pos {
	var out []Pos
	dx := 1
	for _, y := range ZigZagRows(height) {
		if dx > 0 {
			for x := 0; x < widthBytes; x++ {
				out = append(out, Pos{x, y})
			}
		} else {
			for x := widthBytes - 1; x >= 0; x-- {
				out = append(out, Pos{x, y})
			}
		}
		dx = -dx
	}
	return out
}

// RowMajorCells returns (x,y) byte-cell coordinates in ZigZagRows row order,
// but always left-to-right within a row. Used where the generator only
// needs consecutive source bytes (LDI autoincrements), not a short address
// delta between them.
func RowMajorCells(widthBytes, height int) []Pos {
	var out []Pos
	for _, y := range ZigZagRows(height) {
		for x := 0; x < widthBytes; x++ {
			out = append(out, Pos{x, y})
		}
	}
	return out
}

// PackBytes packs pixel CLUT indices into display bytes and the matching
// transparency mask, bpp bits per pixel. Indices are packed most-significant
// pixel first: the leftmost pixel of each group lands in the high bits of
// the output byte. A trailing partial group (len(pixels) not a multiple of
// the pixels-per-byte count) is dropped, matching the packing pass that
// always feeds it whole, byte-padded rows.
func PackBytes(pixels []int, bpp int) (data, mask []byte) {
	perByte := 8 / bpp
	n := len(pixels) / perByte
	data = make([]byte, n)
	mask = make([]byte, n)
	maskValue := byte((1 << bpp) - 1)

	for g := 0; g < n; g++ {
		group := pixels[g*perByte : g*perByte+perByte]
		var d, m byte
		for i := 0; i < perByte; i++ {
			v := group[perByte-1-i]
			d |= byte(v) << uint(bpp*i)
			if v != 0 {
				m |= maskValue << uint(bpp*i)
			}
		}
		data[g] = d
		mask[g] = m
	}
	return data, mask
}
