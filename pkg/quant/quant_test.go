package quant

import (
	"image/color"
	"testing"
)

func TestRGBFromIndexZeroIsBlack(t *testing.T) {
	got := RGBFromIndex(0)
	want := color.RGBA{0, 0, 0, 0xff}
	if got != want {
		t.Errorf("RGBFromIndex(0) = %v, want %v", got, want)
	}
}

func TestRGBFromIndexAllBitsIsWhite(t *testing.T) {
	got := RGBFromIndex(127)
	want := color.RGBA{0xff, 0xff, 0xff, 0xff}
	if got != want {
		t.Errorf("RGBFromIndex(127) = %v, want %v", got, want)
	}
}

// Bit 3 (the "brightness" bit in SAM's index encoding) contributes equally
// to all three channels, so index 8 alone is a neutral grey.
func TestRGBFromIndexBrightnessBitIsNeutral(t *testing.T) {
	got := RGBFromIndex(8)
	want := color.RGBA{0x24, 0x24, 0x24, 0xff}
	if got != want {
		t.Errorf("RGBFromIndex(8) = %v, want %v", got, want)
	}
}

func TestPaletteHas128Entries(t *testing.T) {
	pal := Palette()
	if len(pal) != 128 {
		t.Fatalf("len(Palette()) = %d, want 128", len(pal))
	}
	if pal[0] != RGBFromIndex(0) || pal[127] != RGBFromIndex(127) {
		t.Errorf("Palette() entries don't match RGBFromIndex")
	}
}

func TestColourDistanceSquared(t *testing.T) {
	a := color.RGBA{10, 20, 30, 0xff}
	b := color.RGBA{13, 16, 30, 0xff}
	// (10-13)^2 + (20-16)^2 + (30-30)^2 = 9+16+0 = 25
	if got := ColourDistanceSquared(a, b); got != 25 {
		t.Errorf("ColourDistanceSquared = %d, want 25", got)
	}
}

func TestClosestPaletteIndexExactMatch(t *testing.T) {
	pal := Palette()
	for _, idx := range []int{0, 8, 63, 127} {
		c := pal[idx]
		if got := ClosestPaletteIndex(c, pal); got != idx {
			t.Errorf("ClosestPaletteIndex(pal[%d]) = %d, want %d", idx, got, idx)
		}
	}
}

func TestReadPaletteFromCommaList(t *testing.T) {
	got, err := ReadPalette("0,8,0x7f,200")
	if err != nil {
		t.Fatalf("ReadPalette: %v", err)
	}
	want := []int{0, 8, 0x7f, 200 & 0x7f}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestClutIndexFindsFirstMatch(t *testing.T) {
	clut := []int{5, 10, 5, 20}
	if idx, ok := ClutIndex(5, clut); !ok || idx != 0 {
		t.Errorf("ClutIndex(5) = (%d,%v), want (0,true)", idx, ok)
	}
	if _, ok := ClutIndex(99, clut); ok {
		t.Errorf("ClutIndex(99) should not match")
	}
}
