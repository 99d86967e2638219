package tile

import (
	"reflect"
	"testing"
)

func TestZigZagRowsEvenHeight(t *testing.T) {
	got := ZigZagRows(6)
	want := []int{0, 2, 4, 5, 3, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZigZagRows(6) = %v, want %v", got, want)
	}
}

func TestZigZagRowsOddHeight(t *testing.T) {
	got := ZigZagRows(5)
	want := []int{0, 2, 4, 3, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZigZagRows(5) = %v, want %v", got, want)
	}
}

func TestZigZagCellsAlternatesColumnDirectionPerRow(t *testing.T) {
	got := ZigZagCells(3, 4)
	if len(got) != 3*4 {
		t.Fatalf("got %d cells, want %d", len(got), 3*4)
	}
	// Row 0 (first visited) sweeps forward.
	for i, want := range []Pos{{0, 0}, {1, 0}, {2, 0}} {
		if got[i] != want {
			t.Errorf("cell %d = %v, want %v", i, got[i], want)
		}
	}
	// Row 2 (second visited, dx flipped) sweeps backward.
	for i, want := range []Pos{{2, 2}, {1, 2}, {0, 2}} {
		if got[3+i] != want {
			t.Errorf("cell %d = %v, want %v", 3+i, got[3+i], want)
		}
	}
}

func TestRowMajorCellsAlwaysLeftToRight(t *testing.T) {
	got := RowMajorCells(2, 3)
	want := []Pos{
		{0, 0}, {1, 0},
		{0, 2}, {1, 2},
		{0, 1}, {1, 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RowMajorCells(2,3) = %v, want %v", got, want)
	}
}

func TestAddr(t *testing.T) {
	if got, want := Addr(5, 3), 3*128+5; got != want {
		t.Errorf("Addr(5,3) = %d, want %d", got, want)
	}
}

func TestPackBytesMostSignificantPixelFirst(t *testing.T) {
	// bpp=4: two pixels per byte, first pixel in the high nibble.
	data, mask := PackBytes([]int{0xa, 0x0, 0x3, 0x3}, 4)
	if want := []byte{0xa0, 0x33}; !reflect.DeepEqual(data, want) {
		t.Errorf("data = %v, want %v", data, want)
	}
	if want := []byte{0xf0, 0xff}; !reflect.DeepEqual(mask, want) {
		t.Errorf("mask = %v, want %v", mask, want)
	}
}

func TestPackBytesDropsTrailingPartialGroup(t *testing.T) {
	data, mask := PackBytes([]int{1, 2, 3}, 4)
	if len(data) != 1 || len(mask) != 1 {
		t.Fatalf("expected the trailing odd pixel dropped, got data=%v mask=%v", data, mask)
	}
}
