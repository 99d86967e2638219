package inst

import "testing"

// TestCatalogCompleteness verifies every Kind has a catalog entry.
func TestCatalogCompleteness(t *testing.T) {
	if len(Catalog) != int(KindUntimed)+1 {
		t.Fatalf("Catalog has %d entries, want %d", len(Catalog), int(KindUntimed)+1)
	}
}

func TestTimingAndByteLen(t *testing.T) {
	seq := []Instruction{
		Raw(KindLdHLN, "ld", "(hl)", "&12"),
		Raw(KindIncDecR, "inc", "h"),
		Raw(KindLdHLN, "ld", "(hl)", "&34"),
		Ret(),
	}
	if got, want := Timing(seq), 12+4+12+12; got != want {
		t.Errorf("Timing = %d, want %d", got, want)
	}
	if got, want := ByteLen(seq), 2+1+2+1; got != want {
		t.Errorf("ByteLen = %d, want %d", got, want)
	}
}

func TestDisassemble(t *testing.T) {
	i := Raw(KindAluAN, "and", "&0f")
	if got, want := Disassemble(i), "and &0f"; got != want {
		t.Errorf("Disassemble = %q, want %q", got, want)
	}
}

func TestLabelText(t *testing.T) {
	if got, want := Label("masked_sprite0").Text(), "masked_sprite0:"; got != want {
		t.Errorf("Label.Text = %q, want %q", got, want)
	}
	if got, want := LocalLabel("sp_restore").Text(), "@sp_restore:"; got != want {
		t.Errorf("LocalLabel.Text = %q, want %q", got, want)
	}
}

func TestTimingPanicsOnUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range Kind")
		}
	}()
	bad := Instruction{Kind: Kind(255), Mnemonic: "bogus"}
	Timing([]Instruction{bad})
}
