package cache

import (
	"testing"

	"github.com/simonowen/tile2sam-go/pkg/inst"
)

func texts(code []inst.Instruction) []string {
	out := make([]string, len(code))
	for i, in := range code {
		out[i] = in.Text()
	}
	return out
}

// Two literals that each repeat three times both clear the two-occurrence
// bar, so the plan pairs them into a single 16-bit load rather than two
// 8-bit loads.
func TestNewPairsTwoRepeatedLiterals(t *testing.T) {
	vs := New([]byte{0x40, 0x12, 0x40, 0x12, 0x40, 0x12}, Registers)

	var code []inst.Instruction
	var got []string
	for i := 0; i < 6; i++ {
		got = append(got, vs.Next(&code))
	}

	want := []string{"b", "c", "b", "c", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %q, want %q", i, got[i], want[i])
		}
	}

	wantCode := []string{"ld bc,&4012"}
	if gotCode := texts(code); len(gotCode) != 1 || gotCode[0] != wantCode[0] {
		t.Errorf("prelude = %v, want %v", gotCode, wantCode)
	}
}

// A literal that repeats four times alongside a literal that appears only
// once: only the repeating literal clears the two-occurrence bar, so the
// plan caches it alone in a single register and leaves the one-off literal
// inline.
func TestNewSingleRegisterForLoneRepeat(t *testing.T) {
	vs := New([]byte{0x40, 0x40, 0x40, 0x40, 0x00}, Registers)

	var code []inst.Instruction
	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, vs.Next(&code))
	}

	want := []string{"b", "b", "b", "b", "&00"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %q, want %q", i, got[i], want[i])
		}
	}

	wantCode := []string{"ld b,&40"}
	if gotCode := texts(code); len(gotCode) != 1 || gotCode[0] != wantCode[0] {
		t.Errorf("prelude = %v, want %v", gotCode, wantCode)
	}
}

func TestNewLiteralSeenOnceIsNeverCached(t *testing.T) {
	vs := New([]byte{0x01, 0x02, 0x03}, Registers)
	var code []inst.Instruction
	for i, want := range []string{"&01", "&02", "&03"} {
		if got := vs.Next(&code); got != want {
			t.Errorf("value %d = %q, want %q", i, got, want)
		}
	}
	if len(code) != 0 {
		t.Errorf("expected no prelude for all-distinct literals, got %v", code)
	}
}

func TestSparePairReportsUnusedPairAcrossRemainingLiterals(t *testing.T) {
	vs := New([]byte{0x40, 0x40}, Registers)
	if got := vs.SparePair(); got != "de" {
		t.Errorf("SparePair at start = %q, want %q (only b is claimed)", got, "de")
	}
	var code []inst.Instruction
	vs.Next(&code)
	if got := vs.SparePair(); got != "de" {
		t.Errorf("SparePair after one value = %q, want %q", got, "de")
	}
}

func TestGetCacheableRequiresTwoOccurrencesWithinBudget(t *testing.T) {
	entries := getCacheable([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 4)
	if len(entries) != 0 {
		t.Errorf("expected no cacheable entries among all-distinct bytes, got %v", entries)
	}
}
