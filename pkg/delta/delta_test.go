package delta

import (
	"testing"

	"github.com/simonowen/tile2sam-go/pkg/inst"
)

func textOf(seq []inst.Instruction) []string {
	out := make([]string, len(seq))
	for i, in := range seq {
		out[i] = in.Text()
	}
	return out
}

func TestReg8ChangeSmallDelta(t *testing.T) {
	code, vals := Reg8Change(0x10, 0x13, "h", nil)
	want := []string{"inc h", "inc h", "inc h"}
	got := textOf(code)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instr %d = %q, want %q", i, got[i], want[i])
		}
	}
	if vals != nil {
		t.Errorf("expected no cacheable literal for a 3-step inc, got %v", vals)
	}
}

// a=0x00 to b=0x80: reg8Delta treats the exact 128 boundary as -128 (the
// original's delta-256 rule fires at delta>127), so this takes the sub
// path, not add.
func TestReg8ChangeLargeDeltaInline(t *testing.T) {
	code, vals := Reg8Change(0x00, 0x80, "h", nil)
	want := []string{"ld a,h", "sub 128", "ld h,a"}
	got := textOf(code)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instr %d = %q, want %q", i, got[i], want[i])
		}
	}
	if len(vals) != 1 || vals[0] != 128 {
		t.Errorf("literalValues = %v, want [128]", vals)
	}
}

// Two adjacent bytes in one row: addr 0 to addr 1 leaves bit 7 of the low
// byte unchanged, so it is an 8-bit, no-carry change: inc l.
func TestReg16ChangeNoCarrySmallStep(t *testing.T) {
	code, _ := Reg16Change(0, 1, "hl", "", nil)
	want := []string{"inc l"}
	got := textOf(code)
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReg16ChangeCarryWithSparePair(t *testing.T) {
	code, vals := Reg16Change(0x0000, 0x0080, "hl", "bc", nil)
	want := []string{"ld bc,128", "add hl,bc"}
	got := textOf(code)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instr %d = %q, want %q", i, got[i], want[i])
		}
	}
	if vals != nil {
		t.Errorf("spare-pair path should not report cacheable literals, got %v", vals)
	}
}

func TestReg16ChangeSameValueIsNoop(t *testing.T) {
	code, vals := Reg16Change(0x80, 0x80, "hl", "", nil)
	if len(code) != 0 || vals != nil {
		t.Errorf("expected no-op for a==b, got code=%v vals=%v", code, vals)
	}
}

func TestAluKindPicksRegisterOperandForCachedLiteral(t *testing.T) {
	if k := AluKind("b"); k != inst.KindAluAR {
		t.Errorf("AluKind(\"b\") = %v, want KindAluAR", k)
	}
	if k := AluKind("&12"); k != inst.KindAluAN {
		t.Errorf("AluKind(\"&12\") = %v, want KindAluAN", k)
	}
}
