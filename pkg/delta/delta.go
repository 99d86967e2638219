// Package delta synthesizes the cheapest Z80 code to move an 8- or 16-bit
// register (pair) from one known value to another, optionally drawing
// immediates from a literal cache instead of inlining them.
package delta

import (
	"fmt"

	"github.com/simonowen/tile2sam-go/pkg/inst"
)

// ValueSource supplies the next literal byte a routine needs, either as a
// cached register name or as a formatted hex literal, appending any
// prelude instructions required to reach that state to *code. Implemented
// by pkg/cache.ValueStream; kept as a small interface here so pkg/delta
// never imports pkg/cache.
type ValueSource interface {
	Next(code *[]inst.Instruction) string
}

// Literal8 formats a byte the way an inline (uncached) delta literal is
// written: plain decimal, matching the source generator's direct f-string
// interpolation of the raw magnitude — distinct from the literal cache's
// hex rendering of the same byte once it has been planned through
// pkg/cache (see AluKind, which picks the timing for either form).
func Literal8(v byte) string { return fmt.Sprintf("%d", v) }

// reg8Delta computes the shortest signed delta in [-128,127] from a to b,
// allowing 8-bit wraparound.
func reg8Delta(a, b byte) int {
	delta := int(b) - int(a)
	if delta < 0 {
		delta += 256
	}
	if delta > 127 {
		delta -= 256
	}
	return delta
}

// Reg8Change emits code to move register reg from value a to value b.
// When vs is nil, the returned literalValues slice holds the raw byte
// magnitudes this call would need cached (used during planning, pass 1
// of the draw generator's two-pass fixpoint). When vs is non-nil, the
// literal is drawn from vs instead of inlined and literalValues is not
// meaningful to the caller (the planning pass already ran).
func Reg8Change(a, b byte, reg string, vs ValueSource) (code []inst.Instruction, literalValues []byte) {
	d := reg8Delta(a, b)
	dist := d
	if dist < 0 {
		dist = -dist
	}

	if dist <= 4 {
		mnemonic := "dec"
		if d > 0 {
			mnemonic = "inc"
		}
		for n := 0; n < dist; n++ {
			code = append(code, inst.Raw(inst.KindIncDecR, mnemonic, reg))
		}
		return code, nil
	}

	var val string
	if vs != nil {
		val = vs.Next(&code)
	} else {
		val = Literal8(byte(dist))
		literalValues = append(literalValues, byte(dist))
	}

	code = append(code, inst.Raw(inst.KindLdRR, "ld", "a", reg))
	if d > 0 {
		code = append(code, inst.Raw(AluKind(val), "add", "a", val))
	} else {
		code = append(code, inst.Raw(AluKind(val), "sub", val))
	}
	code = append(code, inst.Raw(inst.KindLdRR, "ld", reg, "a"))
	return code, literalValues
}

// AluKind picks the 1-byte register-operand timing when val names a
// single-letter cached register, or the 2-byte immediate timing when val
// is a formatted hex literal like "&12".
func AluKind(val string) inst.Kind {
	if len(val) == 1 {
		return inst.KindAluAR
	}
	return inst.KindAluAN
}

// regPair names the high/low 8-bit register letters of a 16-bit pair name
// ("hl" -> 'h','l'; "de" -> 'd','e').
func regPair(reg string) (high, low string) {
	return string(reg[0]), string(reg[1])
}

// Reg16Change emits code to move register pair reg (default "hl") from
// value a to value b. sparePair, if non-empty ("bc" or "de"), is a
// register pair the caller promises is free for scratch use; it enables
// the short add-hl,rr path when the change crosses a carry boundary.
// The carry test only inspects bit 7 of the low byte: when that bit
// differs between a and b the change is treated as crossing a carry
// boundary; otherwise the low and high bytes are adjusted independently.
func Reg16Change(a, b uint16, reg string, sparePair string, vs ValueSource) (code []inst.Instruction, literalValues []byte) {
	if reg == "" {
		reg = "hl"
	}
	high, low := regPair(reg)

	carry := (a^b)&0x80 != 0

	if !carry {
		al, ah := byte(a), byte(a>>8)
		bl, bh := byte(b), byte(b>>8)

		lowCode, lowVals := Reg8Change(al, bl, low, vs)
		highCode, highVals := Reg8Change(ah, bh, high, vs)
		code = append(code, lowCode...)
		code = append(code, highCode...)
		literalValues = append(literalValues, lowVals...)
		literalValues = append(literalValues, highVals...)
		return code, literalValues
	}

	if a == b {
		return nil, nil
	}

	delta := int(b) - int(a)

	if sparePair != "" {
		code = append(code,
			inst.Raw(inst.KindLdRRNN, "ld", sparePair, fmt.Sprintf("%d", delta)),
			inst.Raw(inst.KindAddHLRR, "add", "hl", sparePair),
		)
		return code, nil
	}

	dist := delta
	if dist < 0 {
		dist = -dist
	}

	var val string
	if vs != nil {
		val = vs.Next(&code)
	} else {
		val = Literal8(byte(dist & 0xff))
		literalValues = append(literalValues, byte(dist&0xff))
	}

	code = append(code, inst.Raw(inst.KindLdRR, "ld", "a", low))
	if delta > 0 {
		code = append(code, inst.Raw(AluKind(val), "add", "a", val))
	} else {
		code = append(code, inst.Raw(AluKind(val), "sub", val))
	}
	code = append(code, inst.Raw(inst.KindLdRR, "ld", low, "a"))

	if delta > 0 && delta < 256 {
		code = append(code,
			inst.Raw(inst.KindAluAR, "adc", "a", high),
			inst.Raw(inst.KindAluAR, "sub", low),
			inst.Raw(inst.KindLdRR, "ld", high, "a"),
		)
		return code, literalValues
	}

	var val2 string
	if vs != nil {
		val2 = vs.Next(&code)
	} else {
		val2 = Literal8(byte(dist >> 8))
		literalValues = append(literalValues, byte(dist>>8))
	}

	code = append(code, inst.Raw(inst.KindLdRR, "ld", "a", high))
	if delta > 0 {
		code = append(code, inst.Raw(AluKind(val2), "adc", "a", val2))
	} else {
		code = append(code, inst.Raw(AluKind(val2), "sbc", "a", val2))
	}
	code = append(code, inst.Raw(inst.KindLdRR, "ld", high, "a"))
	return code, literalValues
}
