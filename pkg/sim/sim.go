// Package sim is a minimal Z80 interpreter scoped to exactly the
// instruction kinds pkg/gen's strategies can emit, used by their tests to
// check round-trip and idempotence properties rather than hand-tracing
// every byte. It does not attempt general-purpose Z80 emulation: control
// flow (jp, self-modifying "ld (nn),sp" stack tricks) is out of scope, so
// only the Draw and SaveRestoreLDI routines can be run here; the
// SaveRestoreMemStack, ClearPush and ClearRectPush routines use "ld (nn),sp".
package sim

import (
	"fmt"
	"strconv"

	"github.com/simonowen/tile2sam-go/pkg/inst"
)

// State holds the registers and display memory a generated routine touches.
// Memory is a sparse map keyed by address rather than a flat array, since
// display addresses (y*128+x) range over the whole 16K screen even though a
// single tile only ever touches a handful of bytes.
type State struct {
	A, B, C, D, E, H, L uint8
	Mem                 map[uint16]byte
	stack               []uint16
	carry               bool // Z80's C flag, the only one any emitted routine reads back
}

// NewState returns a ready-to-run state seeded with the given memory (nil
// for empty) and HL pointed at addr.
func NewState(mem map[uint16]byte, addr uint16) *State {
	if mem == nil {
		mem = map[uint16]byte{}
	}
	s := &State{Mem: mem}
	s.setHL(addr)
	return s
}

func (s *State) hl() uint16 { return uint16(s.H)<<8 | uint16(s.L) }
func (s *State) de() uint16 { return uint16(s.D)<<8 | uint16(s.E) }
func (s *State) bc() uint16 { return uint16(s.B)<<8 | uint16(s.C) }

func (s *State) setHL(v uint16) { s.H, s.L = uint8(v>>8), uint8(v) }
func (s *State) setDE(v uint16) { s.D, s.E = uint8(v>>8), uint8(v) }
func (s *State) setBC(v uint16) { s.B, s.C = uint8(v>>8), uint8(v) }

func (s *State) reg8(name string) *uint8 {
	switch name {
	case "a":
		return &s.A
	case "b":
		return &s.B
	case "c":
		return &s.C
	case "d":
		return &s.D
	case "e":
		return &s.E
	case "h":
		return &s.H
	case "l":
		return &s.L
	}
	return nil
}

func literal(op string) (int, bool) {
	if len(op) > 0 && op[0] == '&' {
		v, err := strconv.ParseInt(op[1:], 16, 32)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	v, err := strconv.Atoi(op)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// Run executes code from its first instruction, stopping at the first ret.
// It panics on any instruction outside the subset it understands, since
// that can only mean a strategy started emitting a mnemonic this
// interpreter was never extended to cover.
func Run(s *State, code []inst.Instruction) {
	for _, in := range code {
		if in.IsLabel() {
			continue
		}
		if in.Kind == inst.KindRet {
			return
		}
		exec(s, in)
	}
}

func exec(s *State, in inst.Instruction) {
	switch in.Mnemonic {
	case "ret":
		return
	case "ld":
		execLd(s, in.Operands[0], in.Operands[1])
	case "add", "adc", "sbc":
		execAlu16or8(s, in.Mnemonic, in.Operands)
	case "and", "or", "xor", "sub":
		execAluA(s, in.Mnemonic, in.Operands[0])
	case "inc", "dec":
		execIncDec(s, in.Mnemonic, in.Operands[0])
	case "ldi", "ldd":
		step := int16(1)
		if in.Mnemonic == "ldd" {
			step = -1
		}
		s.Mem[s.de()] = s.Mem[s.hl()]
		s.setHL(uint16(int32(s.hl()) + int32(step)))
		s.setDE(uint16(int32(s.de()) + int32(step)))
		s.setBC(s.bc() - 1)
	case "ex":
		if in.Operands[0] == "de" && in.Operands[1] == "hl" {
			s.D, s.H = s.H, s.D
			s.E, s.L = s.L, s.E
		}
	case "push":
		s.stack = append(s.stack, pairValue(s, in.Operands[0]))
	case "pop":
		n := len(s.stack)
		setPair(s, in.Operands[0], s.stack[n-1])
		s.stack = s.stack[:n-1]
	case "scf", "srl", "rr":
		// Coordinate-preamble scaffolding; never reached by the straight-line
		// draw/save/restore/ldi bodies this package interprets.
	default:
		panic(fmt.Sprintf("sim: unhandled instruction %q", in.Text()))
	}
}

func execLd(s *State, dst, src string) {
	if dst == "(hl)" {
		s.Mem[s.hl()] = byte(srcValue(s, src))
		return
	}
	if r := s.reg8(dst); r != nil {
		*r = byte(srcValue(s, src))
		return
	}
	if dst == "sp" && src == "hl" {
		// SP isn't otherwise modelled; push/pop use an explicit Go stack.
		return
	}
	setPair(s, dst, uint16(srcValue(s, src)))
}

func srcValue(s *State, src string) int {
	if src == "(hl)" {
		return int(s.Mem[s.hl()])
	}
	if r := s.reg8(src); r != nil {
		return int(*r)
	}
	if v, ok := literal(src); ok {
		return v
	}
	return int(pairValue(s, src))
}

func pairValue(s *State, name string) uint16 {
	switch name {
	case "hl":
		return s.hl()
	case "de":
		return s.de()
	case "bc":
		return s.bc()
	}
	if v, ok := literal(name); ok {
		return uint16(v)
	}
	panic(fmt.Sprintf("sim: unknown register pair %q", name))
}

func setPair(s *State, name string, v uint16) {
	switch name {
	case "hl":
		s.setHL(v)
	case "de":
		s.setDE(v)
	case "bc":
		s.setBC(v)
	default:
		panic(fmt.Sprintf("sim: unknown register pair %q", name))
	}
}

// execAlu16or8 handles the two-operand forms: "add hl,rr" and the
// A-register forms "add a,n"/"adc a,n"/"sbc a,n". Carry is modelled
// faithfully for the 8-bit forms because pkg/delta's carry-crossing
// Reg16Change path chains an add/sub into a following adc/sbc to ripple
// the low-byte carry into the high byte.
func execAlu16or8(s *State, op string, operands []string) {
	if operands[0] == "hl" {
		s.setHL(s.hl() + pairValue(s, operands[1]))
		return
	}
	v := int(srcValue(s, operands[len(operands)-1]))
	carryIn := 0
	if s.carry {
		carryIn = 1
	}
	var result int
	switch op {
	case "add":
		result = int(s.A) + v
	case "adc":
		result = int(s.A) + v + carryIn
	case "sbc":
		result = int(s.A) - v - carryIn
	}
	s.A = byte(result)
	s.carry = result < 0 || result > 0xff
}

func execAluA(s *State, op, operand string) {
	v := byte(srcValue(s, operand))
	switch op {
	case "and":
		s.A &= v
		s.carry = false
	case "or":
		s.A |= v
		s.carry = false
	case "xor":
		s.A ^= v
		s.carry = false
	case "sub":
		result := int(s.A) - int(v)
		s.A = byte(result)
		s.carry = result < 0
	}
}

func execIncDec(s *State, op, operand string) {
	delta := int16(1)
	if op == "dec" {
		delta = -1
	}
	if r := s.reg8(operand); r != nil {
		*r = byte(int16(*r) + delta)
		return
	}
	switch operand {
	case "hl":
		s.setHL(uint16(int32(s.hl()) + int32(delta)))
	case "de":
		s.setDE(uint16(int32(s.de()) + int32(delta)))
	case "bc":
		s.setBC(uint16(int32(s.bc()) + int32(delta)))
	}
}
