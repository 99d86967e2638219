// Package cache implements the literal-value cache ("value stream"): given
// the full ordered sequence of byte literals a routine will consume, it
// decides which literals are worth pre-loading into spare registers, where
// to splice the loads in, and serves each literal back as either a cached
// register name or an inline hex literal.
package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simonowen/tile2sam-go/pkg/inst"
)

// Registers is the fixed two-pair literal cache budget: at most four
// 8-bit registers (bc, de) are ever in use at once.
const Registers = "bcde"

// cacheEntry is a (literal, first_use, last_use) triple produced by the
// MRU planning pass.
type cacheEntry struct {
	value      byte
	first, last int
}

// ValueStream plans and serves the literal cache for one routine's byte
// sequence.
type ValueStream struct {
	values  []string
	changes map[int][]inst.Instruction
	index   int
}

// New builds a value stream over data, using the given register-letter
// budget (always "bcde" in this generator, kept as a parameter so tests
// can exercise smaller budgets).
func New(data []byte, regs string) *ValueStream {
	cacheable := getCacheable(data, len(regs))
	values, changes := getValues(data, regs, cacheable)
	return &ValueStream{values: values, changes: changes}
}

// Next returns the next literal in the sequence: a cached register name
// ("b","c","d","e") or a formatted hex literal ("&xx"). Any prelude
// instructions needed to reach that cache state are appended to *code.
func (vs *ValueStream) Next(code *[]inst.Instruction) string {
	if pre, ok := vs.changes[vs.index]; ok {
		*code = append(*code, pre...)
	}
	val := vs.values[vs.index]
	vs.index++
	return val
}

// SparePair reports which register pair ("bc", "de", or "" for neither) is
// guaranteed free across the remainder of the sequence — computed purely
// from which register letters still appear among the upcoming cached
// values, not from what has already been consumed.
func (vs *ValueStream) SparePair() string {
	used := map[byte]bool{}
	for _, v := range vs.values[vs.index:] {
		if len(v) == 1 {
			used[v[0]] = true
		}
	}
	if !used['b'] && !used['c'] {
		return "bc"
	}
	if !used['d'] && !used['e'] {
		return "de"
	}
	return ""
}

// getCacheable runs the MRU planning pass: a literal only becomes a
// caching candidate once it has occurred at least twice, and candidates
// are committed to the result as the lookahead window slides past them.
func getCacheable(data []byte, numRegs int) []cacheEntry {
	var mru []byte
	count := map[byte]int{}
	first := map[byte]int{}
	last := map[byte]int{}
	var cacheable []cacheEntry

	for i, b := range data {
		count[b]++
		if _, ok := first[b]; !ok {
			first[b] = i
		}
		last[b] = i

		mru = removeByte(mru, b)
		mru = append(mru, b)

		var candidates []byte
		for _, v := range mru {
			if count[v] >= 2 {
				candidates = append(candidates, v)
			}
		}

		if len(candidates) >= numRegs {
			b0 := candidates[0]
			idx := indexOfByte(mru, b0)
			if len(candidates) > numRegs {
				if count[b0] >= 2 {
					cacheable = append(cacheable, cacheEntry{b0, first[b0], last[b0]})
				}
				idx++
			}
			for k := 0; k < idx; k++ {
				delete(count, mru[k])
				delete(first, mru[k])
			}
			rest := make([]byte, len(mru)-idx)
			copy(rest, mru[idx:])
			mru = rest
		}
	}

	for _, v := range mru {
		if count[v] >= 2 {
			cacheable = append(cacheable, cacheEntry{v, first[v], last[v]})
		}
	}
	return cacheable
}

// getValues runs the binding pass: walk the sequence, maintaining a
// literal->register map, emitting load preludes wherever the active
// candidate set changes.
func getValues(data []byte, regs string, cacheable []cacheEntry) ([]string, map[int][]inst.Instruction) {
	values := make([]string, len(data))
	changes := map[int][]inst.Instruction{}
	cache := map[byte]string{}

	for i, b := range data {
		if _, ok := cache[b]; !ok {
			pending := activeCandidates(cacheable, i, len(regs))

			if containsByte(pending, b) {
				cache = restrictTo(cache, pending)

				var adding []byte
				for _, p := range pending {
					if _, ok := cache[p]; !ok {
						adding = append(adding, p)
					}
				}

				free := freeRegisters(regs, cache)

				var code []inst.Instruction
				for len(adding) > 0 {
					r := "bc"
					if !strings.Contains(free, "bc") {
						r = "de"
					}
					if strings.Contains(free, r) && len(adding) >= 2 {
						code = append(code, inst.Raw(inst.KindLdRRNN, "ld", r, hex16(adding[0], adding[1])))
						cache[adding[0]] = string(r[0])
						cache[adding[1]] = string(r[1])
						adding = adding[2:]
						free = strings.Replace(free, r, "", 1)
					} else {
						r = string(free[0])
						code = append(code, inst.Raw(inst.KindLdRN, "ld", r, hex8(adding[0])))
						cache[adding[0]] = r
						adding = adding[1:]
						free = strings.Replace(free, r, "", 1)
					}
				}

				if len(code) > 0 {
					changes[i] = code
				}
			}
		}

		if r, ok := cache[b]; ok {
			values[i] = r
		} else {
			values[i] = hex8(b)
		}
	}

	return values, changes
}

// activeCandidates returns up to n literals, ranked by nearness of first
// use, from the cacheable set still live at position i (last_use >= i).
func activeCandidates(cacheable []cacheEntry, i, n int) []byte {
	type scored struct {
		val byte
		key int
	}
	var scoped []scored
	for _, c := range cacheable {
		if i <= c.last {
			scoped = append(scoped, scored{c.value, c.first - i})
		}
	}
	sort.SliceStable(scoped, func(a, b int) bool { return scoped[a].key < scoped[b].key })
	if len(scoped) > n {
		scoped = scoped[:n]
	}
	out := make([]byte, len(scoped))
	for k, s := range scoped {
		out[k] = s.val
	}
	return out
}

func restrictTo(cache map[byte]string, pending []byte) map[byte]string {
	out := map[byte]string{}
	for k, v := range cache {
		if containsByte(pending, k) {
			out[k] = v
		}
	}
	return out
}

func freeRegisters(regs string, cache map[byte]string) string {
	used := map[byte]bool{}
	for _, v := range cache {
		used[v[0]] = true
	}
	var b strings.Builder
	for i := 0; i < len(regs); i++ {
		if !used[regs[i]] {
			b.WriteByte(regs[i])
		}
	}
	return b.String()
}

func containsByte(s []byte, v byte) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeByte(s []byte, v byte) []byte {
	for i, x := range s {
		if x == v {
			out := make([]byte, 0, len(s)-1)
			out = append(out, s[:i]...)
			out = append(out, s[i+1:]...)
			return out
		}
	}
	return s
}

func indexOfByte(s []byte, v byte) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func hex8(v byte) string         { return fmt.Sprintf("&%02x", v) }
func hex16(hi, lo byte) string   { return fmt.Sprintf("&%02x%02x", hi, lo) }
