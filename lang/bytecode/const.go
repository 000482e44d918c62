package bytecode

import (
	"fmt"
	"math"
)

// ConstTag identifies the variant held by a ConstValue.
type ConstTag uint8

const (
	ConstNull ConstTag = iota
	ConstStr
	ConstI64
	ConstF64
	ConstBool
	ConstBytes
)

// ConstValue is a tagged constant pool entry. F64 equality is bit-exact: the
// float is stored as its IEEE-754 bit pattern, so plain struct equality
// (and use as a map key) compares bit patterns, never IEEE float equality.
// Bytes payloads are held in Str because slices cannot be map keys.
type ConstValue struct {
	Tag       ConstTag
	Bool      bool
	Int       int64
	FloatBits uint64
	Str       string // also holds raw Bytes payload when Tag == ConstBytes
}

func NewNullConst() ConstValue        { return ConstValue{Tag: ConstNull} }
func NewBoolConst(b bool) ConstValue  { return ConstValue{Tag: ConstBool, Bool: b} }
func NewI64Const(i int64) ConstValue  { return ConstValue{Tag: ConstI64, Int: i} }
func NewStrConst(s string) ConstValue { return ConstValue{Tag: ConstStr, Str: s} }
func NewBytesConst(b []byte) ConstValue {
	return ConstValue{Tag: ConstBytes, Str: string(b)}
}
func NewF64Const(f float64) ConstValue {
	return ConstValue{Tag: ConstF64, FloatBits: math.Float64bits(f)}
}

// Float returns the float64 value of an F64 constant.
func (c ConstValue) Float() float64 { return math.Float64frombits(c.FloatBits) }

// Bytes returns the raw byte payload of a Bytes constant.
func (c ConstValue) Bytes() []byte { return []byte(c.Str) }

// String renders a short human-readable form, used by the disassembler's
// constant preview.
func (c ConstValue) String() string {
	switch c.Tag {
	case ConstNull:
		return "null"
	case ConstStr:
		return fmt.Sprintf("%q", c.Str)
	case ConstI64:
		return fmt.Sprintf("%d", c.Int)
	case ConstF64:
		return formatFloat(c.Float())
	case ConstBool:
		if c.Bool {
			return "true"
		}
		return "false"
	case ConstBytes:
		return fmt.Sprintf("bytes[%d]", len(c.Str))
	default:
		return "<unknown const>"
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}

// ConstPool is an append-only ordered sequence of constants with stable
// 32-bit indices, assigned at insertion time.
type ConstPool struct {
	values []ConstValue
	index  map[ConstValue]uint32
}

// NewConstPool returns an empty pool.
func NewConstPool() *ConstPool {
	return &ConstPool{index: make(map[ConstValue]uint32)}
}

// Add appends v and returns its index, which is len()-1 of the
// post-insertion pool. It never deduplicates on its own; callers (e.g. the
// linker) that want dedup maintain their own map.
func (p *ConstPool) Add(v ConstValue) uint32 {
	ix := uint32(len(p.values))
	p.values = append(p.values, v)
	return ix
}

// Get returns the constant at ix, and whether ix was in range.
func (p *ConstPool) Get(ix uint32) (ConstValue, bool) {
	if ix >= uint32(len(p.values)) {
		return ConstValue{}, false
	}
	return p.values[ix], true
}

// Len returns the number of constants in the pool.
func (p *ConstPool) Len() int { return len(p.values) }

// All returns the pool's constants in insertion order. The returned slice
// must not be mutated by the caller.
func (p *ConstPool) All() []ConstValue { return p.values }

// IndexOf returns the index of an already-present constant, for callers that
// want to deduplicate against a single pool directly (as opposed to the
// linker's cross-chunk dedup map). ok is false if v isn't in the pool.
func (p *ConstPool) IndexOf(v ConstValue) (uint32, bool) {
	if p.index == nil {
		return 0, false
	}
	ix, ok := p.index[v]
	return ix, ok
}

// AddDedup appends v only if not already present, returning its index
// either way, and records it for future IndexOf/AddDedup lookups.
func (p *ConstPool) AddDedup(v ConstValue) uint32 {
	if p.index == nil {
		p.index = make(map[ConstValue]uint32)
	}
	if ix, ok := p.index[v]; ok {
		return ix
	}
	ix := p.Add(v)
	p.index[v] = ix
	return ix
}
