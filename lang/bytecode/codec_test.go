package bytecode

import (
	"math"
	"testing"

	"github.com/mna/vitte/lang/diag"
	"github.com/stretchr/testify/require"
)

func TestCRC32IEEEAnchor(t *testing.T) {
	got := CRC32IEEE([]byte("hello"))
	require.Equal(t, uint32(0x3610a686), got)
	require.Equal(t, got, CRC32IEEE([]byte("hello")))
}

func buildSampleChunk() *Chunk {
	c := NewChunk(1)
	c.Consts.Add(NewStrConst("hi"))
	c.Consts.Add(NewI64Const(42))
	c.Consts.Add(NewF64Const(3.5))
	c.Consts.Add(NewBoolConst(true))
	c.Consts.Add(NewBytesConst([]byte{1, 2, 3}))

	c.Emit(LoadConst(1), 10)
	c.Emit(LoadConst(0), 10)
	c.Emit(Print(), 11)
	c.Emit(Return(), 11)

	c.Debug = DebugInfo{
		HasMainFile: true,
		MainFile:    "m.vit",
		Files:       []string{"a", "b"},
		Symbols:     []Symbol{{Name: "main", PC: 0}},
	}
	return c
}

func TestChunkRoundTrip(t *testing.T) {
	c := buildSampleChunk()
	enc := EncodeChunk(c)

	dec, err := DecodeChunk(enc)
	require.NoError(t, err)
	require.Equal(t, c.Version, dec.Version)
	require.Equal(t, c.Stripped, dec.Stripped)
	require.Equal(t, c.Consts.All(), dec.Consts.All())
	require.Equal(t, c.Ops, dec.Ops)
	require.Equal(t, c.Lines.All(), dec.Lines.All())
	require.Equal(t, c.Debug, dec.Debug)

	// offset 12 is the first const's tag byte; the CRC is verified before
	// any field is parsed, so the flip must report as a hash mismatch, not
	// as an unknown const tag.
	flipped := append([]byte(nil), enc...)
	flipped[12] ^= 0xFF
	_, err = DecodeChunk(flipped)
	require.Error(t, err)
	var hashErr *diag.HashMismatchError
	require.ErrorAs(t, err, &hashErr)
}

func TestChunkRoundTripVITBC(t *testing.T) {
	c := buildSampleChunk()
	enc := EncodeVITBC(c)
	dec, err := DecodeVITBC(enc)
	require.NoError(t, err)
	require.Equal(t, c.Consts.All(), dec.Consts.All())
	require.Equal(t, c.Ops, dec.Ops)
	require.Equal(t, c.Lines.All(), dec.Lines.All())
	require.Equal(t, c.Debug, dec.Debug)
}

func TestDecodeDispatch(t *testing.T) {
	c := buildSampleChunk()

	dec, err := Decode(EncodeChunk(c))
	require.NoError(t, err)
	require.Equal(t, c.Ops, dec.Ops)

	dec, err = Decode(EncodeVITBC(c))
	require.NoError(t, err)
	require.Equal(t, c.Ops, dec.Ops)

	_, err = Decode([]byte("nope"))
	require.Error(t, err)
}

func TestEmptyChunkRoundTrip(t *testing.T) {
	c := NewChunk(1)
	enc := EncodeChunk(c)
	dec, err := DecodeChunk(enc)
	require.NoError(t, err)
	require.Equal(t, 0, dec.Lines.Len())
	require.Equal(t, 0, len(dec.Ops))
}

func TestDecodeTruncated(t *testing.T) {
	_, err := DecodeChunk([]byte("CHN"))
	require.Error(t, err)
	var fmtErr *diag.FormatError
	require.ErrorAs(t, err, &fmtErr)

	// truncating shifts arbitrary interior bytes into the trailer position,
	// so the up-front CRC verification is what rejects the buffer.
	c := buildSampleChunk()
	enc := EncodeChunk(c)
	_, err = DecodeChunk(enc[:len(enc)-10])
	require.Error(t, err)
}

func TestDecodeBadBoolByte(t *testing.T) {
	c := NewChunk(1)
	c.Consts.Add(NewBoolConst(true))
	enc := EncodeChunk(c)

	// the bool payload byte sits right after the tag byte for this lone
	// constant; corrupt it to something other than 0/1, then refresh the
	// trailer so the bool check, not the CRC, rejects the buffer.
	boolTagIx := 4 + 2 + 1 + 1 + 4 // magic+version+stripped+reserved+constsCount
	require.Equal(t, byte(ConstBool), enc[boolTagIx])
	enc[boolTagIx+1] = 7
	crc := CRC32IEEE(enc[:len(enc)-4])
	enc[len(enc)-4] = byte(crc)
	enc[len(enc)-3] = byte(crc >> 8)
	enc[len(enc)-2] = byte(crc >> 16)
	enc[len(enc)-1] = byte(crc >> 24)

	_, err := DecodeChunk(enc)
	require.Error(t, err)
	var fmtErr *diag.FormatError
	require.ErrorAs(t, err, &fmtErr)
}

func TestLineTableRuns(t *testing.T) {
	lt := NewLineTable()
	for _, l := range []uint32{1, 1, 2, 2, 2, 3} {
		lt.Push(l)
	}
	runs := lt.Runs()
	require.Equal(t, []LineRange{
		{StartPC: 0, EndPC: 2, Line: 1},
		{StartPC: 2, EndPC: 5, Line: 2},
		{StartPC: 5, EndPC: 6, Line: 3},
	}, runs)
}

func TestConstPoolDedup(t *testing.T) {
	p := NewConstPool()
	a := p.AddDedup(NewI64Const(1))
	b := p.AddDedup(NewStrConst("x"))
	c := p.AddDedup(NewI64Const(1))
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Equal(t, 2, p.Len())
}

func TestF64BitExactEquality(t *testing.T) {
	nan1 := NewF64Const(math.Float64frombits(0x7ff8000000000001))
	nan2 := NewF64Const(math.Float64frombits(0x7ff8000000000001))
	nan3 := NewF64Const(math.Float64frombits(0x7ff8000000000002))
	require.Equal(t, nan1, nan2)
	require.NotEqual(t, nan1, nan3)

	posZero := NewF64Const(0.0)
	negZero := NewF64Const(math.Float64frombits(1 << 63))
	require.NotEqual(t, posZero, negZero)
}
