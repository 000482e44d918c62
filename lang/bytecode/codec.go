package bytecode

import "github.com/mna/vitte/lang/diag"

var chnkMagic = [4]byte{'C', 'H', 'N', 'K'}

// EncodeChunk serializes c to the compact CHNK form described by the chunk
// binary codec: magic, version, flags, constants, ops, line table, optional
// debug payload, and a trailing CRC-32/IEEE over everything before it.
func EncodeChunk(c *Chunk) []byte {
	w := NewByteWriter()
	w.WriteBytes(chnkMagic[:])
	w.WriteU16LE(c.Version)

	if c.Stripped {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	w.WriteByte(0) // reserved

	consts := c.Consts.All()
	w.WriteU32LE(uint32(len(consts)))
	for _, cv := range consts {
		writeConst(w, cv)
	}

	w.WriteU32LE(uint32(len(c.Ops)))
	for _, op := range c.Ops {
		writeOp(w, op)
	}

	lines := c.Lines.All()
	w.WriteU32LE(uint32(len(lines)))
	for _, l := range lines {
		w.WriteU32LE(l)
	}

	writeDebug(w, c.Debug, c.Stripped)

	crc := CRC32IEEE(w.Bytes())
	w.WriteU32LE(crc)
	return w.Bytes()
}

func writeConst(w *ByteWriter, cv ConstValue) {
	w.WriteByte(byte(cv.Tag))
	switch cv.Tag {
	case ConstNull:
	case ConstStr:
		w.WriteStr(cv.Str)
	case ConstI64:
		w.WriteI64LE(cv.Int)
	case ConstF64:
		w.WriteU64LE(cv.FloatBits)
	case ConstBool:
		if cv.Bool {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case ConstBytes:
		w.WriteU32LE(uint32(len(cv.Str)))
		w.WriteBytes([]byte(cv.Str))
	}
}

func writeOp(w *ByteWriter, op Op) {
	w.WriteByte(byte(op.Tag))
	switch {
	case op.Tag == OpLoadConst || op.Tag == OpCall:
		w.WriteU32LE(op.Arg)
	case op.IsRelativeJump():
		w.WriteU32LE(uint32(op.SArg))
	}
}

func writeDebug(w *ByteWriter, d DebugInfo, stripped bool) {
	if stripped {
		w.WriteByte(0)
		w.WriteU32LE(0)
		w.WriteU32LE(0)
		return
	}
	if d.HasMainFile {
		w.WriteByte(1)
		w.WriteStr(d.MainFile)
	} else {
		w.WriteByte(0)
	}
	w.WriteU32LE(uint32(len(d.Files)))
	for _, f := range d.Files {
		w.WriteStr(f)
	}
	w.WriteU32LE(uint32(len(d.Symbols)))
	for _, s := range d.Symbols {
		w.WriteStr(s.Name)
		w.WriteU32LE(s.PC)
	}
}

// DecodeChunk parses the compact CHNK form. It never panics on malformed
// input; every structural problem surfaces as a *diag.FormatError, and CRC
// failures surface as *diag.HashMismatchError. The CRC trailer is verified
// over the whole payload before any field is parsed, so any corruption in
// the encoded bytes reports as a hash mismatch rather than whatever
// structural error the corrupted field would otherwise produce.
func DecodeChunk(data []byte) (*Chunk, error) {
	if len(data) < len(chnkMagic)+2+2+4 {
		return nil, &diag.FormatError{Reason: "too short"}
	}

	payload, crcBytes := data[:len(data)-4], data[len(data)-4:]
	storedCRC := uint32(crcBytes[0]) | uint32(crcBytes[1])<<8 | uint32(crcBytes[2])<<16 | uint32(crcBytes[3])<<24
	computed := CRC32IEEE(payload)
	if computed != storedCRC {
		return nil, &diag.HashMismatchError{Expected: computed, Found: storedCRC}
	}

	if string(payload[:4]) != string(chnkMagic[:]) {
		return nil, &diag.FormatError{Reason: "bad magic"}
	}

	r := NewByteReader(payload)
	if _, err := r.ReadBytes(4); err != nil {
		return nil, err
	}
	version, err := r.ReadU16LE()
	if err != nil {
		return nil, err
	}
	strippedB, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if strippedB > 1 {
		return nil, &diag.FormatError{Reason: "invalid stripped flag"}
	}
	if _, err := r.ReadByte(); err != nil { // reserved
		return nil, err
	}

	c := NewChunk(version)
	c.Stripped = strippedB == 1

	constsCount, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < constsCount; i++ {
		cv, err := readConst(r)
		if err != nil {
			return nil, err
		}
		c.Consts.Add(cv)
	}

	opsCount, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	ops := make([]Op, 0, opsCount)
	for i := uint32(0); i < opsCount; i++ {
		op, err := readOp(r)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	c.Ops = ops

	linesCount, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if linesCount != opsCount {
		return nil, &diag.FormatError{Reason: "line/op length mismatch"}
	}
	for i := uint32(0); i < linesCount; i++ {
		l, err := r.ReadU32LE()
		if err != nil {
			return nil, err
		}
		c.Lines.Push(l)
	}

	debug, err := readDebug(r)
	if err != nil {
		return nil, err
	}
	c.Debug = debug

	if !r.AtEnd() {
		return nil, &diag.FormatError{Reason: "trailing bytes"}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readConst(r *ByteReader) (ConstValue, error) {
	tagB, err := r.ReadByte()
	if err != nil {
		return ConstValue{}, err
	}
	tag := ConstTag(tagB)
	switch tag {
	case ConstNull:
		return NewNullConst(), nil
	case ConstStr:
		s, err := r.ReadStr()
		if err != nil {
			return ConstValue{}, err
		}
		return NewStrConst(s), nil
	case ConstI64:
		i, err := r.ReadI64LE()
		if err != nil {
			return ConstValue{}, err
		}
		return NewI64Const(i), nil
	case ConstF64:
		bits, err := r.ReadU64LE()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Tag: ConstF64, FloatBits: bits}, nil
	case ConstBool:
		b, err := r.ReadByte()
		if err != nil {
			return ConstValue{}, err
		}
		if b > 1 {
			return ConstValue{}, &diag.FormatError{Reason: "invalid bool"}
		}
		return NewBoolConst(b == 1), nil
	case ConstBytes:
		n, err := r.ReadU32LE()
		if err != nil {
			return ConstValue{}, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return ConstValue{}, err
		}
		return NewBytesConst(b), nil
	default:
		return ConstValue{}, &diag.FormatError{Reason: "unknown const tag"}
	}
}

func readOp(r *ByteReader) (Op, error) {
	tagB, err := r.ReadByte()
	if err != nil {
		return Op{}, err
	}
	tag := OpTag(tagB)
	switch tag {
	case OpLoadConst:
		ix, err := r.ReadU32LE()
		if err != nil {
			return Op{}, err
		}
		return LoadConst(ix), nil
	case OpPrint:
		return Print(), nil
	case OpReturn:
		return Return(), nil
	case OpJump:
		off, err := r.ReadU32LE()
		if err != nil {
			return Op{}, err
		}
		return Jump(int32(off)), nil
	case OpJumpFalse:
		off, err := r.ReadU32LE()
		if err != nil {
			return Op{}, err
		}
		return JumpIfFalse(int32(off)), nil
	case OpCall:
		ix, err := r.ReadU32LE()
		if err != nil {
			return Op{}, err
		}
		return Call(ix), nil
	case OpAddI64:
		return AddI64(), nil
	case OpNop:
		return Nop(), nil
	default:
		return Op{}, &diag.FormatError{Reason: "unknown op tag"}
	}
}

func readDebug(r *ByteReader) (DebugInfo, error) {
	var d DebugInfo
	hasMain, err := r.ReadByte()
	if err != nil {
		return d, err
	}
	if hasMain > 1 {
		return d, &diag.FormatError{Reason: "invalid main_file flag"}
	}
	if hasMain == 1 {
		s, err := r.ReadStr()
		if err != nil {
			return d, err
		}
		d.HasMainFile = true
		d.MainFile = s
	}

	filesCount, err := r.ReadU32LE()
	if err != nil {
		return d, err
	}
	for i := uint32(0); i < filesCount; i++ {
		s, err := r.ReadStr()
		if err != nil {
			return d, err
		}
		d.Files = append(d.Files, s)
	}

	symCount, err := r.ReadU32LE()
	if err != nil {
		return d, err
	}
	for i := uint32(0); i < symCount; i++ {
		name, err := r.ReadStr()
		if err != nil {
			return d, err
		}
		pc, err := r.ReadU32LE()
		if err != nil {
			return d, err
		}
		d.Symbols = append(d.Symbols, Symbol{Name: name, PC: pc})
	}
	return d, nil
}
