package bytecode

import "github.com/mna/vitte/lang/diag"

var vitbcMagic = [6]byte{'V', 'I', 'T', 'B', 'C', 0}

const vitbcVersion = 2

// EncodeVITBC serializes c to the sectioned VITBC form: magic, version,
// stripped flag, then the INTS/FLTS/STRS/DATA/CODE/NAME sections (each a
// big-endian 4-byte tag plus a u32 LE length prefix), terminated by a CRCC
// tag and a CRC-32/IEEE of everything written after the magic.
//
// DATA carries one entry per constant, in pool order: a tag byte, and for
// Bool and Bytes an inline payload; I64, F64, and Str values are appended in
// encounter order to the INTS, FLTS, and STRS arrays respectively, so a
// decoder replays DATA to learn each constant's tag and pulls its value from
// the matching flat array.
func EncodeVITBC(c *Chunk) []byte {
	body := NewByteWriter()
	body.WriteBytes(vitbcMagic[:])
	body.WriteU16LE(vitbcVersion)
	if c.Stripped {
		body.WriteByte(1)
	} else {
		body.WriteByte(0)
	}

	ints := NewByteWriter()
	flts := NewByteWriter()
	strs := NewByteWriter()
	data := NewByteWriter()

	consts := c.Consts.All()
	var intCount, fltCount, strCount uint32
	data.WriteU32LE(uint32(len(consts)))
	for _, cv := range consts {
		data.WriteByte(byte(cv.Tag))
		switch cv.Tag {
		case ConstNull:
		case ConstBool:
			if cv.Bool {
				data.WriteByte(1)
			} else {
				data.WriteByte(0)
			}
		case ConstI64:
			ints.WriteI64LE(cv.Int)
			intCount++
		case ConstF64:
			flts.WriteU64LE(cv.FloatBits)
			fltCount++
		case ConstStr:
			strs.WriteStr(cv.Str)
			strCount++
		case ConstBytes:
			data.WriteU32LE(uint32(len(cv.Str)))
			data.WriteBytes([]byte(cv.Str))
		}
	}

	intsFull := NewByteWriter()
	intsFull.WriteU32LE(intCount)
	intsFull.WriteBytes(ints.Bytes())

	fltsFull := NewByteWriter()
	fltsFull.WriteU32LE(fltCount)
	fltsFull.WriteBytes(flts.Bytes())

	strsFull := NewByteWriter()
	strsFull.WriteU32LE(strCount)
	strsFull.WriteBytes(strs.Bytes())

	code := NewByteWriter()
	code.WriteU32LE(uint32(len(c.Ops)))
	for _, op := range c.Ops {
		writeOp(code, op)
	}
	lines := c.Lines.All()
	code.WriteU32LE(uint32(len(lines)))
	for _, l := range lines {
		code.WriteU32LE(l)
	}

	name := NewByteWriter()
	writeDebug(name, c.Debug, c.Stripped)

	writeSection(body, SectionInts, intsFull.Bytes())
	writeSection(body, SectionFlts, fltsFull.Bytes())
	writeSection(body, SectionStrs, strsFull.Bytes())
	writeSection(body, SectionData, data.Bytes())
	writeSection(body, SectionCode, code.Bytes())
	writeSection(body, SectionName, name.Bytes())

	crc := CRC32IEEE(body.Bytes()[len(vitbcMagic):])
	body.WriteTag(SectionCrc)
	body.WriteU32LE(crc)
	return body.Bytes()
}

func writeSection(w *ByteWriter, tag SectionTag, payload []byte) {
	w.WriteTag(tag)
	w.WriteU32LE(uint32(len(payload)))
	w.WriteBytes(payload)
}

// DecodeVITBC parses the sectioned VITBC form produced by EncodeVITBC.
func DecodeVITBC(buf []byte) (*Chunk, error) {
	if len(buf) < len(vitbcMagic) || string(buf[:len(vitbcMagic)]) != string(vitbcMagic[:]) {
		return nil, &diag.FormatError{Reason: "bad magic"}
	}

	r := NewByteReader(buf)
	if _, err := r.ReadBytes(len(vitbcMagic)); err != nil {
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

	sections := make(map[SectionTag][]byte)
	for {
		tag, err := r.ReadTag()
		if err != nil {
			return nil, err
		}
		if tag == SectionCrc {
			storedCRC, err := r.ReadU32LE()
			if err != nil {
				return nil, err
			}
			// the CRC covers everything after the magic up to, but not
			// including, the CRCC tag and the stored CRC.
			crcEnd := r.Pos() - 8
			computed := CRC32IEEE(buf[len(vitbcMagic):crcEnd])
			if computed != storedCRC {
				return nil, &diag.HashMismatchError{Expected: computed, Found: storedCRC}
			}
			if !r.AtEnd() {
				return nil, &diag.FormatError{Reason: "trailing bytes"}
			}
			break
		}
		length, err := r.ReadU32LE()
		if err != nil {
			return nil, err
		}
		payload, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		switch tag {
		case SectionInts, SectionFlts, SectionStrs, SectionData, SectionCode, SectionName:
			sections[tag] = payload
		default:
			return nil, &diag.FormatError{Reason: "unknown section tag"}
		}
	}

	c := NewChunk(version)
	c.Stripped = strippedB == 1

	ints := NewByteReader(sections[SectionInts])
	intCount, err := ints.ReadU32LE()
	if err != nil {
		return nil, err
	}
	intVals := make([]int64, intCount)
	for i := range intVals {
		v, err := ints.ReadI64LE()
		if err != nil {
			return nil, err
		}
		intVals[i] = v
	}

	flts := NewByteReader(sections[SectionFlts])
	fltCount, err := flts.ReadU32LE()
	if err != nil {
		return nil, err
	}
	fltVals := make([]uint64, fltCount)
	for i := range fltVals {
		v, err := flts.ReadU64LE()
		if err != nil {
			return nil, err
		}
		fltVals[i] = v
	}

	strs := NewByteReader(sections[SectionStrs])
	strCount, err := strs.ReadU32LE()
	if err != nil {
		return nil, err
	}
	strVals := make([]string, strCount)
	for i := range strVals {
		s, err := strs.ReadStr()
		if err != nil {
			return nil, err
		}
		strVals[i] = s
	}

	data := NewByteReader(sections[SectionData])
	constCount, err := data.ReadU32LE()
	if err != nil {
		return nil, err
	}
	var nextInt, nextFlt, nextStr uint32
	for i := uint32(0); i < constCount; i++ {
		tagB, err := data.ReadByte()
		if err != nil {
			return nil, err
		}
		switch ConstTag(tagB) {
		case ConstNull:
			c.Consts.Add(NewNullConst())
		case ConstBool:
			b, err := data.ReadByte()
			if err != nil {
				return nil, err
			}
			if b > 1 {
				return nil, &diag.FormatError{Reason: "invalid bool"}
			}
			c.Consts.Add(NewBoolConst(b == 1))
		case ConstI64:
			if nextInt >= intCount {
				return nil, &diag.FormatError{Reason: "ints section underflow"}
			}
			c.Consts.Add(NewI64Const(intVals[nextInt]))
			nextInt++
		case ConstF64:
			if nextFlt >= fltCount {
				return nil, &diag.FormatError{Reason: "flts section underflow"}
			}
			c.Consts.Add(ConstValue{Tag: ConstF64, FloatBits: fltVals[nextFlt]})
			nextFlt++
		case ConstStr:
			if nextStr >= strCount {
				return nil, &diag.FormatError{Reason: "strs section underflow"}
			}
			c.Consts.Add(NewStrConst(strVals[nextStr]))
			nextStr++
		case ConstBytes:
			n, err := data.ReadU32LE()
			if err != nil {
				return nil, err
			}
			b, err := data.ReadBytes(int(n))
			if err != nil {
				return nil, err
			}
			c.Consts.Add(NewBytesConst(b))
		default:
			return nil, &diag.FormatError{Reason: "unknown const tag"}
		}
	}

	code := NewByteReader(sections[SectionCode])
	opsCount, err := code.ReadU32LE()
	if err != nil {
		return nil, err
	}
	ops := make([]Op, 0, opsCount)
	for i := uint32(0); i < opsCount; i++ {
		op, err := readOp(code)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	c.Ops = ops

	linesCount, err := code.ReadU32LE()
	if err != nil {
		return nil, err
	}
	if linesCount != opsCount {
		return nil, &diag.FormatError{Reason: "line/op length mismatch"}
	}
	for i := uint32(0); i < linesCount; i++ {
		l, err := code.ReadU32LE()
		if err != nil {
			return nil, err
		}
		c.Lines.Push(l)
	}

	name := NewByteReader(sections[SectionName])
	debug, err := readDebug(name)
	if err != nil {
		return nil, err
	}
	c.Debug = debug

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
