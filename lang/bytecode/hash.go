package bytecode

import "github.com/mna/vitte/lang/diag"

// Hash computes the chunk hash used for cache invalidation and linker
// manifests: (crc32(bytes) << 32) | (len(bytes) & 0xFFFFFFFF), over the
// compact CHNK encoding of c.
func Hash(c *Chunk) uint64 {
	b := EncodeChunk(c)
	return HashBytes(b)
}

// HashBytes computes the chunk hash directly over an already-encoded buffer.
func HashBytes(b []byte) uint64 {
	crc := uint64(CRC32IEEE(b))
	return (crc << 32) | uint64(uint32(len(b)))
}

// Decode accepts either on-disk form, dispatching on the first four bytes:
// "CHNK" selects the compact decoder, "VITB" selects the sectioned decoder.
func Decode(b []byte) (*Chunk, error) {
	if len(b) >= 4 && string(b[:4]) == "CHNK" {
		return DecodeChunk(b)
	}
	if len(b) >= 4 && string(b[:4]) == "VITB" {
		return DecodeVITBC(b)
	}
	return nil, &diag.FormatError{Reason: "bad magic"}
}
