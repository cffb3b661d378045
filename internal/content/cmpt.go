package content

import (
	"bytes"
	"encoding/binary"
)

// ComposeCMPT concatenates already-encoded B3DM/I3DM payloads into a
// Composite container, the I3DM-inside-CMPT packaging §4.4 calls for when
// classical (non-3d-tiles-next) output is requested for GT model tiles.
func ComposeCMPT(tiles [][]byte) []byte {
	var out bytes.Buffer
	total := uint32(16)
	for _, t := range tiles {
		total += uint32(len(t))
	}
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x746D7063)) // "cmpt"
	_ = binary.Write(&out, binary.LittleEndian, uint32(1))
	_ = binary.Write(&out, binary.LittleEndian, total)
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(tiles)))
	for _, t := range tiles {
		out.Write(t)
	}
	return out.Bytes()
}
