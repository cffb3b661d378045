package availability

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// subtreeMagic is "subt" read little-endian from the u32 0x74627573 (§4.2
// step 4, §8 I5).
const subtreeMagic uint32 = 0x74627573
const subtreeVersion uint32 = 1

type availabilityDoc struct {
	Constant   *int `json:"constant,omitempty"`
	BufferView *int `json:"bufferView,omitempty"`
}

type bufferDoc struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

type bufferViewDoc struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type subtreeDoc struct {
	Buffers                  []bufferDoc     `json:"buffers,omitempty"`
	BufferViews              []bufferViewDoc `json:"bufferViews,omitempty"`
	TileAvailability         availabilityDoc `json:"tileAvailability"`
	ContentAvailability      availabilityDoc `json:"contentAvailability"`
	ChildSubtreeAvailability availabilityDoc `json:"childSubtreeAvailability"`
}

func constPtr(v int) *int { return &v }

// FlushSubtrees implements §4.2 step 4-5: for every bucket and subtree root
// recorded in the index, emit the optional content-availability sidecar
// and the binary .subtree container, then reset the per-subtree-root
// accumulators. geocellDir is the per-geocell output directory; each
// dataset/CS gets its own "<dataset>/<CS>/{availability,subtrees}"
// subtree, matching §6's output layout.
func (ix *Index) FlushSubtrees(geocellDir string) error {
	for _, bucket := range ix.Buckets() {
		datasetDir := filepath.Join(geocellDir, bucket.Dataset.DirName(), bucket.CSKey)
		for _, root := range ix.RootsForBucket(bucket) {
			if err := ix.flushOne(datasetDir, bucket, root); err != nil {
				return err
			}
		}
	}
	ix.Reset()
	return nil
}

// sentinel buffer indices, patched to real indices once the final buffer
// list is known (embedded buffer, if present, is always index 0).
const (
	bufEmbedded = -1
	bufSidecar  = -2
)

func (ix *Index) flushOne(datasetDir string, bucket DatasetCS, root RootKey) error {
	c := ix.constants
	bubbled := ix.TileAndChild(bucket, root)

	constantTile := bubbled.nodeCount == 0 || bubbled.nodeCount == c.SubtreeNodeCount
	constantChild := bubbled.childCount == 0 || bubbled.childCount == c.ChildSubtreeCount

	if err := checkPopcount(bubbled.nodeBuffer, bubbled.nodeCount); err != nil {
		return err
	}
	if err := checkPopcount(bubbled.childBuffer, bubbled.childCount); err != nil {
		return err
	}

	sidecarEmitted := !ix.TileOnlyConstant(bucket, root)

	doc := subtreeDoc{}
	binBuf := make([]byte, 0, c.NodeAvailByteLenPadded+c.ChildSubtreeAvailByteLenPadded)

	if constantTile {
		doc.TileAvailability = availabilityDoc{Constant: constPtr(boolToInt(bubbled.nodeCount == c.SubtreeNodeCount))}
	} else {
		offset := len(binBuf)
		binBuf = append(binBuf, bubbled.nodeBuffer...)
		doc.BufferViews = append(doc.BufferViews, bufferViewDoc{Buffer: bufEmbedded, ByteOffset: offset, ByteLength: c.AvailabilityByteLength})
		doc.TileAvailability = availabilityDoc{BufferView: constPtr(len(doc.BufferViews) - 1)}
	}

	if constantChild {
		doc.ChildSubtreeAvailability = availabilityDoc{Constant: constPtr(boolToInt(bubbled.childCount == c.ChildSubtreeCount))}
	} else {
		offset := len(binBuf)
		binBuf = append(binBuf, bubbled.childBuffer...)
		doc.BufferViews = append(doc.BufferViews, bufferViewDoc{Buffer: bufEmbedded, ByteOffset: offset, ByteLength: c.ChildSubtreeAvailByteLen})
		doc.ChildSubtreeAvailability = availabilityDoc{BufferView: constPtr(len(doc.BufferViews) - 1)}
	}

	subtreeKey := root.String()

	if sidecarEmitted {
		tileOnly := ix.subtree(ix.tileOnly, bucketKey{bucket.Dataset, bucket.CSKey}, root)
		availDir := filepath.Join(datasetDir, "availability")
		if err := os.MkdirAll(availDir, 0o755); err != nil {
			return cdberr.Wrap(cdberr.IOError, "create availability dir", err)
		}
		sidecarPath := filepath.Join(availDir, subtreeKey+".bin")
		if err := os.WriteFile(sidecarPath, tileOnly.nodeBuffer, 0o644); err != nil {
			return cdberr.Wrap(cdberr.IOError, "write availability sidecar", err)
		}
		doc.BufferViews = append(doc.BufferViews, bufferViewDoc{Buffer: bufSidecar, ByteOffset: 0, ByteLength: c.AvailabilityByteLength})
		doc.ContentAvailability = availabilityDoc{BufferView: constPtr(len(doc.BufferViews) - 1)}
	} else {
		count, appears := ix.TileOnlyCount(bucket, root)
		if appears {
			doc.ContentAvailability = availabilityDoc{Constant: constPtr(boolToInt(count == c.SubtreeNodeCount))}
		} else {
			doc.ContentAvailability = availabilityDoc{Constant: constPtr(0)}
		}
	}

	// Resolve sentinel buffer indices against the final buffer list. The
	// embedded buffer (if any) is always index 0.
	nextIdx := 0
	embeddedIdx, sidecarIdx := -1, -1
	if len(binBuf) > 0 {
		doc.Buffers = append(doc.Buffers, bufferDoc{ByteLength: len(binBuf)})
		embeddedIdx = nextIdx
		nextIdx++
	}
	if sidecarEmitted {
		doc.Buffers = append(doc.Buffers, bufferDoc{
			URI:        "../availability/" + subtreeKey + ".bin",
			ByteLength: c.NodeAvailByteLenPadded,
		})
		sidecarIdx = nextIdx
		nextIdx++
	}
	for i := range doc.BufferViews {
		switch doc.BufferViews[i].Buffer {
		case bufEmbedded:
			doc.BufferViews[i].Buffer = embeddedIdx
		case bufSidecar:
			doc.BufferViews[i].Buffer = sidecarIdx
		}
	}

	jsonBytes, err := jsonAPI.Marshal(doc)
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "marshal subtree json", err)
	}
	jsonBytes = padWithSpaces(jsonBytes, 8)

	if err := os.MkdirAll(filepath.Join(datasetDir, "subtrees"), 0o755); err != nil {
		return cdberr.Wrap(cdberr.IOError, "create subtrees dir", err)
	}
	path := filepath.Join(datasetDir, "subtrees", subtreeKey+".subtree")
	return writeSubtreeFile(path, jsonBytes, binBuf)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func padWithSpaces(b []byte, align int) []byte {
	rem := len(b) % align
	if rem == 0 {
		return b
	}
	pad := bytes.Repeat([]byte{' '}, align-rem)
	return append(b, pad...)
}

func checkPopcount(buf []byte, count uint64) error {
	if popcount(buf) != count {
		return cdberr.Newf(cdberr.InvalidConfiguration, "availability count %d does not match buffer popcount %d", count, popcount(buf))
	}
	return nil
}

// writeSubtreeFile assembles the binary container described by §4.2 step 4.
func writeSubtreeFile(path string, jsonBytes, binBytes []byte) error {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, subtreeMagic)
	_ = binary.Write(&buf, binary.LittleEndian, subtreeVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(jsonBytes)))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(binBytes)))
	buf.Write(jsonBytes)
	buf.Write(binBytes)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return cdberr.Wrap(cdberr.IOError, "write subtree file", err)
	}
	return nil
}
