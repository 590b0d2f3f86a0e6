// Package jpeg implements the minimal JPEG byte-stream model needed to
// retile striped whole-slide images: marker segment parsing, frame-size
// patching, canonical Huffman table construction and a byte-destuffed
// bit stream that tracks its cursor precisely enough to locate MCU
// boundaries. It never decodes pixels.
package jpeg

// Marker values as they appear in the byte stream, big endian.
const (
	StartOfImage       uint16 = 0xFFD8
	ApplicationDefault uint16 = 0xFFE0
	QuantizationTable  uint16 = 0xFFDB
	StartOfFrame       uint16 = 0xFFC0
	HuffmanTableMarker uint16 = 0xFFC4
	StartOfScan        uint16 = 0xFFDA
	EndOfImage         uint16 = 0xFFD9
	RestartInterval    uint16 = 0xFFDD
	Comment            uint16 = 0xFFFE
)

const (
	tagByte      byte = 0xFF
	byteStuffing byte = 0x00
	restartBase  byte = 0xD0
)

// MCUSize is the pixel width and height of a baseline JPEG minimum
// coded unit.
const MCUSize = 8

// StartOfFrameTag returns the two start-of-frame marker bytes, used to
// locate the frame-size field in a header by byte search.
func StartOfFrameTag() []byte {
	return []byte{tagByte, 0xC0}
}

// EndOfImageTag returns the two end-of-image marker bytes.
func EndOfImageTag() []byte {
	return []byte{tagByte, 0xD9}
}

// RestartMark returns the restart marker byte for an index, without the
// 0xFF prefix. Restart markers number cyclically 0-7.
func RestartMark(index int) byte {
	return restartBase + byte(index%8)
}
