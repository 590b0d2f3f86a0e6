package jpeg

import "fmt"

// componentTableOrder is the fixed per-MCU component ordering for the
// YCbCr scans produced by slide scanners: one DC/AC table pair for
// luma, a second pair shared by both chroma components.
var componentTableOrder = [3]byte{0, 1, 1}

// acTableClass is the high nibble of an AC table's header byte.
const acTableClass byte = 0x10

// ScanPosition is the destuffed byte and bit offset of one MCU start
// inside a fragment's entropy-coded data.
type ScanPosition struct {
	Byte int
	Bit  int
}

// Scan walks a fragment's entropy-coded data MCU by MCU, recording the
// bit-stream cursor at the start of each MCU. The resulting position
// table locates exact lossless-crop boundaries when a frame must be
// split away from restart markers. Coefficient values are skipped, not
// reconstructed.
type Scan struct {
	mcuCount  int
	positions []ScanPosition
	tables    map[byte]*HuffmanTable
}

// NewScan decodes the scan data of one fragment using the Huffman
// tables of its shared header. The MCU count follows from the frame
// dimensions: width*height/64.
func NewScan(header *Header, data []byte) (*Scan, error) {
	scan := &Scan{
		mcuCount: header.Height * header.Width / (MCUSize * MCUSize),
		tables:   header.HuffmanTables,
	}

	stream := NewStream(data)
	scan.positions = make([]ScanPosition, 0, scan.mcuCount)
	for mcu := 0; mcu < scan.mcuCount; mcu++ {
		byteOffset, bitOffset := stream.Pos()
		scan.positions = append(scan.positions, ScanPosition{Byte: byteOffset, Bit: bitOffset})
		for _, index := range componentTableOrder {
			if err := scan.readComponent(stream, index); err != nil {
				return nil, fmt.Errorf("mcu %d: %w", mcu, err)
			}
		}
	}
	return scan, nil
}

// MCUCount returns the number of MCUs in the fragment.
func (s *Scan) MCUCount() int {
	return s.mcuCount
}

// Positions returns the recorded MCU start positions in scan order.
func (s *Scan) Positions() []ScanPosition {
	return s.positions
}

// readComponent advances the stream over one component of one MCU: a
// DC symbol whose value is the bit length of the following amplitude,
// then AC symbols until end-of-block or 64 coefficients.
func (s *Scan) readComponent(stream *Stream, index byte) error {
	dcTable, ok := s.tables[index]
	if !ok {
		return fmt.Errorf("%w: missing dc huffman table %#02x", ErrFormat, index)
	}
	acTable, ok := s.tables[acTableClass|index]
	if !ok {
		return fmt.Errorf("%w: missing ac huffman table %#02x", ErrFormat, acTableClass|index)
	}

	dcLength, err := dcTable.Decode(stream)
	if err != nil {
		return err
	}
	if _, err := stream.ReadBits(int(dcLength)); err != nil {
		return err
	}

	for coefficient := 1; coefficient < 64; {
		code, err := acTable.Decode(stream)
		if err != nil {
			return err
		}
		if code == 0 {
			// End of block.
			break
		}
		// High nibble is a zero-run count, low nibble the bit length
		// of the amplitude to skip.
		coefficient += int(code >> 4)
		if _, err := stream.ReadBits(int(code & 0x0F)); err != nil {
			return err
		}
		coefficient++
	}
	return nil
}
