package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ap--/opentile/pkg/geometry"
)

// TableSelection records which Huffman tables a scan component uses.
type TableSelection struct {
	ComponentID byte
	DCTable     byte
	ACTable     byte
}

// Header is the parsed shared header of a fragment: frame dimensions,
// Huffman tables keyed by their header byte (class/id nibbles) and the
// per-component table selection from the scan header. One header is
// parsed per level and reused for every fragment in it.
type Header struct {
	Width          int
	Height         int
	HuffmanTables  map[byte]*HuffmanTable
	TableSelection []TableSelection
}

// ParseHeader parses marker segments from data up to and including the
// start-of-scan header. See ParseFragment.
func ParseHeader(data []byte) (*Header, error) {
	header, _, err := ParseFragment(data)
	return header, err
}

// ParseFragment parses marker segments from data up to and including
// the start-of-scan header and returns the parsed header together with
// the remaining entropy-coded scan bytes. Markers other than
// start-of-frame, Huffman table and start-of-scan are skipped. It is an
// error if data does not begin with start-of-image, if a nested
// start-of-image or end-of-image appears, or if no Huffman table, frame
// size or scan table selection was found.
func ParseFragment(data []byte) (*Header, []byte, error) {
	header := &Header{
		HuffmanTables: make(map[byte]*HuffmanTable),
	}

	r := bytes.NewReader(data)
	marker, err := readMarker(r)
	if err != nil {
		return nil, nil, err
	}
	if marker != StartOfImage {
		return nil, nil, fmt.Errorf("%w: expected start of image, got %#04x", ErrFormat, marker)
	}

	sawScan := false
	for !sawScan {
		marker, err = readMarker(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if marker == StartOfImage || marker == EndOfImage {
			return nil, nil, fmt.Errorf("%w: unexpected marker %#04x in header", ErrFormat, marker)
		}

		payload, err := readPayload(r)
		if err != nil {
			return nil, nil, err
		}

		switch marker {
		case HuffmanTableMarker:
			tables, err := ParseHuffmanTables(payload)
			if err != nil {
				return nil, nil, err
			}
			for _, table := range tables {
				header.HuffmanTables[table.Header()] = table
			}
		case StartOfFrame:
			header.Width, header.Height, err = parseStartOfFrame(payload)
			if err != nil {
				return nil, nil, err
			}
		case StartOfScan:
			header.TableSelection, err = parseStartOfScan(payload)
			if err != nil {
				return nil, nil, err
			}
			sawScan = true
		}
	}

	if len(header.HuffmanTables) == 0 || header.Width == 0 || header.Height == 0 ||
		len(header.TableSelection) == 0 {
		return nil, nil, fmt.Errorf("%w: header missing huffman table, frame size or scan selection", ErrFormat)
	}

	scan := data[len(data)-r.Len():]
	return header, scan, nil
}

// Size returns the frame dimensions.
func (h *Header) Size() geometry.Size {
	return geometry.Size{Width: h.Width, Height: h.Height}
}

// readMarker reads one big-endian marker value.
func readMarker(r *bytes.Reader) (uint16, error) {
	var marker uint16
	if err := binary.Read(r, binary.BigEndian, &marker); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("reading marker: %w", err)
	}
	return marker, nil
}

// readPayload reads one length-prefixed segment payload. The length
// field counts itself.
func readPayload(r *bytes.Reader) ([]byte, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("%w: truncated segment length", ErrFormat)
	}
	if length < 2 {
		return nil, fmt.Errorf("%w: segment length %d too short", ErrFormat, length)
	}
	payload := make([]byte, length-2)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated segment payload", ErrFormat)
	}
	return payload, nil
}

// parseStartOfFrame extracts width and height from a start-of-frame
// payload: [precision, height:u16be, width:u16be, components, ...].
func parseStartOfFrame(payload []byte) (width, height int, err error) {
	if len(payload) < 6 {
		return 0, 0, fmt.Errorf("%w: start of frame payload too short", ErrFormat)
	}
	height = int(binary.BigEndian.Uint16(payload[1:3]))
	width = int(binary.BigEndian.Uint16(payload[3:5]))
	return width, height, nil
}

// parseStartOfScan extracts the per-component Huffman table selection:
// [component_count, (component_id, dc_nibble<<4|ac_nibble) x count].
func parseStartOfScan(payload []byte) ([]TableSelection, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: empty start of scan payload", ErrFormat)
	}
	components := int(payload[0])
	if len(payload) < 1+2*components {
		return nil, fmt.Errorf("%w: start of scan payload too short for %d components", ErrFormat, components)
	}
	selection := make([]TableSelection, 0, components)
	for i := 0; i < components; i++ {
		id := payload[1+2*i]
		selector := payload[2+2*i]
		selection = append(selection, TableSelection{
			ComponentID: id,
			DCTable:     selector >> 4,
			ACTable:     selector & 0x0F,
		})
	}
	return selection, nil
}

// FindTag returns the first index of tag in data and the payload length
// of the segment found there.
func FindTag(data, tag []byte) (index, length int, ok bool) {
	index = bytes.Index(data, tag)
	if index == -1 || index+4 > len(data) {
		return -1, 0, false
	}
	length = int(binary.BigEndian.Uint16(data[index+2 : index+4]))
	return index, length, true
}

// PatchSize returns a copy of header with the start-of-frame height and
// width fields overwritten, retargeting one on-disk header template to
// describe a stitched frame of a different size without re-encoding.
func PatchSize(header []byte, size geometry.Size) ([]byte, error) {
	index, _, ok := FindTag(header, StartOfFrameTag())
	if !ok {
		return nil, fmt.Errorf("%w: start of frame tag not found in header", ErrFormat)
	}
	if index+9 > len(header) {
		return nil, fmt.Errorf("%w: start of frame segment truncated", ErrFormat)
	}
	patched := make([]byte, len(header))
	copy(patched, header)
	binary.BigEndian.PutUint16(patched[index+5:], uint16(size.Height))
	binary.BigEndian.PutUint16(patched[index+7:], uint16(size.Width))
	return patched, nil
}
