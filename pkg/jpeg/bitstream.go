package jpeg

import (
	"bytes"
	"fmt"
)

// Stream reads single bits from an entropy-coded JPEG byte sequence,
// most significant bit first, transparently undoing byte stuffing: a
// raw 0xFF must be followed by 0x00, which is discarded. Any other
// byte after 0xFF is a marker, which inside entropy data is an error.
//
// The cursor reported by Pos counts destuffed data bits only, so it
// maps directly onto MCU boundary positions in the decoded stream.
type Stream struct {
	r        *bytes.Reader
	current  byte
	bitPos   int
	bitsRead int
}

// NewStream wraps entropy-coded scan bytes.
func NewStream(data []byte) *Stream {
	return &Stream{r: bytes.NewReader(data)}
}

// Pos returns the current byte and bit offset of the cursor.
func (s *Stream) Pos() (byteOffset, bitOffset int) {
	return s.bitsRead / 8, s.bitsRead % 8
}

// readByte fetches the next data byte, consuming the stuffing byte
// after a raw 0xFF.
func (s *Stream) readByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: entropy stream truncated", ErrFormat)
	}
	if b == tagByte {
		next, err := s.r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: entropy stream truncated after 0xFF", ErrFormat)
		}
		if next != byteStuffing {
			byteOffset, bitOffset := s.Pos()
			return 0, fmt.Errorf(
				"%w: marker %#04x where entropy data expected at byte %d bit %d",
				ErrFormat, uint16(tagByte)<<8|uint16(next), byteOffset, bitOffset,
			)
		}
	}
	return b, nil
}

// ReadBit returns the next bit of the destuffed stream.
func (s *Stream) ReadBit() (int, error) {
	if s.bitPos == 0 {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		s.current = b
	}
	bit := int(s.current>>(7-s.bitPos)) & 1
	s.bitPos = (s.bitPos + 1) % 8
	s.bitsRead++
	return bit, nil
}

// ReadBits returns the next count bits as an unsigned value, most
// significant bit first.
func (s *Stream) ReadBits(count int) (int, error) {
	value := 0
	for i := 0; i < count; i++ {
		bit, err := s.ReadBit()
		if err != nil {
			return 0, err
		}
		value = value<<1 | bit
	}
	return value, nil
}
