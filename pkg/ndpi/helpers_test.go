package ndpi

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ap--/opentile/pkg/geometry"
	"github.com/ap--/opentile/pkg/jpeg"
	"github.com/ap--/opentile/pkg/util"
)

// buildTestHeader assembles a minimal shared fragment header (SOI
// through start-of-scan) declaring the given frame size, with one-bit
// Huffman codes for every table.
func buildTestHeader(width, height int) []byte {
	segment := func(marker uint16, payload []byte) []byte {
		length := len(payload) + 2
		seg := []byte{byte(marker >> 8), byte(marker), byte(length >> 8), byte(length)}
		return append(seg, payload...)
	}
	tableEntry := func(header byte, symbols ...byte) []byte {
		entry := []byte{header}
		counts := make([]byte, 16)
		counts[0] = byte(len(symbols))
		entry = append(entry, counts...)
		return append(entry, symbols...)
	}

	sof := []byte{
		0x08,
		byte(height >> 8), byte(height),
		byte(width >> 8), byte(width),
		0x03,
		0x01, 0x11, 0x00,
		0x02, 0x11, 0x01,
		0x03, 0x11, 0x01,
	}
	var dht []byte
	dht = append(dht, tableEntry(0x00, 0x00, 0x02)...)
	dht = append(dht, tableEntry(0x01, 0x00, 0x02)...)
	dht = append(dht, tableEntry(0x10, 0x00, 0x01)...)
	dht = append(dht, tableEntry(0x11, 0x00, 0x01)...)
	sos := []byte{0x03, 0x01, 0x00, 0x02, 0x11, 0x03, 0x11, 0x00, 0x3F, 0x00}

	data := []byte{0xFF, 0xD8}
	data = append(data, segment(jpeg.StartOfFrame, sof)...)
	data = append(data, segment(jpeg.HuffmanTableMarker, dht)...)
	data = append(data, segment(jpeg.StartOfScan, sos)...)
	return data
}

// stubCodec parses frame dimensions with the jpeg package and returns
// deterministic bytes from Crop, keyed by input hash and rectangle, so
// tile identity checks and hash comparisons work without a real codec.
type stubCodec struct {
	mu    sync.Mutex
	crops int
}

func (c *stubCodec) DecodeDimensions(data []byte) (geometry.Size, error) {
	header, err := jpeg.ParseHeader(data)
	if err != nil {
		return geometry.Size{}, err
	}
	return header.Size(), nil
}

func (c *stubCodec) Crop(data []byte, region geometry.Region) ([]byte, error) {
	c.mu.Lock()
	c.crops++
	c.mu.Unlock()
	return []byte(fmt.Sprintf("tile %s %v %v", util.Md5ThenHex(data), region.Position, region.Size)), nil
}

func (c *stubCodec) cropCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crops
}

// stripedFixture is one striped page laid out in an in-memory file.
type stripedFixture struct {
	fh      *FileHandle
	page    *PageInfo
	header  []byte
	stripes [][]byte
}

// newStripedFixture lays out grid.Area() synthetic stripes of the given
// frame size back to back. Each stripe carries distinct entropy bytes
// and ends with an end-of-image marker, as NDPI stripes do.
func newStripedFixture(t *testing.T, frameSize, grid geometry.Size) *stripedFixture {
	t.Helper()

	header := buildTestHeader(frameSize.Width, frameSize.Height)
	count := grid.Area()

	var blob bytes.Buffer
	offsets := make([]int64, 0, count)
	bytecounts := make([]int64, 0, count)
	stripes := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		stripe := []byte{byte(0x10 + i), byte(0x20 + i), byte(0x30 + i), 0x7E, 0xFF, 0xD9}
		offsets = append(offsets, int64(blob.Len()))
		bytecounts = append(bytecounts, int64(len(stripe)))
		blob.Write(stripe)
		stripes = append(stripes, stripe)
	}

	return &stripedFixture{
		fh: NewFileHandle(bytes.NewReader(blob.Bytes())),
		page: &PageInfo{
			ImageSize:  frameSize.MulSize(grid),
			FramedSize: grid,
			Striped:    true,
			JPEGHeader: header,
			Offsets:    offsets,
			ByteCounts: bytecounts,
		},
		header:  header,
		stripes: stripes,
	}
}
