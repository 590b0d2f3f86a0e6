package jpeg

// Synthetic baseline JPEG fixtures shared by the package tests. The
// Huffman tables hold two one-bit codes each: DC symbols 0x00 (zero
// amplitude bits) and 0x02 (two amplitude bits), AC symbols 0x00
// (end of block) and 0x01 (run 0, one amplitude bit).

func segment(marker uint16, payload []byte) []byte {
	length := len(payload) + 2
	seg := []byte{byte(marker >> 8), byte(marker), byte(length >> 8), byte(length)}
	return append(seg, payload...)
}

func huffmanTableEntry(header byte, symbols ...byte) []byte {
	entry := []byte{header}
	counts := make([]byte, 16)
	counts[0] = byte(len(symbols))
	entry = append(entry, counts...)
	return append(entry, symbols...)
}

func huffmanPayload() []byte {
	var payload []byte
	payload = append(payload, huffmanTableEntry(0x00, 0x00, 0x02)...)
	payload = append(payload, huffmanTableEntry(0x01, 0x00, 0x02)...)
	payload = append(payload, huffmanTableEntry(0x10, 0x00, 0x01)...)
	payload = append(payload, huffmanTableEntry(0x11, 0x00, 0x01)...)
	return payload
}

func startOfFramePayload(width, height int) []byte {
	payload := []byte{
		0x08,
		byte(height >> 8), byte(height),
		byte(width >> 8), byte(width),
		0x03,
	}
	return append(payload,
		0x01, 0x11, 0x00,
		0x02, 0x11, 0x01,
		0x03, 0x11, 0x01,
	)
}

func startOfScanPayload() []byte {
	return []byte{
		0x03,
		0x01, 0x00,
		0x02, 0x11,
		0x03, 0x11,
		0x00, 0x3F, 0x00,
	}
}

// buildTestHeader assembles a complete fragment header from SOI through
// the start-of-scan segment.
func buildTestHeader(width, height int) []byte {
	data := []byte{0xFF, 0xD8}
	data = append(data, segment(ApplicationDefault, []byte{0x00, 0x00})...)
	data = append(data, segment(StartOfFrame, startOfFramePayload(width, height))...)
	data = append(data, segment(HuffmanTableMarker, huffmanPayload())...)
	data = append(data, segment(StartOfScan, startOfScanPayload())...)
	return data
}
