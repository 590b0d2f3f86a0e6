package jpeg

import "fmt"

// huffmanNode is one node of the canonical Huffman code tree. A node
// holds at most two children; each child is either a leaf carrying a
// symbol or a deeper branch. Only the tree shape matters for decoding,
// code values are never materialized.
type huffmanNode struct {
	depth    int
	children [2]*huffmanNode
	count    int
	leaf     bool
	value    byte
}

func (n *huffmanNode) full() bool {
	return n.count > 1
}

// insert places a symbol with the given code depth (code length minus
// one). Insertion is attempted in strict priority order: directly into
// this node, then into an existing child branch, then into a new child
// branch. It reports whether the symbol was placed.
func (n *huffmanNode) insert(value byte, depth int) bool {
	if depth == n.depth && !n.full() {
		n.children[n.count] = &huffmanNode{leaf: true, value: value}
		n.count++
		return true
	}
	for i := 0; i < n.count; i++ {
		if child := n.children[i]; !child.leaf && child.insert(value, depth) {
			return true
		}
	}
	if n.full() {
		return false
	}
	child := &huffmanNode{depth: n.depth + 1}
	child.insert(value, depth)
	n.children[n.count] = child
	n.count++
	return true
}

// HuffmanTable is an immutable canonical Huffman code tree mapping a
// variable-length bit prefix to an 8-bit symbol. The header byte keys
// the table inside a scan: high nibble is the class (0 DC, 1 AC), low
// nibble the table id.
type HuffmanTable struct {
	header byte
	root   *huffmanNode
}

// NewHuffmanTable builds a table from symbols listed per depth, where
// index 0 holds the one-bit codes. Symbols are inserted depth by depth,
// in order; a symbol that cannot be placed means the table is
// malformed.
func NewHuffmanTable(header byte, symbolsPerDepth [][]byte) (*HuffmanTable, error) {
	root := &huffmanNode{}
	for depth, symbols := range symbolsPerDepth {
		for _, symbol := range symbols {
			if !root.insert(symbol, depth) {
				return nil, fmt.Errorf(
					"%w: huffman table %#02x has no slot for symbol %#02x at depth %d",
					ErrFormat, header, symbol, depth,
				)
			}
		}
	}
	return &HuffmanTable{header: header, root: root}, nil
}

// Header returns the table's class/id header byte.
func (t *HuffmanTable) Header() byte {
	return t.header
}

// ParseHuffmanTable parses one table from the start of a Huffman table
// segment payload: [header_byte, 16 x symbol_counts, symbols...]. It
// returns the table and the number of bytes consumed, so concatenated
// tables in one segment can be parsed in sequence.
func ParseHuffmanTable(data []byte) (*HuffmanTable, int, error) {
	if len(data) < 17 {
		return nil, 0, fmt.Errorf("%w: huffman table payload too short", ErrFormat)
	}
	header := data[0]
	read := 17
	symbolsPerDepth := make([][]byte, 16)
	for depth := 0; depth < 16; depth++ {
		count := int(data[1+depth])
		if read+count > len(data) {
			return nil, 0, fmt.Errorf("%w: huffman table %#02x symbols truncated", ErrFormat, header)
		}
		symbolsPerDepth[depth] = data[read : read+count]
		read += count
	}
	table, err := NewHuffmanTable(header, symbolsPerDepth)
	if err != nil {
		return nil, 0, err
	}
	return table, read, nil
}

// ParseHuffmanTables parses every table in a segment payload. Multiple
// tables may be concatenated in a single segment.
func ParseHuffmanTables(payload []byte) ([]*HuffmanTable, error) {
	var tables []*HuffmanTable
	for start := 0; start < len(payload); {
		table, read, err := ParseHuffmanTable(payload[start:])
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
		start += read
	}
	return tables, nil
}

// Decode reads bits from the stream, walking the tree (0 selects the
// first child, 1 the second) until a leaf yields a symbol. A missing
// child means the stream is corrupt or decoded with the wrong table.
func (t *HuffmanTable) Decode(s *Stream) (byte, error) {
	node := t.root
	for !node.leaf {
		bit, err := s.ReadBit()
		if err != nil {
			return 0, err
		}
		next := node.children[bit]
		if next == nil {
			byteOffset, bitOffset := s.Pos()
			return 0, fmt.Errorf(
				"%w: no code path for bit %d at byte %d bit %d in table %#02x",
				ErrFormat, bit, byteOffset, bitOffset, t.header,
			)
		}
		node = next
	}
	return node.value, nil
}
