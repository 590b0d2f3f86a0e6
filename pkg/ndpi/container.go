package ndpi

import "github.com/ap--/opentile/pkg/geometry"

// PageInfo describes one pyramid level as stored in the container: its
// pixel geometry, its fragment grid and the byte ranges of every
// independently encoded JPEG fragment. Striped pages additionally carry
// the shared JPEG header template that prefixes each reconstruction.
type PageInfo struct {
	// ImageSize is the pixel dimensions of the level.
	ImageSize geometry.Size
	// FramedSize is the fragment grid: columns by rows of fragments.
	FramedSize geometry.Size
	// Striped selects the multi-fragment variant; otherwise the level
	// is a single oversized frame.
	Striped bool
	// JPEGHeader is the shared header template for striped pages.
	JPEGHeader []byte
	// Offsets and ByteCounts locate each fragment in the file, indexed
	// row-major over the fragment grid.
	Offsets    []int64
	ByteCounts []int64
}

// FragmentRange returns the byte range of the fragment at index.
func (p *PageInfo) FragmentRange(index int) (offset int64, bytecount int, err error) {
	if index < 0 || index >= len(p.Offsets) || index >= len(p.ByteCounts) {
		return 0, 0, ErrFragmentOutOfRange
	}
	return p.Offsets[index], int(p.ByteCounts[index]), nil
}

// Container supplies per-level page geometry and fragment tables. The
// TIFF reader that produces these lives outside this module; tests and
// pre-parsed callers use MemoryContainer.
type Container interface {
	// Levels returns the number of pyramid levels.
	Levels() int
	// Level returns the page description for a level index.
	Level(index int) (*PageInfo, error)
}

// MemoryContainer is a Container over pre-parsed page descriptions.
type MemoryContainer struct {
	pages []*PageInfo
}

// NewMemoryContainer builds a container from page descriptions ordered
// by level index.
func NewMemoryContainer(pages ...*PageInfo) *MemoryContainer {
	return &MemoryContainer{pages: pages}
}

func (c *MemoryContainer) Levels() int {
	return len(c.pages)
}

func (c *MemoryContainer) Level(index int) (*PageInfo, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, ErrLevelOutOfRange
	}
	return c.pages[index], nil
}
