package ndpi

import (
	"fmt"
	"sync/atomic"

	"github.com/ap--/opentile/pkg/geometry"
)

// Level is one pyramid level of an open slide. Implementations map a
// tile coordinate to the covering on-disk fragment(s), reconstruct and
// cache a batch of tiles, and return the requested one.
type Level interface {
	// GetTile returns the JPEG bytes for the tile at a tile-grid
	// coordinate.
	GetTile(position geometry.Point) ([]byte, error)
	// TileSize is the caller-fixed output tile size.
	TileSize() geometry.Size
	// FrameSize is the pixel size of one on-disk fragment.
	FrameSize() geometry.Size
	// FramedSize is the fragment grid: columns by rows.
	FramedSize() geometry.Size
	// TiledSize is the level size in whole tiles.
	TiledSize() geometry.Size
}

type tileMap map[geometry.Point][]byte

// levelBase carries the geometry and the tile cache shared by both
// level variants. The cache holds the tiles of exactly one
// reconstruction batch: a miss rebuilds the whole map from one
// fragment-group reconstruction and publishes it atomically, so
// concurrent readers only ever see a complete batch. Concurrent misses
// on different origins overwrite each other's batch; that thrash is the
// accepted cost of bounding memory to one batch.
type levelBase struct {
	fh         *FileHandle
	page       *PageInfo
	tileSize   geometry.Size
	frameSize  geometry.Size
	framedSize geometry.Size
	tiledSize  geometry.Size
	tiles      atomic.Pointer[tileMap]
}

func newLevelBase(page *PageInfo, fh *FileHandle, tileSize, frameSize geometry.Size) levelBase {
	levelSize := frameSize.MulSize(page.FramedSize)
	return levelBase{
		fh:         fh,
		page:       page,
		tileSize:   tileSize,
		frameSize:  frameSize,
		framedSize: page.FramedSize,
		tiledSize:  levelSize.Div(tileSize),
	}
}

func (l *levelBase) TileSize() geometry.Size   { return l.tileSize }
func (l *levelBase) FrameSize() geometry.Size  { return l.frameSize }
func (l *levelBase) FramedSize() geometry.Size { return l.framedSize }
func (l *levelBase) TiledSize() geometry.Size  { return l.tiledSize }

// tilesPerFrame is the number of tiles one reconstruction produces:
// at least one per dimension even when frames are smaller than tiles.
func (l *levelBase) tilesPerFrame() geometry.Size {
	return geometry.MaxSize(l.frameSize.Div(l.tileSize), geometry.Size{Width: 1, Height: 1})
}

// originTile returns the tile whose top-left aligns with the
// fragment-group boundary covering the given tile. It anchors one
// reconstruction batch.
func (l *levelBase) originTile(tile geometry.Point) geometry.Point {
	ratio := geometry.MaxSize(l.frameSize.Div(l.tileSize), geometry.Size{Width: 1, Height: 1})
	return tile.Sub(tile.Mod(ratio))
}

// mapTileToImage converts a tile coordinate to its pixel coordinate.
func (l *levelBase) mapTileToImage(tile geometry.Point) geometry.Point {
	return tile.MulSize(l.tileSize)
}

// readFrame returns the raw bytes of the fragment at index.
func (l *levelBase) readFrame(index int) ([]byte, error) {
	offset, bytecount, err := l.page.FragmentRange(index)
	if err != nil {
		return nil, err
	}
	return l.fh.Read(offset, bytecount)
}

// getTile serves a tile from the cache, or rebuilds the cache from the
// reconstruction batch covering the requested tile.
func (l *levelBase) getTile(
	position geometry.Point,
	createTiles func(geometry.Point) (tileMap, error),
) ([]byte, error) {
	if cached := l.tiles.Load(); cached != nil {
		if tile, ok := (*cached)[position]; ok {
			return tile, nil
		}
	}

	created, err := createTiles(position)
	if err != nil {
		return nil, err
	}
	l.tiles.Store(&created)

	tile, ok := created[position]
	if !ok {
		return nil, fmt.Errorf("tile %v not covered by its reconstruction batch", position)
	}
	return tile, nil
}
