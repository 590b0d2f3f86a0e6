package ndpi

import (
	"bytes"
	"fmt"

	"github.com/ap--/opentile/pkg/geometry"
	"github.com/ap--/opentile/pkg/jpeg"
)

// StripedLevel serves tiles from a level stored as a grid of stripes:
// many small, independently encoded JPEG fragments sharing one header.
// A tile request reads the stripes covering the origin-aligned frame,
// splices them into one valid JPEG scan with renumbered restart
// markers, and crops that reconstruction losslessly to every tile it
// covers.
type StripedLevel struct {
	levelBase
	codec  Codec
	header []byte
}

func newStripedLevel(page *PageInfo, fh *FileHandle, tileSize geometry.Size, codec Codec) (*StripedLevel, error) {
	frameSize, err := codec.DecodeDimensions(page.JPEGHeader)
	if err != nil {
		return nil, fmt.Errorf("reading frame size from page header: %w", err)
	}

	level := &StripedLevel{
		levelBase: newLevelBase(page, fh, tileSize, frameSize),
		codec:     codec,
	}

	// The reconstruction is never smaller than one tile, so the shared
	// header is retargeted once to the larger of the two sizes.
	readSize := geometry.MaxSize(tileSize, frameSize)
	level.header, err = jpeg.PatchSize(page.JPEGHeader, readSize)
	if err != nil {
		return nil, err
	}
	return level, nil
}

// GetTile returns the JPEG bytes for one tile, reconstructing and
// caching the whole covering batch on a miss.
func (l *StripedLevel) GetTile(position geometry.Point) ([]byte, error) {
	return l.getTile(position, l.createTiles)
}

// createTiles reconstructs the frame anchored at the requested tile's
// origin and crops it to every tile it covers.
func (l *StripedLevel) createTiles(requested geometry.Point) (tileMap, error) {
	origin := l.originTile(requested)
	stitched, err := l.stitchFrame(origin)
	if err != nil {
		return nil, err
	}
	return l.cropToTiles(origin, stitched)
}

// stripeIndex maps a stripe-grid coordinate to its fragment index.
func (l *StripedLevel) stripeIndex(coordinate geometry.Point) int {
	return coordinate.X + coordinate.Y*l.framedSize.Width
}

// stitchFrame splices the stripes covering the tile at the given
// coordinate into one valid JPEG image. Each stripe's own end-of-image
// marker is cut down to its leading 0xFF, which then prefixes the
// appended restart marker byte; numbering is contiguous in row-major
// stripe order and wraps modulo 8 per the JPEG standard. The patched
// shared header leads, a fresh end-of-image marker closes.
func (l *StripedLevel) stitchFrame(tileCoordinate geometry.Point) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(l.header)

	stripeRegion := geometry.Region{
		Position: l.mapTileToImage(tileCoordinate).Div(l.frameSize),
		Size: geometry.MaxSize(
			l.tileSize.Div(l.frameSize),
			geometry.Size{Width: 1, Height: 1},
		),
	}
	for i, coordinate := range stripeRegion.IterateAll(false) {
		stripe, err := l.readFrame(l.stripeIndex(coordinate))
		if err != nil {
			return nil, fmt.Errorf("reading stripe %v: %w", coordinate, err)
		}
		if len(stripe) < 2 {
			return nil, fmt.Errorf("%w: stripe %v too short to carry a marker", jpeg.ErrFormat, coordinate)
		}
		buf.Write(stripe[:len(stripe)-1])
		buf.WriteByte(jpeg.RestartMark(i))
	}
	buf.Write(jpeg.EndOfImageTag())
	return buf.Bytes(), nil
}

// cropToTiles crops a reconstruction to every tile it covers. Pixel
// offsets are taken modulo the frame size, so tiles past the first
// frame column or row address the reconstruction by wraparound.
func (l *StripedLevel) cropToTiles(origin geometry.Point, stitched []byte) (tileMap, error) {
	tiles := make(tileMap)
	tileRegion := geometry.Region{Position: origin, Size: l.tilesPerFrame()}
	for _, tile := range tileRegion.IterateAll(false) {
		cropped, err := l.codec.Crop(stitched, geometry.Region{
			Position: l.mapTileToImage(tile).Mod(l.frameSize),
			Size:     l.tileSize,
		})
		if err != nil {
			return nil, fmt.Errorf("cropping tile %v: %w", tile, err)
		}
		tiles[tile] = cropped
	}
	return tiles, nil
}
