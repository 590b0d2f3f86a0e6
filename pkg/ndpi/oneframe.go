package ndpi

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	stdjpeg "image/jpeg"

	"github.com/ap--/opentile/pkg/geometry"
)

// OneFrameLevel serves tiles from a level stored as a single oversized
// JPEG frame of arbitrary, not tile-aligned size. The frame is decoded
// to a raster once per batch, padded with white to a whole number of
// tiles, and each tile is cropped and re-encoded independently.
//
// Unlike the striped path this re-compresses pixel data per tile, which
// is lossy. The asymmetry is deliberate; a lossless raster-domain crop
// substitute would have to preserve the source DCT coefficients.
type OneFrameLevel struct {
	levelBase
}

func newOneFrameLevel(page *PageInfo, fh *FileHandle, tileSize geometry.Size) *OneFrameLevel {
	// Pad the frame up to the next whole multiple of the tile size.
	frameSize := page.ImageSize.Div(tileSize).Add(1).MulSize(tileSize)
	return &OneFrameLevel{
		levelBase: newLevelBase(page, fh, tileSize, frameSize),
	}
}

// GetTile returns the JPEG bytes for one tile, decoding and retiling
// the whole frame on a miss.
func (l *OneFrameLevel) GetTile(position geometry.Point) ([]byte, error) {
	return l.getTile(position, l.createTiles)
}

func (l *OneFrameLevel) createTiles(geometry.Point) (tileMap, error) {
	frame, err := l.readFrame(0)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	img, err := stdjpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	padded := image.NewRGBA(image.Rect(0, 0, l.frameSize.Width, l.frameSize.Height))
	draw.Draw(padded, padded.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(padded, img.Bounds(), img, image.Point{}, draw.Src)

	tileRegion := geometry.Region{
		Size: geometry.MaxSize(
			l.frameSize.Div(l.tileSize),
			geometry.Size{Width: 1, Height: 1},
		),
	}
	tiles := make(tileMap)
	for _, tile := range tileRegion.IterateAll(false) {
		position := l.mapTileToImage(tile).Mod(l.frameSize)
		rect := image.Rect(
			position.X,
			position.Y,
			position.X+l.tileSize.Width,
			position.Y+l.tileSize.Height,
		)
		var buf bytes.Buffer
		if err := stdjpeg.Encode(&buf, padded.SubImage(rect), nil); err != nil {
			return nil, fmt.Errorf("encoding tile %v: %w", tile, err)
		}
		tiles[tile] = buf.Bytes()
	}
	return tiles, nil
}
