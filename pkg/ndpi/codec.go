package ndpi

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	stdjpeg "image/jpeg"

	"github.com/ap--/opentile/pkg/geometry"
)

// Codec crops reconstructed JPEG images to tile rectangles. The striped
// path hands it complete, syntactically valid JPEG bytes; a production
// deployment injects an implementation that crops losslessly in the
// compressed domain (e.g. a TurboJPEG binding) via WithCodec.
type Codec interface {
	// DecodeDimensions returns the frame size declared by the header of
	// the given JPEG bytes without decoding pixels.
	DecodeDimensions(data []byte) (geometry.Size, error)
	// Crop returns exactly the given pixel rectangle of the image,
	// re-encoded as an independent JPEG.
	Crop(data []byte, region geometry.Region) ([]byte, error)
}

// RasterCodec is the reference Codec: it decodes to a raster, crops and
// re-encodes with the standard library. The crop is therefore lossy;
// it serves tests and fallback use, not production retiling.
type RasterCodec struct {
	// Quality is the re-encode quality; zero means the stdlib default.
	Quality int
}

func (c *RasterCodec) DecodeDimensions(data []byte) (geometry.Size, error) {
	config, err := stdjpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return geometry.Size{}, fmt.Errorf("decoding jpeg header: %w", err)
	}
	return geometry.Size{Width: config.Width, Height: config.Height}, nil
}

func (c *RasterCodec) Crop(data []byte, region geometry.Region) ([]byte, error) {
	img, err := stdjpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}

	tile := image.NewRGBA(image.Rect(0, 0, region.Size.Width, region.Size.Height))
	draw.Draw(tile, tile.Bounds(), img, image.Pt(region.Position.X, region.Position.Y), draw.Src)

	quality := c.Quality
	if quality == 0 {
		quality = stdjpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, tile, &stdjpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding tile: %w", err)
	}
	return buf.Bytes(), nil
}
