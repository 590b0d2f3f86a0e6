// Package ndpi retiles striped whole-slide images to a fixed tile grid.
// A Tiler resolves pyramid levels lazily from a Container, reads
// fragments through one lock-serialized FileHandle, reconstructs valid
// JPEG images from on-disk fragments and serves fixed-size tiles cut
// from those reconstructions by a Codec.
package ndpi

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ap--/opentile/pkg/geometry"
	"github.com/ap--/opentile/pkg/jpeg"
)

// Tiler is the retiling facade: it validates the requested tile size,
// creates one Level per level index on first access and dispatches
// tile requests. It holds no tile cache of its own beyond the
// per-level batch caches.
type Tiler struct {
	fh        *FileHandle
	container Container
	tileSize  geometry.Size
	codec     Codec
	log       *slog.Logger
	session   string

	mu     sync.Mutex
	levels map[int]Level
}

// Option configures a Tiler at construction.
type Option func(*Tiler)

// WithCodec replaces the bundled raster codec, typically with a
// lossless compressed-domain implementation.
func WithCodec(codec Codec) Option {
	return func(t *Tiler) { t.codec = codec }
}

// WithLogger replaces the default structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tiler) { t.log = log }
}

// New creates a Tiler producing tiles of the given size. Width and
// height must each be a multiple of 8; violations fail here, before
// any file access.
func New(container Container, fh *FileHandle, tileWidth, tileHeight int, opts ...Option) (*Tiler, error) {
	tileSize := geometry.Size{Width: tileWidth, Height: tileHeight}
	if tileWidth <= 0 || tileHeight <= 0 ||
		tileWidth%jpeg.MCUSize != 0 || tileHeight%jpeg.MCUSize != 0 {
		return nil, fmt.Errorf("%w: got %v", ErrTileSize, tileSize)
	}

	t := &Tiler{
		fh:        fh,
		container: container,
		tileSize:  tileSize,
		codec:     &RasterCodec{},
		log:       slog.Default(),
		session:   uuid.NewString(),
		levels:    make(map[int]Level),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.log.Debug("tiler opened",
		slog.String("session", t.session),
		slog.String("tile_size", tileSize.String()),
		slog.Int("levels", container.Levels()),
	)
	return t, nil
}

// TileSize returns the configured output tile size.
func (t *Tiler) TileSize() geometry.Size {
	return t.tileSize
}

// GetTile returns the JPEG bytes of one tile of one level. Levels are
// created lazily on first request and live for the lifetime of the
// tiler.
func (t *Tiler) GetTile(level, x, y int) ([]byte, error) {
	lv, err := t.level(level)
	if err != nil {
		return nil, err
	}
	return lv.GetTile(geometry.Point{X: x, Y: y})
}

func (t *Tiler) level(index int) (Level, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lv, ok := t.levels[index]; ok {
		return lv, nil
	}
	lv, err := t.createLevel(index)
	if err != nil {
		return nil, fmt.Errorf("creating level %d: %w", index, err)
	}
	t.levels[index] = lv
	return lv, nil
}

func (t *Tiler) createLevel(index int) (Level, error) {
	page, err := t.container.Level(index)
	if err != nil {
		return nil, err
	}

	var lv Level
	if page.Striped {
		lv, err = newStripedLevel(page, t.fh, t.tileSize, t.codec)
		if err != nil {
			return nil, err
		}
	} else {
		lv = newOneFrameLevel(page, t.fh, t.tileSize)
	}

	t.log.Debug("level created",
		slog.String("session", t.session),
		slog.Int("level", index),
		slog.Bool("striped", page.Striped),
		slog.String("frame_size", lv.FrameSize().String()),
		slog.String("framed_size", lv.FramedSize().String()),
		slog.String("tiled_size", lv.TiledSize().String()),
	)
	return lv, nil
}
