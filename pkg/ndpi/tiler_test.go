package ndpi

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ap--/opentile/pkg/geometry"
)

func TestNewRejectsTileSize(t *testing.T) {
	f := newStripedFixture(t, geometry.Size{Width: 16, Height: 16}, geometry.Size{Width: 1, Height: 1})
	container := NewMemoryContainer(f.page)

	tests := []struct {
		name          string
		width, height int
	}{
		{"width not a multiple of 8", 100, 64},
		{"height not a multiple of 8", 64, 100},
		{"zero width", 0, 64},
		{"negative height", 64, -8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(container, f.fh, tt.width, tt.height)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTileSize)
		})
	}
	// Validation happens before any file access.
	assert.Equal(t, int64(0), f.fh.ReadCount())
}

func TestTilerTileSize(t *testing.T) {
	f := newStripedFixture(t, geometry.Size{Width: 16, Height: 16}, geometry.Size{Width: 1, Height: 1})

	tiler, err := New(NewMemoryContainer(f.page), f.fh, 16, 32)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 16, Height: 32}, tiler.TileSize())
}

func TestTilerGetTile(t *testing.T) {
	f := newStripedFixture(t, geometry.Size{Width: 16, Height: 16}, geometry.Size{Width: 2, Height: 2})
	codec := &stubCodec{}
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tiler, err := New(NewMemoryContainer(f.page), f.fh, 8, 8, WithCodec(codec), WithLogger(log))
	require.NoError(t, err)

	stitched := expectedStitch(t, f, geometry.Size{Width: 16, Height: 16}, 0)

	tile, err := tiler.GetTile(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, expectedTile(stitched, geometry.Point{X: 8, Y: 8}, tiler.TileSize()), tile)
}

func TestTilerLevelOutOfRange(t *testing.T) {
	f := newStripedFixture(t, geometry.Size{Width: 16, Height: 16}, geometry.Size{Width: 1, Height: 1})

	tiler, err := New(NewMemoryContainer(f.page), f.fh, 8, 8, WithCodec(&stubCodec{}))
	require.NoError(t, err)

	for _, level := range []int{-1, 1, 42} {
		_, err := tiler.GetTile(level, 0, 0)
		require.Error(t, err, "level %d", level)
		assert.ErrorIs(t, err, ErrLevelOutOfRange)
	}
}

// countingContainer records how often each level description is fetched.
type countingContainer struct {
	*MemoryContainer
	fetches int
}

func (c *countingContainer) Level(index int) (*PageInfo, error) {
	c.fetches++
	return c.MemoryContainer.Level(index)
}

func TestTilerReusesLevels(t *testing.T) {
	f := newStripedFixture(t, geometry.Size{Width: 16, Height: 16}, geometry.Size{Width: 2, Height: 2})
	container := &countingContainer{MemoryContainer: NewMemoryContainer(f.page)}

	tiler, err := New(container, f.fh, 8, 8, WithCodec(&stubCodec{}))
	require.NoError(t, err)

	_, err = tiler.GetTile(0, 0, 0)
	require.NoError(t, err)
	_, err = tiler.GetTile(0, 1, 0)
	require.NoError(t, err)

	// The level is built on first request and reused afterwards.
	assert.Equal(t, 1, container.fetches)
}

func TestTilerOneFrameDispatch(t *testing.T) {
	fh, page := newOneFrameFixture(t, geometry.Size{Width: 20, Height: 12})

	tiler, err := New(NewMemoryContainer(page), fh, 8, 8)
	require.NoError(t, err)

	data, err := tiler.GetTile(0, 0, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}))
}
