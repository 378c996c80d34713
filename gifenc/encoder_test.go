package gifenc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 0xFF
	}
	return img
}

// split returns a frame whose left half is white and right half is black.
func split(w, h int) *image.RGBA {
	img := solid(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetRGBA(x, y, color.RGBA{230, 230, 230, 255})
		}
	}
	return img
}

func TestEncodeDecodesAsLoopingAnimation(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(&buf, 4, 2, Options{})
	require.NoError(t, err)

	require.NoError(t, e.WriteFrame(split(4, 2), 70*time.Millisecond))
	require.NoError(t, e.WriteFrame(solid(4, 2, 255), 70*time.Millisecond))
	require.NoError(t, e.WriteFrame(solid(4, 2, 0), 40*time.Millisecond))
	assert.Equal(t, 3, e.Frames())
	require.NoError(t, e.Close())

	g, err := gif.DecodeAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, g.LoopCount)
	assert.Equal(t, []int{7, 7, 4}, g.Delay)
	assert.Equal(t, 4, g.Config.Width)
	assert.Equal(t, 2, g.Config.Height)
	require.Len(t, g.Image, 3)

	first := g.Image[0]
	require.Len(t, first.Palette, 2)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, first.Palette[0])
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, first.Palette[1])
	assert.Equal(t, []uint8{0, 0, 1, 1, 0, 0, 1, 1}, first.Pix)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0, 0, 0, 0}, g.Image[1].Pix)
	assert.Equal(t, []uint8{1, 1, 1, 1, 1, 1, 1, 1}, g.Image[2].Pix)
}

func TestEncodeLargeFrameSpansSubBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 97, 61))
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8((i / 4 * 37) % 256)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeAll(&buf, 97, 61, []*image.RGBA{img}, 50*time.Millisecond, Options{Dither: true}, nil))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 1)
	assert.Len(t, g.Image[0].Pix, 97*61)
}

func TestEncodeIsDeterministic(t *testing.T) {
	frames := []*image.RGBA{split(8, 6), solid(8, 6, 128), solid(8, 6, 90)}
	for _, dither := range []bool{false, true} {
		var a, b bytes.Buffer
		require.NoError(t, EncodeAll(&a, 8, 6, frames, 70*time.Millisecond, Options{Dither: dither}, nil))
		require.NoError(t, EncodeAll(&b, 8, 6, frames, 70*time.Millisecond, Options{Dither: dither}, nil))
		assert.True(t, bytes.Equal(a.Bytes(), b.Bytes()), "dither=%v", dither)
	}
}

func TestDitherMixesMidGray(t *testing.T) {
	var plain, dithered bytes.Buffer
	frame := []*image.RGBA{solid(8, 8, 128)}
	require.NoError(t, EncodeAll(&plain, 8, 8, frame, 0, Options{}, nil))
	require.NoError(t, EncodeAll(&dithered, 8, 8, frame, 0, Options{Dither: true}, nil))

	count := func(buf *bytes.Buffer) map[uint8]int {
		g, err := gif.DecodeAll(buf)
		require.NoError(t, err)
		out := map[uint8]int{}
		for _, p := range g.Image[0].Pix {
			out[p]++
		}
		return out
	}
	assert.Equal(t, map[uint8]int{indexWhite: 64}, count(&plain))
	mixed := count(&dithered)
	assert.Positive(t, mixed[indexWhite])
	assert.Positive(t, mixed[indexBlack])
}

func TestZeroFrameContainer(t *testing.T) {
	var buf bytes.Buffer
	var got []float64
	require.NoError(t, EncodeAll(&buf, 320, 200, nil, 0, Options{}, func(p float64) { got = append(got, p) }))
	assert.Equal(t, []float64{1}, got)

	data := buf.Bytes()
	require.Len(t, data, 13+6+19+1)
	assert.Equal(t, "GIF89a", string(data[:6]))
	assert.Contains(t, string(data), "NETSCAPE2.0")
	assert.Equal(t, byte(0x3B), data[len(data)-1])

	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestEncodeAllProgress(t *testing.T) {
	for n := 1; n <= 5; n++ {
		frames := make([]*image.RGBA, n)
		for i := range frames {
			frames[i] = solid(2, 2, uint8(i*40))
		}
		var got []float64
		var buf bytes.Buffer
		require.NoError(t, EncodeAll(&buf, 2, 2, frames, 0, Options{}, func(p float64) { got = append(got, p) }))
		require.Len(t, got, n)
		for i := 1; i < n; i++ {
			assert.GreaterOrEqual(t, got[i], got[i-1])
		}
		assert.Equal(t, 1.0, got[n-1])
	}
}

func TestWriteFrameSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(&buf, 4, 4, Options{})
	require.NoError(t, err)

	err = e.WriteFrame(solid(2, 2, 0), 0)
	require.ErrorIs(t, err, ErrFrameSize)
	require.NoError(t, e.WriteFrame(solid(4, 4, 0), 0))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	require.ErrorIs(t, e.WriteFrame(solid(4, 4, 0), 0), ErrClosed)
}

type failingWriter struct {
	after int
	n     int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.after {
		return 0, errDiskFull
	}
	w.n += len(p)
	return len(p), nil
}

func TestWriteErrorIsSticky(t *testing.T) {
	w := &failingWriter{after: 40}
	e, err := New(w, 16, 16, Options{})
	require.NoError(t, err)

	err = e.WriteFrame(solid(16, 16, 0), 0)
	require.ErrorIs(t, err, errDiskFull)
	require.ErrorIs(t, e.WriteFrame(solid(16, 16, 0), 0), errDiskFull)
	assert.Equal(t, 0, e.Frames())
	require.NoError(t, e.Close())
}

func TestNewHeaderWriteError(t *testing.T) {
	_, err := New(&failingWriter{after: 0}, 4, 4, Options{})
	require.ErrorIs(t, err, errDiskFull)
}

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(&bytes.Buffer{}, 70000, 10, Options{})
	require.ErrorIs(t, err, ErrTooLarge)
	_, err = New(&bytes.Buffer{}, -1, 10, Options{})
	require.Error(t, err)
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.gif")
	e, err := Create(path, 2, 2, Options{})
	require.NoError(t, err)
	require.NoError(t, e.WriteFrame(solid(2, 2, 255), 0))
	require.NoError(t, e.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 1)
	assert.Equal(t, []int{2}, g.Delay)
}

func TestCreateMissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "clip.gif"), 2, 2, Options{})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDelayCentiseconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want uint16
	}{
		{0, 2},
		{10 * time.Millisecond, 2},
		{20 * time.Millisecond, 2},
		{44 * time.Millisecond, 4},
		{45 * time.Millisecond, 5},
		{70 * time.Millisecond, 7},
		{time.Second, 100},
		{time.Hour, 0xFFFF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DelayCentiseconds(tt.in), "delay %s", tt.in)
	}
}
