package palette

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, Color{31, 0, 16}, Quantize(255, 0, 128))
	assert.Equal(t, Color{0, 0, 0}, Quantize(7, 7, 7))
	assert.Equal(t, Color{1, 1, 1}, Quantize(8, 15, 9))
	assert.Equal(t, uint32(31<<16|16), Quantize(255, 0, 128).Packed())
}

func TestEntryString(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    string
	}{
		{255, 0, 128, "0x10, 0x00, /* rgb(255, 0, 128) */"},
		{255, 255, 255, "0x1f, 0x1f, /* rgb(255, 255, 255) */"},
		{0, 0, 0, "0x00, 0x00, /* rgb(0, 0, 0) */"},
		{16, 80, 200, "0x19, 0x0a, /* rgb(16, 80, 200) */"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewEntry(tt.r, tt.g, tt.b).String())
	}
}

func TestFromImage_ReservedFirst(t *testing.T) {
	p := FromImage(solid(4, 3, color.NRGBA{A: 255}))
	require.Len(t, p, 3)
	assert.Equal(t, Transparent, p[0])
	assert.Equal(t, White, p[1])
	assert.Equal(t, Quantize(0, 0, 0), p[2].Color)
}

func TestFromImage_RowMajorFirstSeen(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 200, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 12, A: 255}) // same 5-bit value as (10,0,0)
	img.SetNRGBA(1, 1, color.NRGBA{B: 90, A: 255})

	p := FromImage(img)
	require.Len(t, p, 5)
	assert.Equal(t, uint8(10), p[2].R, "first occurrence wins")
	assert.Equal(t, uint8(200), p[3].G)
	assert.Equal(t, uint8(90), p[4].B)
}

func TestFromImage_NoDuplicates(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 255, A: 255})
		}
	}
	p := FromImage(img)
	seen := map[Color]bool{}
	for _, e := range p {
		assert.False(t, seen[e.Color], "duplicate %v", e.Color)
		seen[e.Color] = true
	}
	// 32 x 32 quantized colors plus two reserved; white is already reserved.
	assert.Len(t, p, 2+32*32-1)
}

func TestMerge_Dedups(t *testing.T) {
	a := FromImage(solid(2, 2, color.NRGBA{R: 40, A: 255}))
	b := FromImage(solid(2, 2, color.NRGBA{R: 41, A: 255}))
	c := FromImage(solid(2, 2, color.NRGBA{B: 200, A: 255}))

	m := Merge(a, b, c)
	require.Len(t, m, 4)
	assert.Equal(t, Transparent, m[0])
	assert.Equal(t, White, m[1])
	assert.Equal(t, uint8(40), m[2].R)
	assert.Equal(t, uint8(200), m[3].B)

	assert.Equal(t, New(), Merge())
}

func TestRender(t *testing.T) {
	out := Render(New())
	want := "unsigned char global_palette[4] = {\n" +
		"    0x10, 0x00, /* rgb(255, 0, 128) */\n" +
		"    0x1f, 0x1f, /* rgb(255, 255, 255) */\n" +
		"};\n"
	assert.Equal(t, want, out)
}

func TestFromFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, img image.Image) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		return path
	}
	p1 := write("frame_1.png", solid(2, 2, color.NRGBA{R: 100, A: 255}))
	p2 := write("frame_2.png", solid(2, 2, color.NRGBA{G: 100, A: 255}))

	p, err := FromFiles(p1, p2)
	require.NoError(t, err)
	require.Len(t, p, 4)
	assert.True(t, strings.Contains(Render(p), "rgb(0, 100, 0)"))

	_, err = FromFiles(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
