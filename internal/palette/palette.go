// Package palette builds the deduplicated 16-bit CE color palette from
// frame images.
//
// Colors are compared after truncating each 8-bit channel to 5 bits, so two
// source pixels that differ only in their low three bits share one entry.
// The first two entries are always the reserved transparency marker and
// white.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP frames
	_ "golang.org/x/image/webp" // register WebP frames
)

// Color is a quantized triple: each channel holds the top five bits of the
// source channel (0..31).
type Color struct {
	R, G, B uint8
}

// Quantize truncates 8-bit channels to 5 bits by floor division by 8.
func Quantize(r, g, b uint8) Color {
	return Color{R: r / 8, G: g / 8, B: b / 8}
}

// Packed returns r<<16 | g<<8 | b.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Entry is one palette slot: the quantized color used for identity and the
// first source RGB value seen for it, kept for the rendered comment.
type Entry struct {
	Color   Color
	R, G, B uint8
}

// NewEntry quantizes an 8-bit RGB value into an Entry.
func NewEntry(r, g, b uint8) Entry {
	return Entry{Color: Quantize(r, g, b), R: r, G: g, B: b}
}

// Lo is the low byte of the packed color.
func (e Entry) Lo() uint8 { return uint8(e.Color.Packed() & 0xff) }

// Hi is the second byte of the packed color.
func (e Entry) Hi() uint8 { return uint8((e.Color.Packed() >> 8) & 0xff) }

// String renders the entry as a C initializer fragment:
// 0xLL, 0xHH, /* rgb(r, g, b) */
func (e Entry) String() string {
	return fmt.Sprintf("0x%02x, 0x%02x, /* rgb(%d, %d, %d) */", e.Lo(), e.Hi(), e.R, e.G, e.B)
}

// Reserved entries occupy indices 0 and 1 of every palette.
var (
	Transparent = NewEntry(255, 0, 128)
	White       = NewEntry(255, 255, 255)
)

// Palette is an ordered list of entries with unique quantized colors.
type Palette []Entry

// New returns a palette holding only the reserved entries.
func New() Palette {
	return Palette{Transparent, White}
}

// Contains reports whether a color with the same quantized value is present.
func (p Palette) Contains(c Color) bool {
	for _, e := range p {
		if e.Color == c {
			return true
		}
	}
	return false
}

// builder tracks seen colors so large frames stay linear.
type builder struct {
	p    Palette
	seen map[Color]struct{}
}

func newBuilder() *builder {
	b := &builder{seen: make(map[Color]struct{})}
	for _, e := range New() {
		b.add(e)
	}
	return b
}

func (b *builder) add(e Entry) {
	if _, ok := b.seen[e.Color]; ok {
		return
	}
	b.seen[e.Color] = struct{}{}
	b.p = append(b.p, e)
}

// FromImage scans img row by row, left to right, and returns the reserved
// entries followed by each new quantized color in first-seen order.
func FromImage(img image.Image) Palette {
	b := newBuilder()
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			b.add(NewEntry(c.R, c.G, c.B))
		}
	}
	return b.p
}

// Merge concatenates palettes left to right, keeping the first entry for
// each quantized color. The result always starts with the reserved entries.
func Merge(palettes ...Palette) Palette {
	b := newBuilder()
	for _, p := range palettes {
		for _, e := range p {
			b.add(e)
		}
	}
	return b.p
}

// Render emits the palette as a C array of two bytes per entry.
func Render(p Palette) string {
	lines := make([]string, len(p))
	for i, e := range p {
		lines[i] = e.String()
	}
	return fmt.Sprintf("unsigned char global_palette[%d] = {\n    %s\n};\n", len(p)*2, strings.Join(lines, "\n    "))
}

// Load decodes an image file (png, gif, jpeg, bmp, tiff or webp).
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// FromFiles loads every path and merges their palettes in argument order.
func FromFiles(paths ...string) (Palette, error) {
	palettes := make([]Palette, 0, len(paths))
	for _, path := range paths {
		img, err := Load(path)
		if err != nil {
			return nil, err
		}
		palettes = append(palettes, FromImage(img))
	}
	return Merge(palettes...), nil
}
