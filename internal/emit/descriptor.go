package emit

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/calcanim/internal/palette"
)

const (
	paletteName = "global_palette"
	convertName = "sprites"
)

type descriptor struct {
	Palettes []paletteSpec `yaml:"palettes"`
	Converts []convertSpec `yaml:"converts"`
	Outputs  []outputSpec  `yaml:"outputs"`
}

type paletteSpec struct {
	Name         string       `yaml:"name"`
	FixedEntries []fixedEntry `yaml:"fixed-entries"`
	Images       string       `yaml:"images"`
}

type fixedEntry struct {
	Color fixedColor `yaml:"color,flow"`
}

type fixedColor struct {
	Index int   `yaml:"index"`
	R     uint8 `yaml:"r"`
	G     uint8 `yaml:"g"`
	B     uint8 `yaml:"b"`
}

type convertSpec struct {
	Name                  string   `yaml:"name"`
	Palette               string   `yaml:"palette"`
	TransparentColorIndex int      `yaml:"transparent-color-index"`
	Images                []string `yaml:"images"`
}

type outputSpec struct {
	Type        string   `yaml:"type"`
	IncludeFile string   `yaml:"include-file"`
	Palettes    []string `yaml:"palettes"`
	Converts    []string `yaml:"converts"`
}

// Descriptor renders the convimg YAML for a video's frames: one global
// palette pinned to the reserved entries, one sprite convert over images,
// and a C output including <videoID>.h.
func Descriptor(videoID string, images []string) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoFrames
	}
	d := descriptor{
		Palettes: []paletteSpec{{
			Name: paletteName,
			FixedEntries: []fixedEntry{
				{Color: fixed(0, palette.Transparent)},
				{Color: fixed(1, palette.White)},
			},
			Images: "automatic",
		}},
		Converts: []convertSpec{{
			Name:                  convertName,
			Palette:               paletteName,
			TransparentColorIndex: 0,
			Images:                images,
		}},
		Outputs: []outputSpec{{
			Type:        "c",
			IncludeFile: videoID + ".h",
			Palettes:    []string{paletteName},
			Converts:    []string{convertName},
		}},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode convimg descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode convimg descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

func fixed(index int, e palette.Entry) fixedColor {
	return fixedColor{Index: index, R: e.R, G: e.G, B: e.B}
}
