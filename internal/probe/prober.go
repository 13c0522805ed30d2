package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF frames
	_ "image/jpeg" // register JPEG frames
	_ "image/png"  // register PNG frames
	"os"
	"os/exec"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/backmassage/calcanim/internal/tool"
)

// FFprobe measures files with a single ffprobe JSON call.
type FFprobe struct {
	Runner tool.Runner
	Tools  tool.Tools
}

// Dimensions runs ffprobe against path and parses its JSON output.
func (p FFprobe) Dimensions(ctx context.Context, path string) (Dimensions, error) {
	res, err := p.Runner.Run(ctx, "", p.Tools.Probe(path)...)
	if err != nil {
		return Dimensions{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON([]byte(res.Stdout))
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ErrNoStream is returned when probe output holds no sized stream.
var ErrNoStream = errors.New("no video stream with dimensions")

// ParseJSON extracts the first sized stream from ffprobe JSON output.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (Dimensions, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Dimensions{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	for _, s := range raw.Streams {
		d := Dimensions{Width: s.Width, Height: s.Height}
		if d.Valid() {
			return d, nil
		}
	}
	return Dimensions{}, ErrNoStream
}

// ImageDecoder reads dimensions from the image header without decoding
// pixels. It understands png, gif, jpeg, bmp and webp.
type ImageDecoder struct{}

// Dimensions decodes the header of the image at path.
func (ImageDecoder) Dimensions(_ context.Context, path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode %s: %w", path, err)
	}
	d := Dimensions{Width: cfg.Width, Height: cfg.Height}
	if !d.Valid() {
		return Dimensions{}, fmt.Errorf("decode %s: %w", path, ErrNoStream)
	}
	return d, nil
}

// Auto returns an ffprobe-backed prober when the binary is on PATH and the
// in-process decoder otherwise.
func Auto(tools tool.Tools, runner tool.Runner) Prober {
	if _, err := exec.LookPath(tools.FFprobeBin()); err != nil {
		return ImageDecoder{}
	}
	return FFprobe{Runner: runner, Tools: tools}
}
