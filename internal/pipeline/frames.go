package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/backmassage/calcanim/internal/probe"
	"github.com/backmassage/calcanim/internal/project"
)

const (
	framePrefix = "frame_"
	headerExt   = ".h"
)

// SortFrames picks the convimg frame headers (frame_<n>.h) out of names and
// returns their sprite names (frame_<n>) ordered by n. Headers whose suffix
// is not an integer are returned in skipped.
func SortFrames(names []string) (frames, skipped []string) {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, name := range names {
		if !strings.HasPrefix(name, framePrefix) || !strings.HasSuffix(name, headerExt) {
			continue
		}
		stem := strings.TrimSuffix(name, headerExt)
		n, err := strconv.Atoi(strings.TrimPrefix(stem, framePrefix))
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		found = append(found, numbered{n: n, name: stem})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].n < found[j].n })

	frames = make([]string, len(found))
	for i, f := range found {
		frames[i] = f.name
	}
	return frames, skipped
}

// pngFrames filters names down to the .png images convimg should convert.
func pngFrames(names []string) []string {
	var out []string
	for _, name := range names {
		if strings.HasSuffix(name, ".png") {
			out = append(out, name)
		}
	}
	return out
}

// gfxSources filters names down to the C sources convimg produced.
func gfxSources(names []string) []string {
	var out []string
	for _, name := range names {
		if strings.HasSuffix(name, ".h") || strings.HasSuffix(name, ".c") {
			out = append(out, name)
		}
	}
	return out
}

// ScaleFor chooses the ffmpeg scale for a source of size src. When the
// source is relatively wider than the reference canvas, width constrains
// and height follows (w:-1); otherwise height constrains (-1:h). The
// comparison is srcW/320 > srcH/240 done in integers.
func ScaleFor(src probe.Dimensions, width, height int) (w, h int) {
	if src.Width*project.ReferenceHeight > src.Height*project.ReferenceWidth {
		return width, -1
	}
	return -1, height
}
