package probe

import (
	"context"
	"fmt"
)

// Dimensions is a frame size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string { return fmt.Sprintf("%dx%d", d.Width, d.Height) }

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool { return d.Width > 0 && d.Height > 0 }

// Prober measures the image or first video stream at path.
type Prober interface {
	Dimensions(ctx context.Context, path string) (Dimensions, error)
}
