package rdisplay

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"
)

const syntheticBlockSize = 48

// SyntheticProvider serves a single generated screen, for hosts without a
// display server and for tests
type SyntheticProvider struct {
	width  int
	height int
}

// SyntheticGrabber renders a gradient with a block that moves one step per
// capture
type SyntheticGrabber struct {
	screen Screen
	step   int
	closed atomic.Bool
}

// NewSyntheticProvider creates a provider with one width x height screen
func NewSyntheticProvider(width, height int) (Service, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("synthetic screen size must be positive, got %dx%d", width, height)
	}
	return &SyntheticProvider{width: width, height: height}, nil
}

// Screens returns the one synthetic screen
func (p *SyntheticProvider) Screens() ([]Screen, error) {
	return []Screen{{Index: 0, Bounds: image.Rect(0, 0, p.width, p.height)}}, nil
}

// CreateScreenGrabber creates a grabber over the synthetic screen
func (p *SyntheticProvider) CreateScreenGrabber(screen Screen) (ScreenGrabber, error) {
	if screen.Bounds.Empty() {
		return nil, fmt.Errorf("%w: screen %d has empty bounds", ErrCaptureUnavailable, screen.Index)
	}
	return &SyntheticGrabber{screen: screen}, nil
}

// Capture renders the next pattern frame
func (g *SyntheticGrabber) Capture() (Frame, error) {
	if g.closed.Load() {
		return Frame{}, fmt.Errorf("%w: grabber closed", ErrCaptureUnavailable)
	}
	capturedAt := time.Now()

	b := g.screen.Bounds
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			row[i] = uint8(x * 255 / w)
			row[i+1] = uint8(y * 255 / h)
			row[i+2] = 0x40
			row[i+3] = 0xff
		}
	}

	span := w - syntheticBlockSize
	if span < 1 {
		span = 1
	}
	x0 := (g.step * 8) % span
	y0 := (h - syntheticBlockSize) / 2
	block := image.Rect(x0, y0, x0+syntheticBlockSize, y0+syntheticBlockSize).Intersect(img.Rect)
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	g.step++

	return Frame{Image: img, CapturedAt: capturedAt}, nil
}

// Close releases the grabber; later captures fail
func (g *SyntheticGrabber) Close() error {
	g.closed.Store(true)
	return nil
}

// Screen returns a pointer to the screen we're capturing
func (g *SyntheticGrabber) Screen() *Screen {
	return &g.screen
}
