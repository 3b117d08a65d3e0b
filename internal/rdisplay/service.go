package rdisplay

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"
)

// ErrCaptureUnavailable is returned when the display handle is invalid or
// was lost (display reconfigured, session locked, grabber closed)
var ErrCaptureUnavailable = errors.New("capture unavailable")

// Frame is one captured bitmap of a screen region
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
}

// ScreenGrabber captures frames of a single screen region. A grabber is
// owned by one stream session and is not safe for concurrent Capture calls.
type ScreenGrabber interface {
	io.Closer
	Capture() (Frame, error)
	Screen() *Screen
}

// Screen is a capturable display region in virtual desktop coordinates
type Screen struct {
	Index  int
	Bounds image.Rectangle
}

// Service enumerates screens and hands out grabbers
type Service interface {
	CreateScreenGrabber(screen Screen) (ScreenGrabber, error)
	Screens() ([]Screen, error)
}

// SelectScreen returns the screen at index narrowed to region. region is
// relative to the screen origin; an empty region selects the whole screen.
// Out of range indexes fall back to the first screen.
func SelectScreen(svc Service, index int, region image.Rectangle) (Screen, error) {
	screens, err := svc.Screens()
	if err != nil {
		return Screen{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	if len(screens) == 0 {
		return Screen{}, fmt.Errorf("%w: no active displays", ErrCaptureUnavailable)
	}

	if index < 0 || index >= len(screens) {
		index = 0
	}
	screen := screens[index]
	if region.Empty() {
		return screen, nil
	}

	bounds := region.Add(screen.Bounds.Min).Intersect(screen.Bounds)
	if bounds.Empty() {
		return Screen{}, fmt.Errorf("region %v is outside screen %d %v", region, screen.Index, screen.Bounds)
	}
	screen.Bounds = bounds
	return screen, nil
}
