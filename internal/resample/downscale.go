// Package resample normalizes captured frames: a size-capped transmission
// frame for the encoder and a fixed-size thumbnail for change detection.
package resample

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Downscaler is immutable and may be shared by concurrent sessions
type Downscaler struct {
	maxDimension  int
	thumbnailSize int
}

// New creates a Downscaler capping the longer side of transmission frames
// at maxDimension and producing thumbnailSize x thumbnailSize thumbnails
func New(maxDimension, thumbnailSize int) *Downscaler {
	return &Downscaler{
		maxDimension:  maxDimension,
		thumbnailSize: thumbnailSize,
	}
}

// TargetSize returns the transmission size for a source of the given bounds,
// keeping the aspect ratio
func (d *Downscaler) TargetSize(bounds image.Rectangle) image.Point {
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= d.maxDimension {
		return image.Point{X: w, Y: h}
	}

	scale := float64(d.maxDimension) / float64(longest)
	target := image.Point{
		X: int(math.Round(float64(w) * scale)),
		Y: int(math.Round(float64(h) * scale)),
	}
	if target.X < 1 {
		target.X = 1
	}
	if target.Y < 1 {
		target.Y = 1
	}
	return target
}

// Transmission returns src resized with bilinear interpolation so that its
// longer side does not exceed the cap. Frames already within the cap are
// returned as is. The alpha channel of the result is flattened to opaque,
// src may be modified in place.
func (d *Downscaler) Transmission(src *image.RGBA) *image.RGBA {
	out := src
	size := d.TargetSize(src.Bounds())
	if size != src.Bounds().Size() {
		out = resize.Resize(uint(size.X), uint(size.Y), src, resize.Bilinear).(*image.RGBA)
	}
	flattenAlpha(out)
	return out
}

// NewThumbnail allocates a thumbnail buffer of the configured size
func (d *Downscaler) NewThumbnail() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, d.thumbnailSize, d.thumbnailSize))
}

// Thumbnail samples src into dst with nearest-neighbour interpolation. dst
// must come from NewThumbnail.
func (d *Downscaler) Thumbnail(dst, src *image.RGBA) {
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

func flattenAlpha(img *image.RGBA) {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for i := 3; i < rowLen; i += 4 {
			row[i] = 0xff
		}
	}
}
