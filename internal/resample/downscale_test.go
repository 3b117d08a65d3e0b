package resample

import (
	"image"
	"testing"
)

// synthFrame creates a uniform RGBA image with the given alpha.
func synthFrame(w, h int, base, alpha byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = base, base, base, alpha
	}
	return img
}

func TestTargetSize(t *testing.T) {
	d := New(1920, 64)
	tests := []struct {
		name string
		in   image.Rectangle
		want image.Point
	}{
		{"1080p passthrough", image.Rect(0, 0, 1920, 1080), image.Pt(1920, 1080)},
		{"small passthrough", image.Rect(0, 0, 800, 600), image.Pt(800, 600)},
		{"4k landscape", image.Rect(0, 0, 3840, 2160), image.Pt(1920, 1080)},
		{"ultrawide", image.Rect(0, 0, 5120, 1440), image.Pt(1920, 540)},
		{"portrait", image.Rect(0, 0, 1440, 2560), image.Pt(1080, 1920)},
		{"offset bounds", image.Rect(1920, 0, 5760, 2160), image.Pt(1920, 1080)},
		{"degenerate strip", image.Rect(0, 0, 10000, 1), image.Pt(1920, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.TargetSize(tt.in); got != tt.want {
				t.Errorf("TargetSize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransmissionPassthroughKeepsImage(t *testing.T) {
	d := New(1920, 64)
	src := synthFrame(640, 480, 100, 0)

	out := d.Transmission(src)
	if out != src {
		t.Fatal("expected frame within the cap to be passed through")
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0xff {
			t.Fatalf("alpha at %d not flattened: %d", i, out.Pix[i])
		}
	}
}

func TestTransmissionDownscales(t *testing.T) {
	d := New(100, 16)
	src := synthFrame(400, 200, 120, 0)

	out := d.Transmission(src)
	if got := out.Bounds().Size(); got != image.Pt(100, 50) {
		t.Fatalf("expected 100x50, got %v", got)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] != 0xff {
			t.Fatalf("alpha at %d not flattened", i)
		}
		if out.Pix[i] < 118 || out.Pix[i] > 122 {
			t.Fatalf("uniform frame changed colour at %d: %d", i, out.Pix[i])
		}
	}
}

func TestThumbnailHasFixedSize(t *testing.T) {
	d := New(1920, 64)
	for _, size := range []image.Point{{1920, 1080}, {64, 64}, {33, 700}, {7, 3}} {
		src := synthFrame(size.X, size.Y, 50, 0xff)
		thumb := d.NewThumbnail()
		d.Thumbnail(thumb, src)
		if thumb.Bounds() != image.Rect(0, 0, 64, 64) {
			t.Fatalf("thumbnail of %v has bounds %v", size, thumb.Bounds())
		}
		if thumb.Pix[0] != 50 || thumb.Pix[len(thumb.Pix)-4] != 50 {
			t.Fatalf("thumbnail of %v not sampled from source", size)
		}
	}
}

func TestThumbnailSamplesRegions(t *testing.T) {
	d := New(1920, 4)
	src := synthFrame(400, 400, 0, 0xff)
	// right half white
	for y := 0; y < 400; y++ {
		for x := 200; x < 400; x++ {
			i := src.PixOffset(x, y)
			src.Pix[i], src.Pix[i+1], src.Pix[i+2] = 255, 255, 255
		}
	}
	thumb := d.NewThumbnail()
	d.Thumbnail(thumb, src)

	if thumb.RGBAAt(0, 0).R != 0 || thumb.RGBAAt(3, 3).R != 255 {
		t.Errorf("unexpected thumbnail samples: left=%v right=%v", thumb.RGBAAt(0, 0), thumb.RGBAAt(3, 3))
	}
}
