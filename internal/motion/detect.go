package motion

import "image"

// MeanAbsDiff returns the mean absolute difference of the R, G and B
// channels of two equally sized images, on a 0-255 scale. ok is false when
// the sizes differ.
func MeanAbsDiff(a, b *image.RGBA) (mean float64, ok bool) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return 0, false
	}
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 0, true
	}

	var sum uint64
	for y := 0; y < h; y++ {
		ra := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		rb := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
		for i := 0; i < w*4; i += 4 {
			sum += absDiff(ra[i], rb[i])
			sum += absDiff(ra[i+1], rb[i+1])
			sum += absDiff(ra[i+2], rb[i+2])
		}
	}
	return float64(sum) / float64(w*h*3), true
}

// IsSignificantChange reports whether current differs enough from previous
// to be worth sending. With no previous thumbnail every frame is
// significant.
func IsSignificantChange(current, previous *image.RGBA, threshold float64) bool {
	if previous == nil {
		return true
	}
	mean, ok := MeanAbsDiff(current, previous)
	if !ok {
		return true
	}
	return mean > threshold
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
