// Package layout computes where two overlay images go on a video frame.
// The computation is pure: same inputs, same placements.
package layout

// Fractions of the frame reserved for the stacked image block.
const (
	maxWidthFraction  = 0.8
	maxHeightFraction = 0.9
	marginFraction    = 0.06

	minTopMargin   = 10
	minVerticalGap = 24
)

// Size is a natural width/height in pixels.
type Size struct {
	Width  int
	Height int
}

// Placement is one image's scaled size and position in frame coordinates.
type Placement struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Stack places img1 above img2, horizontally centered on a frame of the
// given size. Both images share a single scale factor so their relative
// proportions are preserved, and neither is ever enlarged beyond its
// natural size. All dimensions truncate to integers.
func Stack(frame, img1, img2 Size) (Placement, Placement) {
	maxWidth := int(float64(frame.Width) * maxWidthFraction)

	scale1 := 1.0
	if img1.Width > maxWidth {
		scale1 = float64(maxWidth) / float64(img1.Width)
	}
	scale2 := 1.0
	if img2.Width > maxWidth {
		scale2 = float64(maxWidth) / float64(img2.Width)
	}

	scale := scale1
	if scale2 < scale {
		scale = scale2
	}

	w1, h1 := scaled(img1, scale)
	w2, h2 := scaled(img2, scale)

	// The horizontal fit above can still overflow vertically when the
	// images are tall; this correction runs unconditionally.
	maxHeight := int(float64(frame.Height) * maxHeightFraction)
	if total := h1 + h2; total > maxHeight {
		scale *= float64(maxHeight) / float64(total)
		w1, h1 = scaled(img1, scale)
		w2, h2 = scaled(img2, scale)
	}

	topMargin := int(float64(frame.Height) * marginFraction)
	if topMargin < minTopMargin {
		topMargin = minTopMargin
	}
	verticalGap := int(float64(frame.Height) * marginFraction)
	if verticalGap < minVerticalGap {
		verticalGap = minVerticalGap
	}

	p1 := Placement{
		Width:  w1,
		Height: h1,
		X:      (frame.Width - w1) / 2,
		Y:      topMargin,
	}
	p2 := Placement{
		Width:  w2,
		Height: h2,
		X:      (frame.Width - w2) / 2,
		Y:      p1.Y + h1 + verticalGap,
	}

	return p1, p2
}

func scaled(s Size, scale float64) (int, int) {
	return int(float64(s.Width) * scale), int(float64(s.Height) * scale)
}
