package layout

import "testing"

func TestStackSharedScaleScenario(t *testing.T) {
	// 1920x1080 frame: max width 1536, max height 972. image1 needs
	// scale 0.64, image2 none; the shared scale is 0.64, then the
	// vertical fit shrinks the pair to exactly 972 total.
	frame := Size{Width: 1920, Height: 1080}
	p1, p2 := Stack(frame, Size{Width: 2400, Height: 1200}, Size{Width: 800, Height: 400})

	if p1.Width != 1458 || p1.Height != 729 {
		t.Errorf("image1 scaled to %dx%d, want 1458x729", p1.Width, p1.Height)
	}
	if p2.Width != 486 || p2.Height != 243 {
		t.Errorf("image2 scaled to %dx%d, want 486x243", p2.Width, p2.Height)
	}

	if p1.X != 231 || p1.Y != 64 {
		t.Errorf("image1 at (%d,%d), want (231,64)", p1.X, p1.Y)
	}
	if p2.X != 717 || p2.Y != 857 {
		t.Errorf("image2 at (%d,%d), want (717,857)", p2.X, p2.Y)
	}
}

func TestStackNoUpscale(t *testing.T) {
	// Both images already fit: they keep their natural sizes.
	frame := Size{Width: 1920, Height: 1080}
	p1, p2 := Stack(frame, Size{Width: 400, Height: 300}, Size{Width: 500, Height: 200})

	if p1.Width != 400 || p1.Height != 300 {
		t.Errorf("image1 resized to %dx%d, want natural 400x300", p1.Width, p1.Height)
	}
	if p2.Width != 500 || p2.Height != 200 {
		t.Errorf("image2 resized to %dx%d, want natural 500x200", p2.Width, p2.Height)
	}

	if p1.X != 760 || p1.Y != 64 {
		t.Errorf("image1 at (%d,%d), want (760,64)", p1.X, p1.Y)
	}
	if p2.X != 710 || p2.Y != 428 {
		t.Errorf("image2 at (%d,%d), want (710,428)", p2.X, p2.Y)
	}
}

func TestStackVerticalCorrectionWithoutHorizontalScaling(t *testing.T) {
	// Narrow but very tall images: horizontal scale stays 1.0, yet the
	// vertical correction must still run.
	frame := Size{Width: 1920, Height: 1080}
	p1, p2 := Stack(frame, Size{Width: 100, Height: 900}, Size{Width: 100, Height: 900})

	maxHeight := int(float64(frame.Height) * 0.9)
	if total := p1.Height + p2.Height; total > maxHeight {
		t.Errorf("stacked height %d exceeds %d", total, maxHeight)
	}
	if p1.Height >= 900 {
		t.Errorf("image1 height %d not reduced", p1.Height)
	}
}

func TestStackMinimumMargins(t *testing.T) {
	// On a tiny frame the pixel floors beat the percentage margins.
	frame := Size{Width: 120, Height: 100}
	p1, p2 := Stack(frame, Size{Width: 10, Height: 10}, Size{Width: 10, Height: 10})

	if p1.Y != 10 {
		t.Errorf("top margin %d, want floor of 10", p1.Y)
	}
	if gap := p2.Y - (p1.Y + p1.Height); gap != 24 {
		t.Errorf("vertical gap %d, want floor of 24", gap)
	}
}

func TestStackInvariants(t *testing.T) {
	frames := []Size{
		{640, 480}, {1280, 720}, {1920, 1080}, {1080, 1920}, {100, 100},
	}
	images := []Size{
		{1, 1}, {50, 50}, {640, 480}, {2400, 1200}, {800, 4000},
		{4000, 300}, {3000, 3000}, {120, 2000},
	}

	for _, frame := range frames {
		maxWidth := int(float64(frame.Width) * 0.8)
		maxHeight := int(float64(frame.Height) * 0.9)

		for _, img1 := range images {
			for _, img2 := range images {
				p1, p2 := Stack(frame, img1, img2)

				if p1.Width > maxWidth || p2.Width > maxWidth {
					t.Fatalf("frame %v img1 %v img2 %v: widths %d/%d exceed %d",
						frame, img1, img2, p1.Width, p2.Width, maxWidth)
				}

				// Truncating and recomputing from natural sizes can land
				// a couple of pixels over; anything more is a real bug.
				if total := p1.Height + p2.Height; total > maxHeight+2 {
					t.Fatalf("frame %v img1 %v img2 %v: stacked height %d exceeds %d",
						frame, img1, img2, total, maxHeight)
				}

				if p1.Width > img1.Width || p1.Height > img1.Height {
					t.Fatalf("image1 upscaled: %v -> %dx%d", img1, p1.Width, p1.Height)
				}
				if p2.Width > img2.Width || p2.Height > img2.Height {
					t.Fatalf("image2 upscaled: %v -> %dx%d", img2, p2.Width, p2.Height)
				}

				if p2.Y <= p1.Y {
					t.Fatalf("image2 not below image1: y1=%d y2=%d", p1.Y, p2.Y)
				}

				// Deterministic: same inputs, same placements.
				q1, q2 := Stack(frame, img1, img2)
				if q1 != p1 || q2 != p2 {
					t.Fatalf("layout not deterministic for frame %v", frame)
				}
			}
		}
	}
}
