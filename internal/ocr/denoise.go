package ocr

import (
	"image"
	"math"
)

// denoise applies non-local means filtering. h controls smoothing
// strength; patch and search are window diameters. Each output pixel is
// a weighted average of pixels in its search window, weighted by the
// similarity of their surrounding patches.
//
// One summed-area table of squared differences per search offset keeps
// the patch comparison O(1) per pixel.
func denoise(src *image.Gray, h float64, patch, search int) *image.Gray {
	b := src.Bounds()
	w, ht := b.Dx(), b.Dy()
	if w == 0 || ht == 0 || h <= 0 {
		return src
	}

	pr, sr := patch/2, search/2
	pad := pr + sr
	pw, ph := w+2*pad, ht+2*pad

	padded := replicatePad(src, pad)

	sums := make([]float64, w*ht)
	weights := make([]float64, w*ht)
	diff := make([]float64, pw*ph)
	integ := make([]float64, (pw+1)*(ph+1))

	area := float64((2*pr + 1) * (2*pr + 1))
	invH2 := 1.0 / (h * h)

	for dy := -sr; dy <= sr; dy++ {
		for dx := -sr; dx <= sr; dx++ {
			// Squared difference against the copy shifted by (dx, dy),
			// clamped at the borders.
			for y := 0; y < ph; y++ {
				sy := clampInt(y+dy, 0, ph-1)
				for x := 0; x < pw; x++ {
					sx := clampInt(x+dx, 0, pw-1)
					d := float64(padded[y*pw+x]) - float64(padded[sy*pw+sx])
					diff[y*pw+x] = d * d
				}
			}

			for y := 0; y < ph; y++ {
				rowSum := 0.0
				for x := 0; x < pw; x++ {
					rowSum += diff[y*pw+x]
					integ[(y+1)*(pw+1)+x+1] = integ[y*(pw+1)+x+1] + rowSum
				}
			}

			for y := 0; y < ht; y++ {
				py := y + pad
				for x := 0; x < w; x++ {
					px := x + pad
					x0, y0 := px-pr, py-pr
					x1, y1 := px+pr+1, py+pr+1
					dist := integ[y1*(pw+1)+x1] - integ[y0*(pw+1)+x1] - integ[y1*(pw+1)+x0] + integ[y0*(pw+1)+x0]
					wgt := math.Exp(-dist / area * invH2)
					i := y*w + x
					sums[i] += wgt * float64(padded[(py+dy)*pw+px+dx])
					weights[i] += wgt
				}
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, ht))
	for i := range sums {
		out.Pix[i] = uint8(sums[i]/weights[i] + 0.5)
	}
	return out
}

// replicatePad copies src into a flat buffer with pad rows and columns of
// edge replication on every side.
func replicatePad(src *image.Gray, pad int) []uint8 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pw, ph := w+2*pad, h+2*pad

	out := make([]uint8, pw*ph)
	for y := 0; y < ph; y++ {
		sy := clampInt(y-pad, 0, h-1)
		for x := 0; x < pw; x++ {
			sx := clampInt(x-pad, 0, w-1)
			out[y*pw+x] = src.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
