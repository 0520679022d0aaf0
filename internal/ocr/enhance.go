package ocr

import (
	"image"
	"math"
)

// clahe applies contrast-limited adaptive histogram equalization over a
// tilesX by tilesY grid. Each tile gets its own clipped equalization
// curve; pixels blend the curves of the four nearest tiles so tile edges
// stay invisible.
func clahe(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	tilesX = max(tilesX, 1)
	tilesY = max(tilesY, 1)

	tw := (w + tilesX - 1) / tilesX
	th := (h + tilesY - 1) / tilesY

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tw, ty*th
			x1, y1 := min(x0+tw, w), min(y0+th, h)

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
				}
			}

			area := (x1 - x0) * (y1 - y0)
			clip := int(clipLimit * float64(area) / 256)
			if clip < 1 {
				clip = 1
			}
			excess := 0
			for i := range hist {
				if hist[i] > clip {
					excess += hist[i] - clip
					hist[i] = clip
				}
			}
			// Hand the clipped mass back evenly across all bins.
			bonus, rem := excess/256, excess%256
			for i := range hist {
				hist[i] += bonus
				if i < rem {
					hist[i]++
				}
			}

			cdf := 0
			scale := 255.0 / float64(area)
			for i := range hist {
				cdf += hist[i]
				luts[ty*tilesX+tx][i] = uint8(min(math.Round(float64(cdf)*scale), 255))
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(th) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		if ty0 < 0 {
			ty0, wy = 0, 0
		}
		ty1 := min(ty0+1, tilesY-1)
		ty0 = min(ty0, tilesY-1)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tw) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			if tx0 < 0 {
				tx0, wx = 0, 0
			}
			tx1 := min(tx0+1, tilesX-1)
			tx0 = min(tx0, tilesX-1)

			p := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][p]) + wx*float64(luts[ty0*tilesX+tx1][p])
			bottom := (1-wx)*float64(luts[ty1*tilesX+tx0][p]) + wx*float64(luts[ty1*tilesX+tx1][p])
			out.Pix[y*out.Stride+x] = uint8((1-wy)*top + wy*bottom + 0.5)
		}
	}
	return out
}

// otsuBinarize thresholds at the level that maximizes between-class
// variance, mapping pixels above it to white.
func otsuBinarize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
		}
	}

	total := w * h
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB float64
	wB := 0
	threshold, bestVar := 0, -1.0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		v := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if v > bestVar {
			bestVar = v
			threshold = t
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if src.GrayAt(b.Min.X+x, b.Min.Y+y).Y > uint8(threshold) {
				v = 255
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

// closeSquare runs dilation then erosion with a k by k square element,
// filling pinholes in glyph strokes. k of 1 leaves the image unchanged.
func closeSquare(src *image.Gray, k int) *image.Gray {
	if k <= 1 {
		return src
	}
	return morph(morph(src, k, true), k, false)
}

func morph(src *image.Gray, k int, dilate bool) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	r := k / 2

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var best uint8
			if !dilate {
				best = 255
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sy := clampInt(y+dy, 0, h-1)
					v := src.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y
					if dilate && v > best {
						best = v
					}
					if !dilate && v < best {
						best = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = best
		}
	}
	return out
}
