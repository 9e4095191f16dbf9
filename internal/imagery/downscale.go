package imagery

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Resolution is a maximum (Height, Width) box. A zero field places no
// constraint on that axis.
type Resolution struct {
	Height int
	Width  int
}

// IsZero reports whether no dimension is constrained.
func (r Resolution) IsZero() bool {
	return r.Height <= 0 && r.Width <= 0
}

// EffectiveScale returns min(targetH/h, targetW/w, scalePercent/100). Missing
// targets default to the image's own dimensions and a non-positive
// scalePercent defaults to 100, so the result is 1 when nothing constrains it.
func EffectiveScale(height, width int, target Resolution, scalePercent int) float64 {
	if height <= 0 || width <= 0 {
		return 1
	}
	th, tw := target.Height, target.Width
	if th <= 0 {
		th = height
	}
	if tw <= 0 {
		tw = width
	}
	if scalePercent <= 0 {
		scalePercent = 100
	}
	return math.Min(
		math.Min(float64(th)/float64(height), float64(tw)/float64(width)),
		float64(scalePercent)/100,
	)
}

// ScaledSize applies scale to both axes, flooring each and keeping at least one
// pixel. The epsilon keeps exact ratios such as 100/750*750 from flooring to 99.
func ScaledSize(height, width int, scale float64) (int, int) {
	const epsilon = 1e-9
	h := int(math.Floor(float64(height)*scale + epsilon))
	w := int(math.Floor(float64(width)*scale + epsilon))
	return max(h, 1), max(w, 1)
}

// Downscale shrinks img uniformly so it fits target and scalePercent. When the
// effective scale is 1 or more the input is returned unchanged; images are
// never enlarged. Shrinking uses a box (area-averaging) filter.
func Downscale(img image.Image, target Resolution, scalePercent int) image.Image {
	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()
	scale := EffectiveScale(height, width, target, scalePercent)
	if scale >= 1 {
		return img
	}
	newHeight, newWidth := ScaledSize(height, width, scale)
	return imaging.Resize(img, newWidth, newHeight, imaging.Box)
}
