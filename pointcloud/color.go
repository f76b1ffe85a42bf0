package pointcloud

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	rampNear = colorful.Color{R: 0.98, G: 0.85, B: 0.2}
	rampFar  = colorful.Color{R: 0.2, G: 0.25, B: 0.85}
)

// RampColor maps t in [0, 1] onto a near-to-far highlight ramp, used to tint query results by
// their rank or distance. Values outside the range are clamped.
func RampColor(t float64) color.NRGBA {
	if math.IsNaN(t) {
		t = 1
	}
	t = math.Max(0, math.Min(1, t))
	r, g, b := rampNear.BlendHcl(rampFar, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
