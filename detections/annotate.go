package detections

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
)

const boxOutlineWidth = 3

var severityColors = map[models.Severity]color.NRGBA{
	models.SeverityHigh:   {R: 220, G: 53, B: 69, A: 255},
	models.SeverityMedium: {R: 255, G: 193, B: 7, A: 255},
	models.SeverityLow:    {R: 40, G: 167, B: 69, A: 255},
}

// Annotate returns a copy of the image with each detection outlined in its
// severity color and labeled with class and confidence. The input image is
// never modified.
func Annotate(img image.Image, result *models.DetectionResult) *image.NRGBA {
	out := imaging.Clone(img)

	for _, rec := range result.Records {
		col, ok := severityColors[rec.Severity]
		if !ok {
			col = severityColors[models.SeverityLow]
		}

		rect := image.Rect(int(rec.Box.X1), int(rec.Box.Y1), int(rec.Box.X2), int(rec.Box.Y2))
		drawOutline(out, rect, col)

		label := fmt.Sprintf("%s %.0f%%", rec.Class, rec.Confidence*100)
		drawLabel(out, rect.Min.X+boxOutlineWidth, rect.Min.Y, label, col)
	}

	return out
}

// drawOutline strokes the rectangle border without filling it.
func drawOutline(dst *image.NRGBA, rect image.Rectangle, col color.NRGBA) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	for t := 0; t < boxOutlineWidth; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setPixel(dst, x, rect.Min.Y+t, col)
			setPixel(dst, x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setPixel(dst, rect.Min.X+t, y, col)
			setPixel(dst, rect.Max.X-1-t, y, col)
		}
	}
}

func setPixel(dst *image.NRGBA, x, y int, col color.NRGBA) {
	if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
		dst.SetNRGBA(x, y, col)
	}
}

// drawLabel renders text just above the box, or inside it when the box
// touches the top edge.
func drawLabel(dst *image.NRGBA, x, y int, text string, col color.NRGBA) {
	face := basicfont.Face7x13
	baseline := y - 4
	if baseline-face.Ascent < dst.Bounds().Min.Y {
		baseline = y + face.Height + boxOutlineWidth
	}

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(text)
}
