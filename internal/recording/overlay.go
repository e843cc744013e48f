package recording

import (
	"image"
	"image/color"
	"image/draw"
)

var failureColor = color.RGBA{220, 20, 20, 255}

// outlineWidth is the failure border thickness in source pixels
const outlineWidth = 6

// markFailed returns a copy of frame with a red border and a cross in the
// top-right corner.
func markFailed(frame image.Image) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	minX, minY := bounds.Min.X, bounds.Min.Y
	maxX, maxY := bounds.Max.X-1, bounds.Max.Y-1
	for i := 0; i < outlineWidth; i++ {
		drawLine(result, minX, minY+i, maxX, minY+i, failureColor)
		drawLine(result, minX, maxY-i, maxX, maxY-i, failureColor)
		drawLine(result, minX+i, minY, minX+i, maxY, failureColor)
		drawLine(result, maxX-i, minY, maxX-i, maxY, failureColor)
	}

	// Cross badge
	const size = 24
	x0, y0 := maxX-outlineWidth-size-4, minY+outlineWidth+4
	for t := -1; t <= 1; t++ {
		drawLine(result, x0+t, y0, x0+size+t, y0+size, failureColor)
		drawLine(result, x0+size+t, y0, x0+t, y0+size, failureColor)
	}
	return result
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
