package recording

import (
	"cmp"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"slices"

	"github.com/nfnt/resize"
)

// Options configures GIF encoding
type Options struct {
	FPS      int  // frames per second of playback; step recordings are slow
	MaxWidth uint // output width, height keeps the aspect ratio
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = 1
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = 800
	}
	return o
}

// encode writes frames as a looping GIF to path and returns the file size.
func encode(frames []image.Image, path string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, nil
	}
	opts = opts.withDefaults()

	// Delay is in 100ths of a second
	delay := 100 / opts.FPS

	bounds := frames[0].Bounds()
	width := opts.MaxWidth
	if uint(bounds.Dx()) < width {
		width = uint(bounds.Dx())
	}
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	palette := buildPalette(frames)
	for i, frame := range frames {
		resized := resize.Resize(width, height, frame, resize.Lanczos3)
		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	// Linger on the last frame
	g.Delay[len(g.Delay)-1] = delay * 3

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// buildPalette picks the most frequent colors across all frames. The failure
// outline color is always present.
func buildPalette(frames []image.Image) color.Palette {
	counts := make(map[color.RGBA]int)
	const step = 4
	for _, img := range frames {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y += step {
			for x := b.Min.X; x < b.Max.X; x += step {
				r, g, bl, a := img.At(x, y).RGBA()
				counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}]++
			}
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	ranked := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		ranked = append(ranked, colorCount{c, n})
	}
	slices.SortFunc(ranked, func(a, b colorCount) int {
		if n := cmp.Compare(b.count, a.count); n != 0 {
			return n
		}
		return cmp.Compare(packRGBA(a.c), packRGBA(b.c))
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, failureColor)
	for _, cc := range ranked {
		if len(palette) == 256 {
			break
		}
		if cc.c == failureColor {
			continue
		}
		palette = append(palette, cc.c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}

func packRGBA(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
