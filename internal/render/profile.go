// Package render draws dive profiles as PNG images.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/dsh2/subsurface/internal/dive"
)

// ErrNoSamples is returned for a dive without a profile to draw.
var ErrNoSamples = errors.New("render: dive has no samples")

// Options controls the image size and caption.
type Options struct {
	Width    int
	Height   int
	Title    string
	FontSize float64
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 960
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	return o
}

// Palette.
var (
	colorBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorGrid       = color.RGBA{R: 0xdd, G: 0xe3, B: 0xea, A: 0xff}
	colorAxis       = color.RGBA{R: 0x44, G: 0x4c, B: 0x56, A: 0xff}
	colorProfile    = color.RGBA{R: 0x1f, G: 0x6f, B: 0xb4, A: 0xff}
	colorWater      = color.RGBA{R: 0x1f, G: 0x6f, B: 0xb4, A: 0x30}
	colorManual     = color.RGBA{R: 0xd9, G: 0x5f, B: 0x02, A: 0xff}
	colorGas        = color.RGBA{R: 0x1b, G: 0x9e, B: 0x77, A: 0xff}
)

const margin = 48.0

// ProfilePNG draws d and writes the image to path.
func ProfilePNG(d *dive.Dive, path string, opts Options) error {
	dc, err := draw(d, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: write %s: %w", path, err)
	}
	return nil
}

// Profile draws d and returns the image.
func Profile(d *dive.Dive, opts Options) (image.Image, error) {
	dc, err := draw(d, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// frame maps dive coordinates to pixels.
type frame struct {
	left, top, width, height float64
	duration, depth          float64
}

func (f frame) x(sec int) float64 {
	return f.left + float64(sec)/f.duration*f.width
}

func (f frame) y(mm int) float64 {
	return f.top + float64(mm)/f.depth*f.height
}

func draw(d *dive.Dive, opts Options) (*gg.Context, error) {
	if d == nil || len(d.Samples) == 0 {
		return nil, ErrNoSamples
	}
	opts = opts.withDefaults()

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	duration, maxDepth := 0, 0
	for _, s := range d.Samples {
		duration = max(duration, s.Time)
		maxDepth = max(maxDepth, s.Depth)
	}
	// Round the axes up to whole grid steps so the profile never touches
	// the frame.
	durStep := gridStep(duration, 300, 600, 1200, 1800, 3600)
	depthStep := gridStep(maxDepth, 3000, 5000, 10000, 20000)
	f := frame{
		left:     margin,
		top:      margin,
		width:    float64(opts.Width) - 2*margin,
		height:   float64(opts.Height) - 2*margin,
		duration: float64(roundUp(max(duration, 60), durStep)),
		depth:    float64(roundUp(max(maxDepth, 3000), depthStep)),
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(colorBackground)
	dc.Clear()
	dc.SetFontFace(face)

	drawGrid(dc, f, durStep, depthStep)
	drawProfile(dc, f, d.Samples)
	drawGasSwitches(dc, f, d)

	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("Dive #%d", d.Number)
	}
	dc.SetColor(colorAxis)
	dc.DrawStringAnchored(fmt.Sprintf("%s  %s  %dmin", title, dive.Meters(maxDepth), dive.Minutes(duration)),
		float64(opts.Width)/2, margin/2, 0.5, 0.5)
	return dc, nil
}

// gridStep picks the smallest step that yields at most eight grid lines.
func gridStep(span int, steps ...int) int {
	for _, s := range steps {
		if span/s <= 8 {
			return s
		}
	}
	last := steps[len(steps)-1]
	return roundUp(span/8, last)
}

func roundUp(v, step int) int {
	if step <= 0 {
		return v
	}
	return (v + step - 1) / step * step
}

func drawGrid(dc *gg.Context, f frame, durStep, depthStep int) {
	dc.SetLineWidth(1)
	for t := 0; float64(t) <= f.duration; t += durStep {
		dc.SetColor(colorGrid)
		dc.DrawLine(f.x(t), f.top, f.x(t), f.top+f.height)
		dc.Stroke()
		dc.SetColor(colorAxis)
		dc.DrawStringAnchored(fmt.Sprintf("%d", t/60), f.x(t), f.top+f.height+14, 0.5, 0.5)
	}
	for mm := 0; float64(mm) <= f.depth; mm += depthStep {
		dc.SetColor(colorGrid)
		dc.DrawLine(f.left, f.y(mm), f.left+f.width, f.y(mm))
		dc.Stroke()
		dc.SetColor(colorAxis)
		dc.DrawStringAnchored(dive.Meters(mm), f.left-6, f.y(mm), 1, 0.5)
	}
	dc.SetColor(colorAxis)
	dc.DrawStringAnchored("min", f.left+f.width, f.top+f.height+30, 1, 0.5)
	dc.DrawRectangle(f.left, f.top, f.width, f.height)
	dc.Stroke()
}

func drawProfile(dc *gg.Context, f frame, samples []dive.Sample) {
	// Water column under the surface line.
	dc.MoveTo(f.x(samples[0].Time), f.top)
	for _, s := range samples {
		dc.LineTo(f.x(s.Time), f.y(s.Depth))
	}
	dc.LineTo(f.x(samples[len(samples)-1].Time), f.top)
	dc.ClosePath()
	dc.SetColor(colorWater)
	dc.Fill()

	dc.SetLineWidth(2)
	dc.SetColor(colorProfile)
	for i, s := range samples {
		if i == 0 {
			dc.MoveTo(f.x(s.Time), f.y(s.Depth))
			continue
		}
		dc.LineTo(f.x(s.Time), f.y(s.Depth))
	}
	dc.Stroke()

	dc.SetColor(colorManual)
	for _, s := range samples {
		if s.Manual {
			dc.DrawCircle(f.x(s.Time), f.y(s.Depth), 3.5)
			dc.Fill()
		}
	}
}

// drawGasSwitches labels the start gas and every cylinder change.
func drawGasSwitches(dc *gg.Context, f frame, d *dive.Dive) {
	dc.SetColor(colorGas)
	prev := -1
	for _, s := range d.Samples {
		if s.Cylinder == prev {
			continue
		}
		prev = s.Cylinder
		x, y := f.x(s.Time), f.y(s.Depth)
		dc.DrawLine(x, y, x, y-10)
		dc.Stroke()
		dc.DrawStringAnchored(d.GasAt(s.Cylinder).Name(), x+2, y-14, 0, 0)
	}
}
