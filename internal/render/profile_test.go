package render

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsh2/subsurface/internal/dive"
)

func squareDive() *dive.Dive {
	return &dive.Dive{
		Number:    4,
		Cylinders: []dive.Cylinder{dive.DefaultCylinder(dive.Air), dive.DefaultCylinder(dive.GasMix{O2: 500})},
		Samples: []dive.Sample{
			{Time: 0, Depth: 0},
			{Time: 120, Depth: 30000, Manual: true},
			{Time: 1620, Depth: 30000, Manual: true},
			{Time: 1800, Depth: 21000, Cylinder: 1},
			{Time: 2400, Depth: 6000, Cylinder: 1},
			{Time: 2700, Depth: 0, Cylinder: 1},
		},
	}
}

func TestProfilePNG(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.png")
	if err := ProfilePNG(squareDive(), path, Options{Width: 640, Height: 320, Title: "square"}); err != nil {
		t.Fatalf("ProfilePNG(%q): %v", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 320 {
		t.Errorf("image size = %dx%d, want 640x320", b.Dx(), b.Dy())
	}
}

func TestProfileDrawsBelowSurface(t *testing.T) {
	t.Parallel()
	img, err := Profile(squareDive(), Options{})
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 960 || b.Dy() != 480 {
		t.Errorf("default size = %dx%d, want 960x480", b.Dx(), b.Dy())
	}

	// Halfway through the bottom phase the water fill is not plain white.
	f := frame{left: margin, top: margin, width: 960 - 2*margin, height: 480 - 2*margin, duration: 3000, depth: 30000}
	x, y := int(f.x(900)), int(f.y(15000))
	r, g, b, _ := img.At(x, y).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Errorf("pixel (%d,%d) inside the profile is background", x, y)
	}
}

func TestProfileNoSamples(t *testing.T) {
	t.Parallel()
	for _, d := range []*dive.Dive{nil, {}} {
		if _, err := Profile(d, Options{}); !errors.Is(err, ErrNoSamples) {
			t.Errorf("Profile(%v) error = %v, want ErrNoSamples", d, err)
		}
	}
}

func TestGridStep(t *testing.T) {
	t.Parallel()
	tests := []struct {
		span  int
		steps []int
		want  int
	}{
		{2400, []int{300, 600}, 300},
		{6000, []int{300, 600, 1200}, 1200},
		{0, []int{3000, 5000}, 3000},
		{400000, []int{3000, 5000, 10000, 20000}, 60000},
	}
	for _, tt := range tests {
		if got := gridStep(tt.span, tt.steps...); got != tt.want {
			t.Errorf("gridStep(%d, %v) = %d, want %d", tt.span, tt.steps, got, tt.want)
		}
	}
}
