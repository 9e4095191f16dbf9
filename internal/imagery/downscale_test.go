package imagery_test

import (
	"image"
	"math"
	"testing"

	"epubshrink/internal/imagery"
	"epubshrink/internal/testsupport"
)

func TestEffectiveScale(t *testing.T) {
	tests := []struct {
		name   string
		h, w   int
		target imagery.Resolution
		scale  int
		want   float64
	}{
		{"unconstrained", 3000, 2000, imagery.Resolution{}, 0, 1},
		{"percent only", 3000, 2000, imagery.Resolution{}, 50, 0.5},
		{"height binds", 3000, 2000, imagery.Resolution{Height: 1500, Width: 2000}, 0, 0.5},
		{"width binds", 3000, 2000, imagery.Resolution{Height: 3000, Width: 500}, 0, 0.25},
		{"percent binds over resolution", 3000, 2000, imagery.Resolution{Height: 2400, Width: 1600}, 10, 0.1},
		{"larger target", 100, 100, imagery.Resolution{Height: 100000, Width: 100000}, 100, 1},
		{"single axis", 400, 200, imagery.Resolution{Height: 100}, 0, 0.25},
		{"degenerate image", 0, 0, imagery.Resolution{Height: 10, Width: 10}, 50, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := imagery.EffectiveScale(tc.h, tc.w, tc.target, tc.scale)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("EffectiveScale = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDownscaleNeverUpscales(t *testing.T) {
	src := testsupport.Gradient(40, 30)
	cases := []struct {
		target imagery.Resolution
		scale  int
	}{
		{imagery.Resolution{}, 0},
		{imagery.Resolution{}, 100},
		{imagery.Resolution{Height: 30, Width: 40}, 0},
		{imagery.Resolution{Height: 100000, Width: 100000}, 100},
		{imagery.Resolution{Height: 60, Width: 80}, 0},
	}
	for _, tc := range cases {
		out := imagery.Downscale(src, tc.target, tc.scale)
		got, ok := out.(*image.NRGBA)
		if !ok || got != src {
			t.Fatalf("target %+v scale %d: expected the input image back unchanged", tc.target, tc.scale)
		}
	}
}

func TestDownscalePreservesAspectRatio(t *testing.T) {
	tests := []struct {
		w, h   int
		target imagery.Resolution
		scale  int
	}{
		{300, 200, imagery.Resolution{}, 50},
		{333, 121, imagery.Resolution{}, 37},
		{1000, 750, imagery.Resolution{Height: 100, Width: 1000}, 0},
		{750, 1334, imagery.Resolution{Height: 700, Width: 700}, 90},
		{97, 13, imagery.Resolution{}, 20},
	}
	for _, tc := range tests {
		src := testsupport.Gradient(tc.w, tc.h)
		out := imagery.Downscale(src, tc.target, tc.scale)
		size := out.Bounds().Size()
		if size.X >= tc.w || size.Y >= tc.h {
			t.Fatalf("%dx%d: expected shrink, got %dx%d", tc.w, tc.h, size.X, size.Y)
		}
		// Both axes use one ratio, so each lands within a pixel of the exact value.
		scale := imagery.EffectiveScale(tc.h, tc.w, tc.target, tc.scale)
		if math.Abs(float64(size.X)-float64(tc.w)*scale) >= 1 || math.Abs(float64(size.Y)-float64(tc.h)*scale) >= 1 {
			t.Fatalf("%dx%d -> %dx%d is not a uniform %.4f scale", tc.w, tc.h, size.X, size.Y, scale)
		}
	}
}

func TestDownscaleFloorsDimensions(t *testing.T) {
	out := imagery.Downscale(testsupport.Gradient(2000, 3000), imagery.Resolution{}, 50)
	if size := out.Bounds().Size(); size != image.Pt(1000, 1500) {
		t.Fatalf("expected 1000x1500, got %v", size)
	}
	out = imagery.Downscale(testsupport.Gradient(101, 51), imagery.Resolution{}, 50)
	if size := out.Bounds().Size(); size != image.Pt(50, 25) {
		t.Fatalf("expected floor to 50x25, got %v", size)
	}
	out = imagery.Downscale(testsupport.Gradient(10, 1), imagery.Resolution{}, 1)
	if size := out.Bounds().Size(); size.X < 1 || size.Y < 1 {
		t.Fatalf("expected at least one pixel per axis, got %v", size)
	}
}
