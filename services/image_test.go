package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1600, 1200, 800, 800, 600},
		{1200, 1600, 800, 600, 800},
		{800, 800, 800, 800, 800},
		{640, 480, 800, 640, 480},
		{4000, 10, 800, 800, 2},
		{10, 4000, 800, 2, 800},
		{3000, 1, 800, 800, 1},
	}
	for _, tt := range tests {
		w, h := ScaledSize(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("ScaledSize(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}

func pngBytes(t *testing.T, w, h int, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
			if transparent {
				c.A = 0
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCompressImage_DownscalesToJPEG(t *testing.T) {
	out, err := CompressImage(bytes.NewReader(pngBytes(t, 1000, 500, false)), 800, 75)
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" || cfg.Width != 800 || cfg.Height != 400 {
		t.Errorf("got %s %dx%d, want jpeg 800x400", format, cfg.Width, cfg.Height)
	}
}

func TestCompressImage_TransparentBecomesWhite(t *testing.T) {
	out, err := CompressImage(bytes.NewReader(pngBytes(t, 20, 20, true)), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("pixel = %d,%d,%d, want near white", r>>8, g>>8, b>>8)
	}
}

func TestCompressImage_RejectsNonImage(t *testing.T) {
	if _, err := CompressImage(strings.NewReader("not an image"), 800, 75); err == nil {
		t.Error("expected decode error")
	}
}
