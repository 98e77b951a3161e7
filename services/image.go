package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultImageMaxEdge = 800
	DefaultImageQuality = 75
)

// ScaledSize keeps the aspect ratio and caps the longer edge at maxEdge.
// Images already inside the bound keep their size.
func ScaledSize(width, height, maxEdge int) (int, int) {
	w, h := float64(width), float64(height)
	m := float64(maxEdge)
	if w > h && w > m {
		h = h * m / w
		w = m
	} else if h > m {
		w = w * m / h
		h = m
	}
	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}

// CompressImage decodes jpeg, png, gif or webp, downscales it and re-encodes as JPEG.
func CompressImage(r io.Reader, maxEdge, quality int) ([]byte, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultImageMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultImageQuality
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), maxEdge)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha channel; transparent areas become white instead of black.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
