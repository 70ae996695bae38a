// Package imaging holds the pure image transforms for the silhouette quiz.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// Sprite sources occasionally serve JPEG or GIF.
	_ "image/gif"
	_ "image/jpeg"
)

// Decode parses sprite bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Silhouette maps every opaque pixel to white and everything else to black,
// hiding the subject while keeping its outline.
func Silhouette(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			v := uint8(0)
			if a != 0 {
				v = 255
			}
			out.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// Flatten replaces transparency with a black background, keeping the
// subject's own colors.
func Flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				out.Set(x, y, color.RGBA{A: 255})
				continue
			}
			out.Set(x, y, color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: 255,
			})
		}
	}
	return out
}

// Encode serializes an image as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
