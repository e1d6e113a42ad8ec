// Package imageio loads and resizes dataset images. JPEG, PNG, GIF, TIFF,
// BMP and WebP are supported.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers webp with image.Decode
)

// Load reads an image from disk. imaging handles the common formats; raw
// webp that the registered decoder rejects goes through the chai2010
// fallback.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err == nil {
		return img, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}
	if gimg, _, gerr := image.Decode(bytes.NewReader(data)); gerr == nil {
		return gimg, nil
	}
	return nil, fmt.Errorf("decode image %s: %w", path, err)
}

// Dimensions returns the pixel size of an image file without keeping the
// decoded image around.
func Dimensions(path string) (int, int, error) {
	img, err := Load(path)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Thumbnail scales the image down to fit within w x h, preserving aspect
// ratio. Images already smaller are returned untouched.
func Thumbnail(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// ToRGBA converts any image to *image.RGBA without copying when possible.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
