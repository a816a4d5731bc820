// Package textures decodes material maps into RGBA8 images and manages
// their GPU uploads.
package textures

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is CPU-side pixel data in tightly packed RGBA8, top row first.
type Image struct {
	Name   string
	Width  int
	Height int
	Pixels []byte
}

// LoadImage reads and decodes a PNG, JPEG, BMP, TIFF or WebP file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()
	return DecodeImage(path, f)
}

func DecodeImage(name string, r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", name, err)
	}
	return FromImage(name, img), nil
}

// FromImage converts any image.Image to RGBA8.
func FromImage(name string, img image.Image) *Image {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
	}
}

// RGBA returns the image as an *image.RGBA sharing the pixel slice.
func (img *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pixels,
		Stride: 4 * img.Width,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// At returns the texel at (x, y), with (0, 0) the top-left corner.
func (img *Image) At(x, y int) color.RGBA {
	i := (y*img.Width + x) * 4
	p := img.Pixels[i : i+4 : i+4]
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func (img *Image) Set(x, y int, c color.RGBA) {
	i := (y*img.Width + x) * 4
	img.Pixels[i] = c.R
	img.Pixels[i+1] = c.G
	img.Pixels[i+2] = c.B
	img.Pixels[i+3] = c.A
}

// Resize returns a copy scaled with Catmull-Rom filtering.
func (img *Image) Resize(width, height int) *Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.RGBA(), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)
	return &Image{Name: img.Name, Width: width, Height: height, Pixels: dst.Pix}
}

// NewSolidImage creates a 1x1 image of the given color.
func NewSolidImage(name string, c color.RGBA) *Image {
	return &Image{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{c.R, c.G, c.B, c.A},
	}
}

// NewCheckerImage creates a size x size checkerboard of 8x8 cells.
func NewCheckerImage(name string, size int, c1, c2 color.RGBA) *Image {
	img := &Image{Name: name, Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	block := size / 8
	if block < 1 {
		block = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ((x/block)+(y/block))%2 == 0 {
				img.Set(x, y, c1)
			} else {
				img.Set(x, y, c2)
			}
		}
	}
	return img
}

// NewAlphaMask builds a dissolve map from the alpha channel of src: texels
// with alpha below cutoff become black, the rest white.
func NewAlphaMask(name string, src *Image, cutoff float32) *Image {
	mask := &Image{Name: name, Width: src.Width, Height: src.Height, Pixels: make([]byte, len(src.Pixels))}
	limit := cutoff * 255
	for i := 0; i+3 < len(src.Pixels); i += 4 {
		v := byte(0)
		if float32(src.Pixels[i+3]) >= limit {
			v = 255
		}
		mask.Pixels[i], mask.Pixels[i+1], mask.Pixels[i+2], mask.Pixels[i+3] = v, v, v, 255
	}
	return mask
}
