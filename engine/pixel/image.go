package pixel

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Image is a row-major buffer of premultiplied RGBA pixels
type Image struct {
	Width  int
	Height int
	Pix    []color.RGBA
}

// New allocates a transparent image of the given size
func New(w, h int) *Image {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Image{Width: w, Height: h, Pix: make([]color.RGBA, w*h)}
}

// Size returns the image dimensions
func (img *Image) Size() (int, int) {
	return img.Width, img.Height
}

// Pixels returns the live pixel region
func (img *Image) Pixels() []color.RGBA {
	return img.Pix[:img.Width*img.Height]
}

// Writable always succeeds; plain images have no lifecycle
func (img *Image) Writable() error {
	return nil
}

// Bounds returns the image extent as a rectangle at the origin
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// At returns the pixel at (x, y), or transparent when out of range
func (img *Image) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return color.RGBA{}
	}
	return img.Pix[y*img.Width+x]
}

// Set writes a pixel; out-of-range writes are ignored
func (img *Image) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return
	}
	img.Pix[y*img.Width+x] = c
}

// Fill paints a rectangle with a solid color, clipped to the image
func (img *Image) Fill(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[y*img.Width : (y+1)*img.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = c
		}
	}
}

// Clone returns a deep copy
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]color.RGBA, img.Width*img.Height)}
	copy(out.Pix, img.Pixels())
	return out
}

// Equal reports whether two images have the same size and pixels
func (img *Image) Equal(other *Image) bool {
	if img == nil || other == nil {
		return img == other
	}
	if img.Width != other.Width || img.Height != other.Height {
		return false
	}
	a, b := img.Pixels(), other.Pixels()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SubImage copies a rectangle out of the image
func (img *Image) SubImage(r image.Rectangle) *Image {
	r = r.Intersect(img.Bounds())
	out := New(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := img.Pix[(r.Min.Y+y)*img.Width+r.Min.X : (r.Min.Y+y)*img.Width+r.Max.X]
		copy(out.Pix[y*out.Width:(y+1)*out.Width], src)
	}
	return out
}

// FromImage converts any image.Image into an Image anchored at the origin
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Copy(rgba, image.Point{}, src, b, xdraw.Src, nil)
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	out := New(w, h)
	for y := 0; y < h; y++ {
		line := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = color.RGBA{line[x*4], line[x*4+1], line[x*4+2], line[x*4+3]}
		}
	}
	return out
}

// ToRGBA converts the image into a standard library RGBA image
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for i, c := range img.Pixels() {
		out.Pix[i*4] = c.R
		out.Pix[i*4+1] = c.G
		out.Pix[i*4+2] = c.B
		out.Pix[i*4+3] = c.A
	}
	return out
}

// Scale resizes with nearest-neighbour sampling (crisp for pixel art)
func Scale(src *Image, w, h int) *Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src.ToRGBA(), src.Bounds(), xdraw.Src, nil)
	return FromImage(dst)
}

// Decode reads a PNG, BMP or WebP stream
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// Load decodes an image file
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes the image as PNG, creating parent directories
func Save(path string, img *Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img.ToRGBA()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
