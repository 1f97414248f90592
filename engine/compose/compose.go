// Package compose copies sprite pixels between images and scratch buffers
// and grows atlases to fit what was written.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

var (
	// ErrOutOfRange means a rectangle reaches outside its image
	ErrOutOfRange = errors.New("rectangle out of range")
	// ErrShapeMismatch means source and destination rectangles differ in size
	ErrShapeMismatch = errors.New("source and destination must be the same size and shape")
	// ErrInvalidShrink means a shrink asked for more than the buffer holds
	ErrInvalidShrink = errors.New("shrink larger than buffer")
)

// Surface is anything exposing a row-major pixel slice
type Surface interface {
	Size() (w, h int)
	Pixels() []color.RGBA
}

// Target is a Surface that may refuse writes
type Target interface {
	Surface
	Writable() error
}

// Shrinker can truncate its logical size
type Shrinker interface {
	Size() (w, h int)
	Truncate(w, h int) error
}

// Committer is a shrunk buffer that records its final copy
type Committer interface {
	Surface
	Committable() error
	MarkCommitted()
}

// Patch copies srcArea of src into dstArea of dst. A nil srcArea means the
// whole source image.
func Patch(dst Target, src Surface, srcArea *image.Rectangle, dstArea image.Rectangle) error {
	if img, ok := src.(*pixel.Image); src == nil || (ok && img == nil) {
		return fmt.Errorf("patch: nil source: %w", ErrOutOfRange)
	}
	if err := dst.Writable(); err != nil {
		return err
	}
	sw, sh := src.Size()
	area := image.Rect(0, 0, sw, sh)
	if srcArea != nil {
		area = *srcArea
	}
	return copyRect(dst, src, area, dstArea)
}

func copyRect(dst, src Surface, srcArea, dstArea image.Rectangle) error {
	sw, sh := src.Size()
	dw, dh := dst.Size()

	if srcArea.Min.X < 0 || srcArea.Min.Y < 0 || srcArea.Max.X > sw || srcArea.Max.Y > sh {
		return fmt.Errorf("source %v in %dx%d: %w", srcArea, sw, sh, ErrOutOfRange)
	}
	if dstArea.Min.X < 0 || dstArea.Min.Y < 0 || dstArea.Max.X > dw || dstArea.Max.Y > dh {
		return fmt.Errorf("target %v in %dx%d: %w", dstArea, dw, dh, ErrOutOfRange)
	}
	if srcArea.Dx() != dstArea.Dx() || srcArea.Dy() != dstArea.Dy() {
		return fmt.Errorf("%v -> %v: %w", srcArea, dstArea, ErrShapeMismatch)
	}

	from, to := src.Pixels(), dst.Pixels()
	w, h := srcArea.Dx(), srcArea.Dy()

	// Full-width rows from column 0 are one contiguous run (fruit trees, boots)
	if w == sw && w == dw && srcArea.Min.X == 0 && dstArea.Min.X == 0 {
		s := srcArea.Min.Y * sw
		d := dstArea.Min.Y * dw
		copy(to[d:d+w*h], from[s:s+w*h])
		return nil
	}

	for y := 0; y < h; y++ {
		s := (srcArea.Min.Y+y)*sw + srcArea.Min.X
		d := (dstArea.Min.Y+y)*dw + dstArea.Min.X
		copy(to[d:d+w], from[s:s+w])
	}
	return nil
}

// Extend grows img to at least w x h, keeping existing pixels in place.
// It reports whether the image was resized.
func Extend(img *pixel.Image, w, h int) bool {
	nw, nh := max(img.Width, w), max(img.Height, h)
	if nw == img.Width && nh == img.Height {
		return false
	}
	grown := pixel.New(nw, nh)
	for y := 0; y < img.Height; y++ {
		copy(grown.Pix[y*nw:y*nw+img.Width], img.Pix[y*img.Width:(y+1)*img.Width])
	}
	*img = *grown
	return true
}

// Shrink truncates a buffer to w x h
func Shrink(buf Shrinker, w, h int) error {
	cw, ch := buf.Size()
	if w < 0 || h < 0 || w > cw || h > ch {
		return fmt.Errorf("shrink %dx%d to %dx%d: %w", cw, ch, w, h, ErrInvalidShrink)
	}
	return buf.Truncate(w, h)
}

// Commit writes the shrunk buffer's srcArea into dstArea of the real atlas
func Commit(dst Target, buf Committer, srcArea, dstArea image.Rectangle) error {
	if err := dst.Writable(); err != nil {
		return err
	}
	if err := buf.Committable(); err != nil {
		return err
	}
	if err := copyRect(dst, buf, srcArea, dstArea); err != nil {
		return err
	}
	buf.MarkCommitted()
	return nil
}
