// Package view holds the viewport math for browsing stacked tilesheets
package view

import (
	"image"
	"math"
)

// Camera is a flat pan/zoom viewport over the stacked sheets
type Camera struct {
	X, Y    float64 // top-left of the view in content pixels
	Zoom    float64 // 1.0 = one content pixel per screen pixel
	MinZoom float64
	MaxZoom float64
	ScreenW int
	ScreenH int

	// Content bounds for clamping
	ContentW int
	ContentH int
}

// NewCamera creates a camera with default settings
func NewCamera(screenW, screenH int) *Camera {
	return &Camera{
		Zoom:    1.0,
		MinZoom: 0.125,
		MaxZoom: 8.0,
		ScreenW: screenW,
		ScreenH: screenH,
	}
}

// SetContentBounds sets the content size for clamping
func (c *Camera) SetContentBounds(w, h int) {
	c.ContentW = w
	c.ContentH = h
	c.clamp()
}

// Pan moves the camera by a screen pixel delta
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clamp()
}

// SetZoom sets zoom level with clamping
func (c *Camera) SetZoom(z float64) {
	c.Zoom = math.Max(c.MinZoom, math.Min(c.MaxZoom, z))
}

// ZoomAt zooms by a factor while keeping the content under a screen point fixed
func (c *Camera) ZoomAt(factor float64, screenX, screenY int) {
	wx, wy := c.ScreenToWorld(screenX, screenY)
	c.SetZoom(c.Zoom * factor)
	wx2, wy2 := c.ScreenToWorld(screenX, screenY)
	c.X += wx - wx2
	c.Y += wy - wy2
	c.clamp()
}

// CenterOn centers the view on a content position
func (c *Camera) CenterOn(wx, wy float64) {
	c.X = wx - float64(c.ScreenW)/2/c.Zoom
	c.Y = wy - float64(c.ScreenH)/2/c.Zoom
	c.clamp()
}

// WorldToScreen converts content pixels to screen pixels
func (c *Camera) WorldToScreen(wx, wy float64) (int, int) {
	return int(math.Floor((wx - c.X) * c.Zoom)), int(math.Floor((wy - c.Y) * c.Zoom))
}

// ScreenToWorld converts screen pixels to content pixels
func (c *Camera) ScreenToWorld(sx, sy int) (float64, float64) {
	return float64(sx)/c.Zoom + c.X, float64(sy)/c.Zoom + c.Y
}

// Visible returns the content rectangle on screen
func (c *Camera) Visible() image.Rectangle {
	x0, y0 := c.ScreenToWorld(0, 0)
	x1, y1 := c.ScreenToWorld(c.ScreenW, c.ScreenH)
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

func (c *Camera) clamp() {
	if c.ContentW == 0 && c.ContentH == 0 {
		return
	}
	maxX := float64(c.ContentW) - float64(c.ScreenW)/c.Zoom
	maxY := float64(c.ContentH) - float64(c.ScreenH)/c.Zoom
	c.X = math.Max(0, math.Min(c.X, math.Max(0, maxX)))
	c.Y = math.Max(0, math.Min(c.Y, math.Max(0, maxY)))
}
