package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/1siamBot/tilepatch/engine/atlas"
	"github.com/1siamBot/tilepatch/engine/config"
	"github.com/1siamBot/tilepatch/engine/inject"
	"github.com/1siamBot/tilepatch/engine/ledger"
	"github.com/1siamBot/tilepatch/engine/logging"
	"github.com/1siamBot/tilepatch/engine/pixel"
	"github.com/1siamBot/tilepatch/engine/view"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	ThumbWidth   = 96
	PanSpeed     = 8.0
)

// Viewer implements ebiten.Game over the sheets of one atlas
type Viewer struct {
	asset  string
	camera *view.Camera
	input  *inputState
	stack  *view.Stack
	sheets []*ebiten.Image
	thumbs []*ebiten.Image

	placements []inject.Placement
	byCell     map[image.Point]inject.Placement

	showGrid   bool
	showPlaced bool
	hover      view.Hit
	hovering   bool
	selected   *inject.Placement
}

func newViewer(t inject.AtlasType, maxHeight int, layouts []inject.SheetLayout, imgs []*pixel.Image, placements []inject.Placement) *Viewer {
	v := &Viewer{
		asset:      t.Asset,
		camera:     view.NewCamera(ScreenWidth-ThumbWidth, ScreenHeight),
		input:      newInputState(),
		stack:      &view.Stack{Sheets: layouts, Grid: t.Grid, MaxHeight: maxHeight},
		placements: placements,
		byCell:     make(map[image.Point]inject.Placement),
		showGrid:   true,
		showPlaced: true,
	}
	for _, img := range imgs {
		if img.Width > v.stack.Width {
			v.stack.Width = img.Width
		}
		v.sheets = append(v.sheets, ebiten.NewImageFromImage(img.ToRGBA()))
		th := img.Height * ThumbWidth / max(img.Width, 1)
		v.thumbs = append(v.thumbs, ebiten.NewImageFromImage(pixel.Scale(img, ThumbWidth, max(th, 1)).ToRGBA()))
	}
	for _, p := range placements {
		if x, y, ok := v.stack.Locate(p); ok {
			v.byCell[image.Pt(x, y)] = p
		}
	}
	v.camera.SetContentBounds(v.stack.Width, v.stack.Height())
	return v
}

func (v *Viewer) Update() error {
	v.input.Update()

	if v.input.ScrollY != 0 {
		v.camera.ZoomAt(1+v.input.ScrollY*0.1, v.input.MouseX, v.input.MouseY)
	}
	if v.input.Dragging {
		v.camera.Pan(float64(-v.input.MouseDX), float64(-v.input.MouseDY))
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		v.camera.Pan(0, -PanSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		v.camera.Pan(0, PanSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		v.camera.Pan(-PanSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		v.camera.Pan(PanSpeed, 0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		v.showGrid = !v.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.showPlaced = !v.showPlaced
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.jumpToNextSheet()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		v.selected = nil
	}

	wx, wy := v.camera.ScreenToWorld(v.input.MouseX, v.input.MouseY)
	v.hover, v.hovering = v.stack.At(int(wx), int(wy))
	if v.input.MouseX >= v.camera.ScreenW {
		v.hovering = false
		if v.input.Clicked() {
			v.jumpToThumb(v.input.MouseY)
		}
		return nil
	}
	if v.input.Clicked() {
		v.selected = nil
		if v.hovering && v.hover.Index >= 0 {
			if p, ok := v.byCell[v.cellOrigin(v.hover)]; ok {
				v.selected = &p
			}
		}
	}
	return nil
}

// cellOrigin is the stacked position of the cell under a hit
func (v *Viewer) cellOrigin(h view.Hit) image.Point {
	g := v.stack.Grid
	return image.Pt(h.X/g.CellWidth*g.CellWidth, h.Sheet.Offset+h.Y/g.CellHeight*g.CellHeight)
}

func (v *Viewer) jumpToNextSheet() {
	if len(v.stack.Sheets) == 0 {
		return
	}
	next := 0
	for i, s := range v.stack.Sheets {
		if float64(s.Offset) > v.camera.Y+1 {
			next = i
			break
		}
	}
	v.camera.Y = float64(v.stack.Sheets[next].Offset)
	v.camera.Pan(0, 0)
}

func (v *Viewer) jumpToThumb(sy int) {
	y := 0
	for i, th := range v.thumbs {
		h := th.Bounds().Dy()
		if sy >= y && sy < y+h {
			s := v.stack.Sheets[i]
			frac := float64(sy-y) / float64(h)
			v.camera.CenterOn(float64(v.stack.Width)/2, float64(s.Offset)+frac*float64(s.Height))
			return
		}
		y += h + 2
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})

	for i, img := range v.sheets {
		s := v.stack.Sheets[i]
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-v.camera.X, float64(s.Offset)-v.camera.Y)
		op.GeoM.Scale(v.camera.Zoom, v.camera.Zoom)
		screen.DrawImage(img, op)

		// sheet boundary
		_, sy := v.camera.WorldToScreen(0, float64(s.Offset))
		vector.StrokeLine(screen, 0, float32(sy), float32(v.camera.ScreenW), float32(sy), 2, color.RGBA{255, 80, 80, 220}, false)
	}

	if v.showGrid && v.stack.Grid.Valid() && v.camera.Zoom >= 0.5 {
		v.drawGrid(screen)
	}
	if v.showPlaced {
		for pt := range v.byCell {
			v.strokeCell(screen, pt, color.RGBA{0, 200, 255, 160})
		}
	}
	if v.hovering && v.hover.Index >= 0 {
		v.strokeCell(screen, v.cellOrigin(v.hover), color.RGBA{255, 255, 0, 200})
	}
	if v.selected != nil {
		if x, y, ok := v.stack.Locate(*v.selected); ok {
			v.strokeCell(screen, image.Pt(x, y), color.RGBA{0, 255, 0, 255})
		}
	}

	v.drawThumbs(screen)
	v.drawHUD(screen)
}

func (v *Viewer) drawGrid(screen *ebiten.Image) {
	g := v.stack.Grid
	vis := v.camera.Visible()
	lineColor := color.RGBA{255, 255, 255, 30}
	for x := vis.Min.X / g.CellWidth * g.CellWidth; x <= min(vis.Max.X, g.RowWidth()); x += g.CellWidth {
		sx, _ := v.camera.WorldToScreen(float64(x), 0)
		vector.StrokeLine(screen, float32(sx), 0, float32(sx), float32(v.camera.ScreenH), 1, lineColor, false)
	}
	for _, s := range v.stack.Sheets {
		for y := 0; y <= s.Height; y += g.CellHeight {
			wy := s.Offset + y
			if wy < vis.Min.Y || wy > vis.Max.Y {
				continue
			}
			_, sy := v.camera.WorldToScreen(0, float64(wy))
			vector.StrokeLine(screen, 0, float32(sy), float32(v.camera.ScreenW), float32(sy), 1, lineColor, false)
		}
	}
}

func (v *Viewer) strokeCell(screen *ebiten.Image, origin image.Point, clr color.RGBA) {
	g := v.stack.Grid
	sx, sy := v.camera.WorldToScreen(float64(origin.X), float64(origin.Y))
	w := float32(float64(g.CellWidth) * v.camera.Zoom)
	h := float32(float64(g.CellHeight) * v.camera.Zoom)
	vector.StrokeRect(screen, float32(sx), float32(sy), w, h, 1, clr, false)
}

func (v *Viewer) drawThumbs(screen *ebiten.Image) {
	x := float64(v.camera.ScreenW)
	vector.DrawFilledRect(screen, float32(x), 0, ThumbWidth, ScreenHeight, color.RGBA{10, 10, 15, 255}, false)
	y := 0.0
	for _, th := range v.thumbs {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(x, y)
		screen.DrawImage(th, op)
		y += float64(th.Bounds().Dy() + 2)
	}
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %d sheets | stacked %dpx | %d placed | FPS: %.0f\n", v.asset, len(v.stack.Sheets), v.stack.Height(), len(v.placements), ebiten.ActualFPS())
	if v.hovering {
		fmt.Fprintf(&b, "%s (%d, %d) cell %d\n", v.hover.Sheet.Name, v.hover.X, v.hover.Y, v.hover.Index)
	} else {
		b.WriteString("-\n")
	}
	if v.selected != nil {
		fmt.Fprintf(&b, "%s id %d at %s (%d, %d)\n", v.selected.Entity, v.selected.ID, v.selected.Sheet, v.selected.X, v.selected.Y)
	}
	fmt.Fprintf(&b, "Zoom: %.2fx | [WASD/Drag] Pan [Scroll] Zoom [Tab] Next sheet [G] Grid [P] Placements", v.camera.Zoom)
	ebitenutil.DebugPrint(screen, b.String())
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func main() {
	_ = godotenv.Load(".env")

	fs := pflag.NewFlagSet("atlasview", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to tilepatch.yaml")
	key := fs.String("atlas", atlas.Objects, "atlas key to view")
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, closer, err := logging.New(cfg.Log.Options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	v, err := load(cfg, *key, log)
	if err != nil {
		log.WithError(err).Error("atlasview failed")
		closer.Close()
		os.Exit(1)
	}

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("atlasview: " + v.asset)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(v); err != nil {
		log.WithError(err).Error("viewer stopped")
	}
}

func load(cfg *config.Config, key string, log *logrus.Logger) (*Viewer, error) {
	types, err := atlas.WithStartIndices(atlas.Catalogue(), cfg.StartIndex)
	if err != nil {
		return nil, err
	}
	t, ok := atlas.Lookup(types, key)
	if !ok {
		return nil, fmt.Errorf("unknown atlas %q", key)
	}

	var (
		layouts    []inject.SheetLayout
		placements []inject.Placement
	)
	if cfg.LedgerPath != "" {
		led, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		defer led.Close()
		sheets, err := led.Sheets(t.Asset)
		if err != nil {
			return nil, fmt.Errorf("ledger sheets: %w", err)
		}
		// empty sheets were never written
		for _, s := range sheets {
			if s.Height > 0 {
				layouts = append(layouts, s)
			}
		}
		if placements, err = led.Placements(t.Asset); err != nil {
			return nil, fmt.Errorf("ledger placements: %w", err)
		}
	} else {
		log.Warn("no ledger configured, placements will not be shown")
	}

	layouts, imgs, err := view.Load(cfg.OutDir, t.Asset, layouts)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"atlas":      t.Asset,
		"sheets":     len(layouts),
		"placements": len(placements),
	}).Info("loaded")
	return newViewer(t, cfg.MaxTilesheetHeight, layouts, imgs, placements), nil
}
