package ebitengfx

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/phanxgames/grove"
	"go.uber.org/zap"
)

// RunConfig configures Run.
type RunConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	// TPS is the update rate; zero keeps ebiten's default of 60.
	TPS int
	// ShowFPS prints FPS/TPS and the triangle count in the top-left corner.
	ShowFPS bool
	// Input receives key and mouse state before each Scene.Update. Nil
	// creates an empty Input reachable through Game.Input.
	Input *Input
	// Update runs before Scene.Update each tick. Returning ebiten.Termination
	// ends the loop normally; any other error aborts Run.
	Update func(dt float64) error
}

// FromWindowConfig converts the engine window configuration.
func FromWindowConfig(w grove.WindowConfig) RunConfig {
	return RunConfig{Title: w.Title, Width: w.Width, Height: w.Height, Resizable: w.Resizable, TPS: w.TPS}
}

// Game adapts a grove Scene to ebiten.Game.
type Game struct {
	scene  *grove.Scene
	device *Device
	input  *Input
	cfg    RunConfig
	quit   bool
}

var _ ebiten.Game = (*Game)(nil)

// NewGame wraps scene for ebiten.RunGame.
func NewGame(scene *grove.Scene, cfg RunConfig) *Game {
	in := cfg.Input
	if in == nil {
		in = NewInput()
	}
	return &Game{
		scene:  scene,
		device: NewDevice(cfg.Width, cfg.Height),
		input:  in,
		cfg:    cfg,
	}
}

// Scene returns the driven scene.
func (g *Game) Scene() *grove.Scene { return g.scene }

// Device returns the graphics device.
func (g *Game) Device() *Device { return g.device }

// Input returns the input bindings.
func (g *Game) Input() *Input { return g.input }

// Quit ends the loop after the current tick.
func (g *Game) Quit() { g.quit = true }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	dt := 1.0 / float64(ebiten.TPS())
	g.input.Update(dt)
	if g.cfg.Update != nil {
		if err := g.cfg.Update(dt); err != nil {
			return err
		}
	}
	g.scene.Update(dt)
	if g.quit {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.device.SetTarget(screen)
	g.scene.Render(g.device)
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nTris: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.device.Triangles()))
	}
}

// Layout implements ebiten.Game. A surface size change resizes every camera.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scene.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Run opens a window and drives scene until the window closes, Quit is
// called or an update returns an error.
func Run(scene *grove.Scene, cfg RunConfig) error {
	return RunGame(NewGame(scene, cfg))
}

// RunGame runs a Game built with NewGame, for callers that bind input to
// the Game before the loop starts.
func RunGame(g *Game) error {
	cfg := g.cfg
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("ebitengfx: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	g.scene.Resize(cfg.Width, cfg.Height)
	g.scene.PostLoad()

	err := ebiten.RunGame(g)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		g.scene.Logger().Error("frame loop stopped", zap.Error(err))
		return err
	}
	g.scene.Logger().Info("window closed")
	return nil
}
