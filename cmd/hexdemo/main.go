// hexdemo builds a hexagonal grid, drops a walker on it and walks the
// walker to whichever cell is clicked. Space toggles a random wall, +/-
// zoom, the arrow keys pan and Escape quits.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/grove"
	"github.com/phanxgames/grove/ebitengfx"
	"github.com/phanxgames/grove/physics"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

var (
	cellColor    = grove.Color{R: 0.35, G: 0.62, B: 0.38, A: 1}
	wallColor    = grove.Color{R: 0.3, G: 0.3, B: 0.34, A: 1}
	walkerColor  = grove.Color{R: 0.9, G: 0.55, B: 0.2, A: 1}
	crateColor   = grove.Color{R: 0.6, G: 0.45, B: 0.3, A: 1}
	walkerHeight = 0.4
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "hexdemo:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := grove.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = grove.LoadConfigFile(configPath); err != nil {
			return err
		}
	}
	logger, err := grove.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	scene := grove.NewScene()
	scene.SetLogger(logger)
	scene.SetDebugMode(cfg.Log.Debug)
	if cfg.Physics.Enabled {
		scene.SetPhysics(physics.NewWorld(physics.FromConfig(cfg.Physics)))
	}

	d, err := build(scene, cfg)
	if err != nil {
		return err
	}

	input := ebitengfx.NewInput()
	var game *ebitengfx.Game
	input.OnKeyPressed(ebiten.KeyEscape, func() { game.Quit() })
	input.OnKeyPressed(ebiten.KeySpace, d.toggleWall)
	input.OnKeyPressed(ebiten.KeyEqual, func() { d.zoom(-10) })
	input.OnKeyPressed(ebiten.KeyMinus, func() { d.zoom(10) })
	input.OnClick(ebiten.MouseButtonLeft, d.click)

	input.OnKeyHeld(ebiten.KeyArrowLeft, func(dt float64) { d.pan(-dt, 0) })
	input.OnKeyHeld(ebiten.KeyArrowRight, func(dt float64) { d.pan(dt, 0) })
	input.OnKeyHeld(ebiten.KeyArrowUp, func(dt float64) { d.pan(0, dt) })
	input.OnKeyHeld(ebiten.KeyArrowDown, func(dt float64) { d.pan(0, -dt) })

	rc := ebitengfx.FromWindowConfig(cfg.Window)
	rc.Input = input
	rc.ShowFPS = true
	game = ebitengfx.NewGame(scene, rc)

	logger.Info("hexdemo started", zap.Int("cells", d.grid.Len()))
	return ebitengfx.RunGame(game)
}

type demo struct {
	scene  *grove.Scene
	grid   *grove.HexagonalGrid
	camera *grove.Camera
	walker *grove.PathFollower
	wall   *grove.Material
	logger *zap.Logger
}

func build(scene *grove.Scene, cfg grove.Config) (*demo, error) {
	d := &demo{scene: scene, logger: scene.Logger(), wall: grove.NewMaterial("wall", wallColor)}

	camEntity := scene.Spawn("Main Camera")
	camEntity.Transform().SetPosition(mgl64.Vec3(cfg.Camera.Position))
	camEntity.Transform().SetRotation(mgl64.Vec3(cfg.Camera.Rotation))
	cam := &grove.Camera{FieldOfView: cfg.Camera.FieldOfView, Near: cfg.Camera.Near, Far: cfg.Camera.Far}
	if err := camEntity.Attach(cam); err != nil {
		return nil, err
	}
	d.camera = cam

	board := scene.Spawn("Board")
	grid, err := grove.CreateGrid(board, cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Size,
		grove.GridOptions{Material: grove.NewMaterial("cell", cellColor)})
	if err != nil {
		return nil, fmt.Errorf("create grid: %w", err)
	}
	d.grid = grid

	walker := scene.Spawn("Walker")
	cube, err := grove.Get[*grove.Mesh](scene.Resources(), grove.BuiltinMeshPath(grove.BuiltinCube, cfg.Grid.Size*0.6))
	if err != nil {
		return nil, err
	}
	if err := walker.Attach(&grove.MeshRenderer{Mesh: cube, Material: grove.NewMaterial("walker", walkerColor)}); err != nil {
		return nil, err
	}
	follower := &grove.PathFollower{
		StepDuration: 0.2,
		Ease:         ease.InOutQuad,
		Offset:       mgl64.Vec3{0, walkerHeight, 0},
	}
	if err := walker.Attach(follower); err != nil {
		return nil, err
	}
	d.walker = follower
	if start := grid.GetHexagonAt(grove.Axial{}); start != nil {
		walker.Transform().SetPosition(start.WorldPosition().Add(follower.Offset))
		start.SetOccupant(walker)
	}

	if scene.Physics() != nil {
		if err := d.dropCrate(mgl64.Vec3{2, 6, 1}); err != nil {
			d.logger.Warn("crate not created", zap.Error(err))
		}
	}
	return d, nil
}

// dropCrate spawns a falling physics box.
func (d *demo) dropCrate(at mgl64.Vec3) error {
	crate := d.scene.Spawn("Crate")
	crate.Transform().SetPosition(at)
	mesh, err := grove.Get[*grove.Mesh](d.scene.Resources(), grove.BuiltinMeshPath(grove.BuiltinCube, 0.5))
	if err != nil {
		return err
	}
	if err := crate.Attach(&grove.MeshRenderer{Mesh: mesh, Material: grove.NewMaterial("crate", crateColor)}); err != nil {
		return err
	}
	return crate.Attach(&grove.PhysicalBody{
		Dynamic: true, Mass: 1, Shape: grove.ShapeBox, HalfExtents: mgl64.Vec3{0.25, 0.25, 0.25},
	})
}

func (d *demo) click(c ebitengfx.ClickContext) {
	cam := d.scene.MainCamera()
	if cam == nil {
		return
	}
	ray := cam.ScreenPointToRay(float64(c.X), float64(c.Y))
	hit, ok := ray.IntersectGround(0)
	if !ok {
		return
	}
	target := d.grid.GetHexagonAtPosition(hit)
	start := d.grid.GetHexagonAtPosition(d.walker.Owner().Transform().WorldPosition())
	if target == nil || start == nil {
		return
	}
	cells, _, found := d.grid.CalculatePath(start, target, grove.Walkable)
	if !found {
		d.logger.Info("no path", zap.Int("q", target.Coordinates.Q), zap.Int("r", target.Coordinates.R))
		return
	}
	d.walker.FollowCells(cells)
}

func (d *demo) toggleWall() {
	cells := d.grid.Hexagons()
	if len(cells) == 0 {
		return
	}
	h := cells[rand.IntN(len(cells))]
	if h.Occupant() != nil {
		return
	}
	h.Blocked = !h.Blocked
	if r := grove.GetComponent[*grove.MeshRenderer](h.Owner()); r != nil {
		if h.Blocked {
			r.Material = d.wall
		} else {
			r.Material = grove.NewMaterial("cell", cellColor)
		}
	}
}

// panSpeed is in world units per second.
const panSpeed = 6

func (d *demo) pan(dx, dz float64) {
	d.camera.Owner().Transform().Translate(mgl64.Vec3{dx * panSpeed, 0, dz * panSpeed})
}

func (d *demo) zoom(delta float64) {
	fov := max(20, min(100, d.camera.FieldOfView+delta))
	d.camera.AnimateFieldOfView(fov, 0.25, ease.OutCubic)
}
