package grove

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateCell is returned when two hexagons claim the same coordinates
// in one grid.
var ErrDuplicateCell = errors.New("grove: hex cell coordinates already taken")

// Hexagon marks an entity as one cell of a HexagonalGrid. The cell
// registers with the grid on the parent entity when initialized and
// unregisters on shutdown.
type Hexagon struct {
	BaseComponent
	Coordinates Axial
	// Blocked cells are skipped by the default walkability check.
	Blocked bool

	occupant *Entity
	grid     *HexagonalGrid
}

// OnInitialize registers the cell with its grid. A cell whose entity has no
// grid on its parent stays unregistered.
func (h *Hexagon) OnInitialize() error {
	if h.grid != nil {
		return h.grid.register(h)
	}
	p := h.Owner().Parent()
	if p == nil {
		return nil
	}
	g := GetComponent[*HexagonalGrid](p)
	if g == nil {
		return nil
	}
	return g.register(h)
}

// OnShutdown removes the cell from its grid.
func (h *Hexagon) OnShutdown() {
	if h.grid != nil {
		h.grid.unregister(h)
	}
	h.occupant = nil
}

// Grid returns the grid this cell belongs to, or nil.
func (h *Hexagon) Grid() *HexagonalGrid { return h.grid }

// Occupant returns the entity standing on this cell. An occupant that has
// been shut down is reported as nil.
func (h *Hexagon) Occupant() *Entity {
	if h.occupant != nil && h.occupant.IsShutdown() {
		h.occupant = nil
	}
	return h.occupant
}

// SetOccupant records e as standing on this cell. The reference is not owning.
func (h *Hexagon) SetOccupant(e *Entity) { h.occupant = e }

// IsWalkable reports whether the cell is neither blocked nor occupied.
func (h *Hexagon) IsWalkable() bool {
	return !h.Blocked && h.Occupant() == nil
}

// WorldPosition returns the cell center in world space. It is derived from
// the grid owner's world matrix and the cell's local position, so it is
// correct before the cell entity has been updated.
func (h *Hexagon) WorldPosition() mgl64.Vec3 {
	o := h.Owner()
	if o == nil || o.Transform() == nil {
		return mgl64.Vec3{}
	}
	local := o.Transform().Position()
	if p := o.Transform().Parent(); p != nil {
		return p.LocalToWorld(local)
	}
	return local
}

// Copy copies coordinates and the blocked flag. The copy is not part of
// any grid until it is initialized under one.
func (h *Hexagon) Copy(newOwner *Entity) Component {
	return &Hexagon{Coordinates: h.Coordinates, Blocked: h.Blocked}
}

type hexagonData struct {
	Q       int  `yaml:"q"`
	R       int  `yaml:"r"`
	Blocked bool `yaml:"blocked,omitempty"`
}

// TypeName implements Persister.
func (h *Hexagon) TypeName() string { return "hexagon" }

// Save implements Persister.
func (h *Hexagon) Save(node *yaml.Node) error {
	return node.Encode(hexagonData{Q: h.Coordinates.Q, R: h.Coordinates.R, Blocked: h.Blocked})
}

// Load implements Persister.
func (h *Hexagon) Load(node *yaml.Node) error {
	var d hexagonData
	if err := node.Decode(&d); err != nil {
		return err
	}
	h.Coordinates = Axial{Q: d.Q, R: d.R}
	h.Blocked = d.Blocked
	return nil
}

// HexagonalGrid maps axial coordinates to the Hexagon cells parented under
// its owner. Cells are laid out flat-top on the owner's local XZ plane.
type HexagonalGrid struct {
	BaseComponent
	Width, Height int
	// Size is the circumradius of a cell.
	Size float64

	cells *intmap.Map[uint64, *Hexagon]
	order []*Hexagon
}

// OnInitialize prepares the cell map.
func (g *HexagonalGrid) OnInitialize() error {
	if g.Size <= 0 {
		g.Size = 1
	}
	g.cells = intmap.New[uint64, *Hexagon](max(g.Width*g.Height, 16))
	return nil
}

// OnShutdown detaches every remaining cell from the grid.
func (g *HexagonalGrid) OnShutdown() {
	for _, h := range g.order {
		h.grid = nil
	}
	g.order = nil
	if g.cells != nil {
		g.cells.Clear()
	}
}

func (g *HexagonalGrid) register(h *Hexagon) error {
	if g.cells == nil {
		return ErrNilOwner
	}
	k := h.Coordinates.key()
	if other, ok := g.cells.Get(k); ok && other != h {
		return fmt.Errorf("%w: (%d, %d)", ErrDuplicateCell, h.Coordinates.Q, h.Coordinates.R)
	}
	g.cells.Put(k, h)
	g.order = append(g.order, h)
	h.grid = g
	return nil
}

func (g *HexagonalGrid) unregister(h *Hexagon) {
	if h.grid != g {
		return
	}
	h.grid = nil
	k := h.Coordinates.key()
	if cur, ok := g.cells.Get(k); ok && cur == h {
		g.cells.Del(k)
	}
	for i, x := range g.order {
		if x == h {
			copy(g.order[i:], g.order[i+1:])
			g.order[len(g.order)-1] = nil
			g.order = g.order[:len(g.order)-1]
			break
		}
	}
}

// Len returns the number of registered cells.
func (g *HexagonalGrid) Len() int { return len(g.order) }

// Hexagons returns the registered cells in registration order.
// The returned slice MUST NOT be mutated.
func (g *HexagonalGrid) Hexagons() []*Hexagon { return g.order }

// GetHexagonAt returns the cell at exactly a, or nil.
func (g *HexagonalGrid) GetHexagonAt(a Axial) *Hexagon {
	if g.cells == nil {
		return nil
	}
	h, _ := g.cells.Get(a.key())
	return h
}

// GetHexagonAtPosition returns the cell whose center is nearest to the
// world point p, or nil when no cell has those rounded coordinates.
func (g *HexagonalGrid) GetHexagonAtPosition(p mgl64.Vec3) *Hexagon {
	if o := g.Owner(); o != nil && o.Transform() != nil {
		p = o.Transform().WorldToLocal(p)
	}
	return g.GetHexagonAt(WorldToAxial(p, g.Size))
}

// GetNeighbor returns the cell next to h in direction d, or nil.
func (g *HexagonalGrid) GetNeighbor(h *Hexagon, d HexDirection) *Hexagon {
	if h == nil || !d.Valid() {
		return nil
	}
	return g.GetHexagonAt(h.Coordinates.Neighbor(d))
}

// Neighbors appends the existing neighbors of h to dst.
func (g *HexagonalGrid) Neighbors(dst []*Hexagon, h *Hexagon) []*Hexagon {
	for d := HexDirection(0); d < 6; d++ {
		if n := g.GetNeighbor(h, d); n != nil {
			dst = append(dst, n)
		}
	}
	return dst
}

// TypeName implements Persister.
func (g *HexagonalGrid) TypeName() string { return "hexagonal_grid" }

type gridData struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Size   float64 `yaml:"size"`
}

// Save implements Persister. Cells are saved with their own entities.
func (g *HexagonalGrid) Save(node *yaml.Node) error {
	return node.Encode(gridData{Width: g.Width, Height: g.Height, Size: g.Size})
}

// Load implements Persister.
func (g *HexagonalGrid) Load(node *yaml.Node) error {
	var d gridData
	if err := node.Decode(&d); err != nil {
		return err
	}
	g.Width, g.Height, g.Size = d.Width, d.Height, d.Size
	return nil
}

// Copy copies the grid dimensions. Cells are copied with the owner's
// children and register with the new grid as they initialize.
func (g *HexagonalGrid) Copy(newOwner *Entity) Component {
	return &HexagonalGrid{Width: g.Width, Height: g.Height, Size: g.Size}
}

// GridOptions customizes CreateGrid.
type GridOptions struct {
	// Material tints every cell. Nil uses DefaultMaterial.
	Material *Material
	// Mesh overrides the cell mesh. Nil uses the shared built-in hexagon
	// of the grid size.
	Mesh *Mesh
}

// CreateGrid spawns width*height cell entities under owner, in an axial
// parallelogram centered on (0, 0). Each cell carries a MeshRenderer and a
// Hexagon placed at its flat-top layout position.
func CreateGrid(owner *Entity, width, height int, size float64, opts ...GridOptions) (*HexagonalGrid, error) {
	if owner == nil || owner.Scene() == nil {
		return nil, ErrNilOwner
	}
	if width <= 0 || height <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: %dx%d size %v", ErrInvalidGridSize, width, height, size)
	}
	var o GridOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	s := owner.Scene()
	mesh, meshPath := o.Mesh, ""
	if mesh == nil {
		meshPath = BuiltinMeshPath(BuiltinHexagon, size)
		if res := s.Resources(); res != nil {
			m, err := Get[*Mesh](res, meshPath)
			if err != nil {
				return nil, err
			}
			mesh = m
		} else {
			mesh = NewHexagonMesh(size)
		}
	}

	g := GetComponent[*HexagonalGrid](owner)
	if g == nil {
		g = &HexagonalGrid{Width: width, Height: height, Size: size}
		if err := owner.Attach(g); err != nil {
			return nil, err
		}
	} else {
		g.Width, g.Height, g.Size = width, height, size
	}

	q0, r0 := -width/2, -height/2
	for dq := 0; dq < width; dq++ {
		for dr := 0; dr < height; dr++ {
			a := Axial{Q: q0 + dq, R: r0 + dr}
			cell := s.Spawn(fmt.Sprintf("Hex %d,%d", a.Q, a.R))
			if err := cell.SetParent(owner); err != nil {
				return nil, err
			}
			cell.Transform().SetPosition(AxialToWorld(a, size))
			if err := cell.Attach(&MeshRenderer{Mesh: mesh, MeshPath: meshPath, Material: o.Material}); err != nil {
				return nil, err
			}
			if err := cell.Attach(&Hexagon{Coordinates: a}); err != nil {
				return nil, err
			}
		}
	}
	owner.Logger().Debug("hex grid created",
		zap.String("owner", owner.Name), zap.Int("cells", g.Len()), zap.Float64("size", size))
	return g, nil
}
