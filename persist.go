package grove

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// sceneFileVersion is written to every saved scene.
const sceneFileVersion = 1

var componentFactories = map[string]func() Component{}

// RegisterComponentType makes a Persister component type loadable by name.
// Call it from init; registering a name twice replaces the factory.
func RegisterComponentType(name string, factory func() Component) {
	componentFactories[name] = factory
}

func init() {
	RegisterComponentType("camera", func() Component { return &Camera{} })
	RegisterComponentType("mesh_renderer", func() Component { return &MeshRenderer{} })
	RegisterComponentType("hexagon", func() Component { return &Hexagon{} })
	RegisterComponentType("hexagonal_grid", func() Component { return &HexagonalGrid{} })
	RegisterComponentType("physical_body", func() Component { return &PhysicalBody{} })
}

type sceneFile struct {
	Version  int          `yaml:"version"`
	Entities []entityFile `yaml:"entities"`
}

type entityFile struct {
	GUID       string          `yaml:"guid"`
	Name       string          `yaml:"name"`
	Enabled    bool            `yaml:"enabled"`
	Parent     string          `yaml:"parent,omitempty"`
	Position   [3]float64      `yaml:"position,flow"`
	Rotation   [3]float64      `yaml:"rotation,flow"`
	Scale      [3]float64      `yaml:"scale,flow"`
	Components []componentFile `yaml:"components,omitempty"`
}

type componentFile struct {
	Type    string    `yaml:"type"`
	Enabled bool      `yaml:"enabled"`
	Data    yaml.Node `yaml:"data"`
}

// Save writes every live and staged entity as YAML, parents before
// children. Only components implementing Persister are written.
func (s *Scene) Save(w io.Writer) error {
	var f sceneFile
	f.Version = sceneFileVersion
	for _, list := range [2][]*Entity{s.entities, s.newEntities} {
		for _, e := range list {
			if e.parent != nil || e.shutdown {
				continue
			}
			if err := s.saveEntity(&f, e); err != nil {
				return err
			}
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return enc.Close()
}

func (s *Scene) saveEntity(f *sceneFile, e *Entity) error {
	t := e.transform
	ef := entityFile{
		GUID:     e.GUID.String(),
		Name:     e.Name,
		Enabled:  e.enabled,
		Position: t.position,
		Rotation: t.rotation,
		Scale:    t.scale,
	}
	if e.parent != nil {
		ef.Parent = e.parent.GUID.String()
	}
	for _, c := range e.components {
		p, ok := c.(Persister)
		if !ok || c.base().removing {
			continue
		}
		cf := componentFile{Type: p.TypeName(), Enabled: c.Enabled()}
		if err := p.Save(&cf.Data); err != nil {
			return fmt.Errorf("save %s on %q: %w", cf.Type, e.Name, err)
		}
		ef.Components = append(ef.Components, cf)
	}
	f.Entities = append(f.Entities, ef)
	for _, child := range e.children {
		if err := s.saveEntity(f, child); err != nil {
			return err
		}
	}
	return nil
}

// Load spawns the entities of a YAML scene into s, then runs PostLoad.
// Existing entities are kept. On error the entities loaded so far stay in
// the scene.
func (s *Scene) Load(r io.Reader) error {
	var f sceneFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode scene: %w", err)
	}
	if f.Version > sceneFileVersion {
		return fmt.Errorf("scene version %d is newer than %d", f.Version, sceneFileVersion)
	}

	byGUID := make(map[uuid.UUID]*Entity, len(f.Entities))
	for _, ef := range f.Entities {
		e := s.spawn(ef.Name)
		if ef.GUID != "" {
			id, err := uuid.Parse(ef.GUID)
			if err != nil {
				return fmt.Errorf("entity %q: %w", ef.Name, err)
			}
			e.GUID = id
		}
		byGUID[e.GUID] = e
		e.enabled = ef.Enabled
		e.transform.position = ef.Position
		e.transform.rotation = ef.Rotation
		e.transform.scale = ef.Scale
		if ef.Scale == ([3]float64{}) {
			e.transform.scale = mgl64.Vec3{1, 1, 1}
		}
		e.transform.dirty = true

		if ef.Parent != "" {
			pid, err := uuid.Parse(ef.Parent)
			if err != nil {
				return fmt.Errorf("entity %q parent: %w", ef.Name, err)
			}
			parent, ok := byGUID[pid]
			if !ok {
				return fmt.Errorf("entity %q: parent %s not loaded before child", ef.Name, ef.Parent)
			}
			if err := e.SetParent(parent); err != nil {
				return fmt.Errorf("entity %q: %w", ef.Name, err)
			}
		}

		for _, cf := range ef.Components {
			factory, ok := componentFactories[cf.Type]
			if !ok {
				return fmt.Errorf("entity %q: %w: %s", ef.Name, ErrUnknownComponentType, cf.Type)
			}
			c := factory()
			if p, ok := c.(Persister); ok && !cf.Data.IsZero() {
				if err := p.Load(&cf.Data); err != nil {
					return fmt.Errorf("entity %q: load %s: %w", ef.Name, cf.Type, err)
				}
			}
			c.SetEnabled(cf.Enabled)
			if err := e.Attach(c); err != nil {
				return err
			}
		}
	}
	s.PostLoad()
	s.logger.Info("scene loaded", zap.Int("entities", len(f.Entities)))
	return nil
}
