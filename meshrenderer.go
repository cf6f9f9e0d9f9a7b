package grove

import (
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MeshRenderer draws a mesh with a material at its owner's world matrix.
// It registers with the scene on initialize; cameras cull and bucket the
// registered renderers each frame before calling OnRender.
type MeshRenderer struct {
	BaseComponent
	Mesh     *Mesh
	Material *Material

	// MeshPath and MaterialPath are resource paths recorded in scene files.
	// When set and Mesh/Material are nil, they are resolved through the
	// scene's Resources on initialize.
	MeshPath     string
	MaterialPath string

	warnedNoMesh bool
}

// OnInitialize resolves resource paths and registers with the scene.
func (r *MeshRenderer) OnInitialize() error {
	s := r.Owner().Scene()
	if s == nil {
		return ErrNilOwner
	}
	if res := s.Resources(); res != nil {
		if r.Mesh == nil && r.MeshPath != "" {
			m, err := Get[*Mesh](res, r.MeshPath)
			if err != nil {
				return err
			}
			r.Mesh = m
		}
		if r.Material == nil && r.MaterialPath != "" {
			m, err := Get[*Material](res, r.MaterialPath)
			if err != nil {
				return err
			}
			r.Material = m
		}
	}
	s.registerRenderer(r)
	return nil
}

// OnShutdown unregisters from the scene.
func (r *MeshRenderer) OnShutdown() {
	if s := r.Owner().Scene(); s != nil {
		s.unregisterRenderer(r)
	}
}

// OnRender binds the material and submits the mesh. A renderer without a
// mesh logs once and draws nothing.
func (r *MeshRenderer) OnRender(g Graphics) {
	if r.Mesh == nil || len(r.Mesh.Indices) == 0 {
		if !r.warnedNoMesh {
			r.warnedNoMesh = true
			r.Logger().Warn("mesh renderer has no mesh", zap.String("entity", r.Owner().Name))
		}
		return
	}
	g.SetMaterial(r.material())
	g.DrawIndexed(r.Mesh.Vertices, r.Mesh.Indices, len(r.Mesh.Indices), 0)
}

// RenderQueue returns the material's queue (opaque without a material).
func (r *MeshRenderer) RenderQueue() RenderQueue {
	return r.material().RenderQueue
}

func (r *MeshRenderer) material() *Material {
	if r.Material == nil {
		return DefaultMaterial
	}
	return r.Material
}

func (r *MeshRenderer) cullable() {}

// Copy shares the mesh and material with the copy.
func (r *MeshRenderer) Copy(newOwner *Entity) Component {
	return &MeshRenderer{
		Mesh:         r.Mesh,
		Material:     r.Material,
		MeshPath:     r.MeshPath,
		MaterialPath: r.MaterialPath,
	}
}

type meshRendererData struct {
	Mesh     string `yaml:"mesh,omitempty"`
	Material string `yaml:"material,omitempty"`
}

// TypeName implements Persister.
func (r *MeshRenderer) TypeName() string { return "mesh_renderer" }

// Save implements Persister. Only resource paths are written.
func (r *MeshRenderer) Save(node *yaml.Node) error {
	return node.Encode(meshRendererData{Mesh: r.MeshPath, Material: r.MaterialPath})
}

// Load implements Persister.
func (r *MeshRenderer) Load(node *yaml.Node) error {
	var d meshRendererData
	if err := node.Decode(&d); err != nil {
		return err
	}
	r.MeshPath = d.Mesh
	r.MaterialPath = d.Material
	return nil
}
