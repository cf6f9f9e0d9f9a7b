package grove

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Material is the draw state bound before a renderer's draw call.
type Material struct {
	Name        string      `yaml:"name"`
	Color       Color       `yaml:"color"`
	RenderQueue RenderQueue `yaml:"render_queue"`
}

// DefaultMaterial is used by renderers without a material.
var DefaultMaterial = &Material{Name: "default", Color: ColorWhite, RenderQueue: RenderQueueOpaque}

// NewMaterial creates an opaque material with the given color.
func NewMaterial(name string, c Color) *Material {
	return &Material{Name: name, Color: c, RenderQueue: RenderQueueOpaque}
}

// Class returns the draw bucket of the material's render queue.
func (m *Material) Class() RenderClass {
	return m.RenderQueue.Class()
}

// LoadMaterial decodes a YAML material description. Missing color defaults
// to white and a missing render queue defaults to opaque.
func LoadMaterial(r io.Reader) (*Material, error) {
	m := &Material{Color: ColorWhite, RenderQueue: RenderQueueOpaque}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode material: %w", err)
	}
	return m, nil
}
