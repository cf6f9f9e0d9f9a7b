package grove

import "github.com/go-gl/mathgl/mgl64"

// Graphics is the narrow draw interface the engine renders through. The
// device behind it owns swap chains, shaders and buffers; the scene only
// brackets a frame, binds camera/object/material state and submits indexed
// triangles.
type Graphics interface {
	// BeginScene starts a frame and clears the target.
	BeginScene(clear Color)
	// EndScene finishes the frame.
	EndScene()
	// SetCamera binds the view and projection matrices for subsequent draws.
	SetCamera(view, projection mgl64.Mat4)
	// SetMaterial binds the material for subsequent draws.
	SetMaterial(m *Material)
	// SetObject binds the world matrix for subsequent draws.
	SetObject(world mgl64.Mat4)
	// DrawIndexed draws indexCount indices starting at offset as a triangle list.
	DrawIndexed(vertices []Vertex, indices []uint16, indexCount, offset int)
}
