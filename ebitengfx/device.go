// Package ebitengfx runs a grove scene on Ebitengine: a software-projected
// Graphics device drawing shaded triangles, a frame loop driving
// Scene.Update/Render, and key/mouse bindings.
package ebitengfx

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/grove"
)

// maxBatchVertices keeps each DrawTriangles call within uint16 indices.
const maxBatchVertices = 65535 - 3

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// triangle is a projected, shaded triangle waiting for the depth sort.
type triangle struct {
	v     [3]ebiten.Vertex
	depth float64
}

// Device implements grove.Graphics on top of an *ebiten.Image. Triangles
// are projected on the CPU, flat shaded with one directional light and
// painter-sorted back to front when the scene ends.
type Device struct {
	target *ebiten.Image
	width  float64
	height float64

	view, projection mgl64.Mat4
	viewProj         mgl64.Mat4
	world            mgl64.Mat4
	material         *grove.Material

	// LightDir is the direction light travels in world space.
	LightDir mgl64.Vec3
	// Ambient is the minimum light level in [0, 1].
	Ambient float64

	tris     []triangle
	vertBuf  []ebiten.Vertex
	indexBuf []uint16
	draws    int
}

var _ grove.Graphics = (*Device)(nil)

// NewDevice creates a device for a surface of the given size.
func NewDevice(width, height int) *Device {
	return &Device{
		width:    float64(width),
		height:   float64(height),
		view:     mgl64.Ident4(),
		viewProj: mgl64.Ident4(),
		world:    mgl64.Ident4(),
		LightDir: mgl64.Vec3{0.4, -1, 0.6}.Normalize(),
		Ambient:  0.35,
	}
}

// SetTarget sets the image the next frame is drawn on and adopts its size.
func (d *Device) SetTarget(img *ebiten.Image) {
	d.target = img
	if img != nil {
		b := img.Bounds()
		d.width, d.height = float64(b.Dx()), float64(b.Dy())
	}
}

// BeginScene clears the target and drops pending triangles.
func (d *Device) BeginScene(clear grove.Color) {
	d.tris = d.tris[:0]
	d.draws = 0
	if d.target != nil {
		d.target.Fill(toRGBA(clear))
	}
}

// EndScene sorts the frame's triangles back to front and submits them.
func (d *Device) EndScene() {
	slices.SortStableFunc(d.tris, func(a, b triangle) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	if d.target == nil {
		return
	}
	d.vertBuf = d.vertBuf[:0]
	d.indexBuf = d.indexBuf[:0]
	for i := range d.tris {
		if len(d.vertBuf)+3 > maxBatchVertices {
			d.flush()
		}
		base := uint16(len(d.vertBuf))
		d.vertBuf = append(d.vertBuf, d.tris[i].v[:]...)
		d.indexBuf = append(d.indexBuf, base, base+1, base+2)
	}
	d.flush()
}

func (d *Device) flush() {
	if len(d.indexBuf) == 0 {
		return
	}
	d.target.DrawTriangles(d.vertBuf, d.indexBuf, whiteSubImage, &ebiten.DrawTrianglesOptions{})
	d.draws++
	d.vertBuf = d.vertBuf[:0]
	d.indexBuf = d.indexBuf[:0]
}

// SetCamera binds view and projection.
func (d *Device) SetCamera(view, projection mgl64.Mat4) {
	d.view, d.projection = view, projection
	d.viewProj = projection.Mul4(view)
}

// SetMaterial binds the tint of subsequent draws.
func (d *Device) SetMaterial(m *grove.Material) { d.material = m }

// SetObject binds the world matrix of subsequent draws.
func (d *Device) SetObject(world mgl64.Mat4) { d.world = world }

// DrawIndexed projects indexCount indices starting at offset as a triangle
// list. Triangles with a vertex behind the eye are dropped.
func (d *Device) DrawIndexed(vertices []grove.Vertex, indices []uint16, indexCount, offset int) {
	end := min(offset+indexCount, len(indices))
	if offset < 0 || offset >= end {
		return
	}
	mvp := d.viewProj.Mul4(d.world)
	normalMat := d.world.Mat3()
	tint := grove.ColorWhite
	if d.material != nil {
		tint = d.material.Color
	}

	for i := offset; i+2 < end; i += 3 {
		var tri triangle
		ok := true
		var n mgl64.Vec3
		for k := 0; k < 3; k++ {
			idx := int(indices[i+k])
			if idx >= len(vertices) {
				ok = false
				break
			}
			v := vertices[idx]
			clip := mvp.Mul4x1(v.Position.Vec4(1))
			if clip.W() <= 1e-9 {
				ok = false
				break
			}
			nx, ny, nz := clip.X()/clip.W(), clip.Y()/clip.W(), clip.Z()/clip.W()
			tri.v[k].DstX = float32((nx + 1) / 2 * d.width)
			tri.v[k].DstY = float32((1 - ny) / 2 * d.height)
			tri.v[k].SrcX, tri.v[k].SrcY = 1, 1
			tri.depth += nz / 3
			n = n.Add(normalMat.Mul3x1(v.Normal))
		}
		if !ok {
			continue
		}
		light := d.shade(n)
		for k := range tri.v {
			tri.v[k].ColorR = float32(tint.R * light * tint.A)
			tri.v[k].ColorG = float32(tint.G * light * tint.A)
			tri.v[k].ColorB = float32(tint.B * light * tint.A)
			tri.v[k].ColorA = float32(tint.A)
		}
		d.tris = append(d.tris, tri)
	}
}

// shade returns the lambert light level for a (not necessarily unit) normal.
func (d *Device) shade(n mgl64.Vec3) float64 {
	if n.Len() == 0 {
		return 1
	}
	lambert := math.Max(0, n.Normalize().Dot(d.LightDir.Mul(-1)))
	return d.Ambient + (1-d.Ambient)*lambert
}

// Triangles returns the number of triangles queued this frame.
func (d *Device) Triangles() int { return len(d.tris) }

// DrawCalls returns the DrawTriangles calls made by the last EndScene.
func (d *Device) DrawCalls() int { return d.draws }

// toRGBA converts a grove Color to premultiplied color.RGBA.
func toRGBA(c grove.Color) color.RGBA {
	clamp := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{R: clamp(c.R * c.A), G: clamp(c.G * c.A), B: clamp(c.B * c.A), A: clamp(c.A)}
}
