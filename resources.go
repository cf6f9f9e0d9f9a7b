package grove

import (
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/kamstrup/intmap"
	"gopkg.in/yaml.v3"
)

// Built-in resource paths.
const (
	BuiltinHexagon = "builtin:hexagon"
	BuiltinCube    = "builtin:cube"
)

type resourceEntry struct {
	typ   reflect.Type
	path  string
	value any
}

type loaderFunc func(r *Resources, path string) (any, error)

// Resources loads assets by path and caches shared instances. Loaders are
// registered per Go type; Get returns the same instance for repeated
// lookups of one (type, path) pair while Load always builds a fresh one.
type Resources struct {
	fsys    fs.FS
	loaders map[reflect.Type]loaderFunc
	cache   *intmap.Map[uint64, resourceEntry]
}

// NewResources returns a cache with the built-in mesh and material loaders.
// File-backed loaders read from the FS set with SetFS.
func NewResources() *Resources {
	r := &Resources{
		loaders: make(map[reflect.Type]loaderFunc),
		cache:   intmap.New[uint64, resourceEntry](64),
	}
	Register(r, loadMesh)
	Register(r, loadMaterial)
	return r
}

// SetFS sets the file system used by file-backed loaders.
func (r *Resources) SetFS(fsys fs.FS) { r.fsys = fsys }

// FS returns the file system, or nil.
func (r *Resources) FS() fs.FS { return r.fsys }

// Len returns the number of cached instances.
func (r *Resources) Len() int { return r.cache.Len() }

// Clear drops every cached instance.
func (r *Resources) Clear() { r.cache.Clear() }

// Register installs the loader for type T, replacing any previous one.
func Register[T any](r *Resources, loader func(r *Resources, path string) (T, error)) {
	r.loaders[reflect.TypeFor[T]()] = func(r *Resources, path string) (any, error) {
		return loader(r, path)
	}
}

// Load builds a new T from path without consulting the cache.
func Load[T any](r *Resources, path string) (T, error) {
	var zero T
	typ := reflect.TypeFor[T]()
	load, ok := r.loaders[typ]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNoLoader, typ)
	}
	v, err := load(r, path)
	if err != nil {
		return zero, fmt.Errorf("load %s %q: %w", typ, path, err)
	}
	return v.(T), nil
}

// Get returns the cached T for path, loading and caching it on first use.
func Get[T any](r *Resources, path string) (T, error) {
	typ := reflect.TypeFor[T]()
	k := resourceKey(typ, path)
	if e, ok := r.cache.Get(k); ok && e.typ == typ && e.path == path {
		return e.value.(T), nil
	}
	v, err := Load[T](r, path)
	if err != nil {
		return v, err
	}
	r.cache.Put(k, resourceEntry{typ: typ, path: path, value: v})
	return v, nil
}

// Put stores v as the shared instance for path.
func Put[T any](r *Resources, path string, v T) {
	typ := reflect.TypeFor[T]()
	r.cache.Put(resourceKey(typ, path), resourceEntry{typ: typ, path: path, value: v})
}

func resourceKey(typ reflect.Type, path string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(typ.String())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(path)
	return d.Sum64()
}

func (r *Resources) open(path string) (fs.File, error) {
	if r.fsys == nil {
		return nil, fmt.Errorf("no file system for %q", path)
	}
	return r.fsys.Open(path)
}

// meshFile is the YAML mesh format: positions, optional normals and
// triangle-list indices.
type meshFile struct {
	Name      string       `yaml:"name"`
	Positions [][3]float64 `yaml:"positions"`
	Normals   [][3]float64 `yaml:"normals"`
	Indices   []uint16     `yaml:"indices"`
}

func loadMesh(r *Resources, path string) (*Mesh, error) {
	if strings.HasPrefix(path, "builtin:") {
		return loadBuiltinMesh(path)
	}
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mf meshFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode mesh: %w", err)
	}
	if len(mf.Normals) != 0 && len(mf.Normals) != len(mf.Positions) {
		return nil, fmt.Errorf("mesh has %d normals for %d positions", len(mf.Normals), len(mf.Positions))
	}
	verts := make([]Vertex, len(mf.Positions))
	for i, p := range mf.Positions {
		verts[i].Position = mgl64.Vec3(p)
		if len(mf.Normals) > 0 {
			verts[i].Normal = mgl64.Vec3(mf.Normals[i])
		}
	}
	for _, idx := range mf.Indices {
		if int(idx) >= len(verts) {
			return nil, fmt.Errorf("mesh index %d out of range", idx)
		}
	}
	name := mf.Name
	if name == "" {
		name = path
	}
	return NewMesh(name, verts, mf.Indices), nil
}

// BuiltinMeshPath returns the path of a built-in mesh scaled by size, e.g.
// "builtin:hexagon:0.5".
func BuiltinMeshPath(builtin string, size float64) string {
	if size == 1 {
		return builtin
	}
	return builtin + ":" + strconv.FormatFloat(size, 'g', -1, 64)
}

func loadBuiltinMesh(path string) (*Mesh, error) {
	name, size := path, 1.0
	if i := strings.LastIndexByte(path, ':'); i > len("builtin") {
		v, err := strconv.ParseFloat(path[i+1:], 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid mesh size in %q", path)
		}
		name, size = path[:i], v
	}
	switch name {
	case BuiltinHexagon:
		return NewHexagonMesh(size), nil
	case BuiltinCube:
		return NewCubeMesh(size), nil
	}
	return nil, fmt.Errorf("unknown built-in mesh %q", path)
}

func loadMaterial(r *Resources, path string) (*Material, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := LoadMaterial(f)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = path
	}
	return m, nil
}
