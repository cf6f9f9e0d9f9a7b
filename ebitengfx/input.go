package ebitengfx

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// ClickContext carries a mouse click.
type ClickContext struct {
	Button    ebiten.MouseButton
	X, Y      int
	Modifiers KeyModifiers
}

type keyHandler struct {
	id uint32
	fn func()
}

type holdHandler struct {
	id uint32
	fn func(dt float64)
}

type clickHandler struct {
	id     uint32
	button ebiten.MouseButton
	fn     func(ClickContext)
}

type bindingKind uint8

const (
	bindPressed bindingKind = iota
	bindHeld
	bindClick
)

// Input dispatches key and mouse state to bound callbacks once per frame.
type Input struct {
	pressed map[ebiten.Key][]keyHandler
	held    map[ebiten.Key][]holdHandler
	click   []clickHandler
	nextID  uint32
}

// NewInput returns an Input with no bindings.
func NewInput() *Input {
	return &Input{
		pressed: make(map[ebiten.Key][]keyHandler),
		held:    make(map[ebiten.Key][]holdHandler),
	}
}

// BindingHandle allows removing a registered binding.
type BindingHandle struct {
	id   uint32
	key  ebiten.Key
	kind bindingKind
	in   *Input
}

// Remove unregisters the binding so it no longer fires.
func (h BindingHandle) Remove() {
	if h.in == nil {
		return
	}
	switch h.kind {
	case bindPressed:
		h.in.pressed[h.key] = removeByID(h.in.pressed[h.key], h.id, func(k keyHandler) uint32 { return k.id })
	case bindHeld:
		h.in.held[h.key] = removeByID(h.in.held[h.key], h.id, func(k holdHandler) uint32 { return k.id })
	case bindClick:
		h.in.click = removeByID(h.in.click, h.id, func(c clickHandler) uint32 { return c.id })
	}
}

func removeByID[T any](s []T, id uint32, idOf func(T) uint32) []T {
	for i := range s {
		if idOf(s[i]) == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// OnKeyPressed calls fn on the frame key goes down.
func (in *Input) OnKeyPressed(key ebiten.Key, fn func()) BindingHandle {
	in.nextID++
	in.pressed[key] = append(in.pressed[key], keyHandler{id: in.nextID, fn: fn})
	return BindingHandle{id: in.nextID, key: key, kind: bindPressed, in: in}
}

// OnKeyHeld calls fn every frame while key is down.
func (in *Input) OnKeyHeld(key ebiten.Key, fn func(dt float64)) BindingHandle {
	in.nextID++
	in.held[key] = append(in.held[key], holdHandler{id: in.nextID, fn: fn})
	return BindingHandle{id: in.nextID, key: key, kind: bindHeld, in: in}
}

// OnClick calls fn when button is released.
func (in *Input) OnClick(button ebiten.MouseButton, fn func(ClickContext)) BindingHandle {
	in.nextID++
	in.click = append(in.click, clickHandler{id: in.nextID, button: button, fn: fn})
	return BindingHandle{id: in.nextID, kind: bindClick, in: in}
}

// frameInput is the input state sampled for one frame.
type frameInput struct {
	justPressed []ebiten.Key
	held        []ebiten.Key
	clicks      []ClickContext
}

var mouseButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft, ebiten.MouseButtonRight, ebiten.MouseButtonMiddle,
}

// Update samples ebiten's input state and dispatches bindings.
func (in *Input) Update(dt float64) {
	var f frameInput
	f.justPressed = inpututil.AppendJustPressedKeys(f.justPressed)
	f.held = inpututil.AppendPressedKeys(f.held)
	x, y := ebiten.CursorPosition()
	mods := readModifiers()
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustReleased(b) {
			f.clicks = append(f.clicks, ClickContext{Button: b, X: x, Y: y, Modifiers: mods})
		}
	}
	in.dispatch(f, dt)
}

// dispatch runs bound callbacks for one frame of input. Handler lists are
// cloned so callbacks may add or remove bindings.
func (in *Input) dispatch(f frameInput, dt float64) {
	for _, k := range f.justPressed {
		for _, h := range append([]keyHandler(nil), in.pressed[k]...) {
			h.fn()
		}
	}
	for _, k := range f.held {
		for _, h := range append([]holdHandler(nil), in.held[k]...) {
			h.fn(dt)
		}
	}
	for _, c := range f.clicks {
		for _, h := range append([]clickHandler(nil), in.click...) {
			if h.button == c.Button {
				h.fn(c)
			}
		}
	}
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}
