package ebitengfx

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestInputDispatchPressedAndHeld(t *testing.T) {
	in := NewInput()
	pressed := 0
	var held []float64
	in.OnKeyPressed(ebiten.KeySpace, func() { pressed++ })
	in.OnKeyHeld(ebiten.KeyArrowLeft, func(dt float64) { held = append(held, dt) })

	in.dispatch(frameInput{
		justPressed: []ebiten.Key{ebiten.KeySpace},
		held:        []ebiten.Key{ebiten.KeySpace, ebiten.KeyArrowLeft},
	}, 0.5)
	in.dispatch(frameInput{held: []ebiten.Key{ebiten.KeyArrowLeft}}, 0.25)

	if pressed != 1 {
		t.Errorf("pressed fired %d times, want 1", pressed)
	}
	if len(held) != 2 || held[0] != 0.5 || held[1] != 0.25 {
		t.Errorf("held dts = %v, want [0.5 0.25]", held)
	}
}

func TestInputClickFiltersButton(t *testing.T) {
	in := NewInput()
	var got []ClickContext
	in.OnClick(ebiten.MouseButtonLeft, func(c ClickContext) { got = append(got, c) })

	in.dispatch(frameInput{clicks: []ClickContext{
		{Button: ebiten.MouseButtonRight, X: 1, Y: 1},
		{Button: ebiten.MouseButtonLeft, X: 10, Y: 20, Modifiers: ModShift},
	}}, 0)

	if len(got) != 1 {
		t.Fatalf("clicks = %d, want 1", len(got))
	}
	if got[0].X != 10 || got[0].Y != 20 || got[0].Modifiers != ModShift {
		t.Errorf("click = %+v", got[0])
	}
}

func TestBindingHandleRemove(t *testing.T) {
	in := NewInput()
	a, b := 0, 0
	ha := in.OnKeyPressed(ebiten.KeyA, func() { a++ })
	in.OnKeyPressed(ebiten.KeyA, func() { b++ })
	hc := in.OnClick(ebiten.MouseButtonLeft, func(ClickContext) { a += 100 })

	ha.Remove()
	ha.Remove()
	hc.Remove()
	in.dispatch(frameInput{
		justPressed: []ebiten.Key{ebiten.KeyA},
		clicks:      []ClickContext{{Button: ebiten.MouseButtonLeft}},
	}, 0)

	if a != 0 || b != 1 {
		t.Errorf("a = %d, b = %d; want 0, 1", a, b)
	}
	BindingHandle{}.Remove()
}

func TestBindingRemovedInsideCallback(t *testing.T) {
	in := NewInput()
	calls, other := 0, 0
	var h BindingHandle
	h = in.OnKeyPressed(ebiten.KeyQ, func() {
		calls++
		h.Remove()
	})
	in.OnKeyPressed(ebiten.KeyQ, func() { other++ })

	frame := frameInput{justPressed: []ebiten.Key{ebiten.KeyQ}}
	in.dispatch(frame, 0)
	in.dispatch(frame, 0)

	if calls != 1 {
		t.Errorf("self-removing binding fired %d times, want 1", calls)
	}
	if other != 2 {
		t.Errorf("sibling binding fired %d times, want 2", other)
	}
}
