package grove

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates the three components of one transform vector
// (position, rotation or scale). Call Update(dt) each frame; the group
// writes the values through the transform setter so the transform is marked
// dirty. If the transform's owner shuts down, the group stops immediately.
//
// There is no global animation manager. PathFollower drives its own group;
// other users call Update themselves.
type TweenGroup struct {
	tweens [3]*gween.Tween
	target *Transform
	apply  func(t *Transform, v mgl64.Vec3)
	Done   bool
}

func newTweenGroup(t *Transform, from, to mgl64.Vec3, duration float32, fn ease.TweenFunc, apply func(*Transform, mgl64.Vec3)) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{target: t, apply: apply}
	for i := range g.tweens {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
	}
	return g
}

// Update advances the tweens by dt seconds and applies the result.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.owner == nil || g.target.owner.IsShutdown() {
		g.Done = true
		return
	}
	var v mgl64.Vec3
	allDone := true
	for i, tw := range g.tweens {
		val, finished := tw.Update(dt)
		v[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.apply(g.target, v)
	g.Done = allDone
}

// TweenPosition animates the local position of t to the given value.
func TweenPosition(t *Transform, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(t, t.position, to, duration, fn, (*Transform).SetPosition)
}

// TweenRotation animates the local Euler rotation (degrees) of t.
func TweenRotation(t *Transform, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(t, t.rotation, to, duration, fn, (*Transform).SetRotation)
}

// TweenScale animates the local scale of t.
func TweenScale(t *Transform, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(t, t.scale, to, duration, fn, (*Transform).SetScale)
}

// DefaultStepDuration is the time PathFollower spends per path segment.
const DefaultStepDuration float32 = 0.25

// PathFollower walks its owner along a list of world positions, one tween
// per segment. When following hex cells it also moves the owner's occupancy
// from cell to cell.
type PathFollower struct {
	BaseComponent
	// StepDuration is seconds per segment; zero uses DefaultStepDuration.
	StepDuration float32
	// Ease shapes each segment; nil is linear.
	Ease ease.TweenFunc
	// Offset is added to every waypoint, e.g. to stand on top of a tile.
	Offset mgl64.Vec3
	// OnArrive runs once the last waypoint is reached.
	OnArrive func()

	waypoints []mgl64.Vec3
	cells     []*Hexagon
	index     int
	tween     *TweenGroup
}

// Follow starts walking through positions, replacing any current path.
func (f *PathFollower) Follow(positions []mgl64.Vec3) {
	f.Stop()
	f.waypoints = append(f.waypoints[:0], positions...)
}

// FollowCells walks through the centers of cells, taking each cell as
// occupied on arrival and releasing the previous one.
func (f *PathFollower) FollowCells(cells []*Hexagon) {
	f.Stop()
	f.cells = append(f.cells[:0], cells...)
	for _, c := range cells {
		f.waypoints = append(f.waypoints, c.WorldPosition())
	}
}

// Stop abandons the current path. The owner stays where it is.
func (f *PathFollower) Stop() {
	f.waypoints = f.waypoints[:0]
	clear(f.cells)
	f.cells = f.cells[:0]
	f.index = 0
	f.tween = nil
}

// IsMoving reports whether waypoints remain.
func (f *PathFollower) IsMoving() bool { return f.index < len(f.waypoints) }

// Remaining returns the number of waypoints not yet reached.
func (f *PathFollower) Remaining() int { return len(f.waypoints) - f.index }

// OnUpdate advances the current segment and starts the next one when it
// completes.
func (f *PathFollower) OnUpdate(dt float64) {
	if !f.IsMoving() {
		return
	}
	t := f.Owner().Transform()
	if f.tween == nil {
		to := f.waypoints[f.index].Add(f.Offset)
		if p := t.Parent(); p != nil {
			to = p.WorldToLocal(to)
		}
		d := f.StepDuration
		if d <= 0 {
			d = DefaultStepDuration
		}
		f.tween = TweenPosition(t, to, d, f.Ease)
	}
	f.tween.Update(float32(dt))
	if !f.tween.Done {
		return
	}
	f.tween = nil
	f.arrive()
}

func (f *PathFollower) arrive() {
	if f.index < len(f.cells) {
		if f.index > 0 {
			if prev := f.cells[f.index-1]; prev.Occupant() == f.Owner() {
				prev.SetOccupant(nil)
			}
		}
		f.cells[f.index].SetOccupant(f.Owner())
	}
	f.index++
	if f.index == len(f.waypoints) && f.OnArrive != nil {
		f.OnArrive()
	}
}

// Copy copies the settings, not the path in progress.
func (f *PathFollower) Copy(newOwner *Entity) Component {
	return &PathFollower{StepDuration: f.StepDuration, Ease: f.Ease, Offset: f.Offset}
}
