package grove

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// probe records the lifecycle callbacks it receives.
type probe struct {
	BaseComponent
	Label     string
	updates   int
	inits     int
	shutdowns int
	enables   []bool
	moved     int
	log       *[]string
	onUpdate  func(p *probe)
	failInit  error
}

func (p *probe) OnInitialize() error {
	p.inits++
	return p.failInit
}

func (p *probe) OnShutdown() {
	p.shutdowns++
	if p.log != nil {
		*p.log = append(*p.log, "shutdown "+p.Label)
	}
}

func (p *probe) OnUpdate(dt float64) {
	p.updates++
	if p.log != nil {
		*p.log = append(*p.log, "update "+p.Label)
	}
	if p.onUpdate != nil {
		p.onUpdate(p)
	}
}

func (p *probe) OnOwnerEnableChanged(enabled bool) { p.enables = append(p.enables, enabled) }

func (p *probe) OnOwnerTransformUpdated() { p.moved++ }

// plain has no hooks and no Copier, so copies are shallow.
type plain struct {
	BaseComponent
	Value int
}

func TestSpawnJoinsLiveSetOnNextUpdate(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	if !e.IsInitialized() {
		t.Error("spawned entity not initialized")
	}
	if len(s.Entities()) != 0 {
		t.Fatalf("Entities() = %d before Update, want 0", len(s.Entities()))
	}
	if s.Find("e") != e || s.FindByID(e.ID) != e {
		t.Error("staged entity not found by name or ID")
	}
	s.Update(0)
	if len(s.Entities()) != 1 || s.Entities()[0] != e {
		t.Fatalf("Entities() = %v, want [e]", s.Entities())
	}
}

func TestEntityIDsAreUnique(t *testing.T) {
	s := NewScene()
	a, b := s.Spawn("a"), s.Spawn("b")
	if a.ID == b.ID {
		t.Errorf("duplicate ID %d", a.ID)
	}
	if a.GUID == b.GUID {
		t.Errorf("duplicate GUID %s", a.GUID)
	}
}

func TestAttachInitializesImmediately(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	p := &probe{}
	if err := e.Attach(p); err != nil {
		t.Fatal(err)
	}
	if p.inits != 1 || p.Owner() != e || !p.IsAttached() {
		t.Errorf("inits=%d owner=%v attached=%v", p.inits, p.Owner(), p.IsAttached())
	}
	if GetComponent[*probe](e) != p {
		t.Error("GetComponent did not return attached probe")
	}
	if err := e.Attach(p); !errors.Is(err, ErrComponentAttached) {
		t.Errorf("second Attach = %v, want ErrComponentAttached", err)
	}
}

func TestAttachInitFailure(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	boom := errors.New("boom")
	p := &probe{failInit: boom}
	err := e.Attach(p)
	if !errors.Is(err, boom) {
		t.Fatalf("Attach = %v, want wrapped boom", err)
	}
	if p.IsAttached() || p.Owner() != nil {
		t.Error("failed component left attached")
	}
	if len(e.Components()) != 0 {
		t.Errorf("Components() = %d, want 0", len(e.Components()))
	}
}

func TestAddComponentGeneric(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	p, err := AddComponent[probe](e)
	if err != nil {
		t.Fatal(err)
	}
	if p.inits != 1 || GetComponent[*probe](e) != p {
		t.Error("AddComponent did not attach an initialized probe")
	}
}

func TestComponentAttachedDuringUpdateStartsNextFrame(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	late := &probe{Label: "late"}
	added := false
	_ = e.Attach(&probe{Label: "spawner", onUpdate: func(p *probe) {
		if !added {
			added = true
			if err := e.Attach(late); err != nil {
				t.Error(err)
			}
			if GetComponent[*probe](e) == nil || len(GetComponents[*probe](e)) != 2 {
				t.Error("pending component not visible to GetComponents")
			}
		}
	}})

	s.Update(0)
	if late.updates != 0 {
		t.Errorf("late updated %d times in the frame it was attached", late.updates)
	}
	if len(e.Components()) != 1 {
		t.Errorf("live components = %d during pending add, want 1", len(e.Components()))
	}
	s.Update(0)
	if late.updates != 1 {
		t.Errorf("late updates = %d after next frame, want 1", late.updates)
	}
}

func TestComponentRemovedDuringUpdateSkipped(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	victim := &probe{Label: "victim"}
	removed := false
	_ = e.Attach(&probe{Label: "remover", onUpdate: func(p *probe) {
		if !removed {
			removed = true
			if !e.RemoveComponent(victim) {
				t.Error("RemoveComponent = false")
			}
			if e.RemoveComponent(victim) {
				t.Error("second RemoveComponent = true")
			}
		}
	}})
	_ = e.Attach(victim)

	s.Update(0)
	if victim.updates != 0 {
		t.Errorf("victim updated %d times after removal", victim.updates)
	}
	if victim.shutdowns != 0 {
		t.Error("victim shut down before the pending list drained")
	}
	if GetComponent[*probe](e) == victim {
		t.Error("GetComponent returned a component queued for removal")
	}

	s.Update(0)
	if victim.shutdowns != 1 || victim.Owner() != nil {
		t.Errorf("shutdowns=%d owner=%v, want 1 and nil", victim.shutdowns, victim.Owner())
	}
	if len(e.Components()) != 1 {
		t.Errorf("Components() = %d, want 1", len(e.Components()))
	}
}

func TestRemoveComponentOutsideUpdate(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	p := &probe{}
	_ = e.Attach(p)
	if !e.RemoveComponent(p) {
		t.Fatal("RemoveComponent = false")
	}
	if p.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", p.shutdowns)
	}
	if e.RemoveComponent(p) {
		t.Error("removing a detached component returned true")
	}
	other := s.Spawn("other")
	q := &probe{}
	_ = other.Attach(q)
	if e.RemoveComponent(q) {
		t.Error("removing another entity's component returned true")
	}
	if e.RemoveComponent(nil) {
		t.Error("removing nil returned true")
	}
}

func TestDisabledComponentNotUpdated(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	p := &probe{}
	_ = e.Attach(p)
	p.SetEnabled(false)
	s.Update(0)
	if p.updates != 0 {
		t.Errorf("disabled component updated %d times", p.updates)
	}
}

func TestSetEnabledPropagatesToDescendants(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	child := s.Spawn("child")
	off := s.Spawn("off")
	_ = child.SetParent(root)
	_ = off.SetParent(root)
	off.SetEnabled(false)

	rp, cp, op := &probe{}, &probe{}, &probe{}
	_ = root.Attach(rp)
	_ = child.Attach(cp)
	_ = off.Attach(op)

	root.SetEnabled(false)
	if len(rp.enables) != 1 || rp.enables[0] {
		t.Errorf("root enables = %v, want [false]", rp.enables)
	}
	if len(cp.enables) != 1 || cp.enables[0] {
		t.Errorf("child enables = %v, want [false]", cp.enables)
	}
	if len(op.enables) != 0 {
		t.Errorf("already-disabled child notified: %v", op.enables)
	}
	if child.IsActiveInHierarchy() {
		t.Error("child active under disabled root")
	}
	if !child.Enabled() {
		t.Error("child's own flag changed")
	}

	s.Update(0)
	if rp.updates != 0 || cp.updates != 0 {
		t.Error("inactive entities were updated")
	}

	root.SetEnabled(true)
	if len(cp.enables) != 2 || !cp.enables[1] {
		t.Errorf("child enables = %v, want [false true]", cp.enables)
	}
}

func TestSetParentForeignScene(t *testing.T) {
	a := NewScene().Spawn("a")
	b := NewScene().Spawn("b")
	if err := a.SetParent(b); !errors.Is(err, ErrForeignScene) {
		t.Errorf("SetParent = %v, want ErrForeignScene", err)
	}
}

func TestEntityFindDescendant(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	mid := s.Spawn("mid")
	leaf := s.Spawn("leaf")
	_ = root.AddChild(mid)
	_ = mid.AddChild(leaf)
	if root.Find("leaf") != leaf {
		t.Error("Find(leaf) failed")
	}
	if root.Find("missing") != nil {
		t.Error("Find(missing) returned an entity")
	}
}

func TestTransformListenerNotified(t *testing.T) {
	s := NewScene()
	parent := s.Spawn("parent")
	child := s.Spawn("child")
	_ = child.SetParent(parent)
	p := &probe{}
	_ = child.Attach(p)
	s.Update(0)
	before := p.moved
	if before == 0 {
		t.Fatal("listener not notified on first recompute")
	}
	parent.Transform().SetPosition(mgl64.Vec3{1, 0, 0})
	s.Update(0)
	if p.moved <= before {
		t.Error("child listener not notified when parent moved")
	}
}

func TestEntityShutdownReverseOrder(t *testing.T) {
	s := NewScene()
	parent := s.Spawn("parent")
	e := s.Spawn("e")
	_ = e.SetParent(parent)
	var log []string
	_ = e.Attach(&probe{Label: "a", log: &log})
	_ = e.Attach(&probe{Label: "b", log: &log})

	e.Shutdown()
	if !e.IsShutdown() || e.Transform() != nil {
		t.Error("entity not shut down")
	}
	if len(log) != 2 || log[0] != "shutdown b" || log[1] != "shutdown a" {
		t.Errorf("shutdown order = %v, want [shutdown b, shutdown a]", log)
	}
	if len(parent.Children()) != 0 || e.Parent() != nil {
		t.Error("parent link not cleared")
	}
	if err := e.Attach(&probe{}); !errors.Is(err, ErrEntityShutdown) {
		t.Errorf("Attach after shutdown = %v, want ErrEntityShutdown", err)
	}
	e.Shutdown()
}

func TestEntityShutdownDuringOwnUpdateDeferred(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	var log []string
	_ = e.Attach(&probe{Label: "killer", log: &log, onUpdate: func(p *probe) {
		e.Shutdown()
		if e.IsShutdown() {
			t.Error("entity shut down inside its own update")
		}
	}})
	_ = e.Attach(&probe{Label: "after", log: &log})
	s.Update(0)
	if !e.IsShutdown() {
		t.Fatal("deferred shutdown did not run")
	}
	want := []string{"update killer", "update after", "shutdown after", "shutdown killer"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestEntityCopyDeep(t *testing.T) {
	s := NewScene()
	root := s.Spawn("root")
	child := s.Spawn("child")
	_ = child.SetParent(root)
	root.Transform().SetPosition(mgl64.Vec3{1, 2, 3})
	child.Transform().SetRotation(mgl64.Vec3{0, 45, 0})
	_ = root.Attach(&plain{Value: 7})
	cp := &probe{Label: "c"}
	_ = child.Attach(cp)
	cp.SetEnabled(false)

	dup := root.Copy()
	if dup == nil {
		t.Fatal("Copy returned nil")
	}
	if dup.Name != "root (Copy)" {
		t.Errorf("Name = %q", dup.Name)
	}
	if dup.ID == root.ID || dup.GUID == root.GUID {
		t.Error("copy shares identity with the original")
	}
	assertVec(t, "position", dup.Transform().Position(), mgl64.Vec3{1, 2, 3}, epsilon)

	pl := GetComponent[*plain](dup)
	if pl == nil || pl.Value != 7 || pl == GetComponent[*plain](root) {
		t.Errorf("plain copy = %+v", pl)
	}
	if len(dup.Children()) != 1 {
		t.Fatalf("copied children = %d, want 1", len(dup.Children()))
	}
	dc := dup.Children()[0]
	if dc.Name != "child" || dc.Parent() != dup {
		t.Errorf("child copy name=%q parent=%v", dc.Name, dc.Parent())
	}
	assertVec(t, "child rotation", dc.Transform().Rotation(), mgl64.Vec3{0, 45, 0}, epsilon)
	pc := GetComponent[*probe](dc)
	if pc == nil || pc == cp || pc.Owner() != dc {
		t.Fatalf("probe copy = %+v", pc)
	}
	if pc.Enabled() {
		t.Error("copy did not keep the disabled state")
	}
	if !pc.IsAttached() || cp.Owner() != child {
		t.Error("copy disturbed the original or was not attached")
	}
}

func TestCopyOfShutdownEntity(t *testing.T) {
	s := NewScene()
	e := s.Spawn("e")
	e.Shutdown()
	if e.Copy() != nil {
		t.Error("Copy of a shut down entity returned non-nil")
	}
	if s.SpawnCopy(e) != nil {
		t.Error("SpawnCopy of a shut down entity returned non-nil")
	}
}

func TestComponentTypeName(t *testing.T) {
	if got := componentTypeName(&plain{}); got != "plain" {
		t.Errorf("plain = %q", got)
	}
	if got := componentTypeName(&Camera{}); got != "camera" {
		t.Errorf("camera = %q", got)
	}
}
