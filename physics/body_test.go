package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"movearena/movement"
)

var (
	_ movement.Mover     = (*Body)(nil)
	_ movement.Transform = (*Body)(nil)
)

var unitHalf = mgl64.Vec3{0.5, 1, 0.5}

func TestBodyLandsOnFloor(t *testing.T) {
	b := NewBody(FlatLevel(0), mgl64.Vec3{0, 3, 0}, unitHalf)

	b.Move(mgl64.Vec3{0, -1, 0})
	if b.IsGrounded() {
		t.Fatal("should still be airborne")
	}
	b.Move(mgl64.Vec3{0, -5, 0})
	if !b.IsGrounded() {
		t.Fatal("expected grounded after hitting the floor")
	}
	if got := b.Position().Y(); math.Abs(got-1) > 1e-3 {
		t.Fatalf("expected to rest at y=1, got %v", got)
	}

	b.Move(mgl64.Vec3{0, -0.006, 0})
	if !b.IsGrounded() {
		t.Fatal("ground snap displacement must keep the body grounded")
	}
	b.Move(mgl64.Vec3{0, 0.1, 0})
	if b.IsGrounded() {
		t.Fatal("moving up must leave the ground")
	}
}

func TestBodyBlockedByWall(t *testing.T) {
	wall := AABB{Min: mgl64.Vec3{2, 0, -5}, Max: mgl64.Vec3{3, 4, 5}}
	lvl := FlatLevel(0)
	lvl.Boxes = []AABB{wall}
	b := NewBody(lvl, mgl64.Vec3{0, 1, 0}, unitHalf)

	b.Move(mgl64.Vec3{10, 0, 0})
	if got := b.Position().X(); math.Abs(got-1.5) > 1e-3 {
		t.Fatalf("expected to stop against the wall at x=1.5, got %v", got)
	}

	b.Move(mgl64.Vec3{0, 0, 2})
	if got := b.Position().Z(); math.Abs(got-2) > 1e-9 {
		t.Fatalf("sliding along the wall should be free, got z=%v", got)
	}
}

func TestBodyStandsOnPlatformAndHitsCeiling(t *testing.T) {
	lvl := &Level{Boxes: []AABB{
		{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 0, 1}},
		{Min: mgl64.Vec3{-1, 4, -1}, Max: mgl64.Vec3{1, 5, 1}},
	}}
	b := NewBody(lvl, mgl64.Vec3{0, 1.5, 0}, unitHalf)

	b.Move(mgl64.Vec3{0, 10, 0})
	if b.IsGrounded() {
		t.Fatal("hitting a ceiling is not grounded")
	}
	if got := b.Position().Y(); math.Abs(got-3) > 1e-3 {
		t.Fatalf("expected to stop under the ceiling at y=3, got %v", got)
	}

	b.Move(mgl64.Vec3{0, -10, 0})
	if !b.IsGrounded() || math.Abs(b.Position().Y()-1) > 1e-3 {
		t.Fatalf("expected to land on the platform, pos=%v grounded=%v", b.Position(), b.IsGrounded())
	}

	b.Move(mgl64.Vec3{5, 0, 0})
	b.Move(mgl64.Vec3{0, -1, 0})
	if b.IsGrounded() {
		t.Fatal("walking off the platform should fall")
	}
}

func TestNilLevelNeverCollides(t *testing.T) {
	b := NewBody(nil, mgl64.Vec3{}, unitHalf)
	b.Move(mgl64.Vec3{1, -100, 2})
	if b.IsGrounded() || b.Position() != (mgl64.Vec3{1, -100, 2}) {
		t.Fatalf("unexpected state %v grounded=%v", b.Position(), b.IsGrounded())
	}
}

func TestControllerOnBody(t *testing.T) {
	b := NewBody(FlatLevel(0), mgl64.Vec3{0, 1, 0}, unitHalf)
	in := &stubInput{}
	ctrl := movement.New(movement.DefaultSettings(), movement.Deps{Input: in, Mover: b, Transform: b}, nil)

	ctrl.Step(0.02)
	if !b.IsGrounded() {
		t.Fatal("body placed on the floor should report grounded after one step")
	}

	in.in.Jump = true
	ctrl.Step(0.02)
	in.in.Jump = false
	if b.IsGrounded() {
		t.Fatal("jump should lift the body")
	}
	peak := 0.0
	for i := 0; i < 200; i++ {
		ctrl.Step(0.02)
		peak = math.Max(peak, b.Position().Y())
	}
	if !b.IsGrounded() {
		t.Fatal("expected to land again")
	}
	// v²/2g 附近
	if peak < 3.5 || peak > 5 {
		t.Fatalf("unexpected jump apex %v", peak)
	}
}

type stubInput struct{ in movement.Input }

func (s *stubInput) MovementInput() movement.Input { return s.in }
