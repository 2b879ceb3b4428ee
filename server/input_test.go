package server

import (
	"encoding/json"
	"math"
	"testing"
)

func TestInputMessageToInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Input
		ok   bool
	}{
		{"analog", `{"type":"input","h":0.5,"v":-1,"look":2,"jump":true,"seq":4}`,
			Input{PlayerID: "p", Horizontal: 0.5, Vertical: -1, LookX: 2, Jump: true, Seq: 4}, true},
		{"clamped axes", `{"type":"input","h":3,"v":-7}`,
			Input{PlayerID: "p", Horizontal: 1, Vertical: -1}, true},
		{"huge look", `{"type":"input","look":1e308}`,
			Input{PlayerID: "p", LookX: maxLook}, true},
		{"huge negative look", `{"type":"input","look":-1e308}`,
			Input{PlayerID: "p", LookX: -maxLook}, true},
		{"legacy up", `{"type":"move","command":"up"}`,
			Input{PlayerID: "p", Vertical: 1}, true},
		{"legacy left", `{"type":"MOVE","command":"Left"}`,
			Input{PlayerID: "p", Horizontal: -1}, true},
		{"legacy stop", `{"type":"move","command":"stop"}`,
			Input{PlayerID: "p"}, true},
		{"unknown", `{"type":"chat"}`, Input{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m InputMessage
			if err := json.Unmarshal([]byte(tt.raw), &m); err != nil {
				t.Fatal(err)
			}
			got, ok := m.ToInput("p")
			if ok != tt.ok || got != tt.want {
				t.Fatalf("got %+v ok=%v, want %+v ok=%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClampAxisRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if clampAxis(v) != 0 {
			t.Fatalf("expected 0 for %v", v)
		}
	}
}

func TestInputLatch(t *testing.T) {
	var l inputLatch
	l.apply(Input{Horizontal: 1, Jump: true, Seq: 3})
	l.apply(Input{Vertical: 1, Seq: 4})

	cur := l.MovementInput()
	if cur.Horizontal != 0 || cur.Vertical != 1 {
		t.Fatalf("axes should follow the latest input, got %+v", cur)
	}
	if !cur.Jump {
		t.Fatal("jump should stay latched until the tick ends")
	}
	if !l.stale(4) || l.stale(5) || l.stale(0) {
		t.Fatal("unexpected stale check")
	}

	l.endTick()
	if l.MovementInput().Jump || l.count != 0 {
		t.Fatal("endTick should clear jump and the per-tick count")
	}
	if l.MovementInput().Vertical != 1 {
		t.Fatal("axes are held across ticks")
	}
}
