package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load server: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.TicksPerSecond != 50 || cfg.MaxInputsPerTick != 8 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("MOVEARENA_TPS", "30")
	t.Setenv("MOVEARENA_TUNING_FILE", "arena.yaml")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("load server: %v", err)
	}
	if cfg.TicksPerSecond != 30 || cfg.TuningFile != "arena.yaml" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("MOVEARENA_TPS", "fast")
	_, err := LoadServer()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestServerValidate(t *testing.T) {
	t.Setenv("MOVEARENA_WORKERS", "0")
	if _, err := LoadServer(); err == nil {
		t.Fatal("expected zero workers to be rejected")
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	f, err := Parse([]byte("movement:\n  jump_power: 10\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := f.Movement.Settings()
	if s.JumpPower != 10 {
		t.Fatalf("expected jump power 10, got %v", s.JumpPower)
	}
	if s.MoveSpeed != 2 || s.LookSpeed != 60 || s.Gravity != 9.81 || s.GroundSnap != -0.3 {
		t.Fatalf("defaults lost: %+v", s)
	}
	if len(f.Attachments) != 2 {
		t.Fatalf("expected default attachments, got %v", f.Attachments)
	}
}

func TestParseLevel(t *testing.T) {
	src := `
level:
  floor: 2
  boxes:
    - min: [0, 0, 0]
      max: [1, 3, 1]
spawn: [0, 4, 0]
attachments: [weapon]
`
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lvl := f.Level.Level()
	if lvl.Floor == nil || *lvl.Floor != 2 {
		t.Fatalf("unexpected floor %v", lvl.Floor)
	}
	if len(lvl.Boxes) != 1 || lvl.Boxes[0].Max.Y() != 3 {
		t.Fatalf("unexpected boxes %+v", lvl.Boxes)
	}
	if f.Spawn != [3]float64{0, 4, 0} || len(f.Attachments) != 1 {
		t.Fatalf("unexpected file %+v", f)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"gravity":     "movement:\n  gravity: 0\n",
		"ground snap": "movement:\n  ground_snap: 1\n",
		"look speed":  "movement:\n  look_speed: 1e7\n",
		"look nan":    "movement:\n  look_speed: .nan\n",
		"move inf":    "movement:\n  move_speed: .inf\n",
		"box":         "level:\n  boxes:\n    - min: [1, 1, 1]\n      max: [0, 2, 2]\n",
		"syntax":      "movement: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	f, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Movement.Settings().JumpPower != 8 {
		t.Fatalf("unexpected default %+v", f.Movement)
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("movement:\n  move_speed: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan File, 4)
	go w.Run(ctx, func(f File) { got <- f }, nil)

	if err := os.WriteFile(path, []byte("movement:\n  move_speed: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case f := <-got:
			if f.Movement.MoveSpeed == 5 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestLoadSampleTuning(t *testing.T) {
	f, err := Load(filepath.Join("..", "arena.yaml"))
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if len(f.Level.Boxes) != 2 || f.HalfExtents[0] != 0.4 {
		t.Fatalf("unexpected sample %+v", f)
	}
}
