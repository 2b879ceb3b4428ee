package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"movearena/movement"
	"movearena/physics"
)

// Server 进程级配置，从环境变量读取，main 中可再由命令行覆盖
type Server struct {
	Addr             string  `env:"MOVEARENA_ADDR" envDefault:":8080"`
	LogFile          string  `env:"MOVEARENA_LOG_FILE" envDefault:"app.log"`
	TuningFile       string  `env:"MOVEARENA_TUNING_FILE"`
	TicksPerSecond   int     `env:"MOVEARENA_TPS" envDefault:"50"`
	Workers          int     `env:"MOVEARENA_WORKERS" envDefault:"8"`
	InputRate        float64 `env:"MOVEARENA_INPUT_RATE" envDefault:"120"`
	InputBurst       int     `env:"MOVEARENA_INPUT_BURST" envDefault:"30"`
	MaxInputsPerTick int     `env:"MOVEARENA_MAX_INPUTS_PER_TICK" envDefault:"8"`
}

// ParseEnv 从环境变量加载配置
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer 读取 Server 配置并校验
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (s Server) Validate() error {
	if s.TicksPerSecond <= 0 {
		return errors.New("ticks per second must be positive")
	}
	if s.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if s.InputRate <= 0 || s.InputBurst <= 0 {
		return errors.New("input rate and burst must be positive")
	}
	return nil
}

// Tuning 移动调参（YAML）
type Tuning struct {
	MoveSpeed  float64 `yaml:"move_speed"`
	LookSpeed  float64 `yaml:"look_speed"`
	JumpPower  float64 `yaml:"jump_power"`
	Gravity    float64 `yaml:"gravity"`
	GroundSnap float64 `yaml:"ground_snap"`
}

// Settings 转为控制器调参
func (t Tuning) Settings() movement.Settings {
	return movement.Settings{
		MoveSpeed:  t.MoveSpeed,
		LookSpeed:  t.LookSpeed,
		JumpPower:  t.JumpPower,
		Gravity:    t.Gravity,
		GroundSnap: t.GroundSnap,
	}
}

// MaxLookSpeed look_speed 的绝对值上限（度/秒）
const MaxLookSpeed = 1e6

func (t Tuning) Validate() error {
	for name, v := range map[string]float64{
		"move_speed":  t.MoveSpeed,
		"look_speed":  t.LookSpeed,
		"jump_power":  t.JumpPower,
		"gravity":     t.Gravity,
		"ground_snap": t.GroundSnap,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	if math.Abs(t.LookSpeed) > MaxLookSpeed {
		return fmt.Errorf("look_speed must be within ±%g", MaxLookSpeed)
	}
	if t.MoveSpeed <= 0 {
		return errors.New("move_speed must be positive")
	}
	if t.Gravity <= 0 {
		return errors.New("gravity must be positive")
	}
	if t.JumpPower < 0 {
		return errors.New("jump_power must not be negative")
	}
	if t.GroundSnap > 0 {
		return errors.New("ground_snap must not be positive")
	}
	return nil
}

// Box 关卡中的一个实心盒子
type Box struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// LevelSpec 关卡描述
type LevelSpec struct {
	Floor *float64 `yaml:"floor"`
	Boxes []Box    `yaml:"boxes"`
}

// Level 构建物理关卡
func (l LevelSpec) Level() *physics.Level {
	lvl := &physics.Level{}
	if l.Floor != nil {
		f := *l.Floor
		lvl.Floor = &f
	}
	for _, b := range l.Boxes {
		lvl.Boxes = append(lvl.Boxes, physics.AABB{Min: mgl64.Vec3(b.Min), Max: mgl64.Vec3(b.Max)})
	}
	return lvl
}

// File 调参文件的完整内容
type File struct {
	Movement    Tuning     `yaml:"movement"`
	Level       LevelSpec  `yaml:"level"`
	Spawn       [3]float64 `yaml:"spawn"`
	HalfExtents [3]float64 `yaml:"half_extents"`
	Attachments []string   `yaml:"attachments"`
}

// Default 没有调参文件时使用的配置
func Default() File {
	d := movement.DefaultSettings()
	floor := 0.0
	return File{
		Movement: Tuning{
			MoveSpeed:  d.MoveSpeed,
			LookSpeed:  d.LookSpeed,
			JumpPower:  d.JumpPower,
			Gravity:    d.Gravity,
			GroundSnap: d.GroundSnap,
		},
		Level:       LevelSpec{Floor: &floor},
		Spawn:       [3]float64{0, 1, 0},
		HalfExtents: [3]float64{0.5, 1, 0.5},
		Attachments: []string{"weapon", "nameplate"},
	}
}

func (f File) Validate() error {
	if err := f.Movement.Validate(); err != nil {
		return fmt.Errorf("movement: %w", err)
	}
	for i, v := range f.HalfExtents {
		if v <= 0 {
			return fmt.Errorf("half_extents[%d] must be positive", i)
		}
	}
	for i, b := range f.Level.Boxes {
		for a := 0; a < 3; a++ {
			if b.Min[a] >= b.Max[a] {
				return fmt.Errorf("level.boxes[%d]: min must be below max", i)
			}
		}
	}
	return nil
}

// Parse 在默认值之上解析 YAML，缺省字段保留默认
func Parse(data []byte) (File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse tuning: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("invalid tuning: %w", err)
	}
	return f, nil
}

// Load 读取调参文件；path 为空时返回默认配置
func Load(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read tuning %s: %w", path, err)
	}
	return Parse(data)
}
