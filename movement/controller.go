package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Settings 移动调参
type Settings struct {
	MoveSpeed  float64 // 移动速度
	LookSpeed  float64 // 旋转速度（度/秒）
	JumpPower  float64 // 起跳速度
	Gravity    float64 // 重力强度
	GroundSnap float64 // 着地时的竖直速度下限，保持贴地
}

// DefaultSettings 默认调参
func DefaultSettings() Settings {
	return Settings{
		MoveSpeed:  2,
		LookSpeed:  60,
		JumpPower:  8,
		Gravity:    9.81,
		GroundSnap: -0.3,
	}
}

// State 控制器持有的移动状态；速度跨帧保留
type State struct {
	Velocity mgl64.Vec3
	Jump     JumpState
}

// DoubleJumpAvailable 空中跳跃是否仍可用
func (s State) DoubleJumpAvailable() bool { return s.Jump == JumpReady }

// Controller 每帧根据输入、着地状态与重力计算位移并交给 Mover
type Controller struct {
	settings Settings
	deps     Deps
	state    State
	log      *zap.Logger
}

// New 创建控制器。缺少 Mover 时记录错误，此后所有移动都不会发生
func New(settings Settings, deps Deps, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Mover == nil {
		log.Error("character mover not found; movement disabled")
	}
	if deps.Input == nil {
		log.Warn("input source not found; using zero input")
	}
	if deps.Transform == nil {
		log.Warn("transform not found; rotation disabled")
	}
	return &Controller{settings: settings, deps: deps, log: log}
}

// State 当前移动状态的副本
func (c *Controller) State() State { return c.state }

// Settings 当前调参
func (c *Controller) Settings() Settings { return c.settings }

// SetSettings 替换调参，下一次 Step 生效
func (c *Controller) SetSettings(s Settings) { c.settings = s }

// Alive 生命值开关是否放行（未配置生命值时恒为 true）
func (c *Controller) Alive() bool {
	return c.deps.Health == nil || c.deps.Health.Health() >= 0
}

// Step 推进一步，dt 单位为秒
func (c *Controller) Step(dt float64) {
	if c.deps.Health != nil {
		alive := c.Alive()
		for _, d := range c.deps.Dependents {
			d.SetActive(alive)
		}
		if !alive {
			return
		}
	}

	var in Input
	if c.deps.Input != nil {
		in = c.deps.Input.MovementInput()
	}

	if c.deps.Mover != nil {
		c.move(in, dt)
	}
	c.rotate(in.LookX, dt)
}

func (c *Controller) move(in Input, dt float64) {
	s := c.settings
	grounded := c.deps.Mover.IsGrounded()

	planar := c.localDirection(in.Horizontal, in.Vertical).Mul(s.MoveSpeed)
	vel := c.state.Velocity
	vel[0], vel[2] = planar[0], planar[2]

	if grounded {
		c.state.Jump = c.state.Jump.land()
		if in.Jump {
			vel[1] = s.JumpPower
		}
	} else if in.Jump {
		var ok bool
		if c.state.Jump, ok = c.state.Jump.tryAirJump(); ok {
			vel[1] = s.JumpPower
		}
	}

	vel[1] -= s.Gravity * dt
	if grounded && vel[1] < 0 {
		vel[1] = s.GroundSnap
	}

	c.state.Velocity = vel
	c.deps.Mover.Move(vel.Mul(dt))
}

// localDirection 把 (h, 0, v) 旋转到当前 yaw 的右/前基底
func (c *Controller) localDirection(h, v float64) mgl64.Vec3 {
	dir := mgl64.Vec3{h, 0, v}
	if c.deps.Transform == nil {
		return dir
	}
	yaw := c.deps.Transform.EulerAngles()[1]
	if !isFinite(yaw) {
		return dir
	}
	return mgl64.Rotate3DY(mgl64.DegToRad(yaw)).Mul3x1(dir)
}

func (c *Controller) rotate(lookX, dt float64) {
	if c.deps.Transform == nil {
		return
	}
	euler := c.deps.Transform.EulerAngles()
	yaw := wrapDegrees(euler[1] + lookX*c.settings.LookSpeed*dt)
	if !isFinite(yaw) {
		c.log.Debug("non-finite yaw; rotation skipped", zap.Float64("lookX", lookX), zap.Float64("dt", dt))
		return
	}
	euler[1] = yaw
	c.deps.Transform.SetEulerAngles(euler)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// wrapDegrees 归一化到 [0,360)
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
