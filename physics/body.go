package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// skin 扫掠时保留的间隙，避免浮点误差导致贴面后再次判定为重叠
const skin = 1e-6

// Body 运动学角色盒子，实现 movement.Mover 与 movement.Transform
type Body struct {
	level    *Level
	pos      mgl64.Vec3 // 盒子中心
	half     mgl64.Vec3 // 半尺寸
	euler    mgl64.Vec3
	grounded bool
}

// NewBody 在 pos 处创建角色盒子
func NewBody(level *Level, pos, halfExtents mgl64.Vec3) *Body {
	return &Body{level: level, pos: pos, half: halfExtents}
}

func (b *Body) Position() mgl64.Vec3 { return b.pos }

// SetPosition 直接放置（不做碰撞），用于出生点
func (b *Body) SetPosition(p mgl64.Vec3) {
	b.pos = p
	b.grounded = false
}

func (b *Body) IsGrounded() bool { return b.grounded }

func (b *Body) EulerAngles() mgl64.Vec3 { return b.euler }

func (b *Body) SetEulerAngles(e mgl64.Vec3) { b.euler = e }

func (b *Body) bounds() AABB {
	return AABB{Min: b.pos.Sub(b.half), Max: b.pos.Add(b.half)}
}

// Move 依次沿 X、Z、Y 扫掠位移；向下被挡住即视为着地
func (b *Body) Move(d mgl64.Vec3) {
	solids := b.level.solids()
	b.sweep(solids, 0, d[0])
	b.sweep(solids, 2, d[2])
	blocked := b.sweep(solids, 1, d[1])
	b.grounded = blocked && d[1] < 0
}

// sweep 沿单轴移动 delta，遇到第一个面即停下，返回是否被挡住
func (b *Body) sweep(solids []AABB, axis int, delta float64) bool {
	if delta == 0 {
		return false
	}
	box := b.bounds()
	allowed := delta
	blocked := false
	for _, s := range solids {
		if !crossesOnOtherAxes(box, s, axis) {
			continue
		}
		var gap float64
		if delta > 0 {
			gap = s.Min[axis] - box.Max[axis]
			if gap < -skin || gap > allowed {
				continue
			}
		} else {
			gap = s.Max[axis] - box.Min[axis]
			if gap > skin || gap < allowed {
				continue
			}
		}
		allowed = gap - math.Copysign(skin, delta)
		if math.Signbit(allowed) != math.Signbit(delta) {
			allowed = 0
		}
		blocked = true
	}
	b.pos[axis] += allowed
	return blocked
}

func crossesOnOtherAxes(a, s AABB, axis int) bool {
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		if !a.overlaps(s, i) {
			return false
		}
	}
	return true
}
