// Package physics 提供服务端的带碰撞移动体：静态关卡由轴对齐盒子组成，
// 角色是一个按轴扫掠的运动学盒子。
package physics

import "github.com/go-gl/mathgl/mgl64"

// AABB 轴对齐包围盒
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// overlaps 两个盒子在指定轴上是否重叠（开区间，贴边不算）
func (b AABB) overlaps(o AABB, axis int) bool {
	return b.Min[axis] < o.Max[axis] && o.Min[axis] < b.Max[axis]
}

// Level 静态关卡几何；Floor 为 nil 时没有无限地面
type Level struct {
	Floor *float64
	Boxes []AABB
}

// FlatLevel 只有 y=height 地面的关卡
func FlatLevel(height float64) *Level {
	h := height
	return &Level{Floor: &h}
}

// solids 返回参与碰撞的全部盒子；地面被展开为足够大的薄盒子
func (l *Level) solids() []AABB {
	if l == nil {
		return nil
	}
	out := make([]AABB, 0, len(l.Boxes)+1)
	if l.Floor != nil {
		const inf = 1e9
		out = append(out, AABB{
			Min: mgl64.Vec3{-inf, -inf, -inf},
			Max: mgl64.Vec3{inf, *l.Floor, inf},
		})
	}
	return append(out, l.Boxes...)
}
