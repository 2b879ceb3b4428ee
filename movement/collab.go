package movement

import "github.com/go-gl/mathgl/mgl64"

// Input 一次步进中读取的四个输入值
type Input struct {
	Horizontal float64 // 左右轴 [-1,1]
	Vertical   float64 // 前后轴 [-1,1]
	LookX      float64 // 旋转轴
	Jump       bool
}

// InputSource 输入来源（按帧只读）
type InputSource interface {
	MovementInput() Input
}

// Mover 带碰撞的移动体：负责全部碰撞处理，IsGrounded 反映上一次 Move 的结果
type Mover interface {
	Move(displacement mgl64.Vec3)
	IsGrounded() bool
}

// Transform 朝向访问器，角度单位为度（X=pitch, Y=yaw, Z=roll）
type Transform interface {
	EulerAngles() mgl64.Vec3
	SetEulerAngles(euler mgl64.Vec3)
}

// HealthSource 外部持有的生命值
type HealthSource interface {
	Health() float64
}

// Activatable 受生命值开关控制的从属对象
type Activatable interface {
	SetActive(active bool)
}

// Deps 控制器依赖的外部协作者；Health 为空时不启用生命值开关
type Deps struct {
	Input      InputSource
	Mover      Mover
	Transform  Transform
	Health     HealthSource
	Dependents []Activatable
}
