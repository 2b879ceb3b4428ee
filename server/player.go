package server

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"movearena/movement"
	"movearena/physics"
)

// PlayerID 表示玩家唯一标识
type PlayerID string

// Attachment 挂在玩家身上的从属对象（武器、名牌等），随生命值开关启停
type Attachment struct {
	Name   string
	Active bool
}

// SetActive 实现 movement.Activatable
func (a *Attachment) SetActive(active bool) { a.Active = active }

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      float64 `json:"yaw"`
	Grounded bool    `json:"grounded"`
	Active   bool    `json:"active"`
	Health   float64 `json:"health"`
}

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	ID      PlayerID
	Session string

	Body        *physics.Body
	Controller  *movement.Controller
	Attachments []*Attachment

	health float64
	input  inputLatch

	Conn *ClientConn // 网络连接的发送端（写协程）
}

// Health 实现 movement.HealthSource
func (p *Player) Health() float64 { return p.health }

// playerSpec 创建玩家所需的房间参数
type playerSpec struct {
	level       *physics.Level
	spawn       mgl64.Vec3
	halfExtents mgl64.Vec3
	attachments []string
	settings    movement.Settings
}

func newPlayer(id PlayerID, session string, spec playerSpec, conn *ClientConn, log *zap.Logger) *Player {
	p := &Player{
		ID:      id,
		Session: session,
		Body:    physics.NewBody(spec.level, spec.spawn, spec.halfExtents),
		health:  100,
		Conn:    conn,
	}
	deps := movement.Deps{
		Input:     &p.input,
		Mover:     p.Body,
		Transform: p.Body,
		Health:    p,
	}
	for _, name := range spec.attachments {
		a := &Attachment{Name: name, Active: true}
		p.Attachments = append(p.Attachments, a)
		deps.Dependents = append(deps.Dependents, a)
	}
	p.Controller = movement.New(spec.settings, deps, log.With(zap.String("player", string(id))))
	return p
}

// State 当前可广播的状态
func (p *Player) State() PlayerState {
	pos := p.Body.Position()
	active := true
	for _, a := range p.Attachments {
		active = active && a.Active
	}
	return PlayerState{
		ID:       string(p.ID),
		X:        pos.X(),
		Y:        pos.Y(),
		Z:        pos.Z(),
		Yaw:      p.Body.EulerAngles().Y(),
		Grounded: p.Body.IsGrounded(),
		Active:   active,
		Health:   p.health,
	}
}
