package server

import (
	"math"
	"strings"

	"movearena/movement"
)

// Direction 旧版离散移动指令，映射为持续的轴输入
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// ParseDirection 解析 "up"/"down"/"left"/"right"，其余视为停止
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "up":
		return DirUp
	case "down":
		return DirDown
	case "left":
		return DirLeft
	case "right":
		return DirRight
	default:
		return DirNone
	}
}

// Axes 方向对应的 (horizontal, vertical)
func (d Direction) Axes() (h, v float64) {
	switch d {
	case DirUp:
		return 0, 1
	case DirDown:
		return 0, -1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	default:
		return 0, 0
	}
}

// Input 客户端输入（意图），由服务端在 Tick 中解释并驱动世界状态
type Input struct {
	PlayerID   PlayerID
	Horizontal float64
	Vertical   float64
	LookX      float64
	Jump       bool
	Seq        int64 // 客户端本地序列号，用于去重与确认
}

// 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"input","h":0,"v":1,"look":0.5,"jump":true,"seq":3}
// 兼容旧格式：{"type":"move","command":"up"}
type InputMessage struct {
	Type    string  `json:"type"`
	H       float64 `json:"h"`
	V       float64 `json:"v"`
	Look    float64 `json:"look"`
	Jump    bool    `json:"jump"`
	Command string  `json:"command,omitempty"`
	Seq     int64   `json:"seq,omitempty"`
}

// ToInput 校验并转换为 Input；不认识的类型返回 false
func (m InputMessage) ToInput(pid PlayerID) (Input, bool) {
	in := Input{PlayerID: pid, Seq: m.Seq}
	switch strings.ToLower(m.Type) {
	case "input":
		in.Horizontal = clampAxis(m.H)
		in.Vertical = clampAxis(m.V)
		in.LookX = clampLook(m.Look)
		in.Jump = m.Jump
	case "move":
		in.Horizontal, in.Vertical = ParseDirection(m.Command).Axes()
	default:
		return Input{}, false
	}
	return in, true
}

func clampAxis(v float64) float64 {
	return math.Max(-1, math.Min(1, finite(v)))
}

// maxLook 单个输入允许的最大视角轴值（鼠标增量可以大于 1）
const maxLook = 10

func clampLook(v float64) float64 {
	return math.Max(-maxLook, math.Min(maxLook, finite(v)))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// inputLatch 玩家当前输入：轴取最新值，跳跃锁存到被某个 Tick 消费
type inputLatch struct {
	cur     movement.Input
	lastSeq int64
	count   int // 本 Tick 已接受的输入数
}

// MovementInput 实现 movement.InputSource
func (l *inputLatch) MovementInput() movement.Input { return l.cur }

func (l *inputLatch) apply(in Input) {
	l.cur.Horizontal = in.Horizontal
	l.cur.Vertical = in.Vertical
	l.cur.LookX = in.LookX
	l.cur.Jump = l.cur.Jump || in.Jump
	if in.Seq > 0 {
		l.lastSeq = in.Seq
	}
	l.count++
}

// stale 序列号不大于已接受的最大序列号
func (l *inputLatch) stale(seq int64) bool {
	return seq > 0 && seq <= l.lastSeq
}

// endTick 跳跃只作用一个 Tick
func (l *inputLatch) endTick() {
	l.cur.Jump = false
	l.count = 0
}
