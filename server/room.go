package server

import (
	"encoding/json"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"movearena/config"
	"movearena/movement"
	"movearena/physics"
)

// RoomConfig 房间可热更新的规则
type RoomConfig struct {
	Movement         movement.Settings
	MaxInputsPerTick int
	SimulateDropProb float64
	// SimulateDelayTicks 模拟网络延迟：输入延后若干 Tick 才生效
	SimulateDelayTicks int
}

type joinRequest struct {
	id      PlayerID
	session string
	conn    *ClientConn
}

type leaveRequest struct {
	id   PlayerID
	conn *ClientConn // 非空时仅当玩家仍使用该连接才移除
}

type delayedInput struct {
	due int64
	in  Input
}

type healthUpdate struct {
	id     PlayerID
	health float64
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进
type Room struct {
	ID string

	Players    map[PlayerID]*Player
	joinChan   chan joinRequest
	inputChan  chan Input
	leaveChan  chan leaveRequest
	healthChan chan healthUpdate

	// 配置：HTTP 侧整体替换，Tick 开始时检测并下发到控制器
	cfg     atomic.Pointer[RoomConfig]
	applied *RoomConfig

	level       *physics.Level
	spawn       mgl64.Vec3
	halfExtents mgl64.Vec3
	attachments []string

	tickSeq  atomic.Int64
	players  atomic.Int32 // len(Players)，供 HTTP 侧读取
	metrics  *RoomMetrics
	lastSent map[PlayerID]PlayerState
	delayed  []delayedInput
	rng      *rand.Rand
	log      *zap.Logger
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, f config.File, cfg RoomConfig) *Room {
	r := &Room{
		ID:          id,
		Players:     make(map[PlayerID]*Player),
		joinChan:    make(chan joinRequest, 64),
		inputChan:   make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan:   make(chan leaveRequest, 64),
		healthChan:  make(chan healthUpdate, 64),
		level:       f.Level.Level(),
		spawn:       mgl64.Vec3(f.Spawn),
		halfExtents: mgl64.Vec3(f.HalfExtents),
		attachments: append([]string(nil), f.Attachments...),
		metrics:     &RoomMetrics{},
		lastSent:    make(map[PlayerID]PlayerState),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		log:         Log.Desugar().Named("room").With(zap.String("room", id)),
	}
	r.SetConfig(cfg)
	r.applied = r.cfg.Load()
	return r
}

// Config 当前配置副本
func (r *Room) Config() RoomConfig { return *r.cfg.Load() }

// SetConfig 替换配置，下一个 Tick 生效
func (r *Room) SetConfig(cfg RoomConfig) { r.cfg.Store(&cfg) }

// UpdateConfig 在当前配置副本上执行 fn 并原子替换；并发修改时重试，不丢更新。
// fn 返回错误时配置保持不变
func (r *Room) UpdateConfig(fn func(*RoomConfig) error) (RoomConfig, error) {
	for {
		old := r.cfg.Load()
		next := *old
		if err := fn(&next); err != nil {
			return *old, err
		}
		if r.cfg.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// TickSeq 已推进的 Tick 数
func (r *Room) TickSeq() int64 { return r.tickSeq.Load() }

func (r *Room) playerCount() int { return int(r.players.Load()) }

// JoinPlayer 请求在 Tick 线程中加入玩家；同 ID 重连会替换旧连接
func (r *Room) JoinPlayer(id PlayerID, session string, conn *ClientConn) {
	r.joinChan <- joinRequest{id: id, session: session, conn: conn}
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(pid PlayerID, conn *ClientConn) {
	// 为保证移除一定生效，这里采用阻塞式写入（通道有容量，避免死锁）
	r.leaveChan <- leaveRequest{id: pid, conn: conn}
}

// SetHealth 请求修改玩家生命值（驱动生命值开关）
func (r *Room) SetHealth(pid PlayerID, health float64) {
	r.healthChan <- healthUpdate{id: pid, health: health}
}

// OnInput 入站输入（不立即改变状态），仅记录意图，等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inputChan <- in:
	default:
		r.metrics.ChanFullDiscarded.Add(1)
	}
}

// Tick 推进一帧：处理输入 → 更新世界 → 广播结果
func (r *Room) Tick(dt float64) {
	start := time.Now()
	r.BeginTick()
	r.ProcessInputs()
	r.UpdateWorld(dt)
	r.BroadcastDelta()
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// BeginTick 开始新的一帧：下发变更过的配置
func (r *Room) BeginTick() {
	r.tickSeq.Add(1)
	cfg := r.cfg.Load()
	if cfg == r.applied {
		return
	}
	r.applied = cfg
	for _, p := range r.Players {
		p.Controller.SetSettings(cfg.Movement)
	}
}

// ProcessInputs 处理当前帧排队的加入、生命值、输入与离开（非阻塞 drain）
func (r *Room) ProcessInputs() {
	drain(r.joinChan, r.join)
	drain(r.healthChan, func(u healthUpdate) {
		if p, ok := r.Players[u.id]; ok {
			p.health = u.health
			r.log.Info("health updated", zap.String("player", string(u.id)), zap.Float64("health", u.health))
		}
	})
	r.releaseDelayed()
	drain(r.inputChan, r.acceptInput)
	drain(r.leaveChan, r.leave)
}

func drain[T any](ch chan T, fn func(T)) {
	for {
		select {
		case v := <-ch:
			fn(v)
		default:
			return
		}
	}
}

func (r *Room) join(req joinRequest) {
	if old, ok := r.Players[req.id]; ok && old.Conn != nil && old.Conn != req.conn {
		old.Conn.Close()
	}
	spec := playerSpec{
		level:       r.level,
		spawn:       r.spawn,
		halfExtents: r.halfExtents,
		attachments: r.attachments,
		settings:    r.applied.Movement,
	}
	p := newPlayer(req.id, req.session, spec, req.conn, r.log)
	r.Players[req.id] = p
	r.players.Store(int32(len(r.Players)))
	delete(r.lastSent, req.id)
	r.log.Info("player joined", zap.String("player", string(req.id)), zap.String("session", req.session))
	if b := r.fullSnapshot(); p.Conn != nil && b != nil {
		p.Conn.Enqueue(b)
	}
}

func (r *Room) leave(req leaveRequest) {
	p, ok := r.Players[req.id]
	if !ok || (req.conn != nil && p.Conn != req.conn) {
		return
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(r.Players, req.id)
	r.players.Store(int32(len(r.Players)))
	delete(r.lastSent, req.id)
	r.log.Info("player left", zap.String("player", string(req.id)))
	r.broadcast(r.marshal(struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}{Type: "leave", ID: string(req.id)}))
}

func (r *Room) acceptInput(in Input) {
	p, ok := r.Players[in.PlayerID]
	if !ok {
		return
	}
	cfg := r.applied
	if cfg.SimulateDropProb > 0 && r.rng.Float64() < cfg.SimulateDropProb {
		r.metrics.DropsSimulated.Add(1)
		return
	}
	if cfg.SimulateDelayTicks > 0 {
		r.delayed = append(r.delayed, delayedInput{due: r.tickSeq.Load() + int64(cfg.SimulateDelayTicks), in: in})
		r.metrics.DelaysSimulated.Add(1)
		return
	}
	r.applyInput(p, in)
}

// releaseDelayed 把到期的延迟输入按到达顺序交给玩家；
// 玩家已离开的输入直接丢弃
func (r *Room) releaseDelayed() {
	if len(r.delayed) == 0 {
		return
	}
	now := r.tickSeq.Load()
	keep := r.delayed[:0]
	for _, d := range r.delayed {
		if d.due > now {
			keep = append(keep, d)
			continue
		}
		if p, ok := r.Players[d.in.PlayerID]; ok {
			r.applyInput(p, d.in)
		}
	}
	clear(r.delayed[len(keep):])
	r.delayed = keep
}

func (r *Room) applyInput(p *Player, in Input) {
	cfg := r.applied
	if cfg.MaxInputsPerTick > 0 && p.input.count >= cfg.MaxInputsPerTick {
		r.metrics.RateLimited.Add(1)
		return
	}
	if p.input.stale(in.Seq) {
		r.metrics.OldSeqIgnored.Add(1)
		return
	}
	p.input.apply(in)
	r.metrics.InputsAccepted.Add(1)
}

// UpdateWorld 推进每个玩家的移动控制器
func (r *Room) UpdateWorld(dt float64) {
	for _, p := range r.Players {
		if !p.Controller.Alive() {
			r.metrics.GatedSteps.Add(1)
		}
		before := p.Controller.State().Jump
		p.Controller.Step(dt)
		if before == movement.JumpReady && p.Controller.State().Jump == movement.JumpSpent {
			r.metrics.AirJumps.Add(1)
		}
		r.metrics.PlayerSteps.Add(1)
		p.input.endTick()
	}
}

// BroadcastDelta 仅广播自上次发送后发生变化的玩家状态
func (r *Room) BroadcastDelta() {
	changed := make([]PlayerState, 0, len(r.Players))
	for id, p := range r.Players {
		st := p.State()
		if last, ok := r.lastSent[id]; ok && last == st {
			continue
		}
		r.lastSent[id] = st
		changed = append(changed, st)
	}
	if len(changed) == 0 {
		return
	}
	if b := r.stateMessage(changed); b != nil {
		r.broadcast(b)
	}
}

func (r *Room) fullSnapshot() []byte {
	all := make([]PlayerState, 0, len(r.Players))
	for _, p := range r.Players {
		all = append(all, p.State())
	}
	return r.stateMessage(all)
}

func (r *Room) stateMessage(players []PlayerState) []byte {
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return r.marshal(struct {
		Type    string        `json:"type"`
		Tick    int64         `json:"tick"`
		Players []PlayerState `json:"players"`
	}{Type: "state", Tick: r.tickSeq.Load(), Players: players})
}

func (r *Room) broadcast(b []byte) {
	if b == nil {
		return
	}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}

// marshal 编码失败时记录错误并返回 nil，调用方跳过该消息，Tick 继续
func (r *Room) marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		r.metrics.EncodeErrors.Add(1)
		r.log.Error("encode message failed", zap.Error(err))
		return nil
	}
	return b
}
