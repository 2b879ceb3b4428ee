package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"movearena/config"
)

const defaultRoom = "room-1"

// RoomManager 管理多个房间的生命周期，并用同一个 ticker 推进所有房间
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	file  config.File
	base  RoomConfig // 新房间的初始规则

	pool       *ants.Pool
	tps        int
	inputRate  float64
	inputBurst int
}

// NewRoomManager 创建房间管理器；workers 为并行推进房间的协程池大小
func NewRoomManager(cfg config.Server, f config.File) (*RoomManager, error) {
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		Log.Errorf("room tick panic: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create tick pool: %w", err)
	}
	return &RoomManager{
		rooms: make(map[string]*Room),
		file:  f,
		base: RoomConfig{
			Movement:         f.Movement.Settings(),
			MaxInputsPerTick: cfg.MaxInputsPerTick,
		},
		pool:       pool,
		tps:        cfg.TicksPerSecond,
		inputRate:  cfg.InputRate,
		inputBurst: cfg.InputBurst,
	}, nil
}

// GetOrCreateRoom 获取或创建房间；房间从下一次 Tick 开始推进
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.file, m.base)
		m.rooms[id] = r
		Log.Infof("room created: %s", id)
	}
	return r
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Rooms 按 ID 排序的房间列表
func (m *RoomManager) Rooms() []*Room {
	m.mu.RLock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApplyFile 热更新：替换所有房间的移动调参，关卡与出生点只影响新房间
func (m *RoomManager) ApplyFile(f config.File) {
	m.mu.Lock()
	m.file = f
	m.base.Movement = f.Movement.Settings()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	settings := f.Movement.Settings()
	for _, r := range rooms {
		_, _ = r.UpdateConfig(func(cfg *RoomConfig) error {
			cfg.Movement = settings
			return nil
		})
	}
	Log.Infof("tuning reloaded: rooms=%d move=%.2f jump=%.2f gravity=%.2f",
		len(rooms), f.Movement.MoveSpeed, f.Movement.JumpPower, f.Movement.Gravity)
}

// Close 释放协程池
func (m *RoomManager) Close() {
	m.pool.Release()
}
