package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"movearena/config"
)

// adminConfig 可读写的房间规则，POST 时只更新出现的字段
type adminConfig struct {
	MoveSpeed        *float64 `json:"moveSpeed,omitempty"`
	LookSpeed        *float64 `json:"lookSpeed,omitempty"`
	JumpPower        *float64 `json:"jumpPower,omitempty"`
	Gravity          *float64 `json:"gravity,omitempty"`
	GroundSnap       *float64 `json:"groundSnap,omitempty"`
	MaxInputsPerTick *int     `json:"maxInputsPerTick,omitempty"`
	SimulateDropProb *float64 `json:"simulateDropProb,omitempty"`
	// 模拟延迟（Tick 数）
	SimulateDelayTicks *int `json:"simulateDelayTicks,omitempty"`
}

func roomParam(r *http.Request) string {
	if id := r.URL.Query().Get("room"); id != "" {
		return id
	}
	return defaultRoom
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAdminConfig 提供房间配置的读取与更新（热更新基本规则）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room := m.GetOrCreateRoom(roomID)

	switch r.Method {
	case http.MethodGet:
		cur := room.Config()
		writeJSON(w, adminConfig{
			MoveSpeed:          &cur.Movement.MoveSpeed,
			LookSpeed:          &cur.Movement.LookSpeed,
			JumpPower:          &cur.Movement.JumpPower,
			Gravity:            &cur.Movement.Gravity,
			GroundSnap:         &cur.Movement.GroundSnap,
			MaxInputsPerTick:   &cur.MaxInputsPerTick,
			SimulateDropProb:   &cur.SimulateDropProb,
			SimulateDelayTicks: &cur.SimulateDelayTicks,
		})
	case http.MethodPost:
		var body adminConfig
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cfg, err := room.UpdateConfig(func(cfg *RoomConfig) error {
			set(&cfg.Movement.MoveSpeed, body.MoveSpeed)
			set(&cfg.Movement.LookSpeed, body.LookSpeed)
			set(&cfg.Movement.JumpPower, body.JumpPower)
			set(&cfg.Movement.Gravity, body.Gravity)
			set(&cfg.Movement.GroundSnap, body.GroundSnap)
			set(&cfg.MaxInputsPerTick, body.MaxInputsPerTick)
			set(&cfg.SimulateDropProb, body.SimulateDropProb)
			set(&cfg.SimulateDelayTicks, body.SimulateDelayTicks)
			return validateRoomConfig(*cfg)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
		Log.Infof("config updated: room=%s move=%.2f look=%.2f jump=%.2f gravity=%.2f maxInputsPerTick=%d drop=%.2f delay=%d",
			roomID, cfg.Movement.MoveSpeed, cfg.Movement.LookSpeed, cfg.Movement.JumpPower,
			cfg.Movement.Gravity, cfg.MaxInputsPerTick, cfg.SimulateDropProb, cfg.SimulateDelayTicks)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// maxDelayTicks 模拟延迟上限
const maxDelayTicks = 500

func validateRoomConfig(cfg RoomConfig) error {
	tuning := config.Tuning{
		MoveSpeed:  cfg.Movement.MoveSpeed,
		LookSpeed:  cfg.Movement.LookSpeed,
		JumpPower:  cfg.Movement.JumpPower,
		Gravity:    cfg.Movement.Gravity,
		GroundSnap: cfg.Movement.GroundSnap,
	}
	if err := tuning.Validate(); err != nil {
		return err
	}
	if cfg.MaxInputsPerTick < 0 || cfg.SimulateDropProb < 0 || cfg.SimulateDropProb > 1 ||
		cfg.SimulateDelayTicks < 0 || cfg.SimulateDelayTicks > maxDelayTicks {
		return errors.New("invalid input limits")
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// HandleAdminHealth 设置玩家生命值，低于 0 时该玩家停止移动并隐藏挂件
// POST /admin/health?room=room-1&player=alice  {"health": -1}
func (m *RoomManager) HandleAdminHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	room, ok := m.Room(roomParam(r))
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}
	var body struct {
		Health *float64 `json:"health"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Health == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	room.SetHealth(PlayerID(playerID), *body.Health)
	writeJSON(w, map[string]any{"ok": true})
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room, ok := m.Room(roomParam(r))
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"room":    room.ID,
		"tick":    room.TickSeq(),
		"players": room.playerCount(),
		"metrics": room.metrics.Snapshot(),
	})
}
