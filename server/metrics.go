package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标；Tick 线程写，HTTP 侧读
type RoomMetrics struct {
	TickCount         atomic.Int64 // 统计的 Tick 次数
	TotalTickNs       atomic.Int64 // Tick 累计耗时（纳秒）
	PlayerSteps       atomic.Int64 // 控制器步进次数
	GatedSteps        atomic.Int64 // 生命值低于 0 被跳过的步进
	AirJumps          atomic.Int64 // 消耗的二段跳
	InputsAccepted    atomic.Int64
	RateLimited       atomic.Int64 // 同帧上限 + 连接令牌桶
	OldSeqIgnored     atomic.Int64
	DropsSimulated    atomic.Int64
	DelaysSimulated   atomic.Int64
	ChanFullDiscarded atomic.Int64
	EncodeErrors      atomic.Int64 // 编码失败被跳过的消息
}

// MetricsSnapshot /metrics 输出的只读副本
type MetricsSnapshot struct {
	TickCount         int64   `json:"tick_count"`
	AvgTickMs         float64 `json:"avg_tick_ms"`
	PlayerSteps       int64   `json:"player_steps"`
	GatedSteps        int64   `json:"gated_steps"`
	AirJumps          int64   `json:"air_jumps"`
	InputsAccepted    int64   `json:"inputs_accepted"`
	RateLimited       int64   `json:"rate_limited"`
	OldSeqIgnored     int64   `json:"old_seq_ignored"`
	DropsSimulated    int64   `json:"drops_simulated"`
	DelaysSimulated   int64   `json:"delays_simulated"`
	ChanFullDiscarded int64   `json:"chan_full_discarded"`
	EncodeErrors      int64   `json:"encode_errors"`
}

func (m *RoomMetrics) AddTick(ns int64) {
	m.TickCount.Add(1)
	m.TotalTickNs.Add(ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		TickCount:         m.TickCount.Load(),
		PlayerSteps:       m.PlayerSteps.Load(),
		GatedSteps:        m.GatedSteps.Load(),
		AirJumps:          m.AirJumps.Load(),
		InputsAccepted:    m.InputsAccepted.Load(),
		RateLimited:       m.RateLimited.Load(),
		OldSeqIgnored:     m.OldSeqIgnored.Load(),
		DropsSimulated:    m.DropsSimulated.Load(),
		DelaysSimulated:   m.DelaysSimulated.Load(),
		ChanFullDiscarded: m.ChanFullDiscarded.Load(),
		EncodeErrors:      m.EncodeErrors.Load(),
	}
	if s.TickCount > 0 {
		s.AvgTickMs = float64(m.TotalTickNs.Load()) / float64(s.TickCount) / 1e6
	}
	return s
}
