package server

import (
	"context"
	"sync"
	"time"
)

// TickInterval 世界推进间隔
func (m *RoomManager) TickInterval() time.Duration {
	return time.Second / time.Duration(m.tps)
}

// Run 启动 Tick 循环直到 ctx 结束；每个房间在自己的 Tick 内单线程推进
func (m *RoomManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.TickInterval())
	defer ticker.Stop()
	dt := m.TickInterval().Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 核心循环：所有房间并行推进一帧，全部完成后才进入下一帧
			m.TickOnce(dt)
		}
	}
}

// TickOnce 把每个房间的 Tick 投递到协程池并等待完成
func (m *RoomManager) TickOnce(dt float64) {
	var wg sync.WaitGroup
	for _, r := range m.Rooms() {
		r := r
		wg.Add(1)
		task := func() {
			defer wg.Done()
			r.Tick(dt)
		}
		if err := m.pool.Submit(task); err != nil {
			Log.Warnf("tick pool unavailable, ticking room %s inline: %v", r.ID, err)
			task()
		}
	}
	wg.Wait()
}
