package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movearena/config"
	"movearena/server"
)

// movearena 入口：启动 HTTP + WebSocket 服务，按固定 Tick 推进所有房间
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	// 命令行优先于环境变量
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path (rotated)")
	flag.StringVar(&cfg.TuningFile, "tuning", cfg.TuningFile, "movement tuning YAML; watched for changes")
	flag.IntVar(&cfg.TicksPerSecond, "tps", cfg.TicksPerSecond, "simulation ticks per second")
	console := flag.Bool("console", false, "also log to stderr")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := server.InitLogger(cfg.LogFile, *console); err != nil {
		return err
	}
	defer server.SyncLogger()

	file, err := config.Load(cfg.TuningFile)
	if err != nil {
		return err
	}

	rm, err := server.NewRoomManager(cfg, file)
	if err != nil {
		return err
	}
	defer rm.Close()
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom("room-1")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TuningFile != "" {
		w, err := config.NewWatcher(cfg.TuningFile)
		if err != nil {
			return err
		}
		go w.Run(ctx, rm.ApplyFile, func(err error) {
			server.Log.Warnf("tuning reload failed: %v", err)
		})
	}

	go rm.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/admin/health", rm.HandleAdminHealth)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Infof("movearena listening on %s (%d tps)", cfg.Addr, cfg.TicksPerSecond)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
