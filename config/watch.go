package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce 最后一次写事件之后再等待这么久才重载
const debounce = 100 * time.Millisecond

// Watcher 监听调参文件变化并重新加载
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher 监听 path 所在目录（编辑器常以 rename 方式替换文件）
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: filepath.Clean(path), watcher: w}, nil
}

// Run 阻塞直到 ctx 结束；每次成功重载调用 onChange，失败调用 onError
func (w *Watcher) Run(ctx context.Context, onChange func(File), onError func(error)) {
	defer w.watcher.Close()
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(debounce)
		case <-pending:
			pending = nil
			f, err := Load(w.path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(f)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
