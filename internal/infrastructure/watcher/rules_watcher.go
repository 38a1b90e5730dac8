// Package watcher 提供意图规则文件的热加载
package watcher

import (
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	appchat "github.com/watira/backend/internal/application/chat"
	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/log"
)

// debounceDelay 文件变更防抖延迟
const debounceDelay = 500 * time.Millisecond

// RulesApplier 规则表更新接收方
type RulesApplier interface {
	UpdateRules(rules *appchat.RuleTable)
}

// RulesWatcher 监听规则文件变更并热加载
type RulesWatcher struct {
	rulesPath string
	applier   RulesApplier
	watcher   *fsnotify.Watcher
	logger    *slog.Logger

	// 防抖相关
	debounceTimer *time.Timer
	debounceMu    sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRulesWatcher 创建规则文件监听器
// 未配置规则文件路径时返回空监听器，Start/Stop 为空操作
func NewRulesWatcher(cfg *config.PlannerConfig, applier RulesApplier) (*RulesWatcher, error) {
	rw := &RulesWatcher{
		rulesPath: cfg.RulesPath,
		applier:   applier,
		logger:    log.NewModuleLogger("watcher", "rules_watcher"),
		stopCh:    make(chan struct{}),
	}

	if cfg.RulesPath == "" {
		return rw, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	rw.watcher = watcher

	return rw, nil
}

// Start 启动规则文件监听
func (rw *RulesWatcher) Start() error {
	if rw.watcher == nil {
		rw.logger.Info("No rules file configured, hot reload disabled")
		return nil
	}

	rw.logger.Info("Starting rules watcher", "path", rw.rulesPath)

	// 启动时先加载一次，文件缺失时保留内置默认规则
	rw.reload()

	if err := rw.watcher.Add(rw.rulesPath); err != nil {
		rw.logger.Warn("Failed to watch rules file", "path", rw.rulesPath, "error", err)
	}

	rw.wg.Add(1)
	go rw.watchLoop()

	return nil
}

// Stop 停止规则文件监听
func (rw *RulesWatcher) Stop() {
	if rw.watcher == nil {
		return
	}

	rw.logger.Info("Stopping rules watcher")

	close(rw.stopCh)
	rw.watcher.Close()
	rw.wg.Wait()

	rw.debounceMu.Lock()
	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.debounceMu.Unlock()

	rw.logger.Info("Rules watcher stopped")
}

// watchLoop 事件监听循环
func (rw *RulesWatcher) watchLoop() {
	defer rw.wg.Done()

	for {
		select {
		case <-rw.stopCh:
			return

		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			rw.handleFsEvent(event)

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件（带防抖）
func (rw *RulesWatcher) handleFsEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	rw.debounceMu.Lock()
	defer rw.debounceMu.Unlock()

	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}

	rw.debounceTimer = time.AfterFunc(debounceDelay, func() {
		rw.reload()

		// 编辑器以替换方式保存时原 watch 会失效，重新添加
		_ = rw.watcher.Add(rw.rulesPath)
	})
}

// reload 读取规则文件并应用
func (rw *RulesWatcher) reload() {
	rules, err := appchat.LoadRuleTable(rw.rulesPath)
	if err != nil {
		rw.logger.Warn("Failed to load rules file, keeping current rules",
			"path", rw.rulesPath,
			"error", err,
		)
		return
	}

	rw.applier.UpdateRules(rules)
	rw.logger.Info("Rules reloaded", "path", rw.rulesPath, "version", rules.Version)
}
