package wire

import (
	"database/sql"

	"log/slog"

	applog "github.com/watira/backend/internal/infrastructure/log"
	"github.com/watira/backend/internal/infrastructure/watcher"
	"github.com/watira/backend/internal/infrastructure/websocket"
	"github.com/watira/backend/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer   *interfaces.HTTPServer
	wsHub        *websocket.Hub
	rulesWatcher *watcher.RulesWatcher
	db           *sql.DB
	logger       *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	wsHub *websocket.Hub,
	rulesWatcher *watcher.RulesWatcher,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:   httpServer,
		wsHub:        wsHub,
		rulesWatcher: rulesWatcher,
		db:           db,
		logger:       applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting Watira backend application")

	// 启动规则文件热加载
	if err := a.rulesWatcher.Start(); err != nil {
		a.logger.Error("Failed to start rules watcher",
			"error", err,
		)
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("Watira backend application started successfully")

	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping Watira backend application")

	a.rulesWatcher.Stop()

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("Watira backend application stopped successfully")

	return nil
}
