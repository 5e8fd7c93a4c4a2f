// Package scheduler 提供定时任务功能
package scheduler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/middleware"

	"github.com/robfig/cron/v3"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron          *cron.Cron
	staleRoundAge time.Duration
}

// New 创建新的调度器
func New(staleRoundAge time.Duration) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		staleRoundAge: staleRoundAge,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() {
	// 每天凌晨 4 点清理被遗弃的进行中回合
	if _, err := s.cron.AddFunc("0 4 * * *", func() {
		slog.Info("执行过期回合清理任务")
		if _, err := database.CleanupStaleRounds(context.Background(), s.staleRoundAge); err != nil {
			slog.Error("过期回合清理任务失败", "error", err)
		}
	}); err != nil {
		slog.Error("注册过期回合清理任务失败", "error", err)
		os.Exit(1)
	}

	// 每小时清理一次过期 Session
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		slog.Info("清理过期Session")
		middleware.CleanupExpiredSessions()
	}); err != nil {
		slog.Error("注册Session清理任务失败", "error", err)
		os.Exit(1)
	}

	s.cron.Start()
	slog.Info("定时任务调度器已启动")
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("定时任务调度器已停止")
}

// RunCleanupNow 立即执行清理任务
func (s *Scheduler) RunCleanupNow() (int64, error) {
	return database.CleanupStaleRounds(context.Background(), s.staleRoundAge)
}
