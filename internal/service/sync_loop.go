package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/telegram"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SyncLoop 定时同步所有账户
type SyncLoop struct {
	config      config.SyncConf
	syncService *SyncService
	logger      *zap.Logger

	mu         sync.Mutex
	startTime  time.Time
	lastRunAt  time.Time
	iteration  int
	lastSynced int
	lastFailed int
	isRunning  bool
	stopChan   chan struct{}
	cron       *cron.Cron
	cancel     context.CancelFunc
}

// NewSyncLoop 创建同步循环
func NewSyncLoop(config *config.Config, syncService *SyncService, logger *zap.Logger) *SyncLoop {
	return &SyncLoop{
		config:      config.Sync,
		syncService: syncService,
		logger:      logger,
	}
}

// Start 启动同步循环，阻塞直到 Stop 或 ctx 结束
func (t *SyncLoop) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return fmt.Errorf("sync loop is already running")
	}

	interval := t.config.IntervalMinutes
	if interval <= 0 {
		interval = config.DefaultSyncIntervalMinutes
	}
	// 每 N 分钟的整点执行，例如 interval=15: 0, 15, 30, 45 分
	cronExpr := fmt.Sprintf("*/%d * * * *", interval)

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		if err := t.RunOnce(runCtx); err != nil {
			t.logger.Error("sync cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		t.mu.Unlock()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	stopChan := make(chan struct{})
	t.isRunning = true
	t.startTime = time.Now()
	t.cron = c
	t.cancel = cancel
	t.stopChan = stopChan
	t.mu.Unlock()

	t.logger.Info("sync loop started",
		zap.Int("interval_minutes", interval),
		zap.String("cron_expression", cronExpr))

	c.Start()

	// 立即执行第一次
	go func() {
		if err := t.RunOnce(runCtx); err != nil {
			t.logger.Error("first sync cycle failed", zap.Error(err))
		}
	}()

	// 等待停止信号
	select {
	case <-stopChan:
		t.logger.Info("sync loop stopped by user")
		return nil
	case <-ctx.Done():
		t.Stop()
		t.logger.Info("sync loop stopped by context")
		return ctx.Err()
	}
}

// Stop 停止同步循环，等待执行中的任务结束
func (t *SyncLoop) Stop() {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return
	}
	t.isRunning = false
	c, cancel, stopChan := t.cron, t.cancel, t.stopChan
	t.mu.Unlock()

	t.logger.Info("stopping sync loop...")

	cancel()
	if c != nil {
		<-c.Stop().Done()
	}
	close(stopChan)
	t.logger.Info("sync loop stopped")
}

// RunOnce 同步一次全部账户
func (t *SyncLoop) RunOnce(ctx context.Context) error {
	started := time.Now()
	synced, failed, err := t.syncService.SyncAll(ctx)

	t.mu.Lock()
	t.iteration++
	t.lastRunAt = started
	t.lastSynced = synced
	t.lastFailed = failed
	iteration := t.iteration
	t.mu.Unlock()

	t.logger.Info("sync cycle finished",
		zap.Int("iteration", iteration),
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(started)))
	return err
}

func (t *SyncLoop) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// GetStatus 获取状态信息
func (t *SyncLoop) GetStatus() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]interface{}{
		"is_running":       t.isRunning,
		"iteration":        t.iteration,
		"start_time":       t.startTime,
		"last_run_at":      t.lastRunAt,
		"last_synced":      t.lastSynced,
		"last_failed":      t.lastFailed,
		"interval_minutes": t.config.IntervalMinutes,
	}
}

// StatusText 供 Telegram /status 命令使用的 MarkdownV2 文本
func (t *SyncLoop) StatusText() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := "已停止"
	if t.isRunning {
		state = "运行中"
	}
	lastRun := "尚未执行"
	if !t.lastRunAt.IsZero() {
		lastRun = t.lastRunAt.UTC().Format("2006-01-02 15:04:05") + " UTC"
	}
	text := fmt.Sprintf("同步状态: %s\n执行次数: %d\n上次执行: %s\n成功: %d 失败: %d",
		state, t.iteration, lastRun, t.lastSynced, t.lastFailed)
	return telegram.EscapeMarkdownV2(text)
}
