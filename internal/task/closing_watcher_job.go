package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/logger"
)

// ClosingWatcherJob 提醒已过截止时间但尚未结束的众筹
//
// 结束众筹只能由发起人触发, 这里只记录日志不做状态变更.
type ClosingWatcherJob struct {
	store  crowdsale.Store
	config *config.Config
	nowFn  func() time.Time
}

// NewClosingWatcherJob 创建截止提醒任务
func NewClosingWatcherJob(store crowdsale.Store, cfg *config.Config) *ClosingWatcherJob {
	return &ClosingWatcherJob{
		store:  store,
		config: cfg,
		nowFn:  time.Now,
	}
}

// GetName 获取任务名称
func (j *ClosingWatcherJob) GetName() string {
	return "campaign_closing_watcher"
}

// GetSchedule 获取调度配置
func (j *ClosingWatcherJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ClosingWatcherJob) Execute() {
	overdue, err := j.Overdue(context.Background())
	if err != nil {
		logger.Error("Failed to fetch active campaigns: %v", err)
		return
	}
	for _, c := range overdue {
		logger.Warn("Campaign %s passed its closing time %s and awaits finalize by owner %s (raised %s of goal %s)",
			c.ID, c.ClosingTime.Format(time.RFC3339), c.Owner.Hex(), c.Raised, c.Goal)
	}
	logger.Debug("Closing watcher completed. %d campaigns overdue", len(overdue))
}

// Overdue 返回已过截止时间的 active 众筹
func (j *ClosingWatcherJob) Overdue(ctx context.Context) ([]*crowdsale.Campaign, error) {
	campaigns, _, err := j.store.Campaigns(ctx, crowdsale.CampaignFilter{State: crowdsale.StateActive})
	if err != nil {
		return nil, err
	}
	now := j.nowFn()
	var overdue []*crowdsale.Campaign
	for _, c := range campaigns {
		if !now.Before(c.ClosingTime) {
			overdue = append(overdue, c)
		}
	}
	return overdue, nil
}
