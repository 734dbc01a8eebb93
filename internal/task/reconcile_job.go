package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/logger"
	"github.com/blues/crowdsale/internal/logic"
)

// ReconcileJob 对账任务: 核对存款账本与众筹汇总
type ReconcileJob struct {
	reconcile *logic.ReconcileLogic
	config    *config.Config
	nowFn     func() time.Time
}

// ReconcileResult 一轮对账的统计
type ReconcileResult struct {
	Checked    int
	Imbalanced []string
	Failed     int
}

// NewReconcileJob 创建对账任务
func NewReconcileJob(store crowdsale.Store, cfg *config.Config) *ReconcileJob {
	return &ReconcileJob{
		reconcile: logic.NewReconcileLogic(store),
		config:    cfg,
		nowFn:     time.Now,
	}
}

// GetName 获取任务名称
func (j *ReconcileJob) GetName() string {
	return "campaign_reconciler"
}

// GetSchedule 获取调度配置
func (j *ReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ReconcileJob) Execute() {
	logger.Debug("Starting campaign reconcile task")

	result, err := j.Run(context.Background())
	if err != nil {
		logger.Error("Campaign reconcile task failed: %v", err)
		return
	}
	logger.Info("Campaign reconcile task completed. Checked %d campaigns, %d imbalanced, %d failed",
		result.Checked, len(result.Imbalanced), result.Failed)
}

// Run 并发核对所有未关闭的众筹
func (j *ReconcileJob) Run(ctx context.Context) (*ReconcileResult, error) {
	var ids []string
	for _, state := range []crowdsale.State{crowdsale.StateActive, crowdsale.StateRefunding} {
		batch, err := j.reconcile.CampaignIDs(ctx, state)
		if err != nil {
			return nil, err
		}
		ids = append(ids, batch...)
	}
	if len(ids) == 0 {
		return &ReconcileResult{}, nil
	}

	workers := j.config.Task.Workers
	if workers <= 0 || workers > len(ids) {
		workers = len(ids)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile pool of %d workers: %w", workers, err)
	}
	defer pool.Release()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		failed     atomic.Int32
		imbalanced []string
	)
	now := j.nowFn()
	for _, id := range ids {
		id := id
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			report, err := j.reconcile.Reconcile(ctx, id, now)
			if err != nil {
				logger.Error("Failed to reconcile campaign %s: %v", id, err)
				failed.Add(1)
				return
			}
			if !report.Balanced() {
				logger.Error("Campaign %s is out of balance: state=%s raised=%s deposited=%s escrowed=%s native_deposited=%s",
					id, report.State, report.Raised, report.Deposited, report.Escrowed, report.NativeDeposited)
				mu.Lock()
				imbalanced = append(imbalanced, id)
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit reconcile of campaign %s: %v", id, err)
			failed.Add(1)
		}
	}
	wg.Wait()

	return &ReconcileResult{
		Checked:    len(ids),
		Imbalanced: imbalanced,
		Failed:     int(failed.Load()),
	}, nil
}
