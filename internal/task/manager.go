package task

import (
	"github.com/go-co-op/gocron/v2"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/logger"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	store     crowdsale.Store
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(store crowdsale.Store, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		store:     store,
		config:    cfg,
	}, nil
}

// Start 注册所有任务并启动调度器
func Start(store crowdsale.Store, cfg *config.Config) *Manager {
	manager, err := NewManager(store, cfg)
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.Register(NewReconcileJob(m.store, m.config))
	m.Register(NewClosingWatcherJob(m.store, m.config))
}

// Register 注册单个任务
func (m *Manager) Register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Jobs 已注册任务名称
func (m *Manager) Jobs() []string {
	jobs := m.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
