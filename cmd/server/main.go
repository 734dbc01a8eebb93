package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/compliance"
	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/custody"
	"github.com/blues/crowdsale/internal/database"
	"github.com/blues/crowdsale/internal/handler"
	"github.com/blues/crowdsale/internal/logger"
	"github.com/blues/crowdsale/internal/rates"
	"github.com/blues/crowdsale/internal/repository"
	"github.com/blues/crowdsale/internal/router"
	"github.com/blues/crowdsale/internal/task"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化存储
	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store: %v", err)
	}

	// 初始化众筹引擎
	app, err := newApp(cfg, store)
	if err != nil {
		logger.Fatal("Failed to initialize engine: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	adminHandler := handler.NewAdminHandler(app.engine, app.approvals, app.kyc, app.wallet, app.rewards)
	r, err := router.Setup(app.engine, store, adminHandler, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize router: %v", err)
	}

	// 启动定时任务
	manager := task.Start(store, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	manager.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}

func openStore(cfg *config.Config) (crowdsale.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.Init(cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Using postgres store at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		if msg := custodyWarning(cfg.Database.Driver); msg != "" {
			logger.Warn("%s", msg)
		}
		return repository.NewGormStore(db), nil
	case "memory", "":
		logger.Warn("Using in-memory store, state is lost on restart")
		return repository.NewMemoryStore(), nil
	default:
		return nil, errors.New("unsupported database driver " + cfg.Database.Driver)
	}
}

// application 引擎及其进程内协作方
type application struct {
	engine    *crowdsale.Engine
	approvals *compliance.ApprovalRegistry
	kyc       *compliance.KYCRegistry
	wallet    *custody.Wallet
	rewards   *custody.RewardLedger
}

// custodyWarning 托管钱包与奖励账本在进程内, 持久化存储重启后余额与库中 escrowed/raised 不再对应
func custodyWarning(driver string) string {
	switch driver {
	case "memory", "":
		return ""
	default:
		return "Custody wallet and reward ledger are in-process; their balances are lost on restart and will not match persisted campaigns. " +
			"Production deployments on " + driver + " need durable Payments and RewardLedger adapters"
	}
}

func newApp(cfg *config.Config, store crowdsale.Store) (*application, error) {
	admin, err := cfg.Engine.AdminAddress()
	if err != nil {
		return nil, err
	}
	escrow, err := cfg.Engine.EscrowAddress()
	if err != nil {
		return nil, err
	}
	commission, err := cfg.Engine.CommissionWalletAddress()
	if err != nil {
		return nil, err
	}
	parsed, err := cfg.ParsedRates()
	if err != nil {
		return nil, err
	}
	table, err := rates.NewTable(parsed)
	if err != nil {
		return nil, err
	}

	a := &application{
		approvals: compliance.NewApprovalRegistry(),
		kyc:       compliance.NewKYCRegistry(),
		wallet:    custody.NewWallet(escrow),
		rewards:   custody.NewRewardLedger(),
	}
	a.engine, err = crowdsale.NewEngine(crowdsale.Dependencies{
		Store:       store,
		Approval:    a.approvals,
		Eligibility: a.kyc,
		Rates:       table,
		Rewards:     a.rewards,
		Payments:    a.wallet,
	}, crowdsale.Config{
		Admin:            admin,
		CommissionWallet: commission,
		Escrow:           escrow,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
