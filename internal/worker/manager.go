package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"gorm.io/gorm"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nhoinets2/scan-match-sub001/internal/business"
	"github.com/nhoinets2/scan-match-sub001/internal/domains"
	"github.com/nhoinets2/scan-match-sub001/internal/framework"
	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/internal/styleapi"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
	"github.com/nhoinets2/scan-match-sub001/pkg/infra/mysql"
	infraredis "github.com/nhoinets2/scan-match-sub001/pkg/infra/redis"
	"github.com/nhoinets2/scan-match-sub001/pkg/lmstfy"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
	Engine() *outfit.Engine
}

// ManagerInstance Manager 实例，持有完整依赖链
type ManagerInstance struct {
	ctx           context.Context
	cfg           *config.Config
	lmstfyClient  *lmstfy.Client
	db            *gorm.DB
	redisClient   *goredis.Client
	engine        *outfit.Engine
	safetyGate    *business.SafetyGate
	matchService  *business.MatchService
	callbackQueue string
	workers       []Worker
	closing       *atomic.Bool
	shutdownCh    chan struct{}
	wg            sync.WaitGroup
	mu            sync.RWMutex
	logger        logger.Logger
}

// NewManagerInstance 创建 Manager 并组装依赖
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	// 1. 初始化 lmstfy 客户端（消息源 + 回调发布）
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	var callbackQueue string
	if len(cfg.Workers) > 0 {
		callbackQueue = cfg.Workers[0].CallbackQueue
	}
	if callbackQueue == "" {
		return nil, fmt.Errorf("callback_queue is required in worker config")
	}

	// 2. 初始化 MySQL（衣橱快照 + 扫描记录落库）
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("mysql.dsn is required")
	}
	db, err := mysql.NewDB(cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init mysql: %w", err)
	}

	// 3. 初始化 Redis（完成通知广播 + 安全判定缓存）
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	redisClient, err := infraredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	// 4. 决策管线引擎
	matchCfg := &outfit.Config{
		PerSlotCap:             cfg.Match.PerSlotCap,
		MaxCombosPerTrack:      cfg.Match.MaxCombosPerTrack,
		MaxReasons:             cfg.Match.MaxReasons,
		IncludeLowTier:         cfg.Match.IncludeLowTier,
		NearOutfitQuota:        cfg.Match.NearOutfitQuota,
		MaxSuggestions:         cfg.Match.MaxSuggestions,
		WeakSlotMinBestScore:   cfg.Match.WeakSlotMinBestScore,
		WeakSlotMinMediumCount: cfg.Match.WeakSlotMinMediumCount,
	}
	engine := outfit.NewEngine(matchCfg, log)

	// 5. 组装匹配服务依赖
	deps := business.MatchServiceDeps{
		Engine:        engine,
		Scorer:        styleapi.NewScorerClient(cfg.Services.Scorer),
		Wardrobe:      mysql.NewWardrobeDAO(db),
		Scans:         mysql.NewScanDAO(db),
		Callback:      lmstfyClient,
		Notifier:      infraredis.NewPubSub(redisClient),
		MatchCfg:      matchCfg,
		CallbackQueue: callbackQueue,
		Logger:        log,
	}

	// 信任过滤与风格信号服务按配置接入，缺省时对应环节跳过
	if cfg.Services.Trust.BaseURL != "" {
		deps.Trust = styleapi.NewTrustClient(cfg.Services.Trust)
	}
	if cfg.Services.Signals.BaseURL != "" {
		signalsClient := styleapi.NewSignalsClient(cfg.Services.Signals)
		deps.Signals = business.NewSignalFetcher(signalsClient, cfg.Services.Signals.Timeout, cfg.Services.Signals.CacheTTL, log)
	}

	// 6. 安全校验门（按灰度比例启用）
	var safetyGate *business.SafetyGate
	if cfg.Safety.Enabled {
		if cfg.Services.Safety.BaseURL == "" {
			return nil, fmt.Errorf("services.safety.base_url is required when safety is enabled")
		}
		verdictCache := infraredis.NewVerdictCache(redisClient, cfg.Safety.VerdictTTL)
		safetyClient := styleapi.NewSafetyClient(cfg.Services.Safety)
		safetyGate = business.NewSafetyGate(safetyClient, verdictCache, cfg.Safety, log)
		deps.Safety = safetyGate
	}

	matchService := business.NewMatchService(deps)

	log.Infof(ctx, "[Manager] Initialized with callback_queue: %s, safety_enabled: %v", callbackQueue, cfg.Safety.Enabled)

	return &ManagerInstance{
		ctx:           ctx,
		cfg:           cfg,
		lmstfyClient:  lmstfyClient,
		db:            db,
		redisClient:   redisClient,
		engine:        engine,
		safetyGate:    safetyGate,
		matchService:  matchService,
		callbackQueue: callbackQueue,
		closing:       atomic.NewBool(false),
		shutdownCh:    make(chan struct{}),
		workers:       make([]Worker, 0),
		logger:        log,
	}, nil
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 打点安全校验门累计统计
		if m.safetyGate != nil {
			stats := m.safetyGate.Stats()
			m.logger.Infof(m.ctx, "[Manager] SafetyGate stats: checks=%d, stale_echoes=%d", stats.Checks, stats.StaleEchoes)
		}

		// 4. 关闭基础设施连接
		if err := mysql.CloseDB(m.db); err != nil {
			m.logger.Warnf(m.ctx, "[Manager] Close mysql failed: %v", err)
		}
		if err := m.redisClient.Close(); err != nil {
			m.logger.Warnf(m.ctx, "[Manager] Close redis failed: %v", err)
		}

		// 5. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// Engine 暴露决策管线引擎（运维预览接口复用同一实例）
func (m *ManagerInstance) Engine() *outfit.Engine {
	return m.engine
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	// 遍历配置中的所有 Worker
	for _, workerCfg := range m.cfg.Workers {
		// 创建 Subscriber 配置
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		// 创建 Processor 配置
		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		// 获取 GetProcess 函数
		getProcess := domains.GetProcess(m.logger, m.matchService)

		// 创建 Worker 实例
		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.lmstfyClient, // MessageSource
			getProcess,     // lmstfyx.Proc
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}
