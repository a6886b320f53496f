package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"vault-bridge/internal/handler"
	"vault-bridge/internal/model"
	"vault-bridge/internal/server"
	"vault-bridge/internal/service"
	"vault-bridge/internal/service/mq"
	"vault-bridge/internal/store"
	"vault-bridge/internal/worker"
	"vault-bridge/internal/worker/tasks"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/cache"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/database"
	"vault-bridge/pkg/derivation"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/utils/lock"

	_ "vault-bridge/docs/swagger"
)

// @title Vault Bridge API
// @version 1.0
// @description Cross-chain ERC20 vault bridge: deposits, withdrawals and relayer notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 连接 Redis (锁、缓存、任务队列共用)
	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}
	defer rdb.Close()

	// 3. 初始化消息队列
	producer, newConsumer, closeMQ := messageQueue(cfg, rdb)
	defer closeMQ()

	// 4. 状态存储; postgres 模式下事件经 outbox 发布
	var db *gorm.DB
	if cfg.Store.Kind == store.KindPostgres {
		db, err = database.ConnectPostgres(cfg.DB, cfg.App.Env, database.DefaultPool)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		if cfg.App.Env == "development" {
			logger.Info("开发环境: 尝试自动迁移 Schema (GORM AutoMigrate)...")
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				logger.Fatal("数据库自动迁移失败", zap.Error(err))
			}
		} else {
			logger.Info("生产环境: 跳过 AutoMigrate，请使用 migrate 工具管理 Schema")
		}
		go service.NewRelayService(db, producer).Start(ctx)
	}
	st, err := store.New(cfg.Store, db, producer)
	if err != nil {
		logger.Fatal("初始化存储失败", zap.Error(err))
	}

	// 5. 协议服务
	bridgeCfg, err := service.NewBridgeConfig(cfg.Bridge)
	if err != nil {
		logger.Fatal("协议配置无效", zap.Error(err))
	}
	bridge := service.NewBridgeService(bridgeCfg, st)
	vault := service.NewVaultService(bridgeCfg, st, cfg.Bridge.SignatureRequestTopic)

	base, err := derivation.ParseBasePublicKey(cfg.Bridge.MPCBasePublicKey)
	if err != nil {
		logger.Fatal("MPC 根公钥无效", zap.Error(err))
	}
	authorities := authority.NewDeriver(bridgeCfg.ProgramID)
	addressCache := cache.NewMultiLevelCache(
		cache.NewMemoryCache(cfg.Bridge.AddressCacheTTL, 2*cfg.Bridge.AddressCacheTTL),
		cache.NewRedisCache(rdb, "bridge:"),
		time.Minute,
	)
	addresses := service.NewAddressService(derivation.NewDeriver(base, authorities), authorities, addressCache, cfg.Bridge.AddressCacheTTL)

	// 6. 过期请求回收
	locker, err := lock.NewRedisLock(rdb)
	if err != nil {
		logger.Fatal("初始化分布式锁失败", zap.Error(err))
	}
	expiry := service.NewExpiryService(bridge, locker, cfg.Bridge.SweepSpec)
	if err := expiry.Start(); err != nil {
		logger.Fatal("启动过期回收失败", zap.Error(err))
	}
	defer expiry.Stop()

	// 7. 开发签名者
	if cfg.Signer.Enabled {
		key, err := service.LoadDevSignerKey(cfg.Signer.Mnemonic, cfg.Signer.DerivationPath)
		if err != nil {
			logger.Fatal("加载开发签名者失败", zap.Error(err))
		}
		signer := service.NewDevSigner(key, producer, service.DevSignerTopics{
			SignRespond:  cfg.Bridge.SignRespondTopic,
			Signature:    cfg.Relayer.SignatureTopic,
			ReadResponse: cfg.Relayer.ReadResponseTopic,
		})
		logger.Warn("开发签名者已启用, 切勿用于生产", zap.String("address", signer.Address()))
		go func() {
			if err := signer.Run(ctx, newConsumer("bridge_dev_signer")); err != nil {
				logger.Error("开发签名者退出", zap.Error(err))
			}
		}()
	}

	// 8. 中继者
	handlers := server.Handlers{
		Bridge:  handler.NewBridgeHandler(bridge, vault),
		Address: handler.NewAddressHandler(addresses),
	}
	if cfg.Relayer.Enabled {
		chain, err := ethclient.DialContext(ctx, cfg.Relayer.RpcUrl)
		if err != nil {
			logger.Fatal("连接目标链节点失败", zap.String("rpc", cfg.Relayer.RpcUrl), zap.Error(err))
		}
		defer chain.Close()

		hub := service.NewResponseHub(newConsumer("bridge_relayer"), cfg.Relayer.SignatureTopic, cfg.Relayer.ReadResponseTopic, 10*time.Minute)
		go func() {
			if err := hub.Run(ctx); err != nil {
				logger.Error("响应订阅退出", zap.Error(err))
			}
		}()

		timeouts := service.RelayerTimeoutsFromConfig(cfg.Relayer)
		relayer := service.NewRelayer(bridge, hub, chain, timeouts)
		workers := worker.NewServer(cfg.Redis, cfg.Relayer.Concurrency, tasks.NewRelayHandler(relayer))
		workers.Start()
		defer workers.Stop()

		jobs := worker.NewClient(cfg.Redis, timeouts.Signature+timeouts.Receipt+timeouts.ReadResponse)
		defer jobs.Close()
		handlers.Relayer = handler.NewRelayerHandler(jobs)
	}

	// 9. 启动 HTTP / gRPC
	app, err := server.New(server.Config{
		HttpPort:        cfg.App.HttpPort,
		GrpcPort:        cfg.App.GrpcPort,
		ShutdownTimeout: 10 * time.Second,
	}, server.NewHTTPRouter(handlers))
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}
	logger.Info("bridge-server stopped")
}

// messageQueue 按 redis.mq_type 选择实现, 返回生产者、按消费组创建消费者的函数以及关闭函数
func messageQueue(cfg config.Config, rdb *redis.Client) (mq.Producer, func(group string) mq.Consumer, func()) {
	switch cfg.Redis.MQType {
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...")
		producer := mq.NewKafkaProducer(cfg.Kafka.Brokers)
		consumer := func(group string) mq.Consumer { return mq.NewKafkaConsumer(cfg.Kafka.Brokers, group) }
		return producer, consumer, func() { _ = producer.Close() }
	case "memory":
		logger.Warn("使用进程内消息队列, 仅限单实例开发环境")
		broker := mq.NewMemoryBroker()
		return broker, func(string) mq.Consumer { return broker }, func() { _ = broker.Close() }
	default:
		logger.Info("使用 Redis Streams 作为消息队列...")
		consumer := func(group string) mq.Consumer { return mq.NewRedisConsumer(rdb, group, group+"-0") }
		return mq.NewRedisProducer(rdb, 10000), consumer, func() {}
	}
}
