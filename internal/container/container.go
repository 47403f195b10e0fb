package container

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/api"
	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/database"
	"github.com/mautops/notary-gin/internal/metrics"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/mautops/notary-gin/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// metricsInterval 指标收集间隔
const metricsInterval = 15 * time.Second

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、仓储、服务和对象存储
type Container struct {
	db          *gorm.DB
	logger      *logrus.Logger
	archive     *storage.SnapshotArchive
	collector   *metrics.Collector
	auditLogSvc service.AuditLogService
	templateSvc service.TemplateService
	contractSvc service.ContractService
	clientSvc   service.ClientService
	officeSvc   service.OfficeService
	statsSvc    service.StatisticsService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newContainer(cfg, db, logger)
}

// NewContainerWithDB 使用已有的数据库连接创建容器,用于测试和离线命令
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return newContainer(cfg, db, logger)
}

func newContainer(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*Container, error) {
	// 2. 引擎参数
	opts, err := service.NewEngineOptions(cfg.Engine)
	if err != nil {
		return nil, err
	}

	// 3. 对象存储（可选）
	var archive *storage.SnapshotArchive
	if cfg.Storage.Enabled {
		archive, err = storage.NewSnapshotArchive(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot archive: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = archive.EnsureBucket(ctx)
		cancel()
		if err != nil {
			// 归档只是镜像,对象存储不可用时合同照常生成
			logger.WithError(err).WithField("bucket", cfg.Storage.Bucket).Warn("snapshot archive unavailable, archiving disabled")
			archive = nil
		}
	}

	// 4. 仓储和服务
	templateRepo := repository.NewTemplateRepository(db)
	clientRepo := repository.NewClientRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)
	templateSvc := service.NewTemplateService(templateRepo, auditLogSvc, logger)

	deps := service.ContractServiceDeps{
		TemplateRepo: templateRepo,
		ContractRepo: repository.NewContractRepository(db),
		ClientRepo:   clientRepo,
		OfficeRepo:   officeRepo,
		AuditLogSvc:  auditLogSvc,
		Options:      opts,
		Logger:       logger,
	}
	if archive != nil {
		deps.Archive = archive
	}
	contractSvc := service.NewContractService(deps)

	return &Container{
		db:          db,
		logger:      logger,
		archive:     archive,
		collector:   metrics.NewCollector(db, metricsInterval),
		auditLogSvc: auditLogSvc,
		templateSvc: templateSvc,
		contractSvc: contractSvc,
		clientSvc:   service.NewClientService(clientRepo, auditLogSvc, logger),
		officeSvc:   service.NewOfficeService(officeRepo, auditLogSvc),
		statsSvc:    service.NewStatisticsService(db),
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Archive 获取快照归档,未启用时为 nil
func (c *Container) Archive() *storage.SnapshotArchive {
	return c.archive
}

// Collector 获取指标收集器
func (c *Container) Collector() *metrics.Collector {
	return c.collector
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogSvc
}

// TemplateService 获取模板服务
func (c *Container) TemplateService() service.TemplateService {
	return c.templateSvc
}

// ContractService 获取合同服务
func (c *Container) ContractService() service.ContractService {
	return c.contractSvc
}

// ClientService 获取客户服务
func (c *Container) ClientService() service.ClientService {
	return c.clientSvc
}

// OfficeService 获取公证处服务
func (c *Container) OfficeService() service.OfficeService {
	return c.officeSvc
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statsSvc
}

// RouterDeps 组装路由依赖
func (c *Container) RouterDeps(cfg *config.Config) api.RouterDeps {
	deps := api.RouterDeps{
		Config:            cfg,
		DB:                c.db,
		TemplateService:   c.templateSvc,
		ContractService:   c.contractSvc,
		ClientService:     c.clientSvc,
		OfficeService:     c.officeSvc,
		StatisticsService: c.statsSvc,
		AuditLogService:   c.auditLogSvc,
	}
	// 未启用归档时保持接口为 nil
	if c.archive != nil {
		deps.Storage = c.archive
	}
	return deps
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}
