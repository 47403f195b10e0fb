package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// resolvePoolConfig 配置中未设置的项使用默认值
func resolvePoolConfig(cfg config.DatabaseConfig) *PoolConfig {
	pool := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		pool.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pool.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}
	return pool
}

// Open 按驱动打开数据库,不配置连接池
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "notary.db"
		}
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	case DriverPostgres, "":
		return gorm.Open(postgres.Open(BuildDSN(cfg)), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	poolConfig := resolvePoolConfig(cfg)
	if cfg.Driver == DriverSQLite {
		// SQLite 单写者,避免 database is locked
		poolConfig.MaxOpenConns = 1
		poolConfig.MaxIdleConns = 1
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// isSQLite GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
func isSQLite(db *gorm.DB) bool {
	name := db.Dialector.Name()
	return name == "sqlite" || name == "sqlite3"
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// SQLite 不支持 jsonb，需要手动创建表
	if isSQLite(db) {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.OfficeModel{},
			&model.ClientModel{},
			&model.TemplateModel{},
			&model.TemplateFieldModel{},
			&model.ContractModel{},
			&model.ContractSequenceModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

var sqliteTables = []struct {
	name string
	ddl  string
}{
	{"offices", `
		CREATE TABLE IF NOT EXISTS offices (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			address TEXT,
			notary_name VARCHAR(255),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(64) PRIMARY KEY,
			office_id VARCHAR(64) NOT NULL,
			first_name VARCHAR(128),
			last_name VARCHAR(128),
			father_name VARCHAR(128),
			mother_name VARCHAR(255),
			full_name VARCHAR(255),
			national_id VARCHAR(64),
			id_card_number VARCHAR(64),
			id_issue_date VARCHAR(32),
			id_issuing_authority VARCHAR(255),
			birth_date VARCHAR(32),
			birth_place VARCHAR(255),
			birth_certificate VARCHAR(64),
			marital_status VARCHAR(32),
			nationality VARCHAR(64),
			profession VARCHAR(128),
			address TEXT,
			phone VARCHAR(32),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
	{"templates", `
		CREATE TABLE IF NOT EXISTS templates (
			id VARCHAR(64) PRIMARY KEY,
			office_id VARCHAR(64) NOT NULL,
			created_by VARCHAR(64),
			name VARCHAR(255) NOT NULL,
			category VARCHAR(32) NOT NULL,
			description TEXT,
			body TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
	{"template_fields", `
		CREATE TABLE IF NOT EXISTS template_fields (
			id VARCHAR(64) PRIMARY KEY,
			template_id VARCHAR(64) NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
			label VARCHAR(255) NOT NULL,
			field_key VARCHAR(64) NOT NULL,
			field_type VARCHAR(16) NOT NULL,
			source VARCHAR(16) NOT NULL,
			is_required BOOLEAN NOT NULL DEFAULT 0,
			client_role VARCHAR(16),
			client_field VARCHAR(64),
			system_value VARCHAR(64),
			options TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`},
	{"contracts", `
		CREATE TABLE IF NOT EXISTS contracts (
			id VARCHAR(64) PRIMARY KEY,
			office_id VARCHAR(64) NOT NULL,
			template_id VARCHAR(64) NOT NULL,
			template_name VARCHAR(255),
			contract_number VARCHAR(32) NOT NULL,
			content_snapshot TEXT NOT NULL,
			data_snapshot TEXT NOT NULL,
			content_hash VARCHAR(80) NOT NULL,
			gaps TEXT,
			archive_key VARCHAR(255),
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			created_by VARCHAR(64) NOT NULL,
			void_reason TEXT,
			voided_by VARCHAR(64),
			voided_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
	{"contract_sequences", `
		CREATE TABLE IF NOT EXISTS contract_sequences (
			office_id VARCHAR(64) NOT NULL,
			year INTEGER NOT NULL,
			value INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (office_id, year)
		)`},
	{"audit_logs", `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			office_id VARCHAR(64),
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)`},
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	for _, t := range sqliteTables {
		if err := db.Exec(t.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}

var indexes = []struct {
	name string
	ddl  string
}{
	{"idx_clients_office_id", "CREATE INDEX IF NOT EXISTS idx_clients_office_id ON clients(office_id)"},
	{"idx_clients_national_id", "CREATE INDEX IF NOT EXISTS idx_clients_national_id ON clients(national_id)"},
	{"idx_templates_office_status", "CREATE INDEX IF NOT EXISTS idx_templates_office_status ON templates(office_id, status)"},
	{"idx_templates_category", "CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category)"},
	{"idx_templates_created_at", "CREATE INDEX IF NOT EXISTS idx_templates_created_at ON templates(created_at)"},
	{"idx_template_fields_template_key", "CREATE UNIQUE INDEX IF NOT EXISTS idx_template_fields_template_key ON template_fields(template_id, field_key)"},
	{"idx_contracts_office_number", "CREATE UNIQUE INDEX IF NOT EXISTS idx_contracts_office_number ON contracts(office_id, contract_number)"},
	{"idx_contracts_office_status", "CREATE INDEX IF NOT EXISTS idx_contracts_office_status ON contracts(office_id, status)"},
	{"idx_contracts_template_id", "CREATE INDEX IF NOT EXISTS idx_contracts_template_id ON contracts(template_id)"},
	{"idx_contracts_created_at", "CREATE INDEX IF NOT EXISTS idx_contracts_created_at ON contracts(created_at)"},
	{"idx_audit_resource", "CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)"},
	{"idx_audit_user_id", "CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)"},
	{"idx_audit_created_at", "CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)"},
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec(idx.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}

	// PostgreSQL 特定的 GIN 索引
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_data_gin ON contracts USING GIN (data_snapshot)").Error; err != nil {
			return fmt.Errorf("failed to create idx_contracts_data_gin: %w", err)
		}
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
