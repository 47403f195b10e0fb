package repository

import (
	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓储接口
type AuditLogRepository interface {
	Save(log *model.AuditLogModel) error
	FindByOffice(filter *AuditLogFilter) ([]*model.AuditLogModel, int64, error)
}

// AuditLogFilter 审计日志查询过滤器
type AuditLogFilter struct {
	OfficeID     string
	ResourceType string
	ResourceID   string
	Action       string
	Offset       int
	Limit        int
}

// auditLogRepository 审计日志仓储实现
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save 保存审计日志
func (r *auditLogRepository) Save(log *model.AuditLogModel) error {
	return r.db.Create(log).Error
}

// FindByOffice 分页查询公证处的审计日志
func (r *auditLogRepository) FindByOffice(filter *AuditLogFilter) ([]*model.AuditLogModel, int64, error) {
	query := r.db.Model(&model.AuditLogModel{}).Where("office_id = ?", filter.OfficeID)
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var logs []*model.AuditLogModel
	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, total, err
}
