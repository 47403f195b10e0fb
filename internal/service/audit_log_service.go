package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// 审计动作
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionDuplicate = "duplicate"
	ActionGenerate  = "generate"
	ActionVoid      = "void"
)

// 审计资源类型
const (
	ResourceTemplate = "template"
	ResourceContract = "contract"
	ResourceClient   = "client"
	ResourceOffice   = "office"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	List(ctx context.Context, filter *AuditLogListFilter) ([]*model.AuditLogModel, PaginationInfo, error)
}

// AuditLogListFilter 审计日志查询条件
type AuditLogListFilter struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	ResourceType string `form:"resource_type"`
	ResourceID   string `form:"resource_id"`
	Action       string `form:"action"`
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
	logger    *logrus.Logger
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository, logger *logrus.Logger) AuditLogService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &auditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	officeID := ""
	if id, ok := IdentityFromContext(ctx); ok {
		officeID = id.OfficeID
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		OfficeID:     officeID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    GetRequestID(ctx),
		IP:           GetClientIP(ctx),
		UserAgent:    GetUserAgent(ctx),
		Details:      datatypes.JSON(detailsJSON),
		CreatedAt:    time.Now(),
	}

	if err := s.auditRepo.Save(auditLog); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":        action,
			"resource_type": resourceType,
			"resource_id":   resourceID,
			"error":         err.Error(),
		}).Error("failed to record audit log")
		return err
	}
	return nil
}

// List 查询当前公证处的审计日志
func (s *auditLogService) List(ctx context.Context, filter *AuditLogListFilter) ([]*model.AuditLogModel, PaginationInfo, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, PaginationInfo{}, err
	}
	if filter == nil {
		filter = &AuditLogListFilter{}
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	logs, total, err := s.auditRepo.FindByOffice(&repository.AuditLogFilter{
		OfficeID:     id.OfficeID,
		ResourceType: filter.ResourceType,
		ResourceID:   filter.ResourceID,
		Action:       filter.Action,
		Offset:       (page - 1) * pageSize,
		Limit:        pageSize,
	})
	if err != nil {
		return nil, PaginationInfo{}, err
	}
	return logs, newPagination(page, pageSize, total), nil
}

// record 记录审计日志,失败只写日志不影响主流程
func record(ctx context.Context, svc AuditLogService, action, resourceType, resourceID string, details interface{}) {
	if svc == nil {
		return
	}
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return
	}
	_ = svc.RecordAction(ctx, id.UserID, action, resourceType, resourceID, details)
}
