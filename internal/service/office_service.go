package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/mautops/notary-gin/internal/utils"
	"gorm.io/gorm"
)

// OfficeService 当前公证处资料,供 office_* 系统值使用
type OfficeService interface {
	Get(ctx context.Context) (*model.OfficeModel, error)
	Update(ctx context.Context, req *OfficeRequest) (*model.OfficeModel, error)
}

// OfficeRequest 更新公证处资料的请求
type OfficeRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	NotaryName string `json:"notary_name"`
}

type officeService struct {
	officeRepo  repository.OfficeRepository
	auditLogSvc AuditLogService
	now         func() time.Time
}

// NewOfficeService 创建公证处服务
func NewOfficeService(officeRepo repository.OfficeRepository, auditLogSvc AuditLogService) OfficeService {
	return &officeService{officeRepo: officeRepo, auditLogSvc: auditLogSvc, now: time.Now}
}

// Get 读取当前公证处资料,尚未登记时返回只有 ID 的空资料
func (s *officeService) Get(ctx context.Context) (*model.OfficeModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	office, err := s.officeRepo.FindByID(id.OfficeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.OfficeModel{ID: id.OfficeID}, nil
		}
		return nil, fmt.Errorf("failed to get office: %w", err)
	}
	return office, nil
}

// Update 登记或更新当前公证处资料
func (s *officeService) Update(ctx context.Context, req *OfficeRequest) (*model.OfficeModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidInput("request body is required")
	}
	if err := utils.ValidateTemplateName(req.Name); err != nil {
		return nil, invalidInput("name: %s", err.Error())
	}

	office, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if office.CreatedAt.IsZero() {
		office.CreatedAt = now
	}
	office.Name = strings.TrimSpace(utils.StripControl(req.Name))
	office.Phone = strings.TrimSpace(req.Phone)
	office.Address = strings.TrimSpace(utils.StripControl(req.Address))
	office.NotaryName = strings.TrimSpace(utils.StripControl(req.NotaryName))
	office.UpdatedAt = now

	if err := s.officeRepo.Save(office); err != nil {
		return nil, fmt.Errorf("failed to save office: %w", err)
	}
	record(ctx, s.auditLogSvc, ActionUpdate, ResourceOffice, id.OfficeID, map[string]interface{}{
		"name": office.Name,
	})
	return office, nil
}
