package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/mautops/notary-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var clientSortFields = []string{"created_at", "updated_at", "first_name", "last_name", "national_id"}

// ClientService 客户服务接口
type ClientService interface {
	Create(ctx context.Context, req *ClientRequest) (*model.ClientModel, error)
	Get(ctx context.Context, id string) (*model.ClientModel, error)
	Update(ctx context.Context, id string, req *ClientRequest) (*model.ClientModel, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *ClientListFilter) (*ClientListResponse, error)
}

// ClientRequest 创建或更新客户的请求
// 更新时整体覆盖,未提交的可选项被清空
type ClientRequest struct {
	FirstName          string `json:"first_name" binding:"required"`
	LastName           string `json:"last_name" binding:"required"`
	FatherName         string `json:"father_name"`
	MotherName         string `json:"mother_name"`
	FullName           string `json:"full_name"`
	NationalID         string `json:"national_id" binding:"required"`
	IDCardNumber       string `json:"id_card_number"`
	IDIssueDate        string `json:"id_issue_date"`
	IDIssuingAuthority string `json:"id_issuing_authority"`
	BirthDate          string `json:"birth_date"`
	BirthPlace         string `json:"birth_place"`
	BirthCertificate   string `json:"birth_certificate"`
	MaritalStatus      string `json:"marital_status"`
	Nationality        string `json:"nationality"`
	Profession         string `json:"profession"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
}

// ClientListFilter 客户列表查询过滤器
type ClientListFilter struct {
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
	Search        string `form:"search"`
	MaritalStatus string `form:"marital_status"`
	SortBy        string `form:"sort_by"`
	Order         string `form:"order"`
}

// ClientListResponse 客户列表响应
type ClientListResponse struct {
	Data       []*model.ClientModel
	Pagination PaginationInfo
}

type clientService struct {
	clientRepo  repository.ClientRepository
	auditLogSvc AuditLogService
	logger      *logrus.Logger
	now         func() time.Time
}

// NewClientService 创建客户服务
func NewClientService(clientRepo repository.ClientRepository, auditLogSvc AuditLogService, logger *logrus.Logger) ClientService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &clientService{
		clientRepo:  clientRepo,
		auditLogSvc: auditLogSvc,
		logger:      logger,
		now:         time.Now,
	}
}

// Create 创建客户,身份证号在公证处内唯一
func (s *clientService) Create(ctx context.Context, req *ClientRequest) (*model.ClientModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkNationalID(id.OfficeID, req.NationalID, ""); err != nil {
		return nil, err
	}

	now := s.now()
	client := &model.ClientModel{
		ID:        uuid.New().String(),
		OfficeID:  id.OfficeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyClientRequest(client, req)
	if err := s.clientRepo.Save(client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	record(ctx, s.auditLogSvc, ActionCreate, ResourceClient, client.ID, map[string]interface{}{
		"name": client.DisplayName(),
	})
	return client, nil
}

// Get 获取客户
func (s *clientService) Get(ctx context.Context, clientID string) (*model.ClientModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(id.OfficeID, clientID)
}

func (s *clientService) load(officeID, clientID string) (*model.ClientModel, error) {
	client, err := s.clientRepo.FindByID(officeID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// Update 更新客户资料,不影响已生成合同中的快照
func (s *clientService) Update(ctx context.Context, clientID string, req *ClientRequest) (*model.ClientModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}
	client, err := s.load(id.OfficeID, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNationalID(id.OfficeID, req.NationalID, clientID); err != nil {
		return nil, err
	}

	applyClientRequest(client, req)
	client.UpdatedAt = s.now()
	if err := s.clientRepo.Save(client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	record(ctx, s.auditLogSvc, ActionUpdate, ResourceClient, client.ID, map[string]interface{}{
		"name": client.DisplayName(),
	})
	return client, nil
}

// Delete 删除客户
func (s *clientService) Delete(ctx context.Context, clientID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	if err := s.clientRepo.Delete(id.OfficeID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	record(ctx, s.auditLogSvc, ActionDelete, ResourceClient, clientID, nil)
	return nil
}

// List 查询客户列表
func (s *clientService) List(ctx context.Context, filter *ClientListFilter) (*ClientListResponse, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &ClientListFilter{}
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := filter.Order
	if order == "" {
		order = "desc"
	}
	if err := utils.ValidateSortField(sortBy, clientSortFields); err != nil {
		return nil, invalidInput("invalid sort field: %s", err.Error())
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, invalidInput("invalid sort order: %s", err.Error())
	}
	if !model.ValidMaritalStatus(filter.MaritalStatus) {
		return nil, invalidInput("unsupported marital status %q", filter.MaritalStatus)
	}

	clients, total, err := s.clientRepo.List(&repository.ClientFilter{
		OfficeID:      id.OfficeID,
		Search:        strings.TrimSpace(filter.Search),
		MaritalStatus: filter.MaritalStatus,
		SortBy:        sortBy,
		Order:         utils.SanitizeSortOrder(order),
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ClientListResponse{
		Data:       clients,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

func (s *clientService) checkNationalID(officeID, nationalID, excludeID string) error {
	taken, err := s.clientRepo.NationalIDTaken(officeID, strings.TrimSpace(nationalID), excludeID)
	if err != nil {
		return fmt.Errorf("failed to check national id: %w", err)
	}
	if taken {
		return ErrNationalIDTaken
	}
	return nil
}

func validateClientRequest(req *ClientRequest) error {
	if req == nil {
		return invalidInput("request body is required")
	}
	for name, v := range map[string]string{
		"first_name":  req.FirstName,
		"last_name":   req.LastName,
		"national_id": req.NationalID,
	} {
		if _, err := utils.TrimAndValidate(v, 255); err != nil {
			return invalidInput("%s: %s", name, err.Error())
		}
	}
	if !model.ValidMaritalStatus(req.MaritalStatus) {
		return invalidInput("unsupported marital status %q", req.MaritalStatus)
	}
	if len(req.Phone) > 20 {
		return invalidInput("phone exceeds maximum length")
	}
	return nil
}

// applyClientRequest 客户资料以原文保存,模板输出时不做 HTML 转义
func applyClientRequest(c *model.ClientModel, req *ClientRequest) {
	clean := func(s string) string { return strings.TrimSpace(utils.StripControl(s)) }
	c.FirstName = clean(req.FirstName)
	c.LastName = clean(req.LastName)
	c.FatherName = clean(req.FatherName)
	c.MotherName = clean(req.MotherName)
	c.FullName = clean(req.FullName)
	c.NationalID = clean(req.NationalID)
	c.IDCardNumber = clean(req.IDCardNumber)
	c.IDIssueDate = clean(req.IDIssueDate)
	c.IDIssuingAuthority = clean(req.IDIssuingAuthority)
	c.BirthDate = clean(req.BirthDate)
	c.BirthPlace = clean(req.BirthPlace)
	c.BirthCertificate = clean(req.BirthCertificate)
	c.MaritalStatus = req.MaritalStatus
	c.Nationality = clean(req.Nationality)
	c.Profession = clean(req.Profession)
	c.Address = clean(req.Address)
	c.Phone = clean(req.Phone)
}
