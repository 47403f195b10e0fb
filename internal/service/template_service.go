package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/mautops/notary-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxBodyLength 模板正文最大字符数
const maxBodyLength = 200000

// duplicateSuffix 复制模板时追加到名称后的文字
const duplicateSuffix = " (نسخة)"

// templateSortFields 允许排序的列
var templateSortFields = []string{"name", "created_at", "updated_at", "category", "status"}

// TemplateService 模板服务接口
type TemplateService interface {
	Create(ctx context.Context, req *CreateTemplateRequest) (*model.TemplateModel, error)
	Get(ctx context.Context, id string) (*model.TemplateModel, error)
	Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*model.TemplateModel, error)
	ReplaceFields(ctx context.Context, id string, fields []engine.FieldSpec) (*model.TemplateModel, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*model.TemplateModel, error)
	List(ctx context.Context, filter *TemplateListFilter) (*TemplateListResponse, error)
	Lint(ctx context.Context, id string) (*TokenReport, error)
}

// CreateTemplateRequest 创建模板请求
// @Description 创建合同模板的请求参数
type CreateTemplateRequest struct {
	Name        string             `json:"name" example:"عقد بيع عقار" binding:"required"` // 模板名称
	Category    string             `json:"category" example:"sale" binding:"required"`     // 文书类别
	Description string             `json:"description"`                                    // 模板描述
	Body        string             `json:"body" binding:"required"`                        // 正文
	Status      string             `json:"status" example:"draft"`                         // 状态,默认 draft
	Fields      []engine.FieldSpec `json:"fields"`                                         // 字段定义
}

// UpdateTemplateRequest 更新模板请求
// Fields 为 nil 时保留原有字段,非 nil 时整体替换（空数组表示清空）
// @Description 更新合同模板的请求参数
type UpdateTemplateRequest struct {
	Name        string              `json:"name" binding:"required"`
	Category    string              `json:"category" binding:"required"`
	Description string              `json:"description"`
	Body        string              `json:"body" binding:"required"`
	Status      string              `json:"status"`
	Fields      *[]engine.FieldSpec `json:"fields"`
}

// TemplateListFilter 模板列表查询过滤器
type TemplateListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order"` // asc/desc
}

// TemplateListResponse 模板列表响应
type TemplateListResponse struct {
	Data       []*model.TemplateModel
	Pagination PaginationInfo
}

// 占位符检查结果的状态
const (
	TokenDefined = "defined" // 有字段定义
	TokenSystem  = "system"  // 无定义,按系统值计算
	TokenCatalog = "catalog" // 只在目录中,编译时为空
	TokenUnknown = "unknown" // 无定义也不在目录中,编译时为空
)

// TokenUsage 正文中一个占位符的使用情况
type TokenUsage struct {
	Key    string `json:"key"`
	Count  int    `json:"count"`
	Status string `json:"status"`
	Label  string `json:"label,omitempty"`
}

// TokenReport 模板占位符检查结果
type TokenReport struct {
	TemplateID string       `json:"template_id"`
	Tokens     []TokenUsage `json:"tokens"`
	// UnusedFields 已定义但正文中没有引用的字段
	UnusedFields []string `json:"unused_fields"`
}

// templateService 模板服务实现
type templateService struct {
	templateRepo repository.TemplateRepository
	auditLogSvc  AuditLogService
	logger       *logrus.Logger
	now          func() time.Time
}

// NewTemplateService 创建模板服务
func NewTemplateService(templateRepo repository.TemplateRepository, auditLogSvc AuditLogService, logger *logrus.Logger) TemplateService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &templateService{
		templateRepo: templateRepo,
		auditLogSvc:  auditLogSvc,
		logger:       logger,
		now:          time.Now,
	}
}

// Create 创建模板
func (s *templateService) Create(ctx context.Context, req *CreateTemplateRequest) (*model.TemplateModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidInput("request body is required")
	}
	if err := validateTemplateInput(req.Name, req.Body); err != nil {
		return nil, err
	}

	now := s.now()
	status := req.Status
	if status == "" {
		status = model.TemplateStatusDraft
	}
	tpl := &model.TemplateModel{
		ID:          uuid.New().String(),
		OfficeID:    id.OfficeID,
		CreatedBy:   id.UserID,
		Name:        utils.StripControl(req.Name),
		Category:    req.Category,
		Description: utils.StripControl(req.Description),
		Body:        req.Body,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tpl.Validate(); err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	fields, err := buildFieldModels(tpl.ID, req.Fields, now)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.Create(tpl, fields); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	tpl.Fields = fields

	record(ctx, s.auditLogSvc, ActionCreate, ResourceTemplate, tpl.ID, map[string]interface{}{
		"name":   tpl.Name,
		"fields": len(fields),
	})
	return tpl, nil
}

// Get 获取模板及其字段
func (s *templateService) Get(ctx context.Context, templateID string) (*model.TemplateModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(id.OfficeID, templateID)
}

func (s *templateService) load(officeID, templateID string) (*model.TemplateModel, error) {
	tpl, err := s.templateRepo.FindWithFields(officeID, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// Update 更新模板,正文和字段在同一事务中写入
func (s *templateService) Update(ctx context.Context, templateID string, req *UpdateTemplateRequest) (*model.TemplateModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidInput("request body is required")
	}
	if err := validateTemplateInput(req.Name, req.Body); err != nil {
		return nil, err
	}

	current, err := s.templateRepo.FindByID(id.OfficeID, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get current template: %w", err)
	}

	now := s.now()
	current.Name = utils.StripControl(req.Name)
	current.Category = req.Category
	current.Description = utils.StripControl(req.Description)
	current.Body = req.Body
	if req.Status != "" {
		current.Status = req.Status
	}
	current.UpdatedAt = now
	if err := current.Validate(); err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	if req.Fields == nil {
		err = s.templateRepo.Update(current)
	} else {
		var fields []model.TemplateFieldModel
		fields, err = buildFieldModels(current.ID, *req.Fields, now)
		if err != nil {
			return nil, err
		}
		err = s.templateRepo.UpdateWithFields(current, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	updated, err := s.load(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}
	record(ctx, s.auditLogSvc, ActionUpdate, ResourceTemplate, templateID, map[string]interface{}{
		"name":           updated.Name,
		"status":         updated.Status,
		"fields_changed": req.Fields != nil,
	})
	return updated, nil
}

// ReplaceFields 整体替换模板字段
func (s *templateService) ReplaceFields(ctx context.Context, templateID string, specs []engine.FieldSpec) (*model.TemplateModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := buildFieldModels(templateID, specs, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.ReplaceFields(id.OfficeID, templateID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to replace template fields: %w", err)
	}

	tpl, err := s.load(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}
	record(ctx, s.auditLogSvc, ActionUpdate, ResourceTemplate, templateID, map[string]interface{}{
		"fields": len(fields),
	})
	return tpl, nil
}

// Delete 删除模板
func (s *templateService) Delete(ctx context.Context, templateID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	// 获取模板信息（用于审计日志）
	tpl, _ := s.templateRepo.FindByID(id.OfficeID, templateID)

	if err := s.templateRepo.Delete(id.OfficeID, templateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}

	name := ""
	if tpl != nil {
		name = tpl.Name
	}
	record(ctx, s.auditLogSvc, ActionDelete, ResourceTemplate, templateID, map[string]interface{}{
		"name": name,
	})
	return nil
}

// Duplicate 复制模板,副本为草稿状态
func (s *templateService) Duplicate(ctx context.Context, templateID string) (*model.TemplateModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	src, err := s.load(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dup := &model.TemplateModel{
		ID:          uuid.New().String(),
		OfficeID:    src.OfficeID,
		CreatedBy:   id.UserID,
		Name:        src.Name + duplicateSuffix,
		Category:    src.Category,
		Description: src.Description,
		Body:        src.Body,
		Status:      model.TemplateStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	fields := make([]model.TemplateFieldModel, len(src.Fields))
	for i, f := range src.Fields {
		f.ID = uuid.New().String()
		f.TemplateID = dup.ID
		f.CreatedAt = now
		fields[i] = f
	}

	if err := s.templateRepo.Create(dup, fields); err != nil {
		return nil, fmt.Errorf("failed to duplicate template: %w", err)
	}
	dup.Fields = fields

	record(ctx, s.auditLogSvc, ActionDuplicate, ResourceTemplate, dup.ID, map[string]interface{}{
		"source_id": src.ID,
		"name":      dup.Name,
	})
	return dup, nil
}

// List 查询模板列表
func (s *templateService) List(ctx context.Context, filter *TemplateListFilter) (*TemplateListResponse, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &TemplateListFilter{}
	}

	// 设置默认值
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := filter.Order
	if order == "" {
		order = "desc"
	}

	// 验证排序字段和方向,防止 SQL 注入
	if err := utils.ValidateSortField(sortBy, templateSortFields); err != nil {
		return nil, invalidInput("invalid sort field: %s", err.Error())
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, invalidInput("invalid sort order: %s", err.Error())
	}
	if filter.Category != "" && !model.ValidCategory(filter.Category) {
		return nil, invalidInput("unsupported category %q", filter.Category)
	}
	if filter.Status != "" && !model.ValidTemplateStatus(filter.Status) {
		return nil, invalidInput("unsupported status %q", filter.Status)
	}

	templates, total, err := s.templateRepo.List(&repository.TemplateFilter{
		OfficeID: id.OfficeID,
		Search:   filter.Search,
		Category: filter.Category,
		Status:   filter.Status,
		SortBy:   sortBy,
		Order:    utils.SanitizeSortOrder(order),
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &TemplateListResponse{
		Data:       templates,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// Lint 检查正文中的占位符与字段定义的对应关系
func (s *templateService) Lint(ctx context.Context, templateID string) (*TokenReport, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	tpl, err := s.load(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}
	return LintTemplate(tpl), nil
}

// LintTemplate 统计正文占位符,按出现顺序返回
func LintTemplate(tpl *model.TemplateModel) *TokenReport {
	labels := make(map[string]string, len(tpl.Fields))
	for _, f := range tpl.Fields {
		labels[f.Key] = f.Label
	}

	report := &TokenReport{TemplateID: tpl.ID, Tokens: []TokenUsage{}, UnusedFields: []string{}}
	index := make(map[string]int)
	for _, seg := range engine.Scan(tpl.Body) {
		if !seg.Token {
			continue
		}
		if i, ok := index[seg.Key]; ok {
			report.Tokens[i].Count++
			continue
		}
		usage := TokenUsage{Key: seg.Key, Count: 1}
		if label, ok := labels[seg.Key]; ok {
			usage.Status = TokenDefined
			usage.Label = label
		} else if engine.IsKnownSystemValue(seg.Key) {
			usage.Status = TokenSystem
		} else if entry, ok := engine.LookupCatalog(seg.Key); ok {
			usage.Status = TokenCatalog
			usage.Label = entry.Label
		} else {
			usage.Status = TokenUnknown
		}
		index[seg.Key] = len(report.Tokens)
		report.Tokens = append(report.Tokens, usage)
	}

	for key := range labels {
		if _, used := index[key]; !used {
			report.UnusedFields = append(report.UnusedFields, key)
		}
	}
	sort.Strings(report.UnusedFields)
	return report
}

func validateTemplateInput(name, body string) error {
	if err := utils.ValidateTemplateName(name); err != nil {
		return invalidInput("%s", err.Error())
	}
	if err := utils.ValidateBody(body, maxBodyLength); err != nil {
		return invalidInput("%s", err.Error())
	}
	return nil
}

// buildFieldModels 校验字段定义并转换为数据模型
func buildFieldModels(templateID string, specs []engine.FieldSpec, now time.Time) ([]model.TemplateFieldModel, error) {
	defs, err := engine.BuildDefinitions(specs)
	if err != nil {
		return nil, invalidDefinitions(err)
	}
	fields := make([]model.TemplateFieldModel, 0, len(defs))
	for _, def := range defs {
		fm, err := model.NewTemplateFieldModel(uuid.New().String(), templateID, def)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", def.Key, err)
		}
		fm.CreatedAt = now
		fields = append(fields, fm)
	}
	return fields, nil
}
